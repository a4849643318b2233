package bundle

import "failscope/internal/failure"

// Body is one symbol's source span, emitted at most once per run.
type Body struct {
	Qualified string
	Code      string
	StartLine int
	EndLine   int
}

// Section is the extracted view of one source file for one failure.
type Section struct {
	FailureID   string   // Originating failure
	File        string   // Relative file path (the section header)
	ImportLines []string // Verbatim import statements the bodies need
	Bodies      []Body   // Symbol spans in source order
	SeeAlso     []string // Labels of symbols already emitted for an earlier failure
	Notes       []string // Ambiguity warnings attached to this section
}

// FailureBundle groups one failure's sections with its original report text.
type FailureBundle struct {
	Record      failure.Record
	Sections    []Section
	Diagnostics []string // e.g. the seed file was unparseable
}

// Bundle is the run's sole output artifact: every processed failure in
// report order, bodies globally deduplicated across all of them.
type Bundle struct {
	Failures []FailureBundle
}
