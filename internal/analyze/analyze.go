// Package analyze wires the pipeline: index build, failure collection,
// limiting, dependency resolution, and bundle assembly. The CLI stays thin
// on top of Run.
package analyze

import (
	"fmt"
	"io"
	"log"

	"failscope/internal/bundle"
	"failscope/internal/failure"
	"failscope/internal/index"
	"failscope/internal/resolve"
)

// Options are the plain values the CLI layer passes in.
type Options struct {
	ProjectRoot    string
	TestDir        string
	NumberOfIssues int      // 0 means all failures
	IgnorePatterns []string // nil means defaults
}

// Run indexes the project, parses the runner report, and produces the
// extraction bundle. Failures resolve independently; only a missing project
// root or test directory fails the run, before any resolution work begins.
func Run(opts Options, report io.Reader) (*bundle.Bundle, error) {
	idx, err := index.Build(opts.ProjectRoot, opts.TestDir, opts.IgnorePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to index project: %w", err)
	}

	records := bundle.Limit(failure.Parse(report), opts.NumberOfIssues)
	assembler := bundle.NewAssembler(idx)

	result := &bundle.Bundle{}
	for rec := range records {
		set := resolve.Resolve(&rec, idx)

		fb := bundle.FailureBundle{
			Record:   rec,
			Sections: assembler.Assemble(set),
		}
		if set.SeedUnparseable {
			fb.Diagnostics = append(fb.Diagnostics,
				fmt.Sprintf("source file for %s could not be parsed; no code extracted", rec.TestID))
		}
		if rec.Partial {
			log.Printf("Warning: failure block for %q was only partially parsed", rec.TestID)
		}

		result.Failures = append(result.Failures, fb)
	}

	return result, nil
}
