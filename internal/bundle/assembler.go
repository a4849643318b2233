// Package bundle turns resolved dependency sets into ordered, deduplicated
// text sections and applies the first-N failures policy.
package bundle

import (
	"sort"
	"strings"

	"failscope/internal/index"
	"failscope/internal/resolve"
)

// Assembler converts dependency sets into sections. The seen set is shared
// across every failure in the run: the first failure to need a symbol emits
// its body, later ones get a reference label. Single-writer by design; a
// concurrent caller must serialize Assemble.
type Assembler struct {
	idx  *index.Index
	seen map[string]bool // (file, qualified name) keys already emitted
}

// NewAssembler creates an assembler with an empty cross-failure seen set.
func NewAssembler(idx *index.Index) *Assembler {
	return &Assembler{
		idx:  idx,
		seen: make(map[string]bool),
	}
}

// Assemble emits one section per file touched by the dependency set. The
// failure's own test file comes first, remaining files in discovery order.
// Bodies appear in original source order regardless of traversal order, and
// a span nested inside an already-included span is folded into it.
func (a *Assembler) Assemble(set *resolve.DependencySet) []Section {
	failureID := set.Failure.TestID

	byFile := make(map[string][]*index.Symbol)
	for _, sym := range set.Symbols {
		byFile[sym.File] = append(byFile[sym.File], sym)
	}

	var sections []Section
	for _, relPath := range set.FileOrder {
		symbols := byFile[relPath]
		sort.SliceStable(symbols, func(i, j int) bool {
			return symbols[i].StartLine < symbols[j].StartLine
		})

		section := Section{
			FailureID:   failureID,
			File:        relPath,
			ImportLines: set.ImportsByFile[relPath],
			Notes:       set.Warnings[relPath],
		}

		file := a.idx.File(relPath)
		lastEnd := 0
		for _, sym := range symbols {
			key := sym.Key()
			if sym.EndLine <= lastEnd {
				// Nested in a span this section already carries (a method
				// inside its emitted class); the owner's text covers it.
				a.seen[key] = true
				continue
			}
			if a.seen[key] {
				section.SeeAlso = append(section.SeeAlso, key)
				continue
			}
			section.SeeAlso = append(section.SeeAlso,
				a.markSpanSeen(relPath, sym.StartLine, sym.EndLine)...)
			section.Bodies = append(section.Bodies, Body{
				Qualified: sym.Qualified,
				Code:      extractLines(file.Lines, sym.StartLine, sym.EndLine),
				StartLine: sym.StartLine,
				EndLine:   sym.EndLine,
			})
			lastEnd = sym.EndLine
		}

		if len(section.Bodies) == 0 && len(section.SeeAlso) == 0 {
			continue
		}
		sections = append(sections, section)
	}

	return sections
}

// markSpanSeen marks every symbol contained in an emitted span as seen, so
// a later failure needing just a method of an already-emitted class gets a
// reference label instead of duplicated text. It returns the contained
// symbols that were already seen: when a method was emitted for an earlier
// failure and the whole class is emitted now, the class body repeats the
// method's text, and the repeat is cross-referenced instead of silent.
func (a *Assembler) markSpanSeen(relPath string, startLine, endLine int) []string {
	var already []string
	for _, sym := range a.idx.SymbolsIn(relPath) {
		if sym.StartLine < startLine || sym.EndLine > endLine {
			continue
		}
		if a.seen[sym.Key()] {
			already = append(already, sym.Key())
			continue
		}
		a.seen[sym.Key()] = true
	}
	return already
}

// extractLines extracts source code lines from startLine to endLine (1-indexed).
func extractLines(lines []string, startLine, endLine int) string {
	if startLine < 1 || endLine < 1 || startLine > len(lines) {
		return ""
	}

	start := startLine - 1
	end := endLine
	if end > len(lines) {
		end = len(lines)
	}

	return strings.Join(lines[start:end], "\n")
}
