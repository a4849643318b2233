// Package resolve computes, for one test failure, the transitive closure of
// symbols required to understand it: the failing test's own definition,
// every symbol named by a traceback frame, and everything those symbols
// reference, recursively.
package resolve

import (
	"strings"

	"failscope/internal/failure"
	"failscope/internal/index"
)

// DependencySet is the resolved closure for one failure. Transient: built
// here, consumed once by the assembler.
type DependencySet struct {
	Failure *failure.Record

	// Symbols in discovery order; FileOrder tracks the first-touch order of
	// their owning files so the assembler can emit the test file first.
	Symbols   []*index.Symbol
	FileOrder []string

	// ImportsByFile holds, per involved file, the verbatim import lines
	// whose bound names are referenced by at least one visited symbol in
	// that file. External references surface here and are never expanded.
	ImportsByFile map[string][]string

	// Warnings carries ambiguous-resolution notes for the dependent
	// sections, keyed by file path.
	Warnings map[string][]string

	// SeedUnparseable is set when the failure's own file could not be
	// parsed, leaving nothing to resolve.
	SeedUnparseable bool

	visited map[string]bool
}

// Has reports whether the closure contains the symbol key.
func (d *DependencySet) Has(key string) bool {
	return d.visited[key]
}

// Resolve walks the reference graph breadth-first from the failure's seed
// symbols. Every discovered symbol enters the visited set before its own
// references are expanded, which bounds the traversal on cyclic reference
// graphs. Resolution never fails for a given failure: names that go nowhere
// stay as import annotations and everything else proceeds.
func Resolve(rec *failure.Record, idx *index.Index) *DependencySet {
	set := &DependencySet{
		Failure:       rec,
		ImportsByFile: make(map[string][]string),
		Warnings:      make(map[string][]string),
		visited:       make(map[string]bool),
	}

	seeds := seedSymbols(rec, idx)
	if len(seeds) == 0 {
		if rec.File != "" && idx.Unparseable(idx.RelPath(rec.File)) {
			set.SeedUnparseable = true
		}
		return set
	}

	// Worklist BFS with dedup on (file, qualified name). Unbounded depth:
	// omitting a transitively needed definition would leave the extracted
	// code unexplained.
	queue := make([]*index.Symbol, 0, len(seeds))
	for _, sym := range seeds {
		if !set.visited[sym.Key()] {
			set.visited[sym.Key()] = true
			queue = append(queue, sym)
		}
	}

	for len(queue) > 0 {
		sym := queue[0]
		queue = queue[1:]
		set.addSymbol(sym)

		for _, amb := range idx.AmbiguitiesOf(sym.Key()) {
			note := "ambiguous reference " + amb.Name + " in " + sym.Qualified + ": kept all candidates"
			set.Warnings[sym.File] = append(set.Warnings[sym.File], note)
		}

		for _, refKey := range idx.ReferencesFrom(sym.Key()) {
			if set.visited[refKey] {
				continue
			}
			target, ok := idx.SymbolByKey(refKey)
			if !ok {
				continue
			}
			set.visited[refKey] = true
			queue = append(queue, target)
		}
	}

	set.collectImports(idx)

	return set
}

// seedSymbols finds the test's defining symbol plus the symbol enclosing
// each traceback frame. Frames outside the index (external library code,
// module-level execution) seed nothing.
func seedSymbols(rec *failure.Record, idx *index.Index) []*index.Symbol {
	var seeds []*index.Symbol

	if rec.File != "" {
		if sym := idx.SymbolAt(idx.RelPath(rec.File), rec.Line); sym != nil {
			seeds = append(seeds, sym)
		}
	}

	for _, frame := range rec.Frames {
		if sym := idx.SymbolAt(idx.RelPath(frame.File), frame.Line); sym != nil {
			seeds = append(seeds, sym)
		}
	}

	return seeds
}

func (d *DependencySet) addSymbol(sym *index.Symbol) {
	d.Symbols = append(d.Symbols, sym)
	for _, f := range d.FileOrder {
		if f == sym.File {
			return
		}
	}
	d.FileOrder = append(d.FileOrder, sym.File)
}

// collectImports keeps, for each involved file, the subset of its import
// statements whose bound names appear in some visited symbol's references.
// The statement text is preserved verbatim so the extracted code stays
// syntactically plausible; external bodies are never fetched.
func (d *DependencySet) collectImports(idx *index.Index) {
	refsByFile := make(map[string]map[string]bool)
	for _, sym := range d.Symbols {
		refs := refsByFile[sym.File]
		if refs == nil {
			refs = make(map[string]bool)
			refsByFile[sym.File] = refs
		}
		for _, ref := range sym.Refs {
			refs[ref] = true
			if root, _, ok := strings.Cut(ref, "."); ok {
				refs[root] = true
			}
		}
	}

	for _, relPath := range d.FileOrder {
		file := idx.File(relPath)
		if file == nil {
			continue
		}
		refs := refsByFile[relPath]
		for _, imp := range file.Imports {
			if importUsed(imp, refs) {
				d.ImportsByFile[relPath] = append(d.ImportsByFile[relPath], imp.Statement)
			}
		}
	}
}

func importUsed(imp index.Import, refs map[string]bool) bool {
	for _, bound := range imp.Names {
		if bound.Name == "*" {
			return true
		}
		if refs[bound.Local()] {
			return true
		}
	}
	return false
}
