package index

import (
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dominikbraun/graph"
)

// Ambiguity records a reference that matched several same-named symbols.
type Ambiguity struct {
	Name       string
	Candidates []*Symbol
}

// Index is the read-only symbol table for one project. Built once per run;
// reruns rebuild from scratch.
type Index struct {
	rootDir string
	testDir string

	files     map[string]*SourceFile
	fileOrder []string
	moduleMap map[string]string // module name -> relative file path

	// Reference graph: vertices are symbols keyed by file:qualified-name,
	// edges point from a symbol to the symbols its body references.
	refGraph graph.Graph[string, *Symbol]

	// callees preserves deterministic edge order alongside the graph, the
	// way the searcher keeps reverse indexes next to its vertex store.
	callees map[string][]string

	ambiguities map[string][]Ambiguity // symbol key -> unresolved same-name matches
}

// Build walks the project tree, parses every Python file once, and wires the
// reference graph. A file that fails to parse is recorded and skipped; a
// missing root or test directory is the only fatal condition. Nil
// ignorePatterns means DefaultIgnorePatterns.
func Build(rootDir, testDir string, ignorePatterns []string) (*Index, error) {
	info, err := os.Stat(rootDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", rootDir)
	}
	if _, err := os.Stat(filepath.Join(rootDir, testDir)); err != nil {
		return nil, fmt.Errorf("test directory %s not found under %s", testDir, rootDir)
	}

	if ignorePatterns == nil {
		ignorePatterns = DefaultIgnorePatterns
	}

	// Fixture trees under the test directory are indexed like any other
	// source: their code only reaches the output when a traceback frame or
	// a resolved reference points into them.
	disc, err := newDiscovery(rootDir, ignorePatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid ignore pattern: %w", err)
	}
	relPaths, err := disc.discoverFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", rootDir, err)
	}

	idx := &Index{
		rootDir:     rootDir,
		testDir:     testDir,
		files:       make(map[string]*SourceFile),
		moduleMap:   make(map[string]string),
		callees:     make(map[string][]string),
		ambiguities: make(map[string][]Ambiguity),
	}

	parser := newPythonParser()
	for _, relPath := range relPaths {
		source, err := os.ReadFile(filepath.Join(rootDir, relPath))
		var file *SourceFile
		if err != nil {
			log.Printf("Warning: failed to read %s: %v", relPath, err)
			file = &SourceFile{Path: relPath, Unparseable: true}
		} else {
			file = parser.parseFile(relPath, source)
			if file.Unparseable {
				log.Printf("Warning: failed to parse %s, excluding from resolution", relPath)
			}
		}
		idx.files[relPath] = file
		idx.fileOrder = append(idx.fileOrder, relPath)
		idx.moduleMap[moduleName(relPath)] = relPath
	}

	idx.buildReferenceGraph()

	return idx, nil
}

// moduleName turns sub/mod.py into sub.mod and pkg/__init__.py into pkg.
func moduleName(relPath string) string {
	name := strings.TrimSuffix(filepath.ToSlash(relPath), ".py")
	name = strings.ReplaceAll(name, "/", ".")
	name = strings.TrimSuffix(name, ".__init__")
	return name
}

// buildReferenceGraph adds every symbol as a vertex and every resolvable
// reference as a directed edge. Ambiguous references edge to all candidates
// and are remembered for warning annotations.
func (idx *Index) buildReferenceGraph() {
	idx.refGraph = graph.New(func(s *Symbol) string { return s.Key() }, graph.Directed())

	for _, relPath := range idx.fileOrder {
		for _, sym := range idx.files[relPath].Symbols {
			_ = idx.refGraph.AddVertex(sym)
		}
	}

	for _, relPath := range idx.fileOrder {
		for _, sym := range idx.files[relPath].Symbols {
			for _, ref := range sym.Refs {
				res := idx.resolveForSymbol(sym, ref)
				switch res.Kind {
				case Resolved:
					idx.addEdge(sym.Key(), res.Symbol.Key())
				case Ambiguous:
					idx.ambiguities[sym.Key()] = append(idx.ambiguities[sym.Key()], Ambiguity{
						Name:       ref,
						Candidates: res.Candidates,
					})
					for _, cand := range res.Candidates {
						idx.addEdge(sym.Key(), cand.Key())
					}
				}
			}
		}
	}
}

func (idx *Index) addEdge(from, to string) {
	if from == to {
		return
	}
	if err := idx.refGraph.AddEdge(from, to); err != nil {
		// Duplicate edges are expected when a name is referenced twice.
		return
	}
	idx.callees[from] = append(idx.callees[from], to)
}

// resolveForSymbol resolves a reference the way the symbol's body sees it,
// translating self/cls through the enclosing class first.
func (idx *Index) resolveForSymbol(sym *Symbol, ref string) Resolution {
	root, rest, dotted := strings.Cut(ref, ".")
	if (root == "self" || root == "cls") && sym.Kind == SymbolMethod && dotted {
		if classQual, ok := enclosingClass(sym.Qualified); ok {
			res := idx.ResolveName(sym.File, classQual+"."+rest)
			if res.Kind != Unresolved {
				return res
			}
		}
		return Resolution{Kind: Unresolved}
	}
	return idx.ResolveName(sym.File, ref)
}

// enclosingClass strips the method name from a qualified name: "C.D.m" -> "C.D".
func enclosingClass(qualified string) (string, bool) {
	i := strings.LastIndexByte(qualified, '.')
	if i < 0 {
		return "", false
	}
	return qualified[:i], true
}

// ResolveName resolves a name as used in usingFile to a local symbol, an
// external import, or nothing. Resolution order: the file's own imports,
// the file's own definitions, then a project-wide search. A project-wide
// match with several candidates is surfaced as Ambiguous, never guessed.
func (idx *Index) ResolveName(usingFile, name string) Resolution {
	file := idx.files[usingFile]
	if file == nil || file.Unparseable {
		return Resolution{Kind: Unresolved}
	}

	root, rest, _ := strings.Cut(name, ".")

	// Import context wins.
	for i := range file.Imports {
		imp := &file.Imports[i]
		for _, bound := range imp.Names {
			if bound.Local() != root {
				continue
			}
			if res, ok := idx.resolveThroughImport(file, imp, bound, rest); ok {
				return res
			}
		}
	}

	// The file's own definitions.
	if sym := idx.lookupIn(usingFile, name); sym != nil {
		return Resolution{Kind: Resolved, Symbol: sym}
	}

	// Project-wide fallback: no import context, so same-named matches in
	// different files stay ambiguous.
	var candidates []*Symbol
	for _, relPath := range idx.fileOrder {
		if relPath == usingFile {
			continue
		}
		if sym := idx.lookupIn(relPath, name); sym != nil {
			candidates = append(candidates, sym)
		}
	}
	switch len(candidates) {
	case 0:
		return Resolution{Kind: Unresolved}
	case 1:
		return Resolution{Kind: Resolved, Symbol: candidates[0]}
	default:
		return Resolution{Kind: Ambiguous, Candidates: candidates}
	}
}

// resolveThroughImport follows one import binding. The second return is
// false when the binding does not answer the lookup and resolution should
// fall through to the next strategy.
func (idx *Index) resolveThroughImport(file *SourceFile, imp *Import, bound ImportedName, rest string) (Resolution, bool) {
	targetPath := idx.resolveModule(file.Path, imp.Module, imp.Level)

	if imp.FromList {
		// from M import name: the binding is a symbol (or submodule) of M.
		if targetPath == "" {
			return Resolution{Kind: External, ImportLine: imp.Statement}, true
		}
		lookup := bound.Name
		if rest != "" {
			lookup += "." + rest
		}
		if sym := idx.lookupIn(targetPath, lookup); sym != nil {
			return Resolution{Kind: Resolved, Symbol: sym}, true
		}
		// The imported name may itself be a submodule of a package.
		if subPath := idx.resolveModule(file.Path, joinModule(imp.Module, bound.Name), imp.Level); subPath != "" {
			if rest == "" {
				return Resolution{Kind: External, ImportLine: imp.Statement}, true
			}
			if sym := idx.lookupIn(subPath, rest); sym != nil {
				return Resolution{Kind: Resolved, Symbol: sym}, true
			}
		}
		return Resolution{Kind: Unresolved}, true
	}

	// import M [as alias]: the binding is the module itself.
	if targetPath == "" {
		return Resolution{Kind: External, ImportLine: imp.Statement}, true
	}
	if rest == "" {
		// A bare module reference needs only its import line.
		return Resolution{Kind: External, ImportLine: imp.Statement}, true
	}
	if sym := idx.lookupIn(targetPath, rest); sym != nil {
		return Resolution{Kind: Resolved, Symbol: sym}, true
	}
	return Resolution{Kind: Unresolved}, true
}

func joinModule(module, name string) string {
	if module == "" {
		return name
	}
	return module + "." + name
}

// resolveModule maps a module string (possibly relative) to an indexed file
// path, or "" when the module is not part of the project.
func (idx *Index) resolveModule(baseFile, module string, level int) string {
	if level == 0 {
		if p, ok := idx.moduleMap[module]; ok {
			return p
		}
		return ""
	}

	// One leading dot anchors at the importing file's package; each extra
	// dot climbs one package.
	dir := path.Dir(filepath.ToSlash(baseFile))
	for i := 1; i < level; i++ {
		dir = path.Dir(dir)
	}

	prefix := ""
	if dir != "." && dir != "/" {
		prefix = strings.ReplaceAll(dir, "/", ".")
	}

	full := joinModule(prefix, module)
	if full != "" {
		if p, ok := idx.moduleMap[full]; ok {
			return p
		}
	}
	if p, ok := idx.moduleMap[module]; ok {
		return p
	}
	return ""
}

// lookupIn finds a symbol by qualified name within one file.
func (idx *Index) lookupIn(relPath, qualified string) *Symbol {
	file := idx.files[relPath]
	if file == nil || file.Unparseable {
		return nil
	}
	for _, sym := range file.Symbols {
		if sym.Qualified == qualified {
			return sym
		}
	}
	return nil
}

// SymbolsIn returns the file's symbols in source order, nil for unknown or
// unparseable files.
func (idx *Index) SymbolsIn(relPath string) []*Symbol {
	file := idx.files[relPath]
	if file == nil || file.Unparseable {
		return nil
	}
	return file.Symbols
}

// SymbolAt returns the innermost symbol enclosing the given line, or nil.
func (idx *Index) SymbolAt(relPath string, line int) *Symbol {
	var best *Symbol
	for _, sym := range idx.SymbolsIn(relPath) {
		if line < sym.StartLine || line > sym.EndLine {
			continue
		}
		if best == nil || sym.StartLine >= best.StartLine && sym.EndLine <= best.EndLine {
			best = sym
		}
	}
	return best
}

// File returns the indexed file for a relative path, nil when unknown.
func (idx *Index) File(relPath string) *SourceFile {
	return idx.files[relPath]
}

// Unparseable reports whether a path was indexed but could not be parsed.
func (idx *Index) Unparseable(relPath string) bool {
	file := idx.files[relPath]
	return file != nil && file.Unparseable
}

// ReferencesFrom returns the keys of symbols referenced by the given symbol
// key, in the deterministic order edges were added.
func (idx *Index) ReferencesFrom(key string) []string {
	return idx.callees[key]
}

// SymbolByKey looks a symbol up in the reference graph by its stable key.
func (idx *Index) SymbolByKey(key string) (*Symbol, bool) {
	sym, err := idx.refGraph.Vertex(key)
	if err != nil {
		return nil, false
	}
	return sym, true
}

// AmbiguitiesOf returns the ambiguous references recorded for a symbol.
func (idx *Index) AmbiguitiesOf(key string) []Ambiguity {
	return idx.ambiguities[key]
}

// RelPath normalizes an absolute or root-prefixed path from a traceback to
// the index's relative form.
func (idx *Index) RelPath(p string) string {
	p = filepath.ToSlash(p)
	root := filepath.ToSlash(idx.rootDir)
	if strings.HasPrefix(p, root+"/") {
		return strings.TrimPrefix(p, root+"/")
	}
	if rel, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(rel, "..") && filepath.IsAbs(p) {
		return filepath.ToSlash(rel)
	}
	return strings.TrimPrefix(p, "./")
}
