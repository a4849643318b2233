package index

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// pythonParser extracts imports, definitions, and referenced names from
// Python source using tree-sitter.
type pythonParser struct {
	language *sitter.Language
}

func newPythonParser() *pythonParser {
	return &pythonParser{language: sitter.NewLanguage(python.Language())}
}

// parseFile parses one file's source into a SourceFile. A nil tree from
// tree-sitter marks the file unparseable; indexing continues elsewhere.
func (p *pythonParser) parseFile(relPath string, source []byte) *SourceFile {
	file := &SourceFile{
		Path:  relPath,
		Lines: strings.Split(string(source), "\n"),
	}

	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(p.language)

	tree := parser.Parse(source, nil)
	if tree == nil {
		file.Unparseable = true
		return file
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		file.Unparseable = true
		return file
	}

	p.extractImports(root, source, file)
	p.extractDefinitions(root, source, file, "")

	return file
}

// extractImports collects top-level import statements verbatim, with the
// names each one binds.
func (p *pythonParser) extractImports(root *sitter.Node, source []byte, file *SourceFile) {
	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		switch child.Kind() {
		case "import_statement":
			file.Imports = append(file.Imports, p.parseImport(child, source))
		case "import_from_statement":
			file.Imports = append(file.Imports, p.parseImportFrom(child, source))
		}
	}
}

// parseImport handles "import a.b, c as d".
func (p *pythonParser) parseImport(node *sitter.Node, source []byte) Import {
	imp := Import{
		Statement: nodeText(node, source),
		StartLine: int(node.StartPosition().Row) + 1,
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "dotted_name":
			name := nodeText(child, source)
			imp.Names = append(imp.Names, ImportedName{Name: name})
			if imp.Module == "" {
				imp.Module = name
			}
		case "aliased_import":
			name := nodeText(child.ChildByFieldName("name"), source)
			alias := nodeText(child.ChildByFieldName("alias"), source)
			imp.Names = append(imp.Names, ImportedName{Name: name, Alias: alias})
			if imp.Module == "" {
				imp.Module = name
			}
		}
	}

	return imp
}

// parseImportFrom handles "from .mod import x as y, z". Children before the
// "import" keyword describe the module; children after it are the bound
// names.
func (p *pythonParser) parseImportFrom(node *sitter.Node, source []byte) Import {
	imp := Import{
		Statement: nodeText(node, source),
		FromList:  true,
		StartLine: int(node.StartPosition().Row) + 1,
	}

	seenImportKeyword := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "import":
			seenImportKeyword = true
		case "relative_import":
			// import_prefix dots, optionally followed by a dotted name
			text := nodeText(child, source)
			imp.Level = strings.Count(text, ".") - strings.Count(strings.TrimLeft(text, "."), ".")
			imp.Module = strings.TrimLeft(text, ".")
		case "dotted_name":
			if !seenImportKeyword {
				imp.Module = nodeText(child, source)
			} else {
				imp.Names = append(imp.Names, ImportedName{Name: nodeText(child, source)})
			}
		case "aliased_import":
			imp.Names = append(imp.Names, ImportedName{
				Name:  nodeText(child.ChildByFieldName("name"), source),
				Alias: nodeText(child.ChildByFieldName("alias"), source),
			})
		case "wildcard_import":
			imp.Names = append(imp.Names, ImportedName{Name: "*"})
		}
	}

	return imp
}

// extractDefinitions walks one nesting level and records every definition,
// recursing into class bodies with a dotted prefix.
func (p *pythonParser) extractDefinitions(scope *sitter.Node, source []byte, file *SourceFile, prefix string) {
	for i := uint(0); i < scope.ChildCount(); i++ {
		child := scope.Child(i)

		def := child
		spanStart := child
		if child.Kind() == "decorated_definition" {
			def = child.ChildByFieldName("definition")
			if def == nil {
				continue
			}
		}

		switch def.Kind() {
		case "function_definition":
			p.extractFunction(def, spanStart, source, file, prefix)
		case "class_definition":
			p.extractClass(def, spanStart, source, file, prefix)
		case "expression_statement":
			if assign := findChildByKind(def, "assignment"); assign != nil && prefix == "" {
				p.extractAssignment(assign, source, file)
			}
		}
	}
}

func (p *pythonParser) extractFunction(node, spanStart *sitter.Node, source []byte, file *SourceFile, prefix string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, source)

	kind := SymbolFunction
	if prefix != "" {
		kind = SymbolMethod
	}

	// Refs cover the whole span (decorators, annotations, body) since the
	// span is what gets emitted.
	params := collectParamNames(node.ChildByFieldName("parameters"), source)
	refs := collectReferencedNames(spanStart, source, params, name)

	sym := &Symbol{
		File:      file.Path,
		Name:      name,
		Qualified: qualify(prefix, name),
		Kind:      kind,
		StartLine: int(spanStart.StartPosition().Row) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
		Refs:      refs,
	}
	file.Symbols = append(file.Symbols, sym)

	// Nested defs live inside the function body under the function's name.
	if body := node.ChildByFieldName("body"); body != nil {
		p.extractDefinitions(body, source, file, sym.Qualified)
	}
}

func (p *pythonParser) extractClass(node, spanStart *sitter.Node, source []byte, file *SourceFile, prefix string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, source)

	// A class body is emitted whole, so its reference set must cover the
	// entire body plus superclasses and decorators.
	refs := collectReferencedNames(spanStart, source, nil, name)

	sym := &Symbol{
		File:      file.Path,
		Name:      name,
		Qualified: qualify(prefix, name),
		Kind:      SymbolClass,
		StartLine: int(spanStart.StartPosition().Row) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
		Refs:      refs,
	}
	file.Symbols = append(file.Symbols, sym)

	if body := node.ChildByFieldName("body"); body != nil {
		p.extractDefinitions(body, source, file, sym.Qualified)
	}
}

func (p *pythonParser) extractAssignment(node *sitter.Node, source []byte, file *SourceFile) {
	left := node.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return
	}
	name := nodeText(left, source)

	var refs []string
	if right := node.ChildByFieldName("right"); right != nil {
		refs = collectReferencedNames(right, source, nil, name)
	}

	file.Symbols = append(file.Symbols, &Symbol{
		File:      file.Path,
		Name:      name,
		Qualified: name,
		Kind:      SymbolVariable,
		StartLine: int(node.StartPosition().Row) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
		Refs:      refs,
	})
}

// collectParamNames gathers the parameter names of a function definition.
func collectParamNames(params *sitter.Node, source []byte) map[string]bool {
	names := map[string]bool{}
	if params == nil {
		return names
	}

	for i := uint(0); i < params.ChildCount(); i++ {
		child := params.Child(i)
		switch child.Kind() {
		case "identifier":
			names[nodeText(child, source)] = true
		case "default_parameter", "typed_default_parameter":
			if n := child.ChildByFieldName("name"); n != nil && n.Kind() == "identifier" {
				names[nodeText(n, source)] = true
			}
		case "typed_parameter", "list_splat_pattern", "dictionary_splat_pattern":
			if n := findChildByKind(child, "identifier"); n != nil {
				names[nodeText(n, source)] = true
			}
		}
	}

	return names
}

// collectReferencedNames walks a definition body and returns every
// identifier read there, dotted attribute chains included, minus the
// parameters and the definition's own name. Order is first occurrence.
func collectReferencedNames(body *sitter.Node, source []byte, params map[string]bool, selfName string) []string {
	var refs []string
	seen := map[string]bool{}

	add := func(name string) {
		if name == "" || name == selfName || params[name] || seen[name] {
			return
		}
		root := name
		if i := strings.IndexByte(name, '.'); i >= 0 {
			root = name[:i]
		}
		if params[root] && root != "self" && root != "cls" {
			return
		}
		seen[name] = true
		refs = append(refs, name)
	}

	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "identifier":
			add(nodeText(n, source))
			return
		case "attribute":
			// Pure identifier chains become one dotted reference plus the
			// root name; anything else keeps descending into the object.
			if chain, ok := dottedChain(n, source); ok {
				add(chain)
				if i := strings.IndexByte(chain, '.'); i >= 0 {
					add(chain[:i])
				}
				return
			}
			visit(n.ChildByFieldName("object"))
			return
		case "keyword_argument":
			visit(n.ChildByFieldName("value"))
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			visit(n.Child(i))
		}
	}
	visit(body)

	return refs
}

// dottedChain flattens attribute nodes like a.b.c into "a.b.c" when every
// link is a plain identifier.
func dottedChain(node *sitter.Node, source []byte) (string, bool) {
	var parts []string
	current := node
	for current.Kind() == "attribute" {
		attr := current.ChildByFieldName("attribute")
		if attr == nil || attr.Kind() != "identifier" {
			return "", false
		}
		parts = append(parts, nodeText(attr, source))
		current = current.ChildByFieldName("object")
		if current == nil {
			return "", false
		}
	}
	if current.Kind() != "identifier" {
		return "", false
	}
	parts = append(parts, nodeText(current, source))

	// Reverse: chain was collected right to left.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "."), true
}

// nodeText extracts the text content of a tree-sitter node.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// findChildByKind finds the first child node with the given kind.
func findChildByKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child.Kind() == kind {
			return child
		}
	}
	return nil
}

func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
