package index

// SymbolKind represents the type of a code definition.
type SymbolKind string

const (
	SymbolFunction SymbolKind = "function"
	SymbolMethod   SymbolKind = "method"
	SymbolClass    SymbolKind = "class"
	SymbolVariable SymbolKind = "variable"
)

// Symbol represents one named definition with its source location.
type Symbol struct {
	File      string     // Relative file path
	Name      string     // Bare name (e.g., "save")
	Qualified string     // Dotted nesting (e.g., "UserRepository.save")
	Kind      SymbolKind // Type of definition
	StartLine int        // Start line number, 1-indexed; includes decorators
	EndLine   int        // End line number, 1-indexed
	Refs      []string   // Names referenced in the body, excluding parameters
}

// Key returns the stable identity of the symbol: (file path, qualified name).
func (s *Symbol) Key() string {
	return s.File + ":" + s.Qualified
}

// ImportedName is one name bound by an import statement.
type ImportedName struct {
	Name  string // Original name (e.g., "helper" or "utils")
	Alias string // Alias if present ("" when not aliased)
}

// Local returns the name the import binds in the importing file.
func (n ImportedName) Local() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Name
}

// Import represents one top-level import statement.
type Import struct {
	Statement string         // Verbatim statement text
	Module    string         // Module string ("" for bare relative imports)
	Level     int            // Relative import level (number of leading dots)
	Names     []ImportedName // Names bound by the statement
	FromList  bool           // true for "from X import ..." statements
	StartLine int
}

// SourceFile is one indexed file. Immutable after Build.
type SourceFile struct {
	Path        string    // Relative to project root
	Lines       []string  // Raw source split on newlines
	Imports     []Import  // Top-level imports in source order
	Symbols     []*Symbol // Definitions in source order
	Unparseable bool      // Parse/read failed; excluded from resolution
}

// ResolutionKind tags the outcome of a name lookup.
type ResolutionKind int

const (
	// Resolved means the name maps to exactly one local symbol.
	Resolved ResolutionKind = iota
	// Ambiguous means multiple local symbols share the name and no import
	// context disambiguates them. All candidates are surfaced.
	Ambiguous
	// External means the name is imported from outside the indexed project.
	External
	// Unresolved means the name could not be mapped to anything known.
	Unresolved
)

// Resolution is the tagged result of ResolveName. Callers must handle all
// four kinds.
type Resolution struct {
	Kind       ResolutionKind
	Symbol     *Symbol   // Set when Kind == Resolved
	Candidates []*Symbol // Set when Kind == Ambiguous
	ImportLine string    // Verbatim import statement when Kind == External
}
