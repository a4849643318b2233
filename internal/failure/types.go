package failure

// Frame is one traceback stack frame, ordered outermost first.
type Frame struct {
	File     string // Path exactly as printed by the runner
	Line     int
	Function string // Enclosing function or method name, "" when absent
}

// Record is one reported test failure. Immutable once parsed.
type Record struct {
	TestID    string  // Module-qualified identifier, e.g. "tests.test_a.TestA.test_f"
	TestName  string  // Bare test method name
	TestClass string  // Enclosing test class, "" when unknown
	File      string  // File where the test is defined (from its traceback frame)
	Line      int     // Line of the failing test's frame
	Status    string  // "FAIL" or "ERROR"
	Message   string  // Trailing assertion/error message, may be multi-line
	Frames    []Frame // Ordered stack frames
	Raw       string  // The complete output block for this failure
	Partial   bool    // Block was malformed; kept rather than dropped
}
