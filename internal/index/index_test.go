package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the Source Index:
// - Build walks the project, skipping ignored paths
// - Test fixture files are indexed and resolvable like any other source
// - Unreadable/unparseable files are recorded, not fatal
// - Missing project root or test directory is fatal
// - ResolveName follows import context first, then the file itself, then
//   a project-wide search; all four resolution kinds are reachable
// - Relative imports resolve within packages
// - SymbolAt returns the innermost enclosing definition
// - The reference graph carries resolved edges in deterministic order

const fixtureRoot = "../../testdata/project"

func buildFixtureIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Build(fixtureRoot, "tests", nil)
	require.NoError(t, err)
	return idx
}

func TestBuild_FatalConditions(t *testing.T) {
	t.Parallel()

	_, err := Build("../../testdata/does-not-exist", "tests", nil)
	assert.Error(t, err)

	_, err = Build(fixtureRoot, "no-such-tests", nil)
	assert.Error(t, err)
}

func TestBuild_Discovery(t *testing.T) {
	t.Parallel()

	idx := buildFixtureIndex(t)

	assert.NotNil(t, idx.File("a.py"))
	assert.NotNil(t, idx.File("pkg/helpers.py"))
	assert.NotNil(t, idx.File("tests/test_a.py"))

	// Fixture trees under the test directory are indexed too: a traceback
	// can land inside a fixture module a test imports and executes.
	require.NotNil(t, idx.File("tests/fixtures/factory.py"))
	sym := idx.SymbolAt("tests/fixtures/factory.py", 2)
	require.NotNil(t, sym)
	assert.Equal(t, "make_user", sym.Qualified)

	res := idx.ResolveName("tests/test_a.py", "make_user")
	require.Equal(t, Resolved, res.Kind)
	assert.Equal(t, "tests/fixtures/factory.py", res.Symbol.File)

	// Syntax errors are non-fatal but exclude the file from resolution.
	assert.True(t, idx.Unparseable("broken.py"))
	assert.Nil(t, idx.SymbolsIn("broken.py"))
}

func TestResolveName_ImportContext(t *testing.T) {
	t.Parallel()

	idx := buildFixtureIndex(t)

	res := idx.ResolveName("a.py", "g")
	require.Equal(t, Resolved, res.Kind)
	assert.Equal(t, "b.py", res.Symbol.File)
	assert.Equal(t, "g", res.Symbol.Qualified)

	// Aliased module import: the body is external, the line is preserved.
	res = idx.ResolveName("models.py", "j.dumps")
	require.Equal(t, External, res.Kind)
	assert.Equal(t, "import json as j", res.ImportLine)

	res = idx.ResolveName("models.py", "os.path.expanduser")
	require.Equal(t, External, res.Kind)
	assert.Equal(t, "import os", res.ImportLine)
}

func TestResolveName_RelativeImport(t *testing.T) {
	t.Parallel()

	idx := buildFixtureIndex(t)

	res := idx.ResolveName("pkg/helpers.py", "local_func")
	require.Equal(t, Resolved, res.Kind)
	assert.Equal(t, "pkg/local.py", res.Symbol.File)
}

func TestResolveName_SameFileAndGlobal(t *testing.T) {
	t.Parallel()

	idx := buildFixtureIndex(t)

	// Same file beats the project-wide search.
	res := idx.ResolveName("models.py", "registry")
	require.Equal(t, Resolved, res.Kind)
	assert.Equal(t, "models.py", res.Symbol.File)

	// Unique project-wide match resolves without import context.
	res = idx.ResolveName("a.py", "helper")
	require.Equal(t, Resolved, res.Kind)
	assert.Equal(t, "utils.py", res.Symbol.File)

	// Dotted lookup reaches methods.
	res = idx.ResolveName("models.py", "User.greet")
	require.Equal(t, Resolved, res.Kind)
	assert.Equal(t, "User.greet", res.Symbol.Qualified)
}

func TestResolveName_AmbiguousAndUnresolved(t *testing.T) {
	t.Parallel()

	idx := buildFixtureIndex(t)

	// Two files define same_name and nothing disambiguates: both surfaced.
	res := idx.ResolveName("ambig.py", "same_name")
	require.Equal(t, Ambiguous, res.Kind)
	require.Len(t, res.Candidates, 2)
	files := []string{res.Candidates[0].File, res.Candidates[1].File}
	assert.ElementsMatch(t, []string{"dup_one.py", "dup_two.py"}, files)

	res = idx.ResolveName("a.py", "no_such_thing")
	assert.Equal(t, Unresolved, res.Kind)

	// Lookups against an unparseable file resolve to nothing.
	res = idx.ResolveName("broken.py", "broken")
	assert.Equal(t, Unresolved, res.Kind)
}

func TestSymbolAt_Innermost(t *testing.T) {
	t.Parallel()

	idx := buildFixtureIndex(t)

	sym := idx.SymbolAt("models.py", 16)
	require.NotNil(t, sym)
	assert.Equal(t, "User.__init__", sym.Qualified)

	sym = idx.SymbolAt("models.py", 14)
	require.NotNil(t, sym)
	assert.Equal(t, "User", sym.Qualified)

	sym = idx.SymbolAt("b.py", 2)
	require.NotNil(t, sym)
	assert.Equal(t, "g", sym.Qualified)

	assert.Nil(t, idx.SymbolAt("models.py", 3), "import lines enclose no symbol")
}

func TestReferenceGraph_Edges(t *testing.T) {
	t.Parallel()

	idx := buildFixtureIndex(t)

	f, ok := idx.SymbolByKey("a.py:f")
	require.True(t, ok)
	assert.Equal(t, []string{"b.py:g"}, idx.ReferencesFrom(f.Key()))

	// Ambiguous references edge to every candidate and are remembered.
	uses, ok := idx.SymbolByKey("ambig.py:uses_same_name")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"dup_one.py:same_name", "dup_two.py:same_name"},
		idx.ReferencesFrom(uses.Key()))

	ambs := idx.AmbiguitiesOf(uses.Key())
	require.Len(t, ambs, 1)
	assert.Equal(t, "same_name", ambs[0].Name)
}

func TestModuleName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "utils", moduleName("utils.py"))
	assert.Equal(t, "pkg.helpers", moduleName("pkg/helpers.py"))
	assert.Equal(t, "pkg", moduleName("pkg/__init__.py"))
}
