package failure

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the failure parser:
// - Parse a two-failure unittest report into ordered records
// - Extract test identifier, class, status from FAIL/ERROR headers
// - Split tracebacks into ordered frames with file/line/function
// - Pick the test's own frame (the one naming the test) as its location
// - Capture single-line and multi-line trailing messages
// - Fence the message off from the runner's summary footer
// - Keep malformed blocks as partial records instead of dropping them
// - Skip runner chrome (progress dots, summary) without emitting records
// - Handle the newer "pkg.Class.test_name" header form
// - Stop lazily when the consumer breaks early

const sampleReport = `FF
======================================================================
FAIL: test_f (tests.test_a.TestF)
----------------------------------------------------------------------
Traceback (most recent call last):
  File "tests/test_a.py", line 7, in test_f
    self.assertEqual(f(), 1)
  File "a.py", line 5, in f
    return g()
  File "b.py", line 2, in g
    return 1 / 0
ZeroDivisionError: division by zero
======================================================================
ERROR: test_load (tests.test_models.TestModels)
----------------------------------------------------------------------
Traceback (most recent call last):
  File "tests/test_models.py", line 12, in test_load
    users = load_users("users.json")
  File "models.py", line 29, in load_users
    return [User(n) for n in data][:MAX_USERS]
AssertionError: lists differ
  extra detail
----------------------------------------------------------------------
Ran 5 tests in 0.004s

FAILED (failures=1, errors=1)
`

func collect(t *testing.T, input string) []Record {
	t.Helper()
	var records []Record
	for rec := range Parse(strings.NewReader(input)) {
		records = append(records, rec)
	}
	return records
}

func TestParse_TwoFailuresInOrder(t *testing.T) {
	t.Parallel()

	records := collect(t, sampleReport)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "FAIL", first.Status)
	assert.Equal(t, "test_f", first.TestName)
	assert.Equal(t, "TestF", first.TestClass)
	assert.Equal(t, "tests.test_a.TestF.test_f", first.TestID)
	assert.False(t, first.Partial)

	second := records[1]
	assert.Equal(t, "ERROR", second.Status)
	assert.Equal(t, "tests.test_models.TestModels.test_load", second.TestID)
}

func TestParse_Frames(t *testing.T) {
	t.Parallel()

	records := collect(t, sampleReport)
	require.Len(t, records, 2)

	frames := records[0].Frames
	require.Len(t, frames, 3)
	assert.Equal(t, Frame{File: "tests/test_a.py", Line: 7, Function: "test_f"}, frames[0])
	assert.Equal(t, Frame{File: "a.py", Line: 5, Function: "f"}, frames[1])
	assert.Equal(t, Frame{File: "b.py", Line: 2, Function: "g"}, frames[2])

	// The test's own location is the frame that names the test.
	assert.Equal(t, "tests/test_a.py", records[0].File)
	assert.Equal(t, 7, records[0].Line)
}

func TestParse_Messages(t *testing.T) {
	t.Parallel()

	records := collect(t, sampleReport)
	require.Len(t, records, 2)

	assert.Equal(t, "ZeroDivisionError: division by zero", records[0].Message)

	// Multi-line message kept whole, summary footer fenced off.
	assert.Equal(t, "AssertionError: lists differ\n  extra detail", records[1].Message)
	assert.NotContains(t, records[1].Message, "Ran 5 tests")
}

func TestParse_MalformedBlocks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		block      string
		wantID     string
		wantFrames int
	}{
		{
			name:   "header without traceback",
			block:  "FAIL: test_x (tests.test_b.TestB)\nsomething went wrong before the traceback",
			wantID: "tests.test_b.TestB.test_x",
		},
		{
			name: "traceback without header",
			block: "Traceback (most recent call last):\n" +
				"  File \"a.py\", line 5, in f\n" +
				"    return g()\n" +
				"NameError: name 'g' is not defined",
			wantFrames: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			records := collect(t, tt.block)
			require.Len(t, records, 1, "a reported failure must never be dropped")
			assert.True(t, records[0].Partial)
			assert.Equal(t, tt.wantID, records[0].TestID)
			assert.Len(t, records[0].Frames, tt.wantFrames)
		})
	}
}

func TestParse_SkipsRunnerChrome(t *testing.T) {
	t.Parallel()

	records := collect(t, "..F..\n\nRan 5 tests in 0.004s\n\nOK\n")
	assert.Empty(t, records)
}

func TestParse_QualifiedHeaderForm(t *testing.T) {
	t.Parallel()

	block := "FAIL: test_f (tests.test_a.TestF.test_f)\n" +
		"Traceback (most recent call last):\n" +
		"  File \"tests/test_a.py\", line 7, in test_f\n" +
		"    self.assertEqual(f(), 1)\n" +
		"AssertionError: 1 != 2"

	records := collect(t, block)
	require.Len(t, records, 1)
	assert.Equal(t, "TestF", records[0].TestClass)
	assert.Equal(t, "tests.test_a.TestF.test_f", records[0].TestID)
	assert.False(t, records[0].Partial)
}

func TestParse_LazyEarlyStop(t *testing.T) {
	t.Parallel()

	count := 0
	for range Parse(strings.NewReader(sampleReport)) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}
