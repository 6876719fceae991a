package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedRuns stores a conv run as run-a and a mismatch run as run-b.
func seedRuns(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	_, err := runCheckForTest(t, &CheckOptions{Graph: "conv", Database: dbPath}, testSpecsDir)
	require.NoError(t, err)
	_, err = runCheckForTest(t, &CheckOptions{Graph: "mismatch", Database: dbPath, RunIDs: fixedIDs("run-b")}, testSpecsDir)
	require.Error(t, err)
	return dbPath
}

func executeTrace(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: format, Color: "never"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTraceCommandListsRuns(t *testing.T) {
	dbPath := seedRuns(t)

	out, err := executeTrace(t, "text", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t,
		"✓ run-a  conv  ops=7 failed=0\n"+
			"✗ run-b  mismatch  ops=6 failed=5\n",
		out)
}

func TestTraceCommandEmptyDatabase(t *testing.T) {
	out, err := executeTrace(t, "text", "--db", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "No runs stored.")
}

func TestTraceCommandShowsRun(t *testing.T) {
	dbPath := seedRuns(t)

	out, err := executeTrace(t, "text", "--db", dbPath, "--run", "run-a")
	require.NoError(t, err)
	assert.Contains(t, out, "Run: run-a\n")
	assert.Contains(t, out, "Graph: conv (hash ")
	assert.Contains(t, out, "Policy: by-position\n")
	assert.Contains(t, out, "Ops: 7, failed: 0\n")
	assert.Contains(t, out, "  ✓ 4 pooled = reduce(act) shape=[2 3 5] names=[*, c, w]\n")
}

func TestTraceCommandFilters(t *testing.T) {
	dbPath := seedRuns(t)

	out, err := executeTrace(t, "text", "--db", dbPath, "--run", "run-b", "--failed")
	require.NoError(t, err)
	assert.Contains(t, out, "swapped")
	assert.NotContains(t, out, "fine")

	out, err = executeTrace(t, "text", "--db", dbPath, "--run", "run-b", "--op", "fine")
	require.NoError(t, err)
	assert.Contains(t, out, "  ✓ 6 fine = reduce(xy) shape=[3] names=[y]\n")
	assert.NotContains(t, out, "swapped")

	out, err = executeTrace(t, "text", "--db", dbPath, "--run", "run-b", "--op", "fine", "--failed")
	require.NoError(t, err)
	assert.Contains(t, out, "No matching op records.")
}

func TestTraceCommandJSON(t *testing.T) {
	dbPath := seedRuns(t)

	out, err := executeTrace(t, "json", "--db", dbPath, "--run", "run-b")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		RunID  string      `json:"run_id"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-b", resp.RunID)
	assert.Equal(t, 5, resp.Data.Run.FailedCount)
	require.Len(t, resp.Data.Records, 6)
	assert.Equal(t, "NAME_MISMATCH", resp.Data.Records[0].ErrorCode)
	assert.Equal(t, "MISALIGNED_NAME", resp.Data.Records[2].ErrorCode)
}

func TestTraceCommandUnknownRun(t *testing.T) {
	dbPath := seedRuns(t)

	out, err := executeTrace(t, "text", "--db", dbPath, "--run", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "run not found: missing")
}

func TestTraceCommandRequiresDB(t *testing.T) {
	_, err := executeTrace(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}
