package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/namedtensor/internal/dimname"
	"github.com/roach88/namedtensor/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates run metadata with minimal required fields.
func createTestRun(id string, ops, failed int) ir.RunInfo {
	return ir.RunInfo{
		ID:            id,
		Graph:         "conv",
		GraphHash:     "test-hash",
		Policy:        "by-position",
		EngineVersion: ir.EngineVersion,
		OpCount:       ops,
		FailedCount:   failed,
	}
}

// createTestRecord creates a successful op record.
func createTestRecord(runID, opID string, seq int64, shape []int64, names ...string) ir.OpRecord {
	return ir.OpRecord{
		RunID:  runID,
		Seq:    seq,
		OpID:   opID,
		Kind:   ir.OpUnary,
		Inputs: []string{"x"},
		Shape:  shape,
		Names:  dimname.Some(dimname.MustList(names...)),
	}
}
