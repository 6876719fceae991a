package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/roach88/namedtensor/internal/dimname"
	"github.com/roach88/namedtensor/internal/ir"
)

func failedRecord(runID, opID string, seq int64, code string) ir.OpRecord {
	return ir.OpRecord{
		RunID:        runID,
		Seq:          seq,
		OpID:         opID,
		Kind:         ir.OpBinary,
		Inputs:       []string{"a", "b"},
		Names:        dimname.None(),
		ErrorCode:    code,
		ErrorMessage: code + " message",
	}
}

func seedQueryStore(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t)
	ctx := context.Background()

	run1 := []ir.OpRecord{
		createTestRecord("run-1", "act", 1, []int64{2}, "x"),
		failedRecord("run-1", "sum", 2, "NAME_MISMATCH"),
		failedRecord("run-1", "next", 3, "INPUT_FAILED"),
	}
	run2 := []ir.OpRecord{
		createTestRecord("run-2", "act", 1, []int64{2}, "y"),
		failedRecord("run-2", "sum", 2, "SHAPE_MISMATCH"),
	}
	if err := s.WriteRun(ctx, createTestRun("run-2", 2, 1), run2); err != nil {
		t.Fatalf("WriteRun(run-2) failed: %v", err)
	}
	if err := s.WriteRun(ctx, createTestRun("run-1", 3, 2), run1); err != nil {
		t.Fatalf("WriteRun(run-1) failed: %v", err)
	}
	return s
}

func opIDs(records []ir.OpRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.RunID + "/" + r.OpID
	}
	return ids
}

func TestQueryRecords_Filters(t *testing.T) {
	s := seedQueryStore(t)

	tests := []struct {
		name  string
		query RecordQuery
		want  []string
	}{
		{"everything", RecordQuery{}, []string{"run-1/act", "run-1/sum", "run-1/next", "run-2/act", "run-2/sum"}},
		{"one run", RecordQuery{RunID: "run-2"}, []string{"run-2/act", "run-2/sum"}},
		{"one op across runs", RecordQuery{OpID: "sum"}, []string{"run-1/sum", "run-2/sum"}},
		{"failed only", RecordQuery{RunID: "run-1", FailedOnly: true}, []string{"run-1/sum", "run-1/next"}},
		{"by error code", RecordQuery{ErrorCode: "SHAPE_MISMATCH"}, []string{"run-2/sum"}},
		{"by kind", RecordQuery{Kind: ir.OpUnary}, []string{"run-1/act", "run-2/act"}},
		{"no match", RecordQuery{RunID: "run-1", OpID: "ghost"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.QueryRecords(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("QueryRecords() failed: %v", err)
			}
			if got == nil {
				t.Fatal("QueryRecords() returned nil, want empty slice")
			}
			if ids := opIDs(got); !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("QueryRecords() = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestRecordQuery_CompileIsParameterized(t *testing.T) {
	where, params := RecordQuery{RunID: "r'; DROP TABLE runs; --", FailedOnly: true}.compile()

	if where != "run_id = ? AND error_code != ''" {
		t.Errorf("compile() where = %q", where)
	}
	if !reflect.DeepEqual(params, []any{"r'; DROP TABLE runs; --"}) {
		t.Errorf("compile() params = %v", params)
	}

	where, params = RecordQuery{}.compile()
	if where != "1 = 1" || params != nil {
		t.Errorf("empty compile() = %q, %v", where, params)
	}
}
