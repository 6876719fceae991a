package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/namedtensor/internal/ir"
)

// RecordQuery selects op records. Zero-valued fields do not filter.
type RecordQuery struct {
	RunID      string
	OpID       string
	Kind       ir.OpKind
	ErrorCode  string // only records that failed with this code
	FailedOnly bool   // only records with an error code
}

// compile returns the WHERE clause (without the keyword) and its
// parameters. Values are always passed as ? placeholders.
func (q RecordQuery) compile() (string, []any) {
	var (
		preds  []string
		params []any
	)
	equals := func(column string, value any) {
		preds = append(preds, column+" = ?")
		params = append(params, value)
	}

	if q.RunID != "" {
		equals("run_id", q.RunID)
	}
	if q.OpID != "" {
		equals("op_id", q.OpID)
	}
	if q.Kind != "" {
		equals("kind", string(q.Kind))
	}
	if q.ErrorCode != "" {
		equals("error_code", q.ErrorCode)
	}
	if q.FailedOnly {
		preds = append(preds, "error_code != ''")
	}

	if len(preds) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(preds, " AND "), params
}

// QueryRecords returns the op records matching q, ordered by run, then
// seq. Returns an empty slice (not nil) if nothing matches.
func (s *Store) QueryRecords(ctx context.Context, q RecordQuery) ([]ir.OpRecord, error) {
	where, params := q.compile()
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, op_id, kind, inputs, shape, names, error_code, error_message
		FROM op_records
		WHERE `+where+`
		ORDER BY run_id COLLATE BINARY ASC, seq ASC, op_id COLLATE BINARY ASC
	`, params...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []ir.OpRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}
