package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/namedtensor/internal/ir"
)

// ReadRun returns the metadata of one run.
// Returns ErrRunNotFound (wrapped) if the id is unknown.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.RunInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, graph, graph_hash, policy, engine_version, op_count, failed_count
		FROM runs
		WHERE id = ?
	`, id)

	info, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.RunInfo{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return ir.RunInfo{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return info, nil
}

// ListRuns returns every run ordered by id.
//
// Returns an empty slice (not nil) if the store holds no runs.
func (s *Store) ListRuns(ctx context.Context) ([]ir.RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, graph, graph_hash, policy, engine_version, op_count, failed_count
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.RunInfo{}
	for rows.Next() {
		info, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRecords returns the op records of a run ordered by seq.
//
// Returns an empty slice (not nil) if the run has no records or does not
// exist; use ReadRun to tell the two apart.
func (s *Store) ReadRecords(ctx context.Context, runID string) ([]ir.OpRecord, error) {
	return s.QueryRecords(ctx, RecordQuery{RunID: runID})
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (ir.RunInfo, error) {
	var info ir.RunInfo
	err := row.Scan(
		&info.ID,
		&info.Graph,
		&info.GraphHash,
		&info.Policy,
		&info.EngineVersion,
		&info.OpCount,
		&info.FailedCount,
	)
	return info, err
}

func scanRecord(row rowScanner) (ir.OpRecord, error) {
	var (
		rec                  ir.OpRecord
		kind                 string
		inputs, shape, names string
	)
	if err := row.Scan(
		&rec.RunID,
		&rec.Seq,
		&rec.OpID,
		&kind,
		&inputs,
		&shape,
		&names,
		&rec.ErrorCode,
		&rec.ErrorMessage,
	); err != nil {
		return ir.OpRecord{}, fmt.Errorf("scan record: %w", err)
	}
	rec.Kind = ir.OpKind(kind)

	var err error
	if rec.Inputs, err = unmarshalStrings(inputs); err != nil {
		return ir.OpRecord{}, err
	}
	if rec.Shape, err = unmarshalShape(shape); err != nil {
		return ir.OpRecord{}, err
	}
	if rec.Names, err = unmarshalNames(names); err != nil {
		return ir.OpRecord{}, err
	}
	return rec, nil
}
