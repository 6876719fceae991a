package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/namedtensor/internal/ir"
)

// WriteRun inserts a run and all of its op records in one transaction.
// Either everything is written or nothing is. Writing a run id that
// already exists is an error.
func (s *Store) WriteRun(ctx context.Context, info ir.RunInfo, records []ir.OpRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, graph, graph_hash, policy, engine_version, ir_version, op_count, failed_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		info.ID,
		info.Graph,
		info.GraphHash,
		info.Policy,
		info.EngineVersion,
		ir.IRVersion,
		info.OpCount,
		info.FailedCount,
	)
	if err != nil {
		return fmt.Errorf("write run %s: %w", info.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO op_records
		(run_id, seq, op_id, kind, inputs, shape, names, error_code, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write run %s: prepare: %w", info.ID, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if rec.RunID != info.ID {
			return fmt.Errorf("write run %s: record %s belongs to run %q", info.ID, rec.OpID, rec.RunID)
		}
		if err := writeRecord(ctx, stmt, rec); err != nil {
			return fmt.Errorf("write run %s: %w", info.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run %s: commit: %w", info.ID, err)
	}
	return nil
}

// writeRecord inserts one op record through the prepared insert.
func writeRecord(ctx context.Context, stmt *sql.Stmt, rec ir.OpRecord) error {
	inputs, err := marshalJSON("inputs", rec.Inputs)
	if err != nil {
		return err
	}
	shape, err := marshalJSON("shape", rec.Shape)
	if err != nil {
		return err
	}
	names, err := marshalJSON("names", rec.Names)
	if err != nil {
		return err
	}

	_, err = stmt.ExecContext(ctx,
		rec.RunID,
		rec.Seq,
		rec.OpID,
		string(rec.Kind),
		inputs,
		shape,
		names,
		rec.ErrorCode,
		rec.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("write record %s (seq %d): %w", rec.OpID, rec.Seq, err)
	}
	return nil
}
