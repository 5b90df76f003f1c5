package store

import (
	"context"
	"database/sql"
	"fmt"
)

const solveColumns = `seq, id, stack_hash, stack_name, layers, wavelength, theta, polarization,
	reflectance, transmittance, error_code, error_message`

// ReadSolve retrieves a single solve record by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadSolve(ctx context.Context, id string) (SolveRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+solveColumns+` FROM solves WHERE id = ?`, id)
	return scanSolve(row)
}

// ListSolves returns the most recent solves, newest first.
// A limit of zero or less returns every record.
//
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) ListSolves(ctx context.Context, limit int) ([]SolveRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+solveColumns+`
		FROM solves
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query solves: %w", err)
	}
	return collectSolves(rows)
}

// SolvesByStack returns every solve recorded for a stack hash, oldest first.
func (s *Store) SolvesByStack(ctx context.Context, stackHash string) ([]SolveRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+solveColumns+`
		FROM solves
		WHERE stack_hash = ?
		ORDER BY seq ASC
	`, stackHash)
	if err != nil {
		return nil, fmt.Errorf("query solves by stack: %w", err)
	}
	return collectSolves(rows)
}

// StackSummary aggregates the solves recorded for one stack.
type StackSummary struct {
	StackHash string `json:"stack_hash"`
	StackName string `json:"stack_name,omitempty"`
	Solves    int    `json:"solves"`
	Failures  int    `json:"failures"`
	LastSeq   int64  `json:"last_seq"`
}

// ListStacks summarises every stack with at least one recorded solve,
// most recently used first. The name is taken from the latest solve.
func (s *Store) ListStacks(ctx context.Context) ([]StackSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.stack_hash,
		       (SELECT stack_name FROM solves n WHERE n.stack_hash = s.stack_hash ORDER BY n.seq DESC LIMIT 1),
		       COUNT(*),
		       SUM(CASE WHEN s.error_code != '' THEN 1 ELSE 0 END),
		       MAX(s.seq)
		FROM solves s
		GROUP BY s.stack_hash
		ORDER BY MAX(s.seq) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query stacks: %w", err)
	}
	defer rows.Close()

	stacks := []StackSummary{}
	for rows.Next() {
		var sum StackSummary
		if err := rows.Scan(&sum.StackHash, &sum.StackName, &sum.Solves, &sum.Failures, &sum.LastSeq); err != nil {
			return nil, fmt.Errorf("scan stack summary: %w", err)
		}
		stacks = append(stacks, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stacks: %w", err)
	}
	return stacks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSolve(row scanner) (SolveRecord, error) {
	var (
		rec                        SolveRecord
		layersJSON                 string
		reflectance, transmittance sql.NullFloat64
	)
	err := row.Scan(
		&rec.Seq,
		&rec.ID,
		&rec.StackHash,
		&rec.StackName,
		&layersJSON,
		&rec.Wavelength,
		&rec.Theta,
		&rec.Polarization,
		&reflectance,
		&transmittance,
		&rec.ErrorCode,
		&rec.ErrorMessage,
	)
	if err != nil {
		return SolveRecord{}, err
	}

	rec.Layers, err = unmarshalLayers(layersJSON)
	if err != nil {
		return SolveRecord{}, err
	}
	rec.Reflectance = reflectance.Float64
	rec.Transmittance = transmittance.Float64
	return rec, nil
}

func collectSolves(rows *sql.Rows) ([]SolveRecord, error) {
	defer rows.Close()

	records := []SolveRecord{}
	for rows.Next() {
		rec, err := scanSolve(rows)
		if err != nil {
			return nil, fmt.Errorf("scan solve: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate solves: %w", err)
	}
	return records, nil
}
