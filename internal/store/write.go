package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
)

// WriteSolve appends a solve record and returns its seq.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency. If a record with the same
// ID already exists, its seq is returned with inserted=false and the stored
// record is left unchanged.
func (s *Store) WriteSolve(ctx context.Context, rec SolveRecord) (seq int64, inserted bool, err error) {
	if rec.ID == "" {
		return 0, false, fmt.Errorf("write solve: empty id")
	}
	if !finite(rec.Wavelength) || !finite(rec.Theta) {
		return 0, false, fmt.Errorf("write solve: wavelength and theta must be finite")
	}

	layersJSON, err := marshalLayers(rec.Layers)
	if err != nil {
		return 0, false, fmt.Errorf("write solve: %w", err)
	}

	var reflectance, transmittance sql.NullFloat64
	if !rec.Failed() {
		reflectance = sql.NullFloat64{Float64: rec.Reflectance, Valid: true}
		transmittance = sql.NullFloat64{Float64: rec.Transmittance, Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("write solve: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO solves
		(id, stack_hash, stack_name, layers, wavelength, theta, polarization,
		 reflectance, transmittance, error_code, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.StackHash,
		rec.StackName,
		layersJSON,
		rec.Wavelength,
		rec.Theta,
		rec.Polarization,
		reflectance,
		transmittance,
		rec.ErrorCode,
		rec.ErrorMessage,
	)
	if err != nil {
		return 0, false, fmt.Errorf("write solve: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("write solve: rows affected: %w", err)
	}

	if rowsAffected > 0 {
		seq, err = result.LastInsertId()
		if err != nil {
			return 0, false, fmt.Errorf("write solve: last insert id: %w", err)
		}
		inserted = true
	} else {
		err = tx.QueryRowContext(ctx, `SELECT seq FROM solves WHERE id = ?`, rec.ID).Scan(&seq)
		if err != nil {
			return 0, false, fmt.Errorf("write solve: select existing: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("write solve: commit: %w", err)
	}
	return seq, inserted, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
