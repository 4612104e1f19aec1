package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ObjectRow is one stored object version.
type ObjectRow struct {
	ID      string
	Version uint64
	Owner   string
	Type    string
	Payload string
}

// CheckpointRow is one stored checkpoint.
type CheckpointRow struct {
	Seq               uint64
	Epoch             uint64
	TotalTransactions uint64
	ContentDigest     string
}

// ReadObject loads one object version from this run. Returns (nil, nil)
// when the version was never recorded.
func (s *Store) ReadObject(ctx context.Context, id string, version uint64) (*ObjectRow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, version, owner, obj_type, payload
		FROM objects WHERE run_id = ? AND id = ? AND version = ?
	`, s.runID, id, version)

	var o ObjectRow
	err := row.Scan(&o.ID, &o.Version, &o.Owner, &o.Type, &o.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return &o, nil
}

// ObjectVersions lists the recorded versions of one object, ascending.
func (s *Store) ObjectVersions(ctx context.Context, id string) ([]uint64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version FROM objects
		WHERE run_id = ? AND id = ? ORDER BY version
	`, s.runID, id)
	if err != nil {
		return nil, fmt.Errorf("list object versions: %w", err)
	}
	defer rows.Close()

	var versions []uint64
	for rows.Next() {
		var v uint64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("list object versions: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// LatestCheckpoint returns this run's highest checkpoint, or (nil, nil)
// when none were sealed.
func (s *Store) LatestCheckpoint(ctx context.Context) (*CheckpointRow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, epoch, total_transactions, content_digest
		FROM checkpoints WHERE run_id = ? ORDER BY seq DESC LIMIT 1
	`, s.runID)

	var c CheckpointRow
	err := row.Scan(&c.Seq, &c.Epoch, &c.TotalTransactions, &c.ContentDigest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	return &c, nil
}
