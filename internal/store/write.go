package store

import (
	"context"
	"fmt"
)

// RecordObject inserts one object version. ON CONFLICT DO NOTHING makes
// the write idempotent: an (id, version) pair is immutable once stored,
// so a replayed transaction is a silent no-op.
func (s *Store) RecordObject(ctx context.Context, id string, version uint64, owner, objType string, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO objects (run_id, id, version, owner, obj_type, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, id, version) DO NOTHING
	`, s.runID, id, version, owner, objType, string(payload))
	if err != nil {
		return fmt.Errorf("record object: %w", err)
	}
	return nil
}

// RecordCheckpoint inserts one sealed checkpoint, idempotently.
func (s *Store) RecordCheckpoint(ctx context.Context, seq, epoch, totalTxs uint64, digest string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (run_id, seq, epoch, total_transactions, content_digest)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`, s.runID, seq, epoch, totalTxs, digest)
	if err != nil {
		return fmt.Errorf("record checkpoint: %w", err)
	}
	return nil
}
