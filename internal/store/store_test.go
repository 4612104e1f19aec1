package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "run.db"), "scripts/demo.txt")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_RegistersRun(t *testing.T) {
	s := openTemp(t)
	require.NotEmpty(t, s.RunID())

	rows, err := s.Query(context.Background(), `SELECT script FROM runs WHERE id = ?`, s.RunID())
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var script string
	require.NoError(t, rows.Scan(&script))
	assert.Equal(t, "scripts/demo.txt", script)
}

func TestOpen_SchemaIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")
	first, err := Open(path, "a.txt")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path, "b.txt")
	require.NoError(t, err)
	defer second.Close()
	assert.NotEqual(t, first.RunID(), second.RunID())
}

func TestRecordObject_Idempotent(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.RecordObject(ctx, "0xabc", 2, "0xowner", "coin", []byte(`{"balance":10}`)))
	// Same (id, version) again with different content: silent no-op.
	require.NoError(t, s.RecordObject(ctx, "0xabc", 2, "0xother", "coin", []byte(`{"balance":99}`)))

	row, err := s.ReadObject(ctx, "0xabc", 2)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "0xowner", row.Owner)
	assert.Equal(t, `{"balance":10}`, row.Payload)
}

func TestObjectVersions_Ascending(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	for _, v := range []uint64{3, 1, 2} {
		require.NoError(t, s.RecordObject(ctx, "0xabc", v, "0xowner", "coin", []byte("{}")))
	}
	versions, err := s.ObjectVersions(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, versions)
}

func TestReadObject_MissingVersion(t *testing.T) {
	s := openTemp(t)
	row, err := s.ReadObject(context.Background(), "0xmissing", 1)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestCheckpoints(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	latest, err := s.LatestCheckpoint(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, s.RecordCheckpoint(ctx, 1, 0, 2, "d1"))
	require.NoError(t, s.RecordCheckpoint(ctx, 2, 1, 5, "d2"))
	require.NoError(t, s.RecordCheckpoint(ctx, 2, 9, 9, "dX")) // replay, ignored

	latest, err = s.LatestCheckpoint(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, uint64(2), latest.Seq)
	assert.Equal(t, uint64(1), latest.Epoch)
	assert.Equal(t, uint64(5), latest.TotalTransactions)
	assert.Equal(t, "d2", latest.ContentDigest)
}

func TestRunsAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")
	first, err := Open(path, "a.txt")
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, first.RecordObject(ctx, "0x1", 1, "0xowner", "coin", []byte("{}")))
	require.NoError(t, first.Close())

	second, err := Open(path, "b.txt")
	require.NoError(t, err)
	defer second.Close()

	row, err := second.ReadObject(ctx, "0x1", 1)
	require.NoError(t, err)
	assert.Nil(t, row)
}
