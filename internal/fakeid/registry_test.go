package fakeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movekit/transcheck/internal/ledger"
)

func id(b byte) ledger.ObjectID {
	var out ledger.ObjectID
	out[31] = b
	return out
}

func TestRegistry_EnumerationIsInjectiveAndContiguous(t *testing.T) {
	r := NewRegistry()
	r.BeginTask(1)

	f0 := r.Enumerate(id(7))
	f1 := r.Enumerate(id(9))
	f2 := r.Enumerate(id(3))

	assert.Equal(t, FakeID{Task: 1, Index: 0}, f0)
	assert.Equal(t, FakeID{Task: 1, Index: 1}, f1)
	assert.Equal(t, FakeID{Task: 1, Index: 2}, f2)

	seen := map[FakeID]bool{f0: true, f1: true, f2: true}
	assert.Len(t, seen, 3)
}

func TestRegistry_ReEnumerationIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.BeginTask(2)

	first := r.Enumerate(id(5))
	second := r.Enumerate(id(5))
	assert.Equal(t, first, second)

	// The cursor did not advance on the second call.
	next := r.Enumerate(id(6))
	assert.Equal(t, FakeID{Task: 2, Index: 1}, next)
}

func TestRegistry_EnumerateNewSortsByByteOrder(t *testing.T) {
	r := NewRegistry()
	r.BeginTask(3)

	// Reported out of order: enumeration must follow ID byte order.
	fakes := r.EnumerateNew([]ledger.ObjectID{id(9), id(1), id(5)})
	require.Len(t, fakes, 3)

	lowest, ok := r.FakeOf(id(1))
	require.True(t, ok)
	assert.Equal(t, FakeID{Task: 3, Index: 0}, lowest)
	mid, _ := r.FakeOf(id(5))
	assert.Equal(t, FakeID{Task: 3, Index: 1}, mid)
	high, _ := r.FakeOf(id(9))
	assert.Equal(t, FakeID{Task: 3, Index: 2}, high)
}

func TestRegistry_RoundTrip(t *testing.T) {
	r := NewRegistry()
	r.BeginTask(1)

	f := r.Enumerate(id(42))
	got, ok := r.Lookup(f)
	require.True(t, ok)
	assert.Equal(t, id(42), got)

	// Still resolvable under a later task.
	r.BeginTask(7)
	got, ok = r.Lookup(f)
	require.True(t, ok)
	assert.Equal(t, id(42), got)
}

func TestRegistry_BeginTaskResetsIndex(t *testing.T) {
	r := NewRegistry()
	r.BeginTask(1)
	r.Enumerate(id(1))
	r.Enumerate(id(2))

	r.BeginTask(2)
	f := r.Enumerate(id(3))
	assert.Equal(t, FakeID{Task: 2, Index: 0}, f)
}

func TestRegistry_ReBeginSameTaskKeepsCursor(t *testing.T) {
	r := NewRegistry()
	r.BeginTask(0)
	gas := r.Enumerate(id(1))
	require.Equal(t, FakeID{Task: 0, Index: 0}, gas)

	// Beginning the same task again must not recycle index 0.
	r.BeginTask(0)
	next := r.Enumerate(id(2))
	assert.Equal(t, FakeID{Task: 0, Index: 1}, next)

	got, ok := r.Lookup(gas)
	require.True(t, ok)
	assert.Equal(t, id(1), got)
}

func TestRegistry_RewriteAddresses(t *testing.T) {
	r := NewRegistry()
	r.BeginTask(0)
	target := id(2)
	r.Enumerate(target)

	text := "owner: " + target.String() + " short: " + target.Short()
	got := r.RewriteAddresses(text)
	assert.Equal(t, "owner: object(0,0) short: object(0,0)", got)
}

func TestFakeID_Ordering(t *testing.T) {
	assert.True(t, FakeID{Task: 1, Index: 5}.Less(FakeID{Task: 2, Index: 0}))
	assert.True(t, FakeID{Task: 1, Index: 0}.Less(FakeID{Task: 1, Index: 1}))
	assert.False(t, FakeID{Task: 1, Index: 1}.Less(FakeID{Task: 1, Index: 1}))
}
