package interp

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movekit/transcheck/internal/ledger"
	"github.com/movekit/transcheck/internal/runerr"
)

func testLookup() Lookup {
	var obj ledger.ObjectID
	obj[31] = 0x42
	var addr ledger.Address
	addr[31] = 0xaa
	return Lookup{
		Object: func(task, index uint64) (ledger.ObjectID, bool) {
			if task == 1 && index == 0 {
				return obj, true
			}
			return ledger.ObjectID{}, false
		},
		Named: func(name string) (ledger.Address, bool) {
			if name == "A" {
				return addr, true
			}
			return ledger.Address{}, false
		},
	}
}

func TestInterpolate_ObjectTokens(t *testing.T) {
	lookup := testLookup()
	obj, _ := lookup.Object(1, 0)

	got, err := Interpolate("object(address: \"@{obj_1_0}\")", nil, lookup)
	require.NoError(t, err)
	assert.Equal(t, "object(address: \""+obj.String()+"\")", got)
}

func TestInterpolate_OptionalTokenMapsToEmpty(t *testing.T) {
	got, err := Interpolate("before @{obj_9_9_opt} after", nil, testLookup())
	require.NoError(t, err)
	assert.Equal(t, "before  after", got)

	got, err = Interpolate("@{nobody_opt}", nil, testLookup())
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestInterpolate_UnresolvedPlaceholderFails(t *testing.T) {
	_, err := Interpolate("@{obj_9_9}", nil, testLookup())
	require.Error(t, err)
	assert.Equal(t, runerr.CodeUnresolvedPlaceholder, runerr.CodeOf(err))

	_, err = Interpolate("@{nobody}", nil, testLookup())
	require.Error(t, err)
	assert.Equal(t, runerr.CodeUnresolvedPlaceholder, runerr.CodeOf(err))
}

func TestInterpolate_NamedAddress(t *testing.T) {
	lookup := testLookup()
	addr, _ := lookup.Named("A")

	got, err := Interpolate("owner: @{A}", nil, lookup)
	require.NoError(t, err)
	assert.Equal(t, "owner: "+addr.String(), got)
}

func TestInterpolate_AliasEndingInOptSuffix(t *testing.T) {
	var addr ledger.Address
	addr[31] = 0xbb
	lookup := Lookup{
		Object: func(task, index uint64) (ledger.ObjectID, bool) {
			return ledger.ObjectID{}, false
		},
		Named: func(name string) (ledger.Address, bool) {
			if name == "fee_opt" {
				return addr, true
			}
			return ledger.Address{}, false
		},
	}

	// The exact name resolves; the _opt suffix is not stripped first.
	got, err := Interpolate("@{fee_opt}", nil, lookup)
	require.NoError(t, err)
	assert.Equal(t, addr.String(), got)
}

func TestInterpolate_LiteralCursor(t *testing.T) {
	// A cursor value that is not an object reference is encoded
	// byte-for-byte, even when it happens to look like JSON.
	raw := `{"c":1,"t":0,"tc":0}`
	got, err := Interpolate("after: \"@{cursor_0}\"", []string{raw}, testLookup())
	require.NoError(t, err)
	want := base64.StdEncoding.EncodeToString([]byte(raw))
	assert.Equal(t, "after: \""+want+"\"", got)
}

func TestInterpolate_ObjectCursor(t *testing.T) {
	lookup := testLookup()
	obj, _ := lookup.Object(1, 0)

	got, err := Interpolate("@{cursor_0}", []string{"object(1,0)"}, lookup)
	require.NoError(t, err)
	want := base64.StdEncoding.EncodeToString([]byte(`{"o":"` + obj.String() + `"}`))
	assert.Equal(t, want, got)

	// With a checkpoint suffix the "c" key sorts before "o".
	got, err = Interpolate("@{cursor_0}", []string{"object(1,0),2"}, lookup)
	require.NoError(t, err)
	want = base64.StdEncoding.EncodeToString([]byte(`{"c":2,"o":"` + obj.String() + `"}`))
	assert.Equal(t, want, got)
}

func TestInterpolate_CursorIndexOutOfRange(t *testing.T) {
	_, err := Interpolate("@{cursor_1}", []string{"plain"}, testLookup())
	require.Error(t, err)
	assert.Equal(t, runerr.CodeUnresolvedPlaceholder, runerr.CodeOf(err))
}

func TestInterpolate_CursorUnknownObject(t *testing.T) {
	_, err := Interpolate("@{cursor_0}", []string{"object(9,9)"}, testLookup())
	require.Error(t, err)
	assert.Equal(t, runerr.CodeUnresolvedPlaceholder, runerr.CodeOf(err))
}
