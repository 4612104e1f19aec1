package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPureUint(t *testing.T) {
	tests := []struct {
		name  string
		v     int64
		width int
		want  []byte
	}{
		{"u8", 0xff, 8, []byte{0xff}},
		{"u16", 0x0102, 16, []byte{0x02, 0x01}},
		{"u32", 1, 32, []byte{1, 0, 0, 0}},
		{"u64", 1000, 64, []byte{0xe8, 0x03, 0, 0, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PureUint(big.NewInt(tt.v), tt.width)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	// Wide integers are little-endian over the full width.
	got, err := PureUint(big.NewInt(1), 128)
	require.NoError(t, err)
	require.Len(t, got, 16)
	assert.Equal(t, byte(1), got[0])

	_, err = PureUint(big.NewInt(256), 8)
	require.Error(t, err)
	_, err = PureUint(big.NewInt(-1), 64)
	require.Error(t, err)
}

func TestPureEncodings(t *testing.T) {
	assert.Equal(t, []byte{0xe8, 0x03, 0, 0, 0, 0, 0, 0}, PureU64(1000))
	assert.Equal(t, []byte{1}, PureBool(true))
	assert.Equal(t, []byte{0}, PureBool(false))
	assert.Equal(t, []byte{3, 'a', 'b', 'c'}, PureBytes([]byte("abc")))
	assert.Equal(t, []byte{2, 7, 9}, PureVector([][]byte{{7}, {9}}))
}

func TestAppendULEB128(t *testing.T) {
	assert.Equal(t, []byte{0}, AppendULEB128(nil, 0))
	assert.Equal(t, []byte{0x7f}, AppendULEB128(nil, 127))
	assert.Equal(t, []byte{0x80, 0x01}, AppendULEB128(nil, 128))
	assert.Equal(t, []byte{0xe5, 0x8e, 0x26}, AppendULEB128(nil, 624485))
}
