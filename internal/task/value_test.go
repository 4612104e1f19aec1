package task

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movekit/transcheck/internal/fakeid"
	"github.com/movekit/transcheck/internal/ledger"
)

func TestParseValue_Numbers(t *testing.T) {
	tests := []struct {
		in    string
		num   int64
		width int
	}{
		{"0", 0, 64},
		{"1000", 1000, 64},
		{"1_000_000", 1000000, 64},
		{"255u8", 255, 8},
		{"7u16", 7, 16},
		{"7u32", 7, 32},
		{"7u64", 7, 64},
		{"7u128", 7, 128},
		{"7u256", 7, 256},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, ValNumber, v.Kind)
			assert.Equal(t, big.NewInt(tt.num), v.Num)
			assert.Equal(t, tt.width, v.Width)
		})
	}
}

func TestParseValue_NumberErrors(t *testing.T) {
	for _, in := range []string{"256u8", "-1", "abc", "", "1.5"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseValue(in)
			require.Error(t, err)
		})
	}
}

func TestParseValue_BoolsAndBytes(t *testing.T) {
	v, err := ParseValue("true")
	require.NoError(t, err)
	assert.Equal(t, ValBool, v.Kind)
	assert.True(t, v.Bool)

	v, err = ParseValue(`x"deadbeef"`)
	require.NoError(t, err)
	assert.Equal(t, ValBytes, v.Kind)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, v.Bytes)

	v, err = ParseValue(`b"hello"`)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), v.Bytes)
}

func TestParseValue_BareByteLiterals(t *testing.T) {
	// Directive lines are shell-tokenized before value parsing, so the
	// literals' quotes are already gone by the time they arrive here.
	v, err := ParseValue("xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, ValBytes, v.Kind)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, v.Bytes)

	v, err = ParseValue("bhello")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), v.Bytes)

	_, err = ParseValue("xzz")
	require.Error(t, err)
}

func TestParseValue_Addresses(t *testing.T) {
	v, err := ParseValue("@A")
	require.NoError(t, err)
	assert.Equal(t, ValNamedAddress, v.Kind)
	assert.Equal(t, "A", v.Name)

	v, err = ParseValue("@0x2")
	require.NoError(t, err)
	assert.Equal(t, ValAddress, v.Kind)
	assert.Equal(t, "0x2", v.Address.Short())

	v, err = ParseValue("0x42")
	require.NoError(t, err)
	assert.Equal(t, ValAddress, v.Kind)
}

func TestParseValue_ObjectRefs(t *testing.T) {
	v, err := ParseValue("object(1,0)")
	require.NoError(t, err)
	require.Equal(t, ValObject, v.Kind)
	require.NotNil(t, v.Object.Fake)
	assert.Equal(t, fakeid.FakeID{Task: 1, Index: 0}, *v.Object.Fake)
	assert.Equal(t, fakeid.RefPlain, v.Object.Kind)
	assert.Nil(t, v.Object.Version)

	v, err = ParseValue("object(2,3)@7")
	require.NoError(t, err)
	require.NotNil(t, v.Object.Version)
	assert.Equal(t, ledger.Version(7), *v.Object.Version)

	v, err = ParseValue("receiving(4,1)")
	require.NoError(t, err)
	assert.Equal(t, fakeid.RefReceiving, v.Object.Kind)

	v, err = ParseValue("immshared(5,0)")
	require.NoError(t, err)
	assert.Equal(t, fakeid.RefImmShared, v.Object.Kind)

	v, err = ParseValue("object(0x6)")
	require.NoError(t, err)
	require.NotNil(t, v.Object.Address)
	assert.Equal(t, "0x6", v.Object.Address.Short())
}

func TestParseValue_DigestAndVector(t *testing.T) {
	v, err := ParseValue("digest(pkg)")
	require.NoError(t, err)
	assert.Equal(t, ValDigest, v.Kind)
	assert.Equal(t, "pkg", v.Name)

	v, err = ParseValue("vector[1,2,3]")
	require.NoError(t, err)
	require.Equal(t, ValVector, v.Kind)
	require.Len(t, v.Vec, 3)
	assert.Equal(t, big.NewInt(2), v.Vec[1].Num)

	// Nested commas stay inside their element.
	v, err = ParseValue("vector[object(1,0),object(1,1)]")
	require.NoError(t, err)
	require.Len(t, v.Vec, 2)
	assert.Equal(t, fakeid.FakeID{Task: 1, Index: 1}, *v.Vec[1].Object.Fake)
}

func TestParseObjectRef_Errors(t *testing.T) {
	for _, in := range []string{"object(1,0", "object(1,0)@x", "object(1,0)junk", "thing(1,0)"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseObjectRef(in)
			require.Error(t, err)
		})
	}
}
