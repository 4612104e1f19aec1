package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModuleNames(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			"plain declaration",
			"module counter {\n  fun inc() {}\n}\n",
			[]string{"counter"},
		},
		{
			"address qualified",
			"module 0x0::counter {}\nmodule adr::helper;\n",
			[]string{"counter", "helper"},
		},
		{
			"body on the declaration line",
			"module 0x0::m { fun f() {} }\n",
			[]string{"m"},
		},
		{
			"duplicates collapse, order kept",
			"module b {}\nmodule a {}\nmodule b {}\n",
			[]string{"b", "a"},
		},
		{
			"no declarations",
			"fun loose() {}\n",
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ModuleNames(tt.source))
		})
	}
}

func TestSourceDigest_ContentAddressed(t *testing.T) {
	a := SourceDigest("module m {}")
	b := SourceDigest("module m {}")
	c := SourceDigest("module m { fun f() {} }")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestDerivedIdentity(t *testing.T) {
	// Distinct domains keep equal payloads apart.
	assert.NotEqual(t, accountAddress("A"), genesisCoinID("A"))
	assert.NotEqual(t, accountAddress("A"), accountAddress("B"))

	assert.NotEqual(t, txDigest(1), txDigest(2))
	assert.NotEqual(t, freshObjectID(txDigest(1), 0), freshObjectID(txDigest(1), 1))
	assert.NotEqual(t, checkpointDigest(1, 0), checkpointDigest(2, 0))

	// Derivation is pure: same inputs, same identity.
	assert.Equal(t, txDigest(7), txDigest(7))
	assert.Equal(t, packageID(txDigest(1), []byte("m")), packageID(txDigest(1), []byte("m")))
}
