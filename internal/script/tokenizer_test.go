package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movekit/transcheck/internal/runerr"
)

func TestTokenize_SplitsBlocksOnBlankLines(t *testing.T) {
	text := `//# init --accounts A B

//# programmable --sender A --inputs 1000
//> SplitCoins(Gas, [Input(0)])

//# view-object 1,0
`
	blocks, err := Tokenize(text)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	assert.Equal(t, []string{"init", "--accounts", "A", "B"}, blocks[0].Tokens)
	assert.Equal(t, 1, blocks[0].StartLine)
	assert.Equal(t, 1, blocks[0].EndLine)

	assert.Equal(t, "programmable", blocks[1].Tokens[0])
	assert.Equal(t, 3, blocks[1].StartLine)
	assert.Equal(t, 4, blocks[1].EndLine)
	assert.Equal(t, []string{"//> SplitCoins(Gas, [Input(0)])"}, blocks[1].Payload)

	assert.Equal(t, "view-object", blocks[2].Tokens[0])
}

func TestTokenize_DirectiveLineStartsNewBlock(t *testing.T) {
	text := "//# create-checkpoint\n//# view-checkpoint\n"
	blocks, err := Tokenize(text)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "create-checkpoint", blocks[0].Tokens[0])
	assert.Equal(t, "view-checkpoint", blocks[1].Tokens[0])
}

func TestTokenize_PayloadKeepsLiteralText(t *testing.T) {
	text := "//# publish --sender A\nmodule 0x0::m {\n    public fun f() {}\n}\n"
	blocks, err := Tokenize(text)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "module 0x0::m {\n    public fun f() {}\n}", blocks[0].PayloadText())
	assert.Equal(t, 4, blocks[0].EndLine)
}

func TestTokenize_ShellQuoting(t *testing.T) {
	blocks, err := Tokenize(`//# run-graphql --cursors "a b c"`)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, []string{"run-graphql", "--cursors", "a b c"}, blocks[0].Tokens)
}

func TestTokenize_Malformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty file", ""},
		{"only blank lines", "\n\n\n"},
		{"payload before directive", "module 0x0::m {}\n//# publish\n"},
		{"unterminated quote", `//# run --args "oops`},
		{"empty directive", "//#\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.text)
			require.Error(t, err)
			assert.Equal(t, runerr.CodeMalformedScript, runerr.CodeOf(err))
		})
	}
}

func TestCommandLines_Contiguity(t *testing.T) {
	blocks, err := Tokenize("//# programmable\n//> SplitCoins(Gas, [Input(0)])\n//> MergeCoins(Gas, [Result(0)])\n")
	require.NoError(t, err)
	lines, contiguous := blocks[0].CommandLines()
	assert.True(t, contiguous)
	assert.Equal(t, []string{
		"SplitCoins(Gas, [Input(0)])",
		"MergeCoins(Gas, [Result(0)])",
	}, lines)

	blocks, err = Tokenize("//# programmable\n//> SplitCoins(Gas, [Input(0)])\nstray text\n//> MergeCoins(Gas, [Result(0)])\n")
	require.NoError(t, err)
	_, contiguous = blocks[0].CommandLines()
	assert.False(t, contiguous)
}
