package ptb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movekit/transcheck/internal/fakeid"
	"github.com/movekit/transcheck/internal/ledger"
	"github.com/movekit/transcheck/internal/runerr"
	"github.com/movekit/transcheck/internal/script"
	"github.com/movekit/transcheck/internal/task"
)

func testBuilder() *Builder {
	return &Builder{
		Resolver: &fakeid.Resolver{Registry: fakeid.NewRegistry()},
		Aliases: func(name string) (ledger.Address, bool) {
			if name == "A" {
				a, _ := ledger.ParseAddress("0xa")
				return a, true
			}
			return ledger.Address{}, false
		},
		Staged: func(name string) (ledger.Digest, bool) {
			if name == "pkg" {
				return ledger.Digest{1}, true
			}
			return ledger.Digest{}, false
		},
	}
}

func parseProgrammable(t *testing.T, text string) *task.ProgrammableCommand {
	t.Helper()
	blocks, err := script.Tokenize(text)
	require.NoError(t, err)
	tasks, err := task.ParseAll(blocks)
	require.NoError(t, err)
	return tasks[0].Command.(*task.ProgrammableCommand)
}

func TestBuild_EncodesPureInputs(t *testing.T) {
	cmd := parseProgrammable(t, `//# programmable --inputs 1000 @A true x"ff" vector[1u8,2u8]
//> SplitCoins(Gas, [Input(0)])
`)
	tx, err := testBuilder().Build(context.Background(), cmd)
	require.NoError(t, err)
	require.Len(t, tx.Inputs, 5)

	assert.Equal(t, ledger.PureU64(1000), tx.Inputs[0].Pure)
	addr, _ := ledger.ParseAddress("0xa")
	assert.Equal(t, ledger.PureAddress(addr), tx.Inputs[1].Pure)
	assert.Equal(t, []byte{1}, tx.Inputs[2].Pure)
	assert.Equal(t, ledger.PureBytes([]byte{0xff}), tx.Inputs[3].Pure)
	assert.Equal(t, ledger.PureVector([][]byte{{1}, {2}}), tx.Inputs[4].Pure)
}

func TestBuild_RejectsForwardReference(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			"result of self",
			"//# programmable --inputs 1000\n//> TransferObjects([Result(0)], Input(0))\n",
		},
		{
			"result of later command",
			"//# programmable --inputs 1000\n//> TransferObjects([Result(1)], Input(0))\n//> SplitCoins(Gas, [Input(0)])\n",
		},
		{
			"nested result of self",
			"//# programmable --inputs 1000\n//> TransferObjects([NestedResult(0,0)], Input(0))\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := parseProgrammable(t, tt.text)
			_, err := testBuilder().Build(context.Background(), cmd)
			require.Error(t, err)
			assert.Equal(t, runerr.CodeForwardReference, runerr.CodeOf(err))
		})
	}
}

func TestBuild_RejectsInputOutOfRange(t *testing.T) {
	cmd := parseProgrammable(t, "//# programmable --inputs 1000\n//> SplitCoins(Gas, [Input(3)])\n")
	_, err := testBuilder().Build(context.Background(), cmd)
	require.Error(t, err)
	assert.Equal(t, runerr.CodeInvalidOption, runerr.CodeOf(err))
}

func TestBuild_RejectsNestedResultOutOfArity(t *testing.T) {
	cmd := parseProgrammable(t, `//# programmable --inputs 10 20 @A
//> SplitCoins(Gas, [Input(0), Input(1)])
//> TransferObjects([NestedResult(0,2)], Input(2))
`)
	_, err := testBuilder().Build(context.Background(), cmd)
	require.Error(t, err)
	assert.Equal(t, runerr.CodeInvalidOption, runerr.CodeOf(err))
}

func TestBuild_ResultOnMultiResultCommand(t *testing.T) {
	cmd := parseProgrammable(t, `//# programmable --inputs 10 20 @A
//> SplitCoins(Gas, [Input(0), Input(1)])
//> TransferObjects([Result(0)], Input(2))
`)
	_, err := testBuilder().Build(context.Background(), cmd)
	require.Error(t, err)
	assert.Equal(t, runerr.CodeInvalidOption, runerr.CodeOf(err))
}

func TestBuild_BackwardReferencesSucceed(t *testing.T) {
	cmd := parseProgrammable(t, `//# programmable --inputs 1000 @A
//> SplitCoins(Gas, [Input(0)])
//> TransferObjects([NestedResult(0,0)], Input(1))
`)
	tx, err := testBuilder().Build(context.Background(), cmd)
	require.NoError(t, err)
	require.Len(t, tx.Commands, 2)
	assert.Equal(t, ledger.CmdSplitCoins, tx.Commands[0].Kind)
	assert.Equal(t, ledger.CmdTransferObjects, tx.Commands[1].Kind)
}

func TestBuild_MoveCallResolvesPackage(t *testing.T) {
	cmd := parseProgrammable(t, "//# programmable\n//> 0x2::coin::value<0x2::iota::IOTA>()\n")
	tx, err := testBuilder().Build(context.Background(), cmd)
	require.NoError(t, err)
	require.Len(t, tx.Commands, 1)
	c := tx.Commands[0]
	assert.Equal(t, ledger.CmdMoveCall, c.Kind)
	assert.Equal(t, "0x2", c.Package.Short())
	assert.Equal(t, "coin", c.Module)
	assert.Equal(t, "value", c.Function)
	assert.Equal(t, []string{"0x2::iota::IOTA"}, c.TypeArgs)
}

func TestBuild_UnboundNamedAddress(t *testing.T) {
	cmd := parseProgrammable(t, "//# programmable --inputs @nobody\n//> SplitCoins(Gas, [Input(0)])\n")
	_, err := testBuilder().Build(context.Background(), cmd)
	require.Error(t, err)
	assert.Equal(t, runerr.CodeAdapterExecutionFailed, runerr.CodeOf(err))
}

func TestBuild_StagedDigestInput(t *testing.T) {
	cmd := parseProgrammable(t, "//# programmable --inputs digest(pkg)\n//> SplitCoins(Gas, [Input(0)])\n")
	tx, err := testBuilder().Build(context.Background(), cmd)
	require.NoError(t, err)
	d := ledger.Digest{1}
	assert.Equal(t, ledger.PureBytes(d[:]), tx.Inputs[0].Pure)
}
