package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movekit/transcheck/internal/fakeid"
	"github.com/movekit/transcheck/internal/runerr"
	"github.com/movekit/transcheck/internal/script"
)

func mustBlocks(t *testing.T, text string) []script.Block {
	t.Helper()
	blocks, err := script.Tokenize(text)
	require.NoError(t, err)
	return blocks
}

func TestParseAll_InitMustBeFirst(t *testing.T) {
	blocks := mustBlocks(t, "//# create-checkpoint\n\n//# init --accounts A\n")
	_, err := ParseAll(blocks)
	require.Error(t, err)
	assert.Equal(t, runerr.CodeMisplacedInit, runerr.CodeOf(err))
}

func TestParse_UnknownTask(t *testing.T) {
	blocks := mustBlocks(t, "//# frobnicate --hard\n")
	_, err := ParseAll(blocks)
	require.Error(t, err)
	assert.Equal(t, runerr.CodeUnknownTask, runerr.CodeOf(err))
}

func TestParse_Init(t *testing.T) {
	blocks := mustBlocks(t, "//# init --accounts A B C --max-gas 5000 --simulator --default-gas-price 500\n")
	tasks, err := ParseAll(blocks)
	require.NoError(t, err)
	cmd := tasks[0].Command.(*InitCommand)
	assert.Equal(t, []string{"A", "B", "C"}, cmd.Accounts)
	assert.Equal(t, uint64(5000), cmd.MaxGas)
	assert.Equal(t, uint64(500), cmd.DefaultGasPrice)
	assert.True(t, cmd.Simulator)
}

func TestParse_InitDuplicateAccount(t *testing.T) {
	blocks := mustBlocks(t, "//# init --accounts A A\n")
	_, err := ParseAll(blocks)
	require.Error(t, err)
	assert.Equal(t, runerr.CodeInvalidOption, runerr.CodeOf(err))
}

func TestParse_ProgrammableMultiValueInputs(t *testing.T) {
	blocks := mustBlocks(t, "//# programmable --sender A --inputs 1000 @A object(1,0)\n//> SplitCoins(Gas, [Input(0)])\n")
	tasks, err := ParseAll(blocks)
	require.NoError(t, err)
	cmd := tasks[0].Command.(*ProgrammableCommand)
	assert.Equal(t, "A", cmd.Sender)
	require.Len(t, cmd.Inputs, 3)
	assert.Equal(t, ValNumber, cmd.Inputs[0].Kind)
	assert.Equal(t, ValNamedAddress, cmd.Inputs[1].Kind)
	assert.Equal(t, ValObject, cmd.Inputs[2].Kind)
	require.Len(t, cmd.Commands, 1)
}

func TestParse_ProgrammableGasPayment(t *testing.T) {
	blocks := mustBlocks(t, "//# programmable --sender A --gas-payment 0,0 --dry-run\n//> SplitCoins(Gas, [Input(0)])\n")
	tasks, err := ParseAll(blocks)
	require.NoError(t, err)
	cmd := tasks[0].Command.(*ProgrammableCommand)
	require.NotNil(t, cmd.GasPayment)
	assert.Equal(t, fakeid.FakeID{Task: 0, Index: 0}, *cmd.GasPayment)
	assert.True(t, cmd.DryRun)
}

func TestParse_Run(t *testing.T) {
	blocks := mustBlocks(t, "//# run p::m::f --sender A --args 1 @B --type-args 0x1::string::String --gas-budget 100\n")
	tasks, err := ParseAll(blocks)
	require.NoError(t, err)
	cmd := tasks[0].Command.(*RunCommand)
	assert.Equal(t, "p::m::f", cmd.Function)
	require.Len(t, cmd.Args, 2)
	assert.Equal(t, []string{"0x1::string::String"}, cmd.TypeArgs)
	assert.Equal(t, uint64(100), cmd.GasBudget)
}

func TestParse_RunRejectsBadFunctionPath(t *testing.T) {
	blocks := mustBlocks(t, "//# run justafunction\n")
	_, err := ParseAll(blocks)
	require.Error(t, err)
	assert.Equal(t, runerr.CodeInvalidOption, runerr.CodeOf(err))
}

func TestParse_UpgradePolicies(t *testing.T) {
	for _, policy := range []string{"compatible", "additive", "dep_only"} {
		blocks := mustBlocks(t, "//# upgrade --package p --upgrade-capability 1,1 --sender A --policy "+policy+"\nmodule 0x0::m {}\n")
		tasks, err := ParseAll(blocks)
		require.NoError(t, err)
		cmd := tasks[0].Command.(*UpgradeCommand)
		assert.Equal(t, policy, cmd.Policy)
		assert.Equal(t, fakeid.FakeID{Task: 1, Index: 1}, cmd.UpgradeCapability)
	}

	blocks := mustBlocks(t, "//# upgrade --package p --upgrade-capability 1,1 --sender A --policy yolo\n")
	_, err := ParseAll(blocks)
	require.Error(t, err)
	assert.Equal(t, runerr.CodeInvalidOption, runerr.CodeOf(err))
}

func TestParse_CountPositionals(t *testing.T) {
	blocks := mustBlocks(t, "//# create-checkpoint 5\n")
	tasks, err := ParseAll(blocks)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), tasks[0].Command.(*CreateCheckpointCommand).Count)

	blocks = mustBlocks(t, "//# create-checkpoint\n")
	tasks, err = ParseAll(blocks)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tasks[0].Command.(*CreateCheckpointCommand).Count)

	blocks = mustBlocks(t, "//# advance-epoch 3 --create-random-state\n")
	tasks, err = ParseAll(blocks)
	require.NoError(t, err)
	epoch := tasks[0].Command.(*AdvanceEpochCommand)
	assert.Equal(t, uint64(3), epoch.Count)
	assert.True(t, epoch.CreateRandomState)
}

func TestParse_ViewObjectAndTransfer(t *testing.T) {
	blocks := mustBlocks(t, "//# view-object 2,0\n")
	tasks, err := ParseAll(blocks)
	require.NoError(t, err)
	assert.Equal(t, fakeid.FakeID{Task: 2, Index: 0}, tasks[0].Command.(*ViewObjectCommand).ID)

	blocks = mustBlocks(t, "//# transfer-object 2,0 --recipient B --sender A\n")
	tasks, err = ParseAll(blocks)
	require.NoError(t, err)
	xfer := tasks[0].Command.(*TransferObjectCommand)
	assert.Equal(t, "B", xfer.Recipient)
	assert.Equal(t, "A", xfer.Sender)

	blocks = mustBlocks(t, "//# transfer-object 2,0 --sender A\n")
	_, err = ParseAll(blocks)
	require.Error(t, err)
	assert.Equal(t, runerr.CodeInvalidOption, runerr.CodeOf(err))
}

func TestParse_RunGraphQLCursors(t *testing.T) {
	blocks := mustBlocks(t, `//# run-graphql --show-headers --cursors "object(1,0),2" plain
query { objects }
`)
	tasks, err := ParseAll(blocks)
	require.NoError(t, err)
	cmd := tasks[0].Command.(*RunGraphQLCommand)
	assert.True(t, cmd.ShowHeaders)
	assert.Equal(t, []string{"object(1,0),2", "plain"}, cmd.Cursors)
	assert.Equal(t, "query { objects }", tasks[0].Payload)
}

func TestParse_ErrorsCarryTaskPosition(t *testing.T) {
	blocks := mustBlocks(t, "//# create-checkpoint\n\n//# run bad\n")
	_, err := ParseAll(blocks)
	require.Error(t, err)
	var re *runerr.RunError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, re.Task)
	assert.Equal(t, [2]int{3, 3}, re.Lines)
}

func TestParse_PTBLines(t *testing.T) {
	blocks := mustBlocks(t, `//# programmable --sender A --inputs 100 @B
//> 0: SplitCoins(Gas, [Input(0)]);
//> TransferObjects([Result(0)], Input(1))
`)
	tasks, err := ParseAll(blocks)
	require.NoError(t, err)
	cmd := tasks[0].Command.(*ProgrammableCommand)
	require.Len(t, cmd.Commands, 2)
	assert.Equal(t, "SplitCoins", cmd.Commands[0].Kind.String())
	assert.Equal(t, "TransferObjects", cmd.Commands[1].Kind.String())
}

func TestParse_PTBLinesMustBeContiguous(t *testing.T) {
	blocks := mustBlocks(t, "//# programmable --sender A\n//> SplitCoins(Gas, [Input(0)])\nstray\n//> MergeCoins(Gas, [Result(0)])\n")
	_, err := ParseAll(blocks)
	require.Error(t, err)
	assert.Equal(t, runerr.CodeMalformedScript, runerr.CodeOf(err))
}
