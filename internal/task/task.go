// Package task parses raw script blocks into typed task commands. The
// set of task kinds is closed: dispatching is an exhaustive type switch,
// and adding a kind is a compile-time change.
package task

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/movekit/transcheck/internal/fakeid"
	"github.com/movekit/transcheck/internal/runerr"
	"github.com/movekit/transcheck/internal/script"
)

// Task is one parsed directive block, immutable once built and consumed
// exactly once by the dispatcher in file order.
type Task struct {
	Index     int
	Name      string
	StartLine int
	EndLine   int
	Directive string
	Payload   string
	Command   Command
}

// Command is the closed set of task kinds.
type Command interface {
	taskCommand()
}

// InitCommand applies global configuration; legal only as the first block.
type InitCommand struct {
	Accounts          []string
	ProtocolVersion   uint64
	MaxGas            uint64
	ReferenceGasPrice uint64
	DefaultGasPrice   uint64
	Simulator         bool
}

// PublishCommand publishes the payload's program source.
type PublishCommand struct {
	Sender       string
	Upgradeable  bool
	Dependencies []string
	GasPrice     uint64
	GasBudget    uint64
}

// RunCommand calls one entry function.
type RunCommand struct {
	Function  string // package::module::function
	Sender    string
	Args      []Value
	TypeArgs  []string
	GasPrice  uint64
	GasBudget uint64
	Summarize bool
}

// ProgrammableCommand executes the payload's PTB command list.
type ProgrammableCommand struct {
	Sender     string
	Sponsor    string
	GasBudget  uint64
	GasPrice   uint64
	GasPayment *fakeid.FakeID
	DevInspect bool
	DryRun     bool
	Inputs     []Value
	Commands   []PTBCommand
}

// UpgradeCommand upgrades a previously published package.
type UpgradeCommand struct {
	Package           string
	UpgradeCapability fakeid.FakeID
	Dependencies      []string
	Sender            string
	GasBudget         uint64
	Policy            string
	GasPrice          uint64
}

// StagePackageCommand stages the payload's modules for later digest()
// references.
type StagePackageCommand struct {
	Dependencies []string
}

// ViewObjectCommand renders one object.
type ViewObjectCommand struct {
	ID fakeid.FakeID
}

// TransferObjectCommand transfers one object to a named recipient.
type TransferObjectCommand struct {
	ID        fakeid.FakeID
	Recipient string
	Sender    string
	GasBudget uint64
	GasPrice  uint64
}

// ConsensusCommitPrologueCommand injects a commit prologue transaction.
type ConsensusCommitPrologueCommand struct {
	TimestampMS uint64
}

// CreateCheckpointCommand requests checkpoint creation (simulator only).
type CreateCheckpointCommand struct {
	Count uint64
}

// AdvanceEpochCommand advances the epoch.
type AdvanceEpochCommand struct {
	Count             uint64
	CreateRandomState bool
}

// AdvanceClockCommand advances simulated time (simulator only).
type AdvanceClockCommand struct {
	DurationNS uint64
}

// SetAddressCommand binds a name in the alias table; last write wins.
type SetAddressCommand struct {
	Name  string
	Input Value
}

// SetRandomStateCommand overrides simulator randomness state.
type SetRandomStateCommand struct {
	Round          uint64
	RandomBytes    string
	InitialVersion uint64
}

// ViewCheckpointCommand reports the latest checkpoint (simulator only).
type ViewCheckpointCommand struct{}

// RunGraphQLCommand forwards the interpolated payload to the query
// service.
type RunGraphQLCommand struct {
	ShowUsage               bool
	ShowHeaders             bool
	ShowServiceVersion      bool
	Cursors                 []string
	WaitForCheckpointPruned uint64
}

// BenchCommand is RunCommand measured for performance.
type BenchCommand struct {
	RunCommand
}

// PrintBytecodeCommand disassembles the payload's program source.
type PrintBytecodeCommand struct{}

func (*InitCommand) taskCommand()                    {}
func (*PublishCommand) taskCommand()                 {}
func (*RunCommand) taskCommand()                     {}
func (*ProgrammableCommand) taskCommand()            {}
func (*UpgradeCommand) taskCommand()                 {}
func (*StagePackageCommand) taskCommand()            {}
func (*ViewObjectCommand) taskCommand()              {}
func (*TransferObjectCommand) taskCommand()          {}
func (*ConsensusCommitPrologueCommand) taskCommand() {}
func (*CreateCheckpointCommand) taskCommand()        {}
func (*AdvanceEpochCommand) taskCommand()            {}
func (*AdvanceClockCommand) taskCommand()            {}
func (*SetAddressCommand) taskCommand()              {}
func (*SetRandomStateCommand) taskCommand()          {}
func (*ViewCheckpointCommand) taskCommand()          {}
func (*RunGraphQLCommand) taskCommand()              {}
func (*BenchCommand) taskCommand()                   {}
func (*PrintBytecodeCommand) taskCommand()           {}

// ParseAll parses every block up front so that a script that cannot be
// parsed never partially executes. The init rule is enforced here: an
// init block anywhere but position zero is MISPLACED_INIT.
func ParseAll(blocks []script.Block) ([]Task, error) {
	tasks := make([]Task, 0, len(blocks))
	for i, b := range blocks {
		t, err := Parse(i, b)
		if err != nil {
			return nil, err
		}
		if _, ok := t.Command.(*InitCommand); ok && i != 0 {
			return nil, runerr.New(runerr.CodeMisplacedInit,
				"init is only legal as the first task").At(i, b.StartLine, b.EndLine)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Parse resolves one block's directive keyword and parses its flags into
// the matching typed command.
func Parse(index int, b script.Block) (Task, error) {
	t := Task{
		Index:     index,
		Name:      b.Tokens[0],
		StartLine: b.StartLine,
		EndLine:   b.EndLine,
		Directive: b.Directive,
		Payload:   b.PayloadText(),
	}
	args := b.Tokens[1:]

	cmd, err := parseCommand(t.Name, args, b)
	if err != nil {
		var re *runerr.RunError
		if errors.As(err, &re) {
			return Task{}, re.At(index, b.StartLine, b.EndLine)
		}
		return Task{}, runerr.Wrap(runerr.CodeInvalidOption, err,
			"task %q", t.Name).At(index, b.StartLine, b.EndLine)
	}
	t.Command = cmd
	return t, nil
}

func parseCommand(name string, args []string, b script.Block) (Command, error) {
	switch name {
	case "init":
		return parseInit(args)
	case "publish":
		return parsePublish(args)
	case "run":
		return parseRun(args)
	case "programmable":
		return parseProgrammable(args, b)
	case "upgrade":
		return parseUpgrade(args)
	case "stage-package":
		return parseStagePackage(args)
	case "view-object":
		return parseViewObject(args)
	case "transfer-object":
		return parseTransferObject(args)
	case "consensus-commit-prologue":
		return parseConsensusCommitPrologue(args)
	case "create-checkpoint":
		return parseCreateCheckpoint(args)
	case "advance-epoch":
		return parseAdvanceEpoch(args)
	case "advance-clock":
		return parseAdvanceClock(args)
	case "set-address":
		return parseSetAddress(args)
	case "set-random-state":
		return parseSetRandomState(args)
	case "view-checkpoint":
		return parseNoArgs(&ViewCheckpointCommand{}, "view-checkpoint", args)
	case "run-graphql":
		return parseRunGraphQL(args)
	case "bench":
		return parseBench(args)
	case "print-bytecode":
		return parseNoArgs(&PrintBytecodeCommand{}, "print-bytecode", args)
	default:
		return nil, runerr.New(runerr.CodeUnknownTask, "unknown task %q", name)
	}
}

// newFlagSet builds a pflag set configured the way directive lines need:
// errors returned, no interspersed-help behavior.
func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.Usage = func() {}
	return fs
}

// groupMultiFlags rewrites greedy multi-value flags (clap num_args(1..)
// style: `--inputs 1 2 3`) into repeated `--flag value` pairs so pflag's
// StringArray accumulates them without comma-splitting.
func groupMultiFlags(args []string, multi map[string]bool) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		name, ok := strings.CutPrefix(a, "--")
		if !ok || !multi[name] {
			out = append(out, a)
			continue
		}
		for i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
			i++
			out = append(out, a, args[i])
		}
	}
	return out
}

func parseFlags(fs *pflag.FlagSet, args []string, multi map[string]bool) ([]string, error) {
	if multi != nil {
		args = groupMultiFlags(args, multi)
	}
	if err := fs.Parse(args); err != nil {
		return nil, runerr.Wrap(runerr.CodeInvalidOption, err, "invalid options")
	}
	return fs.Args(), nil
}

func parseNoArgs(cmd Command, name string, args []string) (Command, error) {
	if len(args) != 0 {
		return nil, runerr.New(runerr.CodeInvalidOption, "%s takes no arguments", name)
	}
	return cmd, nil
}

func parseInit(args []string) (Command, error) {
	cmd := &InitCommand{}
	fs := newFlagSet("init")
	fs.StringArrayVar(&cmd.Accounts, "accounts", nil, "")
	fs.Uint64Var(&cmd.ProtocolVersion, "protocol-version", 0, "")
	fs.Uint64Var(&cmd.MaxGas, "max-gas", 0, "")
	fs.Uint64Var(&cmd.ReferenceGasPrice, "reference-gas-price", 0, "")
	fs.Uint64Var(&cmd.DefaultGasPrice, "default-gas-price", 0, "")
	fs.BoolVar(&cmd.Simulator, "simulator", false, "")
	rest, err := parseFlags(fs, args, map[string]bool{"accounts": true})
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, runerr.New(runerr.CodeInvalidOption, "init: unexpected arguments %v", rest)
	}
	seen := map[string]bool{}
	for _, a := range cmd.Accounts {
		if seen[a] {
			return nil, runerr.New(runerr.CodeInvalidOption, "init: duplicate account %q", a)
		}
		seen[a] = true
	}
	return cmd, nil
}

func parsePublish(args []string) (Command, error) {
	cmd := &PublishCommand{}
	fs := newFlagSet("publish")
	fs.StringVar(&cmd.Sender, "sender", "", "")
	fs.BoolVar(&cmd.Upgradeable, "upgradeable", false, "")
	fs.StringArrayVar(&cmd.Dependencies, "dependencies", nil, "")
	fs.Uint64Var(&cmd.GasPrice, "gas-price", 0, "")
	fs.Uint64Var(&cmd.GasBudget, "gas-budget", 0, "")
	rest, err := parseFlags(fs, args, map[string]bool{"dependencies": true})
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, runerr.New(runerr.CodeInvalidOption, "publish: unexpected arguments %v", rest)
	}
	return cmd, nil
}

func parseRunInto(cmd *RunCommand, name string, args []string) error {
	var rawArgs, typeArgs []string
	fs := newFlagSet(name)
	fs.StringVar(&cmd.Sender, "sender", "", "")
	fs.StringArrayVar(&rawArgs, "args", nil, "")
	fs.StringArrayVar(&typeArgs, "type-args", nil, "")
	fs.Uint64Var(&cmd.GasPrice, "gas-price", 0, "")
	fs.Uint64Var(&cmd.GasBudget, "gas-budget", 0, "")
	fs.BoolVar(&cmd.Summarize, "summarize", false, "")
	rest, err := parseFlags(fs, args, map[string]bool{"args": true, "type-args": true})
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return runerr.New(runerr.CodeInvalidOption, "%s requires exactly one FUNCTION argument", name)
	}
	if strings.Count(rest[0], "::") != 2 {
		return runerr.New(runerr.CodeInvalidOption,
			"%s: function must be package::module::function, got %q", name, rest[0])
	}
	cmd.Function = rest[0]
	cmd.TypeArgs = typeArgs
	for _, raw := range rawArgs {
		v, err := ParseValue(raw)
		if err != nil {
			return runerr.Wrap(runerr.CodeInvalidOption, err, "%s: bad argument %q", name, raw)
		}
		cmd.Args = append(cmd.Args, v)
	}
	return nil
}

func parseRun(args []string) (Command, error) {
	cmd := &RunCommand{}
	if err := parseRunInto(cmd, "run", args); err != nil {
		return nil, err
	}
	return cmd, nil
}

func parseBench(args []string) (Command, error) {
	cmd := &BenchCommand{}
	if err := parseRunInto(&cmd.RunCommand, "bench", args); err != nil {
		return nil, err
	}
	return cmd, nil
}

func parseProgrammable(args []string, b script.Block) (Command, error) {
	cmd := &ProgrammableCommand{}
	var rawInputs []string
	var gasPayment string
	fs := newFlagSet("programmable")
	fs.StringVar(&cmd.Sender, "sender", "", "")
	fs.StringVar(&cmd.Sponsor, "sponsor", "", "")
	fs.Uint64Var(&cmd.GasBudget, "gas-budget", 0, "")
	fs.Uint64Var(&cmd.GasPrice, "gas-price", 0, "")
	fs.StringVar(&gasPayment, "gas-payment", "", "")
	fs.BoolVar(&cmd.DevInspect, "dev-inspect", false, "")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "")
	fs.StringArrayVar(&rawInputs, "inputs", nil, "")
	rest, err := parseFlags(fs, args, map[string]bool{"inputs": true})
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, runerr.New(runerr.CodeInvalidOption, "programmable: unexpected arguments %v", rest)
	}
	if gasPayment != "" {
		id, err := ParseFakeID(gasPayment)
		if err != nil {
			return nil, runerr.Wrap(runerr.CodeInvalidOption, err, "programmable: bad --gas-payment")
		}
		cmd.GasPayment = &id
	}
	for _, raw := range rawInputs {
		v, err := ParseValue(raw)
		if err != nil {
			return nil, runerr.Wrap(runerr.CodeInvalidOption, err, "programmable: bad input %q", raw)
		}
		cmd.Inputs = append(cmd.Inputs, v)
	}
	cmd.Commands, err = parsePTBLines(b)
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

func parseUpgrade(args []string) (Command, error) {
	cmd := &UpgradeCommand{}
	var capRef string
	fs := newFlagSet("upgrade")
	fs.StringVar(&cmd.Package, "package", "", "")
	fs.StringVar(&capRef, "upgrade-capability", "", "")
	fs.StringArrayVar(&cmd.Dependencies, "dependencies", nil, "")
	fs.StringVar(&cmd.Sender, "sender", "", "")
	fs.Uint64Var(&cmd.GasBudget, "gas-budget", 0, "")
	fs.StringVar(&cmd.Policy, "policy", "compatible", "")
	fs.Uint64Var(&cmd.GasPrice, "gas-price", 0, "")
	rest, err := parseFlags(fs, args, map[string]bool{"dependencies": true})
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, runerr.New(runerr.CodeInvalidOption, "upgrade: unexpected arguments %v", rest)
	}
	if cmd.Package == "" || capRef == "" || cmd.Sender == "" {
		return nil, runerr.New(runerr.CodeInvalidOption,
			"upgrade requires --package, --upgrade-capability and --sender")
	}
	switch cmd.Policy {
	case "compatible", "additive", "dep_only":
	default:
		return nil, runerr.New(runerr.CodeInvalidOption,
			"invalid upgrade policy %q: must be one of 'compatible', 'additive', or 'dep_only'", cmd.Policy)
	}
	cmd.UpgradeCapability, err = ParseFakeID(capRef)
	if err != nil {
		return nil, runerr.Wrap(runerr.CodeInvalidOption, err, "upgrade: bad --upgrade-capability")
	}
	return cmd, nil
}

func parseStagePackage(args []string) (Command, error) {
	cmd := &StagePackageCommand{}
	fs := newFlagSet("stage-package")
	fs.StringArrayVar(&cmd.Dependencies, "dependencies", nil, "")
	rest, err := parseFlags(fs, args, map[string]bool{"dependencies": true})
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, runerr.New(runerr.CodeInvalidOption, "stage-package: unexpected arguments %v", rest)
	}
	return cmd, nil
}

func parseViewObject(args []string) (Command, error) {
	if len(args) != 1 {
		return nil, runerr.New(runerr.CodeInvalidOption, "view-object requires exactly one FAKEID argument")
	}
	id, err := ParseFakeID(args[0])
	if err != nil {
		return nil, runerr.Wrap(runerr.CodeInvalidOption, err, "view-object: bad id")
	}
	return &ViewObjectCommand{ID: id}, nil
}

func parseTransferObject(args []string) (Command, error) {
	cmd := &TransferObjectCommand{}
	fs := newFlagSet("transfer-object")
	fs.StringVar(&cmd.Recipient, "recipient", "", "")
	fs.StringVar(&cmd.Sender, "sender", "", "")
	fs.Uint64Var(&cmd.GasBudget, "gas-budget", 0, "")
	fs.Uint64Var(&cmd.GasPrice, "gas-price", 0, "")
	rest, err := parseFlags(fs, args, nil)
	if err != nil {
		return nil, err
	}
	if len(rest) != 1 {
		return nil, runerr.New(runerr.CodeInvalidOption, "transfer-object requires exactly one FAKEID argument")
	}
	if cmd.Recipient == "" {
		return nil, runerr.New(runerr.CodeInvalidOption, "transfer-object requires --recipient")
	}
	cmd.ID, err = ParseFakeID(rest[0])
	if err != nil {
		return nil, runerr.Wrap(runerr.CodeInvalidOption, err, "transfer-object: bad id")
	}
	return cmd, nil
}

func parseConsensusCommitPrologue(args []string) (Command, error) {
	cmd := &ConsensusCommitPrologueCommand{}
	fs := newFlagSet("consensus-commit-prologue")
	fs.Uint64Var(&cmd.TimestampMS, "timestamp-ms", 0, "")
	rest, err := parseFlags(fs, args, nil)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, runerr.New(runerr.CodeInvalidOption,
			"consensus-commit-prologue: unexpected arguments %v", rest)
	}
	return cmd, nil
}

func parseCount(name string, args []string) (uint64, []string, error) {
	if len(args) == 0 {
		return 1, nil, nil
	}
	var n uint64
	if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil || n == 0 {
		return 0, nil, runerr.New(runerr.CodeInvalidOption, "%s: count must be a positive integer, got %q", name, args[0])
	}
	return n, args[1:], nil
}

func parseCreateCheckpoint(args []string) (Command, error) {
	n, rest, err := parseCount("create-checkpoint", args)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, runerr.New(runerr.CodeInvalidOption, "create-checkpoint: unexpected arguments %v", rest)
	}
	return &CreateCheckpointCommand{Count: n}, nil
}

func parseAdvanceEpoch(args []string) (Command, error) {
	cmd := &AdvanceEpochCommand{}
	fs := newFlagSet("advance-epoch")
	fs.BoolVar(&cmd.CreateRandomState, "create-random-state", false, "")
	rest, err := parseFlags(fs, args, nil)
	if err != nil {
		return nil, err
	}
	cmd.Count, rest, err = parseCount("advance-epoch", rest)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, runerr.New(runerr.CodeInvalidOption, "advance-epoch: unexpected arguments %v", rest)
	}
	return cmd, nil
}

func parseAdvanceClock(args []string) (Command, error) {
	cmd := &AdvanceClockCommand{}
	fs := newFlagSet("advance-clock")
	fs.Uint64Var(&cmd.DurationNS, "duration-ns", 0, "")
	rest, err := parseFlags(fs, args, nil)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, runerr.New(runerr.CodeInvalidOption, "advance-clock: unexpected arguments %v", rest)
	}
	if cmd.DurationNS == 0 {
		return nil, runerr.New(runerr.CodeInvalidOption, "advance-clock requires --duration-ns")
	}
	return cmd, nil
}

func parseSetAddress(args []string) (Command, error) {
	if len(args) != 2 {
		return nil, runerr.New(runerr.CodeInvalidOption, "set-address requires NAME and INPUT arguments")
	}
	v, err := ParseValue(args[1])
	if err != nil {
		return nil, runerr.Wrap(runerr.CodeInvalidOption, err, "set-address: bad input %q", args[1])
	}
	return &SetAddressCommand{Name: args[0], Input: v}, nil
}

func parseSetRandomState(args []string) (Command, error) {
	cmd := &SetRandomStateCommand{}
	fs := newFlagSet("set-random-state")
	fs.Uint64Var(&cmd.Round, "randomness-round", 0, "")
	fs.StringVar(&cmd.RandomBytes, "random-bytes", "", "")
	fs.Uint64Var(&cmd.InitialVersion, "randomness-initial-version", 0, "")
	rest, err := parseFlags(fs, args, nil)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, runerr.New(runerr.CodeInvalidOption, "set-random-state: unexpected arguments %v", rest)
	}
	if cmd.RandomBytes == "" {
		return nil, runerr.New(runerr.CodeInvalidOption, "set-random-state requires --random-bytes")
	}
	return cmd, nil
}

func parseRunGraphQL(args []string) (Command, error) {
	cmd := &RunGraphQLCommand{}
	fs := newFlagSet("run-graphql")
	fs.BoolVar(&cmd.ShowUsage, "show-usage", false, "")
	fs.BoolVar(&cmd.ShowHeaders, "show-headers", false, "")
	fs.BoolVar(&cmd.ShowServiceVersion, "show-service-version", false, "")
	fs.StringArrayVar(&cmd.Cursors, "cursors", nil, "")
	fs.Uint64Var(&cmd.WaitForCheckpointPruned, "wait-for-checkpoint-pruned", 0, "")
	rest, err := parseFlags(fs, args, map[string]bool{"cursors": true})
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, runerr.New(runerr.CodeInvalidOption, "run-graphql: unexpected arguments %v", rest)
	}
	return cmd, nil
}
