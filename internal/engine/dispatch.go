package engine

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/movekit/transcheck/internal/fakeid"
	"github.com/movekit/transcheck/internal/interp"
	"github.com/movekit/transcheck/internal/ledger"
	"github.com/movekit/transcheck/internal/runerr"
	"github.com/movekit/transcheck/internal/sim"
	"github.com/movekit/transcheck/internal/task"
)

// runTask executes one parsed task and returns the transcript body for
// its block. The switch is exhaustive over the closed command set.
func (e *Engine) runTask(ctx context.Context, t task.Task) (string, error) {
	switch cmd := t.Command.(type) {
	case *task.InitCommand:
		// ParseAll guarantees init only appears at index 0, which the
		// run loop consumes before dispatching.
		return "", runerr.New(runerr.CodeMisplacedInit, "init is only legal as the first task")
	case *task.PublishCommand:
		return e.runPublish(ctx, t, cmd)
	case *task.RunCommand:
		return e.runRun(ctx, cmd)
	case *task.BenchCommand:
		return e.runBench(ctx, cmd)
	case *task.ProgrammableCommand:
		return e.runProgrammable(ctx, cmd)
	case *task.UpgradeCommand:
		return e.runUpgrade(ctx, t, cmd)
	case *task.StagePackageCommand:
		return e.runStagePackage(t, cmd)
	case *task.ViewObjectCommand:
		return e.runViewObject(ctx, cmd)
	case *task.TransferObjectCommand:
		return e.runTransferObject(ctx, cmd)
	case *task.ConsensusCommitPrologueCommand:
		return e.runConsensusCommitPrologue(ctx, cmd)
	case *task.CreateCheckpointCommand:
		return e.runCreateCheckpoint(ctx, cmd)
	case *task.AdvanceEpochCommand:
		return e.runAdvanceEpoch(ctx, cmd)
	case *task.AdvanceClockCommand:
		return e.runAdvanceClock(ctx, cmd)
	case *task.SetAddressCommand:
		return e.runSetAddress(cmd)
	case *task.SetRandomStateCommand:
		return e.runSetRandomState(ctx, cmd)
	case *task.ViewCheckpointCommand:
		return e.runViewCheckpoint(ctx)
	case *task.RunGraphQLCommand:
		return e.runGraphQL(ctx, t, cmd)
	case *task.PrintBytecodeCommand:
		return e.runPrintBytecode(ctx, t)
	default:
		return "", fmt.Errorf("unhandled task command %T", t.Command)
	}
}

// execute fills gas defaults, runs the transaction and renders its
// effects, enumerating freshly created objects under the current task.
func (e *Engine) execute(ctx context.Context, tx *ledger.Transaction) (string, error) {
	if tx.GasBudget == 0 {
		tx.GasBudget = e.maxGas
	}
	if tx.GasPrice == 0 {
		tx.GasPrice = e.defaultGasPrice
	}
	eff, err := e.adapter.Execute(ctx, tx)
	if err != nil {
		if runerr.CodeOf(err) != "" {
			return "", err
		}
		return "", runerr.Wrap(runerr.CodeAdapterExecutionFailed, err, "transaction failed")
	}
	return e.renderEffects(eff), nil
}

func (e *Engine) runPublish(ctx context.Context, t task.Task, cmd *task.PublishCommand) (string, error) {
	sender, err := e.senderAddress(cmd.Sender)
	if err != nil {
		return "", err
	}
	deps, err := e.resolveDependencies(cmd.Dependencies)
	if err != nil {
		return "", err
	}
	tx := &ledger.Transaction{
		Sender:    sender,
		GasBudget: cmd.GasBudget,
		GasPrice:  cmd.GasPrice,
		Commands: []ledger.Command{{
			Kind:         ledger.CmdPublish,
			Modules:      [][]byte{[]byte(t.Payload)},
			Dependencies: deps,
		}},
	}
	body, err := e.execute(ctx, tx)
	if err != nil {
		return "", err
	}
	if err := e.bindPublishedModules(ctx, t.Payload); err != nil {
		return "", err
	}
	return body, nil
}

// bindPublishedModules binds each module name declared in the source to
// the freshly published package address, so later tasks can say
// `run name::mod::fn` or `upgrade --package name`.
func (e *Engine) bindPublishedModules(ctx context.Context, source string) error {
	pkg, ok := e.lastPackage(ctx)
	if !ok {
		return nil
	}
	for _, name := range sim.ModuleNames(source) {
		if _, bound := e.aliases[name]; !bound {
			e.aliases[name] = pkg
		}
	}
	return nil
}

// lastPackage finds the package object among the previous transaction's
// creations.
func (e *Engine) lastPackage(ctx context.Context) (ledger.ObjectID, bool) {
	for _, id := range e.lastCreated {
		view, err := e.adapter.GetObject(ctx, id, nil)
		if err != nil {
			continue
		}
		if view.Type == "package" {
			return id, true
		}
	}
	return ledger.ObjectID{}, false
}

func (e *Engine) runCall(ctx context.Context, cmd *task.RunCommand) (string, error) {
	sender, err := e.senderAddress(cmd.Sender)
	if err != nil {
		return "", err
	}
	parts := strings.Split(cmd.Function, "::")
	args := make([]ledger.Argument, len(cmd.Args))
	for i := range cmd.Args {
		args[i] = ledger.InputArg(uint16(i))
	}
	prog := &task.ProgrammableCommand{
		Sender:    cmd.Sender,
		GasBudget: cmd.GasBudget,
		GasPrice:  cmd.GasPrice,
		Inputs:    cmd.Args,
		Commands: []task.PTBCommand{{
			Kind:     ledger.CmdMoveCall,
			Package:  parts[0],
			Module:   parts[1],
			Function: parts[2],
			TypeArgs: cmd.TypeArgs,
			Args:     args,
		}},
	}
	tx, err := e.builder.Build(ctx, prog)
	if err != nil {
		return "", err
	}
	tx.Sender = sender
	tx.GasBudget = cmd.GasBudget
	tx.GasPrice = cmd.GasPrice
	return e.execute(ctx, tx)
}

// runRun executes a run task. --summarize reports timing to the log
// only, same as bench: wall-clock numbers never enter the transcript.
func (e *Engine) runRun(ctx context.Context, cmd *task.RunCommand) (string, error) {
	start := time.Now()
	body, err := e.runCall(ctx, cmd)
	if err != nil {
		return "", err
	}
	if cmd.Summarize {
		e.log.Info("run", "function", cmd.Function, "elapsed", time.Since(start))
	}
	return body, nil
}

func (e *Engine) runBench(ctx context.Context, cmd *task.BenchCommand) (string, error) {
	start := time.Now()
	body, err := e.runCall(ctx, &cmd.RunCommand)
	if err != nil {
		return "", err
	}
	// Timing never enters the transcript: wall-clock numbers would
	// break byte-exact golden comparison.
	if cmd.Summarize {
		e.log.Info("bench", "function", cmd.Function, "elapsed", time.Since(start))
	}
	return body, nil
}

func (e *Engine) runProgrammable(ctx context.Context, cmd *task.ProgrammableCommand) (string, error) {
	sender, err := e.senderAddress(cmd.Sender)
	if err != nil {
		return "", err
	}
	tx, err := e.builder.Build(ctx, cmd)
	if err != nil {
		return "", err
	}
	tx.Sender = sender
	tx.GasBudget = cmd.GasBudget
	tx.GasPrice = cmd.GasPrice
	if cmd.Sponsor != "" {
		sponsor, err := e.senderAddress(cmd.Sponsor)
		if err != nil {
			return "", err
		}
		tx.Sponsor = &sponsor
	}
	if cmd.GasPayment != nil {
		id, ok := e.registry.Lookup(*cmd.GasPayment)
		if !ok {
			return "", runerr.New(runerr.CodeUnknownFakeID,
				"unknown object, object(%d,%d)", cmd.GasPayment.Task, cmd.GasPayment.Index)
		}
		tx.GasPayment = &id
	}
	return e.execute(ctx, tx)
}

func (e *Engine) runUpgrade(ctx context.Context, t task.Task, cmd *task.UpgradeCommand) (string, error) {
	sender, err := e.senderAddress(cmd.Sender)
	if err != nil {
		return "", err
	}
	target, ok := e.aliases[cmd.Package]
	if !ok {
		return "", runerr.New(runerr.CodeAdapterExecutionFailed,
			"unbound package %q", cmd.Package)
	}
	capArg, err := e.resolver.Resolve(ctx, fakeid.ObjectRef{Fake: &cmd.UpgradeCapability})
	if err != nil {
		return "", err
	}
	deps, err := e.resolveDependencies(cmd.Dependencies)
	if err != nil {
		return "", err
	}
	tx := &ledger.Transaction{
		Sender:    sender,
		GasBudget: cmd.GasBudget,
		GasPrice:  cmd.GasPrice,
		Inputs:    []ledger.CallArg{{Object: capArg}},
		Commands: []ledger.Command{{
			Kind:          ledger.CmdUpgrade,
			Modules:       [][]byte{[]byte(t.Payload)},
			Dependencies:  deps,
			UpgradeTarget: target,
			Ticket:        ledger.InputArg(0),
		}},
	}
	body, err := e.execute(ctx, tx)
	if err != nil {
		return "", err
	}
	// The upgraded package takes over the name binding.
	if err := e.rebindUpgraded(ctx, cmd.Package, t.Payload); err != nil {
		return "", err
	}
	return body, nil
}

func (e *Engine) rebindUpgraded(ctx context.Context, name, source string) error {
	pkg, ok := e.lastPackage(ctx)
	if !ok {
		return nil
	}
	e.aliases[name] = pkg
	for _, mod := range sim.ModuleNames(source) {
		e.aliases[mod] = pkg
	}
	return nil
}

func (e *Engine) runStagePackage(t task.Task, cmd *task.StagePackageCommand) (string, error) {
	names := sim.ModuleNames(t.Payload)
	if len(names) == 0 {
		return "", runerr.New(runerr.CodeInvalidOption,
			"stage-package payload declares no modules")
	}
	digest := sim.SourceDigest(t.Payload)
	name := names[0]
	e.staged[name] = stagedPackage{digest: digest, source: t.Payload}
	return fmt.Sprintf("Staged: %s digest: %s", name, digest), nil
}

func (e *Engine) runViewObject(ctx context.Context, cmd *task.ViewObjectCommand) (string, error) {
	id, err := e.resolver.ResolveID(fakeid.ObjectRef{Fake: &cmd.ID})
	if err != nil {
		return "", err
	}
	view, err := e.adapter.GetObject(ctx, id, nil)
	if err != nil {
		return "", runerr.Wrap(runerr.CodeAdapterExecutionFailed, err,
			"cannot view object(%d,%d)", cmd.ID.Task, cmd.ID.Index)
	}
	e.registry.NoteVersion(id, view.Version)
	return renderView(view), nil
}

func (e *Engine) runTransferObject(ctx context.Context, cmd *task.TransferObjectCommand) (string, error) {
	sender, err := e.senderAddress(cmd.Sender)
	if err != nil {
		return "", err
	}
	recipient, err := e.senderAddress(cmd.Recipient)
	if err != nil {
		return "", err
	}
	objArg, err := e.resolver.Resolve(ctx, fakeid.ObjectRef{Fake: &cmd.ID})
	if err != nil {
		return "", err
	}
	tx := &ledger.Transaction{
		Sender:    sender,
		GasBudget: cmd.GasBudget,
		GasPrice:  cmd.GasPrice,
		Inputs: []ledger.CallArg{
			{Object: objArg},
			{Pure: ledger.PureAddress(recipient)},
		},
		Commands: []ledger.Command{{
			Kind:      ledger.CmdTransferObjects,
			Args:      []ledger.Argument{ledger.InputArg(0)},
			Recipient: ledger.InputArg(1),
		}},
	}
	return e.execute(ctx, tx)
}

// runConsensusCommitPrologue reports like any transaction task: the
// system transaction has no object effects, so the body is its gas line.
func (e *Engine) runConsensusCommitPrologue(ctx context.Context, cmd *task.ConsensusCommitPrologueCommand) (string, error) {
	s, err := e.requireSimulator("consensus-commit-prologue")
	if err != nil {
		return "", err
	}
	d := time.Duration(cmd.TimestampMS) * time.Millisecond
	eff, err := s.ConsensusCommitPrologue(ctx, d)
	if err != nil {
		if runerr.CodeOf(err) != "" {
			return "", err
		}
		return "", runerr.Wrap(runerr.CodeAdapterExecutionFailed, err, "consensus-commit-prologue")
	}
	return e.renderEffects(eff), nil
}

func (e *Engine) runCreateCheckpoint(ctx context.Context, cmd *task.CreateCheckpointCommand) (string, error) {
	s, err := e.requireSimulator("create-checkpoint")
	if err != nil {
		return "", err
	}
	seq, err := s.CreateCheckpoint(ctx, cmd.Count)
	if err != nil {
		return "", runerr.Wrap(runerr.CodeAdapterExecutionFailed, err, "create-checkpoint")
	}
	return fmt.Sprintf("Checkpoint created: %d", seq), nil
}

func (e *Engine) runAdvanceEpoch(ctx context.Context, cmd *task.AdvanceEpochCommand) (string, error) {
	epoch, err := e.adapter.AdvanceEpoch(ctx, cmd.Count, cmd.CreateRandomState)
	if err != nil {
		return "", runerr.Wrap(runerr.CodeAdapterExecutionFailed, err, "advance-epoch")
	}
	return fmt.Sprintf("Epoch advanced: %d", epoch), nil
}

func (e *Engine) runAdvanceClock(ctx context.Context, cmd *task.AdvanceClockCommand) (string, error) {
	s, err := e.requireSimulator("advance-clock")
	if err != nil {
		return "", err
	}
	if err := s.AdvanceClock(ctx, time.Duration(cmd.DurationNS)); err != nil {
		return "", runerr.Wrap(runerr.CodeAdapterExecutionFailed, err, "advance-clock")
	}
	return "", nil
}

func (e *Engine) runSetAddress(cmd *task.SetAddressCommand) (string, error) {
	var addr ledger.Address
	switch cmd.Input.Kind {
	case task.ValAddress:
		addr = cmd.Input.Address
	case task.ValNamedAddress:
		a, ok := e.aliases[cmd.Input.Name]
		if !ok {
			return "", runerr.New(runerr.CodeAdapterExecutionFailed,
				"unbound named address %q", cmd.Input.Name)
		}
		addr = a
	case task.ValObject:
		id, err := e.resolver.ResolveID(cmd.Input.Object)
		if err != nil {
			return "", err
		}
		addr = id
	default:
		return "", runerr.New(runerr.CodeInvalidOption,
			"set-address input must be an address or object reference")
	}
	// Last write wins.
	e.aliases[cmd.Name] = addr
	return "", nil
}

func (e *Engine) runSetRandomState(ctx context.Context, cmd *task.SetRandomStateCommand) (string, error) {
	s, err := e.requireSimulator("set-random-state")
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(cmd.RandomBytes)
	if err != nil {
		return "", runerr.Wrap(runerr.CodeInvalidOption, err, "bad --random-bytes")
	}
	if err := s.SetRandomState(ctx, cmd.Round, raw, ledger.Version(cmd.InitialVersion)); err != nil {
		return "", runerr.Wrap(runerr.CodeAdapterExecutionFailed, err, "set-random-state")
	}
	return "", nil
}

func (e *Engine) runViewCheckpoint(ctx context.Context) (string, error) {
	s, err := e.requireSimulator("view-checkpoint")
	if err != nil {
		return "", err
	}
	sum, err := s.ViewCheckpoint(ctx)
	if err != nil {
		return "", runerr.Wrap(runerr.CodeAdapterExecutionFailed, err, "view-checkpoint")
	}
	return fmt.Sprintf("CheckpointSummary { epoch: %d, seq: %d, content_digest: %s }",
		sum.Epoch, sum.SequenceNumber, sum.ContentDigest), nil
}

func (e *Engine) runGraphQL(ctx context.Context, t task.Task, cmd *task.RunGraphQLCommand) (string, error) {
	if e.query == nil {
		return "", runerr.New(runerr.CodeUnsupportedOutsideSimulator,
			"run-graphql requires a query service")
	}
	body, err := interp.Interpolate(t.Payload, cmd.Cursors, interp.Lookup{
		Object: func(taskIdx, index uint64) (ledger.ObjectID, bool) {
			return e.registry.Lookup(fakeid.FakeID{Task: taskIdx, Index: index})
		},
		Named: func(name string) (ledger.Address, bool) {
			a, ok := e.aliases[name]
			return a, ok
		},
	})
	if err != nil {
		return "", err
	}
	resp, err := e.query.Query(ctx, body, ledger.QueryOptions{
		ShowUsage:          cmd.ShowUsage,
		ShowHeaders:        cmd.ShowHeaders,
		ShowServiceVersion: cmd.ShowServiceVersion,
	})
	if err != nil {
		return "", runerr.Wrap(runerr.CodeAdapterExecutionFailed, err, "run-graphql")
	}
	return renderQuery(cmd, resp), nil
}

func (e *Engine) runPrintBytecode(ctx context.Context, t task.Task) (string, error) {
	dis, ok := e.adapter.(ledger.Disassembler)
	if !ok {
		return "", runerr.New(runerr.CodeUnsupportedOutsideSimulator,
			"print-bytecode requires a disassembling backend")
	}
	out, err := dis.Disassemble(ctx, t.Payload)
	if err != nil {
		return "", runerr.Wrap(runerr.CodeAdapterExecutionFailed, err, "print-bytecode")
	}
	return strings.TrimRight(out, "\n"), nil
}

func (e *Engine) resolveDependencies(names []string) ([]ledger.Address, error) {
	deps := make([]ledger.Address, 0, len(names))
	for _, name := range names {
		if strings.HasPrefix(name, "0x") {
			a, err := ledger.ParseAddress(name)
			if err != nil {
				return nil, runerr.Wrap(runerr.CodeInvalidOption, err, "bad dependency %q", name)
			}
			deps = append(deps, a)
			continue
		}
		a, ok := e.aliases[name]
		if !ok {
			return nil, runerr.New(runerr.CodeAdapterExecutionFailed,
				"unbound dependency %q", name)
		}
		deps = append(deps, a)
	}
	return deps, nil
}
