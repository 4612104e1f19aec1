// Package engine drives a parsed script through the ledger adapter,
// task by task, and accumulates the transcript that is diffed against
// the script's golden file. All run state (fake-ID registry, alias
// table, staged packages) is engine-owned; two engines never share
// anything, so parallel runs in one process cannot interfere.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/movekit/transcheck/internal/fakeid"
	"github.com/movekit/transcheck/internal/ledger"
	"github.com/movekit/transcheck/internal/ptb"
	"github.com/movekit/transcheck/internal/runerr"
	"github.com/movekit/transcheck/internal/script"
	"github.com/movekit/transcheck/internal/task"
	"github.com/movekit/transcheck/internal/transcript"
)

// State is the run lifecycle.
type State int

const (
	AwaitingInit State = iota
	Running
	Completed
	Aborted
)

// Engine executes one script against one adapter. Not reusable: a
// finished engine stays in its terminal state.
type Engine struct {
	log     *slog.Logger
	adapter ledger.Adapter
	query   ledger.QueryService // optional

	registry *fakeid.Registry
	resolver *fakeid.Resolver
	builder  *ptb.Builder
	aliases  map[string]ledger.Address
	staged   map[string]stagedPackage

	tr    *transcript.Transcript
	state State

	// lastCreated holds the previous transaction's created object IDs
	// so publish/upgrade can find the package they just created.
	lastCreated []ledger.ObjectID

	maxGas          uint64
	defaultGasPrice uint64

	// defaults applies when the script has no init block of its own.
	defaults ledger.InitConfig
}

type stagedPackage struct {
	digest ledger.Digest
	source string
}

// New creates an engine in AwaitingInit. query may be nil when the
// script has no run-graphql tasks.
func New(log *slog.Logger, adapter ledger.Adapter, query ledger.QueryService) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		log:      log,
		adapter:  adapter,
		query:    query,
		registry: fakeid.NewRegistry(),
		aliases:  make(map[string]ledger.Address),
		staged:   make(map[string]stagedPackage),
		tr:       transcript.New(),
		state:    AwaitingInit,

		maxGas:          1_000_000_000_000,
		defaultGasPrice: 1,
	}
	e.resolver = &fakeid.Resolver{Registry: e.registry, Source: adapter}
	e.builder = &ptb.Builder{
		Resolver: e.resolver,
		Aliases: func(name string) (ledger.Address, bool) {
			a, ok := e.aliases[name]
			return a, ok
		},
		Staged: func(name string) (ledger.Digest, bool) {
			p, ok := e.staged[name]
			return p.digest, ok
		},
	}
	return e
}

// State returns the current lifecycle state.
func (e *Engine) State() State { return e.state }

// SetDefaults installs the configuration used when a script has no init
// block. A script's own init task always wins. Must be called before
// RunScript.
func (e *Engine) SetDefaults(cfg ledger.InitConfig) {
	e.defaults = cfg
	if cfg.MaxGas != 0 {
		e.maxGas = cfg.MaxGas
	}
	if cfg.DefaultGasPrice != 0 {
		e.defaultGasPrice = cfg.DefaultGasPrice
	}
}

// RunScript parses and executes the script text. The transcript is
// returned even when the run aborts: an aborted run's partial output is
// still compared, since scripts may assert failures on purpose.
func (e *Engine) RunScript(ctx context.Context, text string) (string, error) {
	blocks, err := script.Tokenize(text)
	if err != nil {
		e.state = Aborted
		return "", err
	}
	tasks, err := task.ParseAll(blocks)
	if err != nil {
		e.state = Aborted
		return "", err
	}
	e.tr.SetTaskCount(len(tasks))

	start := 0
	if init, ok := tasks[0].Command.(*task.InitCommand); ok {
		if err := e.applyInit(ctx, init); err != nil {
			e.state = Aborted
			return e.tr.Render(), err
		}
		start = 1
	} else {
		// No init block: the backend still needs exactly one
		// initialization. Accounts from defaults are bound but the
		// transcript gets no init block, since the script ran none.
		res, err := e.adapter.Initialize(ctx, e.defaults)
		if err != nil {
			e.state = Aborted
			return e.tr.Render(), runerr.Wrap(runerr.CodeAdapterExecutionFailed, err, "implicit init")
		}
		e.registry.BeginTask(0)
		for _, acct := range res.Accounts {
			e.aliases[acct.Name] = acct.Address
			e.registry.Enumerate(acct.GasCoin)
			e.registry.NoteVersion(acct.GasCoin, 1)
		}
	}
	e.state = Running

	for _, t := range tasks[start:] {
		e.registry.BeginTask(uint64(t.Index))
		body, err := e.runTask(ctx, t)
		if err != nil {
			e.tr.Append(e.taskBlock(t, "Error: "+errorLine(err)))
			e.state = Aborted
			var re *runerr.RunError
			if errors.As(err, &re) {
				err = re.At(t.Index, t.StartLine, t.EndLine)
			}
			return e.tr.Render(), err
		}
		e.tr.Append(e.taskBlock(t, body))
		e.log.Debug("task complete", "index", t.Index, "name", t.Name)
	}
	e.state = Completed
	return e.tr.Render(), nil
}

// RunFile runs the script at path and compares the transcript against
// the sibling golden file. With update set, the golden file is
// rewritten instead of compared.
func (e *Engine) RunFile(ctx context.Context, path string, update bool) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	out, runErr := e.RunScript(ctx, string(text))
	if runErr != nil && runerr.IsParseError(runErr) {
		// A script that cannot parse has no meaningful transcript.
		return runErr
	}
	cmpErr := transcript.Compare(out, path+".exp", update)
	if runErr != nil {
		if cmpErr != nil {
			return fmt.Errorf("%w (and run aborted: %v)", cmpErr, runErr)
		}
		// Golden file matched: the failure is asserted by the test.
		return nil
	}
	return cmpErr
}

// taskBlock renders one task's transcript block: header, echoed
// directive, then the kind-specific body with backend IDs rewritten.
func (e *Engine) taskBlock(t task.Task, body string) string {
	head := fmt.Sprintf("task %d, lines %d-%d:\n%s", t.Index, t.StartLine, t.EndLine, t.Directive)
	if body == "" {
		return head
	}
	return head + "\n" + e.registry.RewriteAddresses(body)
}

func (e *Engine) applyInit(ctx context.Context, cmd *task.InitCommand) error {
	cfg := ledger.InitConfig{
		Accounts:          cmd.Accounts,
		ProtocolVersion:   cmd.ProtocolVersion,
		MaxGas:            cmd.MaxGas,
		ReferenceGasPrice: cmd.ReferenceGasPrice,
		DefaultGasPrice:   cmd.DefaultGasPrice,
		Simulator:         cmd.Simulator,
	}
	if cmd.Simulator {
		if _, ok := e.adapter.(ledger.Simulator); !ok {
			return runerr.New(runerr.CodeUnsupportedOutsideSimulator,
				"init --simulator requires a simulator backend")
		}
	}
	if cmd.MaxGas != 0 {
		e.maxGas = cmd.MaxGas
	}
	if cmd.DefaultGasPrice != 0 {
		e.defaultGasPrice = cmd.DefaultGasPrice
	}

	res, err := e.adapter.Initialize(ctx, cfg)
	if err != nil {
		return runerr.Wrap(runerr.CodeAdapterExecutionFailed, err, "init")
	}

	// Accounts enumerate in declaration order; their gas coins are the
	// first fake IDs of task 0.
	e.registry.BeginTask(0)
	parts := make([]string, 0, len(res.Accounts))
	for _, acct := range res.Accounts {
		e.aliases[acct.Name] = acct.Address
		f := e.registry.Enumerate(acct.GasCoin)
		e.registry.NoteVersion(acct.GasCoin, 1)
		parts = append(parts, fmt.Sprintf("%s: %s", acct.Name, f))
	}
	if len(parts) > 0 {
		e.tr.Append("init:\n" + strings.Join(parts, ", "))
	}
	return nil
}

// requireSimulator gates simulator-only tasks on the adapter's actual
// capabilities, not on what init claimed.
func (e *Engine) requireSimulator(name string) (ledger.Simulator, error) {
	sim, ok := e.adapter.(ledger.Simulator)
	if !ok {
		return nil, runerr.New(runerr.CodeUnsupportedOutsideSimulator,
			"%s is only supported in simulator mode", name)
	}
	return sim, nil
}

func (e *Engine) senderAddress(name string) (ledger.Address, error) {
	if name == "" {
		return ledger.Address{}, runerr.New(runerr.CodeInvalidOption, "missing --sender")
	}
	a, ok := e.aliases[name]
	if !ok {
		return ledger.Address{}, runerr.New(runerr.CodeAdapterExecutionFailed,
			"unbound named address %q", name)
	}
	return a, nil
}

func errorLine(err error) string {
	var re *runerr.RunError
	if errors.As(err, &re) {
		msg := re.Message
		if re.Err != nil {
			msg = fmt.Sprintf("%s: %v", msg, re.Err)
		}
		return msg
	}
	return err.Error()
}
