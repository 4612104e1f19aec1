// Package ptb assembles programmable transactions from parsed task
// commands. The builder resolves every input to a concrete call
// argument before execution and rejects forward references, so a
// malformed command list never reaches the adapter.
package ptb

import (
	"context"
	"fmt"

	"github.com/movekit/transcheck/internal/fakeid"
	"github.com/movekit/transcheck/internal/ledger"
	"github.com/movekit/transcheck/internal/runerr"
	"github.com/movekit/transcheck/internal/task"
)

// Builder turns task command lists into backend transactions. Aliases
// and Staged are read-only views onto the engine's named-alias table
// and staged-package set.
type Builder struct {
	Resolver *fakeid.Resolver
	Aliases  func(name string) (ledger.Address, bool)
	Staged   func(name string) (ledger.Digest, bool)
}

// resultArity reports a command's statically known result count, or -1
// when it depends on execution (MoveCall, Publish, Upgrade).
func resultArity(c task.PTBCommand) int {
	switch c.Kind {
	case ledger.CmdSplitCoins:
		return len(c.Args)
	case ledger.CmdMakeMoveVec:
		return 1
	case ledger.CmdTransferObjects, ledger.CmdMergeCoins:
		return 0
	default:
		return -1
	}
}

// Build resolves inputs and command arguments for one programmable
// task. Gas settings are filled in by the dispatcher afterwards.
func (b *Builder) Build(ctx context.Context, cmd *task.ProgrammableCommand) (*ledger.Transaction, error) {
	tx := &ledger.Transaction{
		DevInspect: cmd.DevInspect,
		DryRun:     cmd.DryRun,
	}

	for i, v := range cmd.Inputs {
		arg, err := b.resolveInput(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		tx.Inputs = append(tx.Inputs, *arg)
	}

	arities := make([]int, 0, len(cmd.Commands))
	for i, c := range cmd.Commands {
		if err := b.checkArguments(c, i, len(tx.Inputs), arities); err != nil {
			return nil, err
		}
		built, err := b.buildCommand(c)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
		tx.Commands = append(tx.Commands, *built)
		arities = append(arities, resultArity(c))
	}
	return tx, nil
}

// checkArguments enforces that result references point strictly
// backwards and, where arity is statically known, within bounds.
func (b *Builder) checkArguments(c task.PTBCommand, index, inputs int, arities []int) error {
	check := func(a ledger.Argument) error {
		switch a.Kind {
		case ledger.ArgInput:
			if int(a.Input) >= inputs {
				return runerr.New(runerr.CodeInvalidOption,
					"command %d references Input(%d) but only %d inputs exist", index, a.Input, inputs)
			}
		case ledger.ArgResult:
			if int(a.Command) >= index {
				return runerr.New(runerr.CodeForwardReference,
					"command %d references Result(%d)", index, a.Command)
			}
			if arity := arities[a.Command]; arity >= 0 && arity != 1 {
				return runerr.New(runerr.CodeInvalidOption,
					"Result(%d) requires a single-result command, command %d produces %d",
					a.Command, a.Command, arity)
			}
		case ledger.ArgNestedResult:
			if int(a.Command) >= index {
				return runerr.New(runerr.CodeForwardReference,
					"command %d references NestedResult(%d,%d)", index, a.Command, a.NestedIndex)
			}
			if arity := arities[a.Command]; arity >= 0 && int(a.NestedIndex) >= arity {
				return runerr.New(runerr.CodeInvalidOption,
					"NestedResult(%d,%d) out of bounds: command %d produces %d results",
					a.Command, a.NestedIndex, a.Command, arity)
			}
		}
		return nil
	}

	for _, a := range c.Args {
		if err := check(a); err != nil {
			return err
		}
	}
	for _, a := range []ledger.Argument{c.Coin, c.Recipient} {
		if err := check(a); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) buildCommand(c task.PTBCommand) (*ledger.Command, error) {
	out := &ledger.Command{Kind: c.Kind, Args: c.Args}
	switch c.Kind {
	case ledger.CmdMoveCall:
		pkg, err := b.resolveAddressText(c.Package)
		if err != nil {
			return nil, err
		}
		out.Package = pkg
		out.Module = c.Module
		out.Function = c.Function
		out.TypeArgs = c.TypeArgs
	case ledger.CmdTransferObjects:
		out.Recipient = c.Recipient
	case ledger.CmdSplitCoins, ledger.CmdMergeCoins:
		out.Coin = c.Coin
	case ledger.CmdMakeMoveVec:
		out.ElementType = c.ElementType
	}
	return out, nil
}

// resolveAddressText resolves a package path segment: a hex literal or
// a named address.
func (b *Builder) resolveAddressText(s string) (ledger.Address, error) {
	if len(s) > 1 && s[0] == '0' && s[1] == 'x' {
		return ledger.ParseAddress(s)
	}
	if a, ok := b.Aliases(s); ok {
		return a, nil
	}
	return ledger.Address{}, runerr.New(runerr.CodeAdapterExecutionFailed,
		"unbound named address %q", s)
}

// resolveInput turns one parsed value into a call argument. Resolution
// is all-or-nothing: the first failure aborts the task before the
// adapter is invoked.
func (b *Builder) resolveInput(ctx context.Context, v task.Value) (*ledger.CallArg, error) {
	if v.Kind == task.ValObject {
		obj, err := b.Resolver.Resolve(ctx, v.Object)
		if err != nil {
			return nil, err
		}
		return &ledger.CallArg{Object: obj}, nil
	}
	pure, err := b.encodePure(v)
	if err != nil {
		return nil, err
	}
	return &ledger.CallArg{Pure: pure}, nil
}

func (b *Builder) encodePure(v task.Value) ([]byte, error) {
	switch v.Kind {
	case task.ValNumber:
		return ledger.PureUint(v.Num, v.Width)
	case task.ValBool:
		return ledger.PureBool(v.Bool), nil
	case task.ValBytes:
		return ledger.PureBytes(v.Bytes), nil
	case task.ValAddress:
		return ledger.PureAddress(v.Address), nil
	case task.ValNamedAddress:
		a, ok := b.Aliases(v.Name)
		if !ok {
			return nil, runerr.New(runerr.CodeAdapterExecutionFailed,
				"unbound named address %q", v.Name)
		}
		return ledger.PureAddress(a), nil
	case task.ValDigest:
		d, ok := b.Staged(v.Name)
		if !ok {
			return nil, runerr.New(runerr.CodeAdapterExecutionFailed,
				"unbound staged package %q", v.Name)
		}
		return ledger.PureBytes(d[:]), nil
	case task.ValVector:
		elems := make([][]byte, 0, len(v.Vec))
		for i, e := range v.Vec {
			if e.Kind == task.ValObject {
				return nil, runerr.New(runerr.CodeInvalidOption,
					"vector element %d: objects are not pure values", i)
			}
			b2, err := b.encodePure(e)
			if err != nil {
				return nil, err
			}
			elems = append(elems, b2)
		}
		return ledger.PureVector(elems), nil
	default:
		return nil, fmt.Errorf("unsupported value kind %d", v.Kind)
	}
}
