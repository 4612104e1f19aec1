package task

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/movekit/transcheck/internal/ledger"
	"github.com/movekit/transcheck/internal/runerr"
	"github.com/movekit/transcheck/internal/script"
)

// PTBCommand is one parsed `//>` command line. Move-call packages stay
// textual here; the builder resolves named addresses when the
// transaction is assembled.
type PTBCommand struct {
	Kind ledger.CommandKind

	// MoveCall
	Package  string
	Module   string
	Function string
	TypeArgs []string

	// Argument lists: MoveCall args, TransferObjects objects, SplitCoins
	// amounts, MergeCoins sources, MakeMoveVec elements.
	Args []ledger.Argument

	Coin        ledger.Argument // SplitCoins / MergeCoins target
	Recipient   ledger.Argument // TransferObjects
	ElementType string          // MakeMoveVec
}

func parsePTBLines(b script.Block) ([]PTBCommand, error) {
	lines, contiguous := b.CommandLines()
	if !contiguous {
		return nil, runerr.New(runerr.CodeMalformedScript,
			"PTB command lines must be contiguous")
	}
	cmds := make([]PTBCommand, 0, len(lines))
	for i, line := range lines {
		cmd, err := parsePTBLine(line)
		if err != nil {
			return nil, runerr.Wrap(runerr.CodeMalformedScript, err,
				"PTB command %d", i)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func parsePTBLine(line string) (PTBCommand, error) {
	line = strings.TrimSuffix(strings.TrimSpace(line), ";")

	// Optional `N:` label.
	if head, rest, ok := strings.Cut(line, ":"); ok && !strings.Contains(head, "(") {
		if _, err := strconv.Atoi(strings.TrimSpace(head)); err == nil && !strings.HasPrefix(rest, ":") {
			line = strings.TrimSpace(rest)
		}
	}

	open := indexTopLevelParen(line)
	if open < 0 || !strings.HasSuffix(line, ")") {
		return PTBCommand{}, fmt.Errorf("malformed command %q", line)
	}
	head := line[:open]
	body := line[open+1 : len(line)-1]
	parts := splitTopLevel(body, ',')
	if len(parts) == 1 && strings.TrimSpace(parts[0]) == "" {
		parts = nil
	}

	name, typeArgs, err := splitTypeArgs(head)
	if err != nil {
		return PTBCommand{}, err
	}

	switch name {
	case "TransferObjects":
		if len(parts) != 2 {
			return PTBCommand{}, fmt.Errorf("TransferObjects takes ([objects], recipient)")
		}
		objs, err := parseArgList(parts[0])
		if err != nil {
			return PTBCommand{}, err
		}
		recipient, err := parseArg(parts[1])
		if err != nil {
			return PTBCommand{}, err
		}
		return PTBCommand{Kind: ledger.CmdTransferObjects, Args: objs, Recipient: recipient}, nil
	case "SplitCoins":
		if len(parts) != 2 {
			return PTBCommand{}, fmt.Errorf("SplitCoins takes (coin, [amounts])")
		}
		coin, err := parseArg(parts[0])
		if err != nil {
			return PTBCommand{}, err
		}
		amounts, err := parseArgList(parts[1])
		if err != nil {
			return PTBCommand{}, err
		}
		return PTBCommand{Kind: ledger.CmdSplitCoins, Coin: coin, Args: amounts}, nil
	case "MergeCoins":
		if len(parts) != 2 {
			return PTBCommand{}, fmt.Errorf("MergeCoins takes (coin, [sources])")
		}
		coin, err := parseArg(parts[0])
		if err != nil {
			return PTBCommand{}, err
		}
		sources, err := parseArgList(parts[1])
		if err != nil {
			return PTBCommand{}, err
		}
		return PTBCommand{Kind: ledger.CmdMergeCoins, Coin: coin, Args: sources}, nil
	case "MakeMoveVec":
		if len(parts) != 1 {
			return PTBCommand{}, fmt.Errorf("MakeMoveVec takes ([elements])")
		}
		elems, err := parseArgList(parts[0])
		if err != nil {
			return PTBCommand{}, err
		}
		elemType := ""
		if len(typeArgs) > 1 {
			return PTBCommand{}, fmt.Errorf("MakeMoveVec takes at most one type argument")
		}
		if len(typeArgs) == 1 {
			elemType = typeArgs[0]
		}
		return PTBCommand{Kind: ledger.CmdMakeMoveVec, ElementType: elemType, Args: elems}, nil
	default:
		// package::module::function<T...>(args...)
		segments := strings.Split(name, "::")
		if len(segments) != 3 {
			return PTBCommand{}, fmt.Errorf("unknown PTB command %q", name)
		}
		callArgs := make([]ledger.Argument, 0, len(parts))
		for _, p := range parts {
			a, err := parseArg(p)
			if err != nil {
				return PTBCommand{}, err
			}
			callArgs = append(callArgs, a)
		}
		return PTBCommand{
			Kind:     ledger.CmdMoveCall,
			Package:  segments[0],
			Module:   segments[1],
			Function: segments[2],
			TypeArgs: typeArgs,
			Args:     callArgs,
		}, nil
	}
}

// indexTopLevelParen finds the opening paren of the argument list,
// skipping any parens nested inside <...> type arguments.
func indexTopLevelParen(s string) int {
	angle := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			angle++
		case '>':
			angle--
		case '(':
			if angle == 0 {
				return i
			}
		}
	}
	return -1
}

func splitTypeArgs(head string) (string, []string, error) {
	head = strings.TrimSpace(head)
	open := strings.IndexByte(head, '<')
	if open < 0 {
		return head, nil, nil
	}
	if !strings.HasSuffix(head, ">") {
		return "", nil, fmt.Errorf("unbalanced type arguments in %q", head)
	}
	var typeArgs []string
	for _, t := range splitTopLevel(head[open+1:len(head)-1], ',') {
		typeArgs = append(typeArgs, strings.TrimSpace(t))
	}
	return head[:open], typeArgs, nil
}

func parseArgList(s string) ([]ledger.Argument, error) {
	s = strings.TrimSpace(s)
	body, ok := strings.CutSuffix(strings.TrimPrefix(s, "["), "]")
	if !ok || !strings.HasPrefix(s, "[") {
		return nil, fmt.Errorf("expected [argument list], got %q", s)
	}
	var args []ledger.Argument
	for _, part := range splitTopLevel(body, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		a, err := parseArg(part)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	return args, nil
}

func parseArg(s string) (ledger.Argument, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "Gas":
		return ledger.GasArg(), nil
	case strings.HasPrefix(s, "Input("):
		i, err := parseArgIndex(s, "Input")
		if err != nil {
			return ledger.Argument{}, err
		}
		return ledger.InputArg(i), nil
	case strings.HasPrefix(s, "Result("):
		i, err := parseArgIndex(s, "Result")
		if err != nil {
			return ledger.Argument{}, err
		}
		return ledger.ResultArg(i), nil
	case strings.HasPrefix(s, "NestedResult("):
		body, ok := strings.CutSuffix(strings.TrimPrefix(s, "NestedResult("), ")")
		if !ok {
			return ledger.Argument{}, fmt.Errorf("malformed argument %q", s)
		}
		left, right, ok := strings.Cut(body, ",")
		if !ok {
			return ledger.Argument{}, fmt.Errorf("NestedResult takes (command, index): %q", s)
		}
		i, err := strconv.ParseUint(strings.TrimSpace(left), 10, 16)
		if err != nil {
			return ledger.Argument{}, fmt.Errorf("malformed argument %q: %w", s, err)
		}
		j, err := strconv.ParseUint(strings.TrimSpace(right), 10, 16)
		if err != nil {
			return ledger.Argument{}, fmt.Errorf("malformed argument %q: %w", s, err)
		}
		return ledger.NestedResultArg(uint16(i), uint16(j)), nil
	default:
		return ledger.Argument{}, fmt.Errorf("unknown argument %q", s)
	}
}

func parseArgIndex(s, name string) (uint16, error) {
	body, ok := strings.CutSuffix(strings.TrimPrefix(s, name+"("), ")")
	if !ok {
		return 0, fmt.Errorf("malformed argument %q", s)
	}
	i, err := strconv.ParseUint(strings.TrimSpace(body), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("malformed argument %q: %w", s, err)
	}
	return uint16(i), nil
}
