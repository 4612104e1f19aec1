// Package script splits a test script into directive blocks. Tokenizing
// is a pure function of the file text; command semantics live in the
// task package.
package script

import (
	"strings"

	"github.com/google/shlex"

	"github.com/movekit/transcheck/internal/runerr"
)

// DirectivePrefix starts a task directive line.
const DirectivePrefix = "//#"

// CommandPrefix starts a PTB command line inside a task's payload.
const CommandPrefix = "//>"

// Block is one raw task block: a directive line plus its literal payload.
type Block struct {
	// StartLine / EndLine are 1-based and inclusive.
	StartLine int
	EndLine   int

	// Directive is the raw directive line, prefix included.
	Directive string

	// Tokens are the shell-split words after the directive prefix;
	// Tokens[0] is the task keyword.
	Tokens []string

	// Payload holds the block's literal lines (PTB command lines
	// included), without trailing newline.
	Payload []string
}

// PayloadText joins the payload lines back into literal text.
func (b *Block) PayloadText() string {
	return strings.Join(b.Payload, "\n")
}

// CommandLines returns the `//>` lines of the payload with the prefix
// stripped, and whether any non-command payload line follows the first
// command line (they must be contiguous).
func (b *Block) CommandLines() (lines []string, contiguous bool) {
	contiguous = true
	seen := false
	ended := false
	for _, l := range b.Payload {
		trimmed := strings.TrimSpace(l)
		if strings.HasPrefix(trimmed, CommandPrefix) {
			if ended {
				contiguous = false
			}
			seen = true
			lines = append(lines, strings.TrimSpace(strings.TrimPrefix(trimmed, CommandPrefix)))
			continue
		}
		if seen && trimmed != "" {
			ended = true
		}
	}
	return lines, contiguous
}

// Tokenize splits raw script text into ordered blocks.
//
// A block begins at a directive line and ends at the next blank line,
// the next directive line, or end of file. Fails with MALFORMED_SCRIPT
// when the file is empty, a payload line precedes the first directive,
// or a directive line cannot be shell-tokenized.
func Tokenize(text string) ([]Block, error) {
	lines := strings.Split(text, "\n")
	var blocks []Block
	var cur *Block

	flush := func() {
		if cur != nil {
			blocks = append(blocks, *cur)
			cur = nil
		}
	}

	for i, line := range lines {
		lineno := i + 1
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flush()
		case strings.HasPrefix(trimmed, DirectivePrefix):
			flush()
			rest := strings.TrimPrefix(trimmed, DirectivePrefix)
			tokens, err := shlex.Split(rest)
			if err != nil {
				return nil, runerr.Wrap(runerr.CodeMalformedScript, err,
					"cannot tokenize directive at line %d", lineno)
			}
			if len(tokens) == 0 {
				return nil, runerr.New(runerr.CodeMalformedScript,
					"empty directive at line %d", lineno)
			}
			cur = &Block{
				StartLine: lineno,
				EndLine:   lineno,
				Directive: trimmed,
				Tokens:    tokens,
			}
		default:
			if cur == nil {
				return nil, runerr.New(runerr.CodeMalformedScript,
					"literal text at line %d precedes the first directive", lineno)
			}
			cur.Payload = append(cur.Payload, line)
			cur.EndLine = lineno
		}
	}
	flush()

	if len(blocks) == 0 {
		return nil, runerr.New(runerr.CodeMalformedScript, "script contains no tasks")
	}
	return blocks, nil
}
