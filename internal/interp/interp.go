// Package interp substitutes @{...} placeholders into ad-hoc query text
// before it is forwarded to the query service. Substitution is
// all-or-nothing: an unmappable placeholder fails the task rather than
// passing through silently.
package interp

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/movekit/transcheck/internal/canon"
	"github.com/movekit/transcheck/internal/ledger"
	"github.com/movekit/transcheck/internal/runerr"
)

// Lookup provides the interpolator's views onto engine state.
type Lookup struct {
	// Object maps an enumerated fake ID to its backend ID.
	Object func(task, index uint64) (ledger.ObjectID, bool)
	// Named resolves a named address or account alias.
	Named func(name string) (ledger.Address, bool)
}

var (
	placeholderRe = regexp.MustCompile(`@\{([A-Za-z_][A-Za-z0-9_]*)\}`)
	objTokenRe    = regexp.MustCompile(`^obj_([0-9]+)_([0-9]+)(_opt)?$`)
	cursorTokenRe = regexp.MustCompile(`^cursor_([0-9]+)$`)
	objCursorRe   = regexp.MustCompile(`^object\(([0-9]+),([0-9]+)\)(?:,([0-9]+))?$`)
)

// Interpolate replaces every placeholder in body. cursors are the raw
// --cursors flag values, indexed by @{cursor_i}.
func Interpolate(body string, cursors []string, lookup Lookup) (string, error) {
	var firstErr error
	out := placeholderRe.ReplaceAllStringFunc(body, func(m string) string {
		token := placeholderRe.FindStringSubmatch(m)[1]
		repl, err := substitute(token, cursors, lookup)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return repl
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

func substitute(token string, cursors []string, lookup Lookup) (string, error) {
	if m := objTokenRe.FindStringSubmatch(token); m != nil {
		t, _ := strconv.ParseUint(m[1], 10, 64)
		i, _ := strconv.ParseUint(m[2], 10, 64)
		id, ok := lookup.Object(t, i)
		if !ok {
			if m[3] == "_opt" {
				return "", nil
			}
			return "", runerr.New(runerr.CodeUnresolvedPlaceholder,
				"unresolved placeholder @{%s}", token)
		}
		return id.String(), nil
	}

	if m := cursorTokenRe.FindStringSubmatch(token); m != nil {
		i, _ := strconv.Atoi(m[1])
		if i >= len(cursors) {
			return "", runerr.New(runerr.CodeUnresolvedPlaceholder,
				"unresolved placeholder @{%s}: only %d cursors given", token, len(cursors))
		}
		return encodeCursor(cursors[i], lookup)
	}

	// Exact names win: an alias that happens to end in _opt is still
	// addressable non-optionally.
	if a, ok := lookup.Named(token); ok {
		return a.String(), nil
	}
	if name, opt := strings.CutSuffix(token, "_opt"); opt {
		if a, ok := lookup.Named(name); ok {
			return a.String(), nil
		}
		return "", nil
	}
	return "", runerr.New(runerr.CodeUnresolvedPlaceholder,
		"unresolved placeholder @{%s}", token)
}

// encodeCursor Base64-encodes a raw cursor value. A value shaped like
// an object reference (optionally `,checkpoint`) is first converted to
// the backend's structured cursor encoding; anything else is encoded
// literally, with no structural reinterpretation.
func encodeCursor(raw string, lookup Lookup) (string, error) {
	m := objCursorRe.FindStringSubmatch(raw)
	if m == nil {
		return base64.StdEncoding.EncodeToString([]byte(raw)), nil
	}

	t, _ := strconv.ParseUint(m[1], 10, 64)
	i, _ := strconv.ParseUint(m[2], 10, 64)
	id, ok := lookup.Object(t, i)
	if !ok {
		return "", runerr.New(runerr.CodeUnresolvedPlaceholder,
			"cursor references unknown object(%d,%d)", t, i)
	}
	cursor := map[string]any{"o": id.String()}
	if m[3] != "" {
		c, err := strconv.ParseUint(m[3], 10, 64)
		if err != nil {
			return "", fmt.Errorf("cursor checkpoint %q: %w", m[3], err)
		}
		cursor["c"] = c
	}
	encoded, err := canon.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.StdEncoding.EncodeToString(encoded), nil
}
