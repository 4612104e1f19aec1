package task

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/movekit/transcheck/internal/fakeid"
	"github.com/movekit/transcheck/internal/ledger"
)

// ValueKind discriminates Value variants.
type ValueKind int

const (
	ValNumber ValueKind = iota
	ValBool
	ValBytes
	ValNamedAddress
	ValAddress
	ValObject
	ValDigest
	ValVector
)

// Value is one parsed input value from the script's value grammar:
// numbers (optionally width-suffixed), bools, byte literals, named and
// literal addresses, object references, staged-package digests and
// vectors.
type Value struct {
	Kind    ValueKind
	Num     *big.Int
	Width   int // integer bit width; 64 unless suffixed
	Bool    bool
	Bytes   []byte
	Name    string // named address, or package name for digest()
	Address ledger.Address
	Object  fakeid.ObjectRef
	Vec     []Value
}

// ParseValue parses one value token.
func ParseValue(s string) (Value, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return Value{}, fmt.Errorf("empty value")
	case s == "true" || s == "false":
		return Value{Kind: ValBool, Bool: s == "true"}, nil
	case strings.HasPrefix(s, "@"):
		rest := s[1:]
		if strings.HasPrefix(rest, "0x") {
			a, err := ledger.ParseAddress(rest)
			if err != nil {
				return Value{}, err
			}
			return Value{Kind: ValAddress, Address: a}, nil
		}
		if rest == "" {
			return Value{}, fmt.Errorf("empty address name")
		}
		return Value{Kind: ValNamedAddress, Name: rest}, nil
	case strings.HasPrefix(s, "object(") ||
		strings.HasPrefix(s, "receiving(") ||
		strings.HasPrefix(s, "immshared("):
		ref, err := ParseObjectRef(s)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValObject, Object: ref}, nil
	case strings.HasPrefix(s, "digest("):
		name, ok := strings.CutSuffix(strings.TrimPrefix(s, "digest("), ")")
		if !ok || name == "" {
			return Value{}, fmt.Errorf("malformed digest reference %q", s)
		}
		return Value{Kind: ValDigest, Name: name}, nil
	case strings.HasPrefix(s, "vector["):
		body, ok := strings.CutSuffix(strings.TrimPrefix(s, "vector["), "]")
		if !ok {
			return Value{}, fmt.Errorf("malformed vector %q", s)
		}
		var elems []Value
		for _, part := range splitTopLevel(body, ',') {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			v, err := ParseValue(part)
			if err != nil {
				return Value{}, fmt.Errorf("vector element %q: %w", part, err)
			}
			elems = append(elems, v)
		}
		return Value{Kind: ValVector, Vec: elems}, nil
	case strings.HasPrefix(s, "x"):
		body, ok := byteLiteralBody(s, "x")
		if !ok {
			return Value{}, fmt.Errorf("malformed hex literal %q", s)
		}
		raw, err := hex.DecodeString(body)
		if err != nil {
			return Value{}, fmt.Errorf("hex literal %q: %w", s, err)
		}
		return Value{Kind: ValBytes, Bytes: raw}, nil
	case strings.HasPrefix(s, "b"):
		body, ok := byteLiteralBody(s, "b")
		if !ok {
			return Value{}, fmt.Errorf("malformed byte string %q", s)
		}
		return Value{Kind: ValBytes, Bytes: []byte(body)}, nil
	case strings.HasPrefix(s, "0x"):
		a, err := ledger.ParseAddress(s)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValAddress, Address: a}, nil
	default:
		return parseNumber(s)
	}
}

// byteLiteralBody extracts the body of an x"..." or b"..." literal. The
// directive tokenizer strips shell quotes, so the same literal arrives
// bare (xff, bhello) on directive lines and quoted inside payloads.
func byteLiteralBody(s, prefix string) (string, bool) {
	if rest, ok := strings.CutPrefix(s, prefix+`"`); ok {
		return strings.CutSuffix(rest, `"`)
	}
	return strings.CutPrefix(s, prefix)
}

// Longest suffix first so u8 never shadows u128/u256.
var intWidths = []struct {
	suffix string
	width  int
}{
	{"u256", 256}, {"u128", 128}, {"u64", 64}, {"u32", 32}, {"u16", 16}, {"u8", 8},
}

func parseNumber(s string) (Value, error) {
	width := 64
	body := s
	for _, w := range intWidths {
		if candidate, ok := strings.CutSuffix(s, w.suffix); ok && candidate != "" {
			body, width = candidate, w.width
			break
		}
	}
	body = strings.ReplaceAll(body, "_", "")
	n, ok := new(big.Int).SetString(body, 10)
	if !ok || n.Sign() < 0 {
		return Value{}, fmt.Errorf("invalid value %q", s)
	}
	if n.BitLen() > width {
		return Value{}, fmt.Errorf("value %q overflows u%d", s, width)
	}
	return Value{Kind: ValNumber, Num: n, Width: width}, nil
}

// ParseFakeID parses the bare `t,i` form used by flag values such as
// --gas-payment and the view-object positional.
func ParseFakeID(s string) (fakeid.FakeID, error) {
	left, right, ok := strings.Cut(s, ",")
	if !ok {
		return fakeid.FakeID{}, fmt.Errorf("fake id %q: expected task,index", s)
	}
	t, err := strconv.ParseUint(strings.TrimSpace(left), 10, 64)
	if err != nil {
		return fakeid.FakeID{}, fmt.Errorf("fake id %q: %w", s, err)
	}
	i, err := strconv.ParseUint(strings.TrimSpace(right), 10, 64)
	if err != nil {
		return fakeid.FakeID{}, fmt.Errorf("fake id %q: %w", s, err)
	}
	return fakeid.FakeID{Task: t, Index: i}, nil
}

// ParseObjectRef parses `object(t,i)`, `object(0xADDR)`, optionally
// version-suffixed with `@v`, and the receiving/immshared wrappers.
func ParseObjectRef(s string) (fakeid.ObjectRef, error) {
	var ref fakeid.ObjectRef
	rest := s
	switch {
	case strings.HasPrefix(s, "receiving("):
		ref.Kind = fakeid.RefReceiving
		rest = strings.TrimPrefix(s, "receiving")
	case strings.HasPrefix(s, "immshared("):
		ref.Kind = fakeid.RefImmShared
		rest = strings.TrimPrefix(s, "immshared")
	case strings.HasPrefix(s, "object("):
		ref.Kind = fakeid.RefPlain
		rest = strings.TrimPrefix(s, "object")
	default:
		return ref, fmt.Errorf("malformed object reference %q", s)
	}

	body, ok := strings.CutPrefix(rest, "(")
	if !ok {
		return ref, fmt.Errorf("malformed object reference %q", s)
	}
	inner, after, ok := cutMatching(body)
	if !ok {
		return ref, fmt.Errorf("unbalanced parentheses in %q", s)
	}

	if version, hasVersion := strings.CutPrefix(after, "@"); hasVersion {
		v, err := strconv.ParseUint(version, 10, 64)
		if err != nil {
			return ref, fmt.Errorf("bad version in %q: %w", s, err)
		}
		lv := ledger.Version(v)
		ref.Version = &lv
	} else if after != "" {
		return ref, fmt.Errorf("trailing text %q in object reference %q", after, s)
	}

	if strings.Contains(inner, ",") {
		f, err := ParseFakeID(inner)
		if err != nil {
			return ref, err
		}
		ref.Fake = &f
		return ref, nil
	}
	addr, err := parseLiteralID(inner)
	if err != nil {
		return ref, fmt.Errorf("object reference %q: %w", s, err)
	}
	ref.Address = &addr
	return ref, nil
}

// parseLiteralID accepts a hex or decimal object address literal.
func parseLiteralID(s string) (ledger.ObjectID, error) {
	if strings.HasPrefix(s, "0x") {
		return ledger.ParseAddress(s)
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 || n.BitLen() > 8*ledger.AddressLength {
		return ledger.ObjectID{}, fmt.Errorf("invalid object id %q", s)
	}
	var id ledger.ObjectID
	raw := n.Bytes()
	copy(id[ledger.AddressLength-len(raw):], raw)
	return id, nil
}

// cutMatching splits "inner)after" at the parenthesis matching an
// already consumed "(".
func cutMatching(s string) (inner, after string, ok bool) {
	depth := 1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[:i], s[i+1:], true
			}
		}
	}
	return "", "", false
}

// splitTopLevel splits s at sep occurrences outside (), [] and quotes.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case '(', '[':
			if !inQuote {
				depth++
			}
		case ')', ']':
			if !inQuote {
				depth--
			}
		case sep:
			if depth == 0 && !inQuote {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
