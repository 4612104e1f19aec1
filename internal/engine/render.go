package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/movekit/transcheck/internal/fakeid"
	"github.com/movekit/transcheck/internal/ledger"
	"github.com/movekit/transcheck/internal/task"
)

// renderEffects produces the transaction body of a task block. Created
// and unwrapped objects are enumerated here, in the registry's
// canonical order; every other list maps through already-known IDs.
func (e *Engine) renderEffects(eff *ledger.Effects) string {
	e.lastCreated = eff.Created

	// Created and unwrapped objects are both fresh to the registry and
	// take their indices from one combined ordering pass, before any
	// side-effect mutations are mapped.
	fresh := make([]ledger.ObjectID, 0, len(eff.Created)+len(eff.Unwrapped))
	fresh = append(fresh, eff.Created...)
	fresh = append(fresh, eff.Unwrapped...)
	e.registry.EnumerateNew(fresh)

	var lines []string
	appendLine := func(label string, fakes []fakeid.FakeID) {
		if len(fakes) == 0 {
			return
		}
		sort.Slice(fakes, func(i, j int) bool { return fakes[i].Less(fakes[j]) })
		parts := make([]string, len(fakes))
		for i, f := range fakes {
			parts[i] = f.String()
		}
		lines = append(lines, label+": "+strings.Join(parts, ", "))
	}

	appendLine("created", e.enumerateKnown(eff.Created))
	appendLine("mutated", e.enumerateKnown(eff.Mutated))
	appendLine("unwrapped", e.enumerateKnown(eff.Unwrapped))
	appendLine("deleted", e.enumerateKnown(eff.Deleted))
	appendLine("wrapped", e.enumerateKnown(eff.Wrapped))
	lines = append(lines, "gas summary: "+eff.Gas.Render())
	return strings.Join(lines, "\n")
}

// enumerateKnown maps already-seen backend IDs to fake IDs. An ID the
// registry has never enumerated (e.g. a system object mutated as a side
// effect) is enumerated under the current task so the transcript never
// leaks a raw address.
func (e *Engine) enumerateKnown(ids []ledger.ObjectID) []fakeid.FakeID {
	out := make([]fakeid.FakeID, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.registry.Enumerate(id))
	}
	return out
}

// renderView renders a view-object body. ID rewriting happens at the
// block level, so raw addresses are fine here.
func renderView(v *ledger.ObjectView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "owner: %s\n", v.Owner)
	fmt.Fprintf(&b, "version: %d\n", v.Version)
	fmt.Fprintf(&b, "contents: %s {%s}", v.Type, renderFields(v.Fields))
	return b.String()
}

func renderFields(fields []ledger.Field) string {
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Name, renderDatum(f.Value))
	}
	return " " + strings.Join(parts, ", ") + " "
}

func renderDatum(d ledger.Datum) string {
	switch v := d.(type) {
	case ledger.U64Datum:
		return fmt.Sprintf("%d", uint64(v))
	case ledger.BoolDatum:
		return fmt.Sprintf("%t", bool(v))
	case ledger.StringDatum:
		return fmt.Sprintf("%q", string(v))
	case ledger.AddressDatum:
		return ledger.Address(v).String()
	case ledger.IDDatum:
		return ledger.ObjectID(v).String()
	case ledger.ListDatum:
		parts := make([]string, len(v))
		for i, el := range v {
			parts[i] = renderDatum(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ledger.StructDatum:
		return v.Type + " {" + renderFields(v.Fields) + "}"
	default:
		return fmt.Sprintf("%v", d)
	}
}

// renderQuery renders a run-graphql body: optional metadata lines per
// the task's show flags, then the response payload.
func renderQuery(cmd *task.RunGraphQLCommand, resp *ledger.QueryResponse) string {
	var lines []string
	if cmd.ShowHeaders && len(resp.Headers) > 0 {
		lines = append(lines, "Headers: "+strings.Join(resp.Headers, ", "))
	}
	if cmd.ShowServiceVersion && resp.ServiceVersion != "" {
		lines = append(lines, "Service version: "+resp.ServiceVersion)
	}
	if cmd.ShowUsage && resp.Usage != "" {
		lines = append(lines, "Usage: "+resp.Usage)
	}
	lines = append(lines, "Response: "+strings.TrimRight(resp.Body, "\n"))
	return strings.Join(lines, "\n")
}
