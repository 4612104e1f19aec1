// Package fakeid maps opaque backend object identifiers to small,
// stable (task, index) identifiers so golden files stay reproducible
// across runs.
package fakeid

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/movekit/transcheck/internal/ledger"
)

// FakeID is the human-stable substitute for a backend object ID.
type FakeID struct {
	Task  uint64
	Index uint64
}

func (f FakeID) String() string {
	return fmt.Sprintf("object(%d,%d)", f.Task, f.Index)
}

// Less orders fake IDs for display: by task, then creation index.
func (f FakeID) Less(other FakeID) bool {
	if f.Task != other.Task {
		return f.Task < other.Task
	}
	return f.Index < other.Index
}

// Registry owns the bidirectional backend-ID ⇄ FakeID map for one run.
// It is engine-owned and mutated only between task invocations; entries
// persist for the whole run even when the object is later deleted.
type Registry struct {
	byObject map[ledger.ObjectID]FakeID
	byFake   map[FakeID]ledger.ObjectID
	versions map[ledger.ObjectID]ledger.Version

	curTask   uint64
	nextIndex uint64
}

// NewRegistry creates an empty registry positioned at task 0.
func NewRegistry() *Registry {
	return &Registry{
		byObject: make(map[ledger.ObjectID]FakeID),
		byFake:   make(map[FakeID]ledger.ObjectID),
		versions: make(map[ledger.ObjectID]ledger.Version),
	}
}

// BeginTask positions the allocation cursor at the given task. Creation
// indices restart at 0 for each task and stay contiguous within it.
// Re-beginning the current task keeps the cursor, so initialization and
// execution sharing a task never hand out the same index twice.
func (r *Registry) BeginTask(task uint64) {
	if task == r.curTask {
		return
	}
	r.curTask = task
	r.nextIndex = 0
}

// Enumerate returns the FakeID for a backend ID, allocating the next
// (task, index) pair on first sight. Idempotent: re-enumerating an
// already known ID returns the existing FakeID without advancing the
// cursor.
func (r *Registry) Enumerate(id ledger.ObjectID) FakeID {
	if f, ok := r.byObject[id]; ok {
		return f
	}
	f := FakeID{Task: r.curTask, Index: r.nextIndex}
	r.nextIndex++
	r.byObject[id] = f
	r.byFake[f] = id
	return f
}

// EnumerateNew enumerates freshly discovered objects (created and
// unwrapped) in the registry's canonical order: ascending byte order of
// the backend object ID, not adapter-reported creation order. Changing
// this key silently invalidates every existing golden file.
func (r *Registry) EnumerateNew(ids []ledger.ObjectID) []FakeID {
	sorted := make([]ledger.ObjectID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i][:], sorted[j][:]) < 0
	})
	out := make([]FakeID, 0, len(sorted))
	for _, id := range sorted {
		out = append(out, r.Enumerate(id))
	}
	return out
}

// Lookup reverse-resolves a FakeID to its backend ID.
func (r *Registry) Lookup(f FakeID) (ledger.ObjectID, bool) {
	id, ok := r.byFake[f]
	return id, ok
}

// FakeOf returns the FakeID previously assigned to id, if any.
func (r *Registry) FakeOf(id ledger.ObjectID) (FakeID, bool) {
	f, ok := r.byObject[id]
	return f, ok
}

// NoteVersion records the latest observed version of an object.
func (r *Registry) NoteVersion(id ledger.ObjectID, v ledger.Version) {
	r.versions[id] = v
}

// VersionOf returns the latest observed version of an object.
func (r *Registry) VersionOf(id ledger.ObjectID) (ledger.Version, bool) {
	v, ok := r.versions[id]
	return v, ok
}

// RewriteAddresses replaces every known backend object ID rendered in
// text (full or zero-trimmed hex form) with its FakeID. Used when
// echoing adapter output into the transcript.
func (r *Registry) RewriteAddresses(text string) string {
	if len(r.byObject) == 0 {
		return text
	}
	// Longest-first so full forms win over short forms that prefix them.
	pairs := make([]string, 0, 2*2*len(r.byObject))
	for id, f := range r.byObject {
		pairs = append(pairs, id.String(), f.String())
		if short := id.Short(); short != id.String() {
			pairs = append(pairs, short, f.String())
		}
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
