package fakeid

import (
	"context"
	"fmt"

	"github.com/movekit/transcheck/internal/ledger"
	"github.com/movekit/transcheck/internal/runerr"
)

// RefKind discriminates how a resolved object is passed to the backend.
type RefKind int

const (
	// RefPlain resolves owned objects by reference and shared objects
	// as mutable shared inputs.
	RefPlain RefKind = iota
	// RefReceiving wraps the handle as a receiving reference.
	RefReceiving
	// RefImmShared passes a shared object immutably.
	RefImmShared
)

// ObjectRef is a parsed textual object reference, short-lived: it is
// resolved to a concrete handle immediately before the transaction is
// built.
type ObjectRef struct {
	Fake    *FakeID          // object(t,i) form
	Address *ledger.ObjectID // literal address form
	Version *ledger.Version  // @v suffix
	Kind    RefKind
}

func (ref ObjectRef) String() string {
	var base string
	switch {
	case ref.Fake != nil:
		base = fmt.Sprintf("%d,%d", ref.Fake.Task, ref.Fake.Index)
	case ref.Address != nil:
		base = ref.Address.Short()
	}
	name := "object"
	switch ref.Kind {
	case RefReceiving:
		name = "receiving"
	case RefImmShared:
		name = "immshared"
	}
	s := fmt.Sprintf("%s(%s)", name, base)
	if ref.Version != nil {
		s = fmt.Sprintf("%s@%d", s, *ref.Version)
	}
	return s
}

// ObjectSource loads objects for resolution; satisfied by the ledger
// adapter.
type ObjectSource interface {
	GetObject(ctx context.Context, id ledger.ObjectID, version *ledger.Version) (*ledger.ObjectView, error)
}

// Resolver turns ObjectRefs into concrete backend handles, consulting
// the registry for fake IDs and the adapter for object state.
type Resolver struct {
	Registry *Registry
	Source   ObjectSource
}

// ResolveID maps a reference to its backend object ID without loading
// the object. Fails with UNKNOWN_FAKE_ID for never-enumerated fake IDs.
func (r *Resolver) ResolveID(ref ObjectRef) (ledger.ObjectID, error) {
	if ref.Address != nil {
		return *ref.Address, nil
	}
	if ref.Fake == nil {
		return ledger.ObjectID{}, runerr.New(runerr.CodeUnknownFakeID, "empty object reference")
	}
	id, ok := r.Registry.Lookup(*ref.Fake)
	if !ok {
		return ledger.ObjectID{}, runerr.New(runerr.CodeUnknownFakeID,
			"unknown object, object(%d,%d)", ref.Fake.Task, ref.Fake.Index)
	}
	return id, nil
}

// Resolve loads the referenced object (at the requested version when
// given) and wraps it in the object-argument kind the backend expects.
func (r *Resolver) Resolve(ctx context.Context, ref ObjectRef) (*ledger.ObjectArg, error) {
	id, err := r.ResolveID(ref)
	if err != nil {
		return nil, err
	}
	view, err := r.Source.GetObject(ctx, id, ref.Version)
	if err != nil {
		return nil, runerr.Wrap(runerr.CodeAdapterExecutionFailed, err,
			"could not load object argument %s", ref)
	}

	switch ref.Kind {
	case RefReceiving:
		return &ledger.ObjectArg{
			Kind:    ledger.ObjectReceiving,
			ID:      id,
			Version: view.Version,
		}, nil
	case RefImmShared:
		if view.Owner.Kind != ledger.OwnerShared {
			return nil, runerr.New(runerr.CodeAdapterExecutionFailed,
				"%s is not a shared object", ref)
		}
		return &ledger.ObjectArg{
			Kind:                 ledger.ObjectShared,
			ID:                   id,
			InitialSharedVersion: view.Owner.InitialSharedVersion,
			Mutable:              false,
		}, nil
	default:
		if view.Owner.Kind == ledger.OwnerShared {
			return &ledger.ObjectArg{
				Kind:                 ledger.ObjectShared,
				ID:                   id,
				InitialSharedVersion: view.Owner.InitialSharedVersion,
				Mutable:              true,
			}, nil
		}
		return &ledger.ObjectArg{
			Kind:    ledger.ObjectImmOrOwned,
			ID:      id,
			Version: view.Version,
		}, nil
	}
}
