package ledger

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// AddressLength is the byte width of ledger addresses and object IDs.
const AddressLength = 32

// Address is a 32-byte account or named address on the ledger.
type Address [AddressLength]byte

// String renders the address as 0x-prefixed lowercase hex.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Short renders the address with leading zero bytes trimmed, as script
// literals are usually written (0x0, 0x2, ...).
func (a Address) Short() string {
	trimmed := strings.TrimLeft(hex.EncodeToString(a[:]), "0")
	if trimmed == "" {
		trimmed = "0"
	}
	return "0x" + trimmed
}

// ParseAddress parses a 0x-prefixed hex literal of up to 32 bytes.
// Short forms are left-padded with zero bytes.
func ParseAddress(s string) (Address, error) {
	var a Address
	body, ok := strings.CutPrefix(s, "0x")
	if !ok {
		return a, fmt.Errorf("address %q: missing 0x prefix", s)
	}
	if len(body) == 0 || len(body) > 2*AddressLength {
		return a, fmt.Errorf("address %q: invalid length", s)
	}
	if len(body)%2 == 1 {
		body = "0" + body
	}
	raw, err := hex.DecodeString(body)
	if err != nil {
		return a, fmt.Errorf("address %q: %w", s, err)
	}
	copy(a[AddressLength-len(raw):], raw)
	return a, nil
}

// ObjectID identifies an object on the ledger. IDs share the address
// space: an object's ID is a valid address (packages are addressed by ID).
type ObjectID = Address

// Version is an object's lamport version.
type Version uint64

// Digest is a 32-byte content digest (transaction or package).
type Digest [32]byte

// String renders the digest in base58, the ledger's wire encoding.
func (d Digest) String() string {
	return base58.Encode(d[:])
}

// OwnerKind discriminates the owner variants.
type OwnerKind int

const (
	OwnerAddress OwnerKind = iota
	OwnerObject
	OwnerShared
	OwnerImmutable
)

// Owner describes who holds an object.
type Owner struct {
	Kind                 OwnerKind
	Address              Address // OwnerAddress / OwnerObject
	InitialSharedVersion Version // OwnerShared
}

func (o Owner) String() string {
	switch o.Kind {
	case OwnerAddress:
		return o.Address.String()
	case OwnerObject:
		return "object(" + o.Address.String() + ")"
	case OwnerShared:
		return fmt.Sprintf("shared(%d)", o.InitialSharedVersion)
	case OwnerImmutable:
		return "immutable"
	default:
		return "unknown"
	}
}

// ObjectView is the adapter's rendering of one object at one version.
// Fields keep declaration order so rendering stays deterministic.
type ObjectView struct {
	ID      ObjectID
	Version Version
	Owner   Owner
	Type    string
	Fields  []Field
}

// Field is one named field of an object's contents.
type Field struct {
	Name  string
	Value Datum
}

// Datum is the recursive content tree behind an ObjectView. Variants:
// U64Datum, BoolDatum, StringDatum, AddressDatum, IDDatum, ListDatum,
// StructDatum.
type Datum interface {
	isDatum()
}

type U64Datum uint64

type BoolDatum bool

type StringDatum string

// AddressDatum is an embedded address value.
type AddressDatum Address

// IDDatum is an embedded object ID; transcripts rewrite these to fake IDs.
type IDDatum ObjectID

type ListDatum []Datum

type StructDatum struct {
	Type   string
	Fields []Field
}

func (U64Datum) isDatum()     {}
func (BoolDatum) isDatum()    {}
func (StringDatum) isDatum()  {}
func (AddressDatum) isDatum() {}
func (IDDatum) isDatum()      {}
func (ListDatum) isDatum()    {}
func (StructDatum) isDatum()  {}
