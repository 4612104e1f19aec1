package ledger

import "fmt"

// Argument references a value inside a programmable transaction.
// Exactly one variant applies; indices refer to the current transaction's
// own input and command lists, never across transactions.
type Argument struct {
	Kind          ArgumentKind
	Input         uint16 // ArgInput
	Command       uint16 // ArgResult / ArgNestedResult
	NestedIndex   uint16 // ArgNestedResult
}

// ArgumentKind discriminates Argument variants.
type ArgumentKind int

const (
	ArgGas ArgumentKind = iota
	ArgInput
	ArgResult
	ArgNestedResult
)

func (a Argument) String() string {
	switch a.Kind {
	case ArgGas:
		return "Gas"
	case ArgInput:
		return fmt.Sprintf("Input(%d)", a.Input)
	case ArgResult:
		return fmt.Sprintf("Result(%d)", a.Command)
	case ArgNestedResult:
		return fmt.Sprintf("NestedResult(%d,%d)", a.Command, a.NestedIndex)
	default:
		return "Argument(?)"
	}
}

// GasArg references the gas coin.
func GasArg() Argument { return Argument{Kind: ArgGas} }

// InputArg references transaction input i.
func InputArg(i uint16) Argument { return Argument{Kind: ArgInput, Input: i} }

// ResultArg references the sole result of command i.
func ResultArg(i uint16) Argument { return Argument{Kind: ArgResult, Command: i} }

// NestedResultArg references element j of command i's result vector.
func NestedResultArg(i, j uint16) Argument {
	return Argument{Kind: ArgNestedResult, Command: i, NestedIndex: j}
}

// CallArg is one fully resolved transaction input.
type CallArg struct {
	// Pure holds serialized scalar/bytes input when Object is nil.
	Pure   []byte
	Object *ObjectArg
}

// ObjectArgKind discriminates the object reference kinds the backend
// distinguishes.
type ObjectArgKind int

const (
	ObjectImmOrOwned ObjectArgKind = iota
	ObjectShared
	ObjectReceiving
)

// ObjectArg is a resolved object input.
type ObjectArg struct {
	Kind                 ObjectArgKind
	ID                   ObjectID
	Version              Version // ImmOrOwned / Receiving
	InitialSharedVersion Version // Shared
	Mutable              bool    // Shared
}

// CommandKind discriminates Command variants.
type CommandKind int

const (
	CmdMoveCall CommandKind = iota
	CmdTransferObjects
	CmdSplitCoins
	CmdMergeCoins
	CmdMakeMoveVec
	CmdPublish
	CmdUpgrade
)

func (k CommandKind) String() string {
	switch k {
	case CmdMoveCall:
		return "MoveCall"
	case CmdTransferObjects:
		return "TransferObjects"
	case CmdSplitCoins:
		return "SplitCoins"
	case CmdMergeCoins:
		return "MergeCoins"
	case CmdMakeMoveVec:
		return "MakeMoveVec"
	case CmdPublish:
		return "Publish"
	case CmdUpgrade:
		return "Upgrade"
	default:
		return "Command(?)"
	}
}

// Command is one step of a programmable transaction. The fields used
// depend on Kind; unused fields stay zero.
type Command struct {
	Kind CommandKind

	// MoveCall
	Package  Address
	Module   string
	Function string
	TypeArgs []string
	Args     []Argument

	// TransferObjects: Args are the objects, Recipient the target.
	Recipient Argument

	// SplitCoins / MergeCoins: Coin is the target, Args the amounts/sources.
	Coin Argument

	// MakeMoveVec
	ElementType string

	// Publish / Upgrade
	Modules       [][]byte
	Dependencies  []Address
	UpgradeTarget Address  // Upgrade: package being upgraded
	Ticket        Argument // Upgrade: upgrade ticket argument
}

// Transaction is the adapter-executable form of one programmable
// transaction block.
type Transaction struct {
	Sender     Address
	Sponsor    *Address
	GasPayment *ObjectID
	GasBudget  uint64
	GasPrice   uint64
	Inputs     []CallArg
	Commands   []Command
	DevInspect bool
	DryRun     bool
}
