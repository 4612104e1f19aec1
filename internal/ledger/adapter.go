package ledger

import (
	"context"
	"time"
)

// InitConfig is the global configuration an init task applies.
type InitConfig struct {
	Accounts          []string
	ProtocolVersion   uint64
	MaxGas            uint64
	ReferenceGasPrice uint64
	DefaultGasPrice   uint64
	Simulator         bool
}

// AccountInit reports one funded account created during initialization,
// in declaration order.
type AccountInit struct {
	Name    string
	Address Address
	GasCoin ObjectID
}

// InitResult is the adapter's report of applied initialization.
type InitResult struct {
	Accounts []AccountInit
}

// CheckpointSummary describes the latest checkpoint.
type CheckpointSummary struct {
	Epoch                    uint64
	SequenceNumber           uint64
	NetworkTotalTransactions uint64
	ContentDigest            Digest
}

// Adapter is the ledger/execution backend the engine drives. Every call
// is awaited to completion before the next task runs; the engine imposes
// no timeouts of its own.
type Adapter interface {
	// Initialize applies global configuration exactly once, before any
	// transaction executes.
	Initialize(ctx context.Context, cfg InitConfig) (*InitResult, error)

	// Execute runs one transaction and reports its effects. A returned
	// error wraps the backend's own failure (e.g. an abort code).
	Execute(ctx context.Context, tx *Transaction) (*Effects, error)

	// GetObject loads an object, at a specific version when requested.
	GetObject(ctx context.Context, id ObjectID, version *Version) (*ObjectView, error)

	// AdvanceEpoch advances the epoch count times and returns the
	// resulting epoch number.
	AdvanceEpoch(ctx context.Context, count uint64, createRandomState bool) (uint64, error)
}

// Simulator extends Adapter with the manual checkpoint/clock/randomness
// control only a simulator-mode backend permits.
type Simulator interface {
	Adapter

	// CreateCheckpoint requests count checkpoint creations and returns
	// the resulting sequence number.
	CreateCheckpoint(ctx context.Context, count uint64) (uint64, error)

	// AdvanceClock advances simulated time.
	AdvanceClock(ctx context.Context, d time.Duration) error

	// ConsensusCommitPrologue advances simulated time the way a
	// consensus commit would and reports the effects of the system
	// transaction that carries the timestamp.
	ConsensusCommitPrologue(ctx context.Context, d time.Duration) (*Effects, error)

	// ViewCheckpoint returns the latest checkpoint summary.
	ViewCheckpoint(ctx context.Context) (*CheckpointSummary, error)

	// SetRandomState overrides the shared randomness object.
	SetRandomState(ctx context.Context, round uint64, randomBytes []byte, initialVersion Version) error
}

// QueryOptions carries the display flags of a run-graphql task.
type QueryOptions struct {
	ShowUsage          bool
	ShowHeaders        bool
	ShowServiceVersion bool
}

// QueryResponse is the query service's structured answer, rendered
// verbatim into the transcript.
type QueryResponse struct {
	Body           string
	Headers        []string
	ServiceVersion string
	Usage          string
}

// QueryService serves ad-hoc read queries for run-graphql tasks.
type QueryService interface {
	Query(ctx context.Context, body string, opts QueryOptions) (*QueryResponse, error)
}

// Disassembler renders compiled or source modules for print-bytecode
// tasks. Backends without a disassembler simply don't implement it.
type Disassembler interface {
	Disassemble(ctx context.Context, source string) (string, error)
}
