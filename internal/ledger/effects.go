package ledger

import "fmt"

// GasSummary is the cost breakdown reported verbatim in transcripts.
type GasSummary struct {
	ComputationCost         uint64
	StorageCost             uint64
	StorageRebate           uint64
	NonRefundableStorageFee uint64
}

// Render produces the transcript gas line body. Field order is part of
// the golden-file contract.
func (g GasSummary) Render() string {
	return fmt.Sprintf(
		"computation_cost: %d, storage_cost: %d, storage_rebate: %d, non_refundable_storage_fee: %d",
		g.ComputationCost, g.StorageCost, g.StorageRebate, g.NonRefundableStorageFee,
	)
}

// Effects is the adapter's report of one executed transaction.
type Effects struct {
	Digest    Digest
	Created   []ObjectID
	Mutated   []ObjectID
	Unwrapped []ObjectID
	Deleted   []ObjectID
	Wrapped   []ObjectID
	Gas       GasSummary

	// Results holds the per-command result arities actually produced.
	// Used by callers that inspect NestedResult bounds after the fact.
	Results []int
}
