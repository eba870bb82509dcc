package aggregates

// WriteTxOwnership says who opens the transaction for a write boundary.
type WriteTxOwnership string

const (
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
	// WriteTxOwnedByCaller means the caller passes a transaction in and the
	// aggregate must not open its own.
	WriteTxOwnedByCaller WriteTxOwnership = "caller_owned"
)

type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	// Guards names the conditional writes that enforce the aggregate's
	// invariants at the storage boundary.
	Guards []string
}

type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}

// ProgressContract describes the learner progress boundary: attempt
// snapshots, resume position and the one-time completion claim with its
// reward writes.
var ProgressContract = Contract{
	Name:             "progress",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	Guards: []string{
		"module_completion.completed = false on position update",
		"module_completion.completed = false on claim",
		"badge_grant unique (user_id, badge_name)",
	},
}
