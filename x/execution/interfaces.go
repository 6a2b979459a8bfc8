package execution

import (
	"github.com/iov-one/threshold"
)

// Action is what an executor performs for a proposal.
type Action struct {
	// Caller is the principal that triggered the execution.
	Caller     threshold.Address
	ProposalID uint64
	Target     threshold.Address
	Value      uint64
	Payload    []byte
}

// Executor performs the external action of a proposal. Everything it
// writes must go to given store, so that a failed action can be rolled
// back together with the state transition of the proposal.
//
// Calls the action makes back into the wallet that executes it must use
// the context they were given. With that context they run inside the
// staged execution. Without it, a call on the executed proposal is
// rejected with ErrAlreadyExecuted and any other call deadlocks. Calls
// into other wallets are
// independent units and are not rolled back with the action.
type Executor interface {
	Execute(ctx threshold.Context, db threshold.CacheableKVStore, a Action) error
}

// ExecutorFunc allows a function to be used as an Executor.
type ExecutorFunc func(ctx threshold.Context, db threshold.CacheableKVStore, a Action) error

var _ Executor = ExecutorFunc(nil)

// Execute calls fn.
func (fn ExecutorFunc) Execute(ctx threshold.Context, db threshold.CacheableKVStore, a Action) error {
	return fn(ctx, db, a)
}
