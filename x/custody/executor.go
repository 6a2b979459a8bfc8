package custody

import (
	"github.com/iov-one/threshold"
	"github.com/iov-one/threshold/errors"
	"github.com/iov-one/threshold/x/execution"
)

// CallExecutor is the default action of a proposal: it moves the value
// from the wallet account to the target and calls the contract deployed
// at the target, if any.
type CallExecutor struct {
	bank   *Bank
	router *Router
	wallet threshold.Address
}

var _ execution.Executor = (*CallExecutor)(nil)

// NewCallExecutor returns an executor spending from the wallet account.
// The router may be nil when no contracts are deployed.
func NewCallExecutor(bank *Bank, router *Router, wallet threshold.Address) *CallExecutor {
	return &CallExecutor{
		bank:   bank,
		router: router,
		wallet: wallet,
	}
}

// Execute implements execution.Executor.
func (e *CallExecutor) Execute(ctx threshold.Context, db threshold.CacheableKVStore, a execution.Action) error {
	if a.Value > 0 {
		if err := e.bank.Transfer(db, e.wallet, a.Target, a.Value); err != nil {
			return errors.Wrap(err, "transfer")
		}
	}
	c := e.router.Contract(a.Target)
	if c == nil {
		return nil
	}
	threshold.GetLogger(ctx).Debug("calling contract", "target", a.Target, "proposal", a.ProposalID)
	err := c.Call(ctx, db, Call{
		Wallet:     e.wallet,
		Caller:     a.Caller,
		ProposalID: a.ProposalID,
		Value:      a.Value,
		Payload:    a.Payload,
	})
	return errors.Wrapf(err, "contract %s", a.Target)
}
