package app

import (
	"sync"
	"time"

	"github.com/iov-one/threshold"
	"github.com/iov-one/threshold/errors"
	"github.com/iov-one/threshold/x/custody"
	"github.com/iov-one/threshold/x/events"
	"github.com/iov-one/threshold/x/execution"
	"github.com/iov-one/threshold/x/principals"
	"github.com/iov-one/threshold/x/proposals"
)

// Subscriber receives every event record once the operation that produced
// it was committed. Subscribers are called synchronously, with the wallet
// locked, so they must not call the wallet.
type Subscriber func(events.Record)

// Wallet is a threshold wallet over a store.
type Wallet struct {
	mu sync.Mutex
	db threshold.CacheableKVStore

	registry  *principals.Registry
	log       *events.Log
	proposals *proposals.Store
	ledger    *proposals.Ledger
	engine    *execution.Engine
	bank      *custody.Bank

	recordFailures bool
	metrics        *metrics
	subscribers    []Subscriber

	pending, executed int
}

// Init writes the initial configuration of a wallet into the store. It
// fails with ErrConfiguration if the configuration is invalid or the store
// already holds a wallet.
func Init(db threshold.KVStore, members []threshold.Address, minConfirmations int) error {
	r, err := principals.Initialize(members, minConfirmations)
	if err != nil {
		return err
	}
	return principals.Save(db, r)
}

// New opens the wallet kept in the store. The store must have been
// initialized with Init.
func New(db threshold.CacheableKVStore, opts ...Option) (*Wallet, error) {
	registry, err := principals.Load(db)
	if err != nil {
		return nil, err
	}
	cfg := config{recordFailures: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	log := events.NewLog()
	w := &Wallet{
		db:             db,
		registry:       registry,
		log:            log,
		proposals:      proposals.NewStore(registry, log),
		bank:           custody.NewBank(log),
		recordFailures: cfg.recordFailures,
		metrics:        newMetrics(cfg.registerer),
	}
	w.ledger = proposals.NewLedger(w.proposals)
	executor := cfg.executor
	if executor == nil {
		executor = custody.NewCallExecutor(w.bank, cfg.router, registry.Address())
	}
	w.engine = execution.NewEngine(registry, w.proposals, log, executor)

	pending, err := w.proposals.IDs(db, 0, ^uint64(0), proposals.Pending)
	if err != nil {
		return nil, errors.Wrap(err, "count pending proposals")
	}
	n, err := w.proposals.Count(db)
	if err != nil {
		return nil, err
	}
	w.pending, w.executed = len(pending), int(n)-len(pending)
	w.metrics.setProposals(w.pending, w.executed)
	return w, nil
}

// SubmitAction creates a proposal for the action and returns its id.
func (w *Wallet) SubmitAction(ctx threshold.Context, caller, target threshold.Address, value uint64, payload []byte) (uint64, error) {
	var id uint64
	ctx = threshold.WithLogInfo(ctx, "caller", caller, "target", target)
	err := w.mutate(ctx, "submit", nil, func(db threshold.CacheableKVStore) error {
		var err error
		id, err = w.proposals.Submit(db, caller, target, value, payload)
		return err
	})
	return id, err
}

// Confirm records the approval of the caller for the proposal.
func (w *Wallet) Confirm(ctx threshold.Context, caller threshold.Address, id uint64) error {
	ctx = threshold.WithLogInfo(ctx, "caller", caller, "proposal", id)
	return w.mutate(ctx, "confirm", w.notInFlight(id), func(db threshold.CacheableKVStore) error {
		return w.ledger.Confirm(db, caller, id, w.engine.NotInFlight())
	})
}

// Revoke withdraws the approval of the caller for the proposal.
func (w *Wallet) Revoke(ctx threshold.Context, caller threshold.Address, id uint64) error {
	ctx = threshold.WithLogInfo(ctx, "caller", caller, "proposal", id)
	return w.mutate(ctx, "revoke", w.notInFlight(id), func(db threshold.CacheableKVStore) error {
		return w.ledger.Revoke(db, caller, id, w.engine.NotInFlight())
	})
}

// Execute runs the action of the proposal if it holds enough
// confirmations. When the action fails the proposal is left as it was and
// ErrExecutionFailed is returned.
func (w *Wallet) Execute(ctx threshold.Context, caller threshold.Address, id uint64) error {
	ctx = threshold.WithLogInfo(ctx, "caller", caller, "proposal", id)
	return w.mutate(ctx, "execute", w.notInFlight(id), func(db threshold.CacheableKVStore) error {
		start := time.Now()
		err := w.engine.Execute(ctx, db, caller, id)
		if err == nil || errors.ErrExecutionFailed.Is(err) {
			w.metrics.observeExecution(start)
		}
		if w.recordFailures && errors.ErrExecutionFailed.Is(err) {
			r := events.ExecutionFailure(caller, id, err.Error())
			if _, lerr := w.log.Append(db, r); lerr != nil {
				return errors.Wrap(lerr, "record failure")
			}
		}
		return err
	})
}

// Deposit credits the wallet with value received from the sender and
// returns the resulting balance.
func (w *Wallet) Deposit(ctx threshold.Context, sender threshold.Address, amount uint64) (uint64, error) {
	var balance uint64
	ctx = threshold.WithLogInfo(ctx, "sender", sender, "amount", amount)
	err := w.mutate(ctx, "deposit", nil, func(db threshold.CacheableKVStore) error {
		var err error
		balance, err = w.bank.Deposit(db, sender, w.registry.Address(), amount)
		return err
	})
	return balance, err
}

// ListPrincipals returns the principals in registration order.
func (w *Wallet) ListPrincipals() []threshold.Address {
	return w.registry.List()
}

// Threshold returns the number of confirmations required to execute.
func (w *Wallet) Threshold() int {
	return w.registry.Threshold()
}

// Address returns the custody account of the wallet.
func (w *Wallet) Address() threshold.Address {
	return w.registry.Address()
}

// ProposalCount returns the number of proposals ever submitted.
func (w *Wallet) ProposalCount(ctx threshold.Context) (uint64, error) {
	var n uint64
	err := w.read(ctx, "count", func(db threshold.ReadOnlyKVStore) error {
		var err error
		n, err = w.proposals.Count(db)
		return err
	})
	return n, err
}

// GetProposal returns a copy of the proposal.
func (w *Wallet) GetProposal(ctx threshold.Context, id uint64) (*proposals.Proposal, error) {
	var p *proposals.Proposal
	err := w.read(ctx, "get", func(db threshold.ReadOnlyKVStore) error {
		var err error
		p, err = w.proposals.Get(db, id)
		return err
	})
	return p, err
}

// ProposalIDs returns the ids of all proposals matching the filter.
func (w *Wallet) ProposalIDs(ctx threshold.Context, f proposals.Filter) ([]uint64, error) {
	var ids []uint64
	err := w.read(ctx, "ids", func(db threshold.ReadOnlyKVStore) error {
		n, err := w.proposals.Count(db)
		if err != nil {
			return err
		}
		ids, err = w.proposals.IDs(db, 0, n, f)
		return err
	})
	return ids, err
}

// IsConfirmed returns true if the principal confirmed the proposal.
func (w *Wallet) IsConfirmed(ctx threshold.Context, id uint64, principal threshold.Address) (bool, error) {
	var ok bool
	err := w.read(ctx, "is_confirmed", func(db threshold.ReadOnlyKVStore) error {
		if _, err := w.proposals.Get(db, id); err != nil {
			return err
		}
		var err error
		ok, err = w.ledger.IsConfirmed(db, id, principal)
		return err
	})
	return ok, err
}

// Confirmations returns the principals that confirmed the proposal, in
// registration order.
func (w *Wallet) Confirmations(ctx threshold.Context, id uint64) ([]threshold.Address, error) {
	var out []threshold.Address
	err := w.read(ctx, "confirmations", func(db threshold.ReadOnlyKVStore) error {
		var err error
		out, err = w.ledger.Confirmations(db, id)
		return err
	})
	return out, err
}

// Balance returns the amount held in custody by the wallet.
func (w *Wallet) Balance(ctx threshold.Context) (uint64, error) {
	var b uint64
	err := w.read(ctx, "balance", func(db threshold.ReadOnlyKVStore) error {
		var err error
		b, err = w.bank.Balance(db, w.registry.Address())
		return err
	})
	return b, err
}

// Events returns the event records starting with sequence from.
func (w *Wallet) Events(ctx threshold.Context, from uint64) ([]events.Record, error) {
	var out []events.Record
	err := w.read(ctx, "events", func(db threshold.ReadOnlyKVStore) error {
		var err error
		out, err = w.log.All(db, from)
		return err
	})
	return out, err
}

// Verify checks that the confirmation count of every proposal matches its
// confirmation records.
func (w *Wallet) Verify(ctx threshold.Context) error {
	return w.read(ctx, "verify", func(db threshold.ReadOnlyKVStore) error {
		n, err := w.proposals.Count(db)
		if err != nil {
			return err
		}
		for id := uint64(0); id < n; id++ {
			if err := w.ledger.Verify(db, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// Subscribe registers a subscriber for all records committed from now on.
func (w *Wallet) Subscribe(s Subscriber) {
	w.mu.Lock()
	w.subscribers = append(w.subscribers, s)
	w.mu.Unlock()
}
