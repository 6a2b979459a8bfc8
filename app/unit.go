package app

import (
	"time"

	"github.com/iov-one/threshold"
	"github.com/iov-one/threshold/errors"
	"github.com/iov-one/threshold/x/events"
	"github.com/iov-one/threshold/x/utils"
)

// mutate runs fn as one unit of atomicity.
//
// Called from within an action executed by this wallet, the unit is nested
// in the staged unit of that execution and the lock is already held.
// Otherwise the wallet is locked for the whole unit, and subscribers are
// notified of the records it committed.
//
// A non nil admit is checked before the lock is taken. It rejects calls
// that could only wait for the lock held by the caller itself.
func (w *Wallet) mutate(ctx threshold.Context, op string, admit func() error, fn func(db threshold.CacheableKVStore) error) (err error) {
	start := time.Now()
	defer func() {
		utils.LogDuration(ctx, start, op, err, false)
		w.metrics.observe(op, err)
	}()

	if db, ok := w.engine.Staged(ctx); ok {
		return w.unit(db, fn)
	}
	if admit != nil {
		if err := admit(); err != nil {
			return err
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	from, err := w.log.Len(w.db)
	if err != nil {
		return err
	}
	opErr := w.unit(w.db, fn)
	if err := w.notify(from); err != nil {
		threshold.GetLogger(ctx).Error("cannot notify subscribers", "err", err)
	}
	return opErr
}

// unit commits what fn wrote to db unless it failed. A failed execution
// attempt still commits, as the only thing left written is its failure
// record.
func (w *Wallet) unit(db threshold.CacheableKVStore, fn func(db threshold.CacheableKVStore) error) error {
	cache := db.CacheWrap()
	err := fn(cache)
	if err != nil && !(w.recordFailures && errors.ErrExecutionFailed.Is(err)) {
		cache.Discard()
		return err
	}
	if werr := cache.Write(); werr != nil {
		return errors.Wrap(werr, "commit")
	}
	return err
}

// read runs fn against the committed state, or against the staged state
// when called from within an action executed by this wallet.
func (w *Wallet) read(ctx threshold.Context, op string, fn func(db threshold.ReadOnlyKVStore) error) (err error) {
	start := time.Now()
	defer func() {
		utils.LogDuration(ctx, start, op, err, true)
	}()

	if db, ok := w.engine.Staged(ctx); ok {
		return fn(db)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return fn(w.db)
}

// notInFlight rejects operations on a proposal whose action is running.
// Such a call either comes from the action itself, that holds the lock, or
// would be rejected by the in flight guard once it got the lock.
func (w *Wallet) notInFlight(id uint64) func() error {
	return func() error {
		if w.engine.InFlight(id) {
			return errors.Wrapf(errors.ErrAlreadyExecuted, "proposal %d is being executed", id)
		}
		return nil
	}
}

// notify passes the records committed since from to the subscribers and
// keeps the proposal gauges in step. Must be called with the lock held.
func (w *Wallet) notify(from uint64) error {
	return w.log.Since(w.db, from, func(r events.Record) error {
		switch r.Kind {
		case events.KindSubmit:
			w.pending++
		case events.KindExecute:
			w.pending--
			w.executed++
		}
		w.metrics.setProposals(w.pending, w.executed)
		for _, s := range w.subscribers {
			s(r)
		}
		return nil
	})
}
