package execution

import (
	"sync"

	"github.com/iov-one/threshold"
	"github.com/iov-one/threshold/errors"
	"github.com/iov-one/threshold/x/events"
	"github.com/iov-one/threshold/x/principals"
	"github.com/iov-one/threshold/x/proposals"
	"github.com/iov-one/threshold/x/utils"
)

// Engine executes proposals that reached the confirmation threshold.
type Engine struct {
	registry  *principals.Registry
	proposals *proposals.Store
	events    *events.Log
	executor  Executor

	mu       sync.Mutex
	inFlight map[uint64]struct{}
}

// NewEngine returns an engine running the actions with given executor.
func NewEngine(
	registry *principals.Registry,
	store *proposals.Store,
	log *events.Log,
	executor Executor,
) *Engine {
	return &Engine{
		registry:  registry,
		proposals: store,
		events:    log,
		executor:  executor,
		inFlight:  make(map[uint64]struct{}),
	}
}

// Execute runs the action of the proposal on behalf of the caller.
//
// The caller must be a principal, the proposal must exist, must not be
// executed or in flight, and must hold at least the threshold of
// confirmations. A failure of the action is returned as
// ErrExecutionFailed and leaves db untouched. The error of the action stays
// reachable, so ErrPanic or the root error it returned match as well.
func (e *Engine) Execute(ctx threshold.Context, db threshold.CacheableKVStore, caller threshold.Address, id uint64) error {
	req := &proposals.Request{Caller: caller, ID: id}
	err := proposals.Check(db, req,
		e.proposals.Authorized(),
		e.proposals.Exists(),
		e.NotInFlight(),
		proposals.NotExecuted(),
		e.ThresholdMet(),
	)
	if err != nil {
		return err
	}

	if !e.enter(id) {
		return errors.Wrapf(errors.ErrAlreadyExecuted, "proposal %d is being executed", id)
	}
	defer e.leave(id)

	p := req.Proposal
	staged := db.CacheWrap()
	if err := e.proposals.MarkExecuted(staged, p); err != nil {
		staged.Discard()
		return err
	}

	f := &frame{engine: e, db: staged}
	action := Action{
		Caller:     caller.Clone(),
		ProposalID: id,
		Target:     p.Target.Clone(),
		Value:      p.Value,
		Payload:    append([]byte(nil), p.Payload...),
	}
	err = utils.Recovered(func() error {
		return e.executor.Execute(withFrame(ctx, f), staged, action)
	})
	f.close()
	if err != nil {
		staged.Discard()
		return errors.WithCause(errors.Wrapf(errors.ErrExecutionFailed, "proposal %d", id), err)
	}

	if _, err := e.events.Append(staged, events.Execute(caller, id)); err != nil {
		staged.Discard()
		return err
	}
	if err := staged.Write(); err != nil {
		return errors.Wrapf(err, "commit proposal %d", id)
	}
	return nil
}

// InFlight returns true while the action of the proposal runs.
func (e *Engine) InFlight(id uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.inFlight[id]
	return ok
}

// NotInFlight rejects any operation on a proposal whose action runs. It
// does not depend on the staged executed flag, so it holds for callers
// that do not see the staging store.
func (e *Engine) NotInFlight() proposals.Guard {
	return func(db threshold.ReadOnlyKVStore, req *proposals.Request) error {
		if e.InFlight(req.ID) {
			return errors.Wrapf(errors.ErrAlreadyExecuted, "proposal %d is being executed", req.ID)
		}
		return nil
	}
}

// ThresholdMet rejects proposals with fewer confirmations than the
// threshold. It must follow Exists.
func (e *Engine) ThresholdMet() proposals.Guard {
	return func(db threshold.ReadOnlyKVStore, req *proposals.Request) error {
		have, want := int(req.Proposal.Confirmations), e.registry.Threshold()
		if have < want {
			return errors.Wrapf(errors.ErrInsufficientConfirmations,
				"proposal %d has %d of %d", req.ID, have, want)
		}
		return nil
	}
}

func (e *Engine) enter(id uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.inFlight[id]; ok {
		return false
	}
	e.inFlight[id] = struct{}{}
	return true
}

func (e *Engine) leave(id uint64) {
	e.mu.Lock()
	delete(e.inFlight, id)
	e.mu.Unlock()
}
