package execution_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/iov-one/threshold"
	"github.com/iov-one/threshold/errors"
	"github.com/iov-one/threshold/store"
	"github.com/iov-one/threshold/thresholdtest"
	"github.com/iov-one/threshold/thresholdtest/assert"
	"github.com/iov-one/threshold/x/events"
	"github.com/iov-one/threshold/x/execution"
	"github.com/iov-one/threshold/x/principals"
	"github.com/iov-one/threshold/x/proposals"
)

// recorder is an executor counting its runs. It writes a marker into the
// store on every run, then returns fail.
type recorder struct {
	runs    int
	actions []execution.Action
	fail    error
	during  func(ctx threshold.Context, db threshold.CacheableKVStore, a execution.Action)
}

func (r *recorder) Execute(ctx threshold.Context, db threshold.CacheableKVStore, a execution.Action) error {
	r.runs++
	r.actions = append(r.actions, a)
	if err := db.Set([]byte(fmt.Sprintf("marker:%d", a.ProposalID)), []byte{1}); err != nil {
		return err
	}
	if r.during != nil {
		r.during(ctx, db, a)
	}
	return r.fail
}

type setup struct {
	db        threshold.CacheableKVStore
	log       *events.Log
	proposals *proposals.Store
	ledger    *proposals.Ledger
	engine    *execution.Engine
	exec      *recorder
	a, b, c   threshold.Address
	id        uint64
}

// newSetup creates a 2 of 3 wallet with one proposal confirmed by the
// given number of principals.
func newSetup(t *testing.T, confirmations int) *setup {
	t.Helper()
	ps := thresholdtest.NewPrincipals(3)
	registry, err := principals.Initialize(ps, 2)
	assert.Nil(t, err)

	s := &setup{
		db:   store.MemStore(),
		log:  events.NewLog(),
		exec: &recorder{},
		a:    ps[0],
		b:    ps[1],
		c:    ps[2],
	}
	s.proposals = proposals.NewStore(registry, s.log)
	s.ledger = proposals.NewLedger(s.proposals)
	s.engine = execution.NewEngine(registry, s.proposals, s.log, s.exec)

	s.id, err = s.proposals.Submit(s.db, s.a, thresholdtest.NewAddress(), 100, []byte("pay"))
	assert.Nil(t, err)
	for _, p := range ps[:confirmations] {
		assert.Nil(t, s.ledger.Confirm(s.db, p, s.id))
	}
	return s
}

func (s *setup) proposal(t *testing.T) *proposals.Proposal {
	t.Helper()
	p, err := s.proposals.Get(s.db, s.id)
	assert.Nil(t, err)
	return p
}

func (s *setup) hasMarker(t *testing.T) bool {
	t.Helper()
	ok, err := s.db.Has([]byte(fmt.Sprintf("marker:%d", s.id)))
	assert.Nil(t, err)
	return ok
}

func TestExecuteRejections(t *testing.T) {
	cases := map[string]struct {
		confirmations int
		caller        func(s *setup) threshold.Address
		id            func(s *setup) uint64
		wantErr       *errors.Error
	}{
		"stranger": {
			confirmations: 2,
			caller:        func(*setup) threshold.Address { return thresholdtest.NewAddress() },
			wantErr:       errors.ErrUnauthorized,
		},
		"unknown proposal": {
			confirmations: 2,
			id:            func(s *setup) uint64 { return s.id + 1 },
			wantErr:       errors.ErrNotFound,
		},
		"below threshold": {
			confirmations: 1,
			wantErr:       errors.ErrInsufficientConfirmations,
		},
		"no confirmations": {
			confirmations: 0,
			wantErr:       errors.ErrInsufficientConfirmations,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			s := newSetup(t, tc.confirmations)
			caller, id := s.c, s.id
			if tc.caller != nil {
				caller = tc.caller(s)
			}
			if tc.id != nil {
				id = tc.id(s)
			}
			err := s.engine.Execute(context.Background(), s.db, caller, id)
			assert.IsErr(t, tc.wantErr, err)
			assert.Equal(t, 0, s.exec.runs)
			assert.Equal(t, false, s.proposal(t).Executed)
		})
	}
}

func TestExecuteOnce(t *testing.T) {
	s := newSetup(t, 2)
	ctx := context.Background()

	assert.Nil(t, s.engine.Execute(ctx, s.db, s.c, s.id))
	assert.Equal(t, 1, s.exec.runs)
	assert.Equal(t, execution.Action{
		Caller:     s.c,
		ProposalID: s.id,
		Target:     s.proposal(t).Target,
		Value:      100,
		Payload:    []byte("pay"),
	}, s.exec.actions[0])

	p := s.proposal(t)
	assert.Equal(t, true, p.Executed)
	assert.Equal(t, uint32(2), p.Confirmations)
	assert.Equal(t, true, s.hasMarker(t))

	records, err := s.log.All(s.db, 0)
	assert.Nil(t, err)
	last := records[len(records)-1]
	assert.Equal(t, events.KindExecute, last.Kind)
	assert.Equal(t, s.c, last.Principal)

	assert.IsErr(t, errors.ErrAlreadyExecuted, s.engine.Execute(ctx, s.db, s.a, s.id))
	assert.Equal(t, 1, s.exec.runs)
}

func TestFailedExecutionRollsBack(t *testing.T) {
	cases := map[string]struct {
		prepare   func(r *recorder)
		wantCause *errors.Error
	}{
		"action error": {
			prepare:   func(r *recorder) { r.fail = errors.ErrInsufficientFunds.New("target rejected the call") },
			wantCause: errors.ErrInsufficientFunds,
		},
		"action panic": {
			prepare: func(r *recorder) {
				r.during = func(threshold.Context, threshold.CacheableKVStore, execution.Action) { panic("boom") }
			},
			wantCause: errors.ErrPanic,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			s := newSetup(t, 2)
			tc.prepare(s.exec)
			before, err := s.log.Len(s.db)
			assert.Nil(t, err)

			err = s.engine.Execute(context.Background(), s.db, s.a, s.id)
			assert.IsErr(t, errors.ErrExecutionFailed, err)
			assert.IsErr(t, tc.wantCause, err)
			assert.Equal(t, errors.ErrExecutionFailed.Code(), errors.Code(err))
			assert.Equal(t, 1, s.exec.runs)

			p := s.proposal(t)
			assert.Equal(t, false, p.Executed)
			assert.Equal(t, uint32(2), p.Confirmations)
			assert.Equal(t, false, s.hasMarker(t))
			after, err := s.log.Len(s.db)
			assert.Nil(t, err)
			assert.Equal(t, before, after)
			assert.Equal(t, false, s.engine.InFlight(s.id))

			// the proposal can be executed again
			s.exec.fail, s.exec.during = nil, nil
			assert.Nil(t, s.engine.Execute(context.Background(), s.db, s.a, s.id))
			assert.Equal(t, true, s.proposal(t).Executed)
		})
	}
}

func TestReentrantCallsAreRejected(t *testing.T) {
	s := newSetup(t, 2)

	var (
		actionCtx       threshold.Context
		nestedExecute   error
		nestedConfirm   error
		nestedRevoke    error
		outerConfirm    error
		inFlightDuring  bool
		stagedExecuted  bool
		stagedFromFrame bool
	)
	s.exec.during = func(ctx threshold.Context, db threshold.CacheableKVStore, a execution.Action) {
		actionCtx = ctx
		staged, ok := s.engine.Staged(ctx)
		stagedFromFrame = ok && staged == db

		p, err := s.proposals.Get(db, a.ProposalID)
		assert.Nil(t, err)
		stagedExecuted = p.Executed
		inFlightDuring = s.engine.InFlight(a.ProposalID)

		nestedExecute = s.engine.Execute(ctx, db, s.a, a.ProposalID)
		nestedConfirm = s.ledger.Confirm(db, s.c, a.ProposalID, s.engine.NotInFlight())
		nestedRevoke = s.ledger.Revoke(db, s.a, a.ProposalID, s.engine.NotInFlight())
		// a caller that does not see the staged store is rejected as well
		outerConfirm = s.ledger.Confirm(s.db, s.c, a.ProposalID, s.engine.NotInFlight())
	}

	assert.Nil(t, s.engine.Execute(context.Background(), s.db, s.b, s.id))
	assert.Equal(t, 1, s.exec.runs)
	assert.Equal(t, true, stagedFromFrame)
	assert.Equal(t, true, stagedExecuted)
	assert.Equal(t, true, inFlightDuring)
	assert.IsErr(t, errors.ErrAlreadyExecuted, nestedExecute)
	assert.IsErr(t, errors.ErrAlreadyExecuted, nestedConfirm)
	assert.IsErr(t, errors.ErrAlreadyExecuted, nestedRevoke)
	assert.IsErr(t, errors.ErrAlreadyExecuted, outerConfirm)

	// the staging store does not outlive the execution
	if staged, ok := s.engine.Staged(actionCtx); ok || staged != nil {
		t.Fatal("finished execution must not expose the staging store")
	}
	_, ok := s.engine.Staged(context.Background())
	assert.Equal(t, false, ok)

	p := s.proposal(t)
	assert.Equal(t, true, p.Executed)
	assert.Equal(t, uint32(2), p.Confirmations)
}

func TestNestedExecutionRollsBackWithParent(t *testing.T) {
	s := newSetup(t, 2)
	other, err := s.proposals.Submit(s.db, s.b, thresholdtest.NewAddress(), 1, nil)
	assert.Nil(t, err)
	assert.Nil(t, s.ledger.Confirm(s.db, s.a, other))
	assert.Nil(t, s.ledger.Confirm(s.db, s.b, other))

	var nested error
	s.exec.during = func(ctx threshold.Context, db threshold.CacheableKVStore, a execution.Action) {
		if a.ProposalID != s.id {
			return
		}
		nested = s.engine.Execute(ctx, db, s.a, other)
		s.exec.fail = fmt.Errorf("parent fails after the nested execution")
	}

	err = s.engine.Execute(context.Background(), s.db, s.a, s.id)
	assert.IsErr(t, errors.ErrExecutionFailed, err)
	assert.Nil(t, nested)
	assert.Equal(t, 2, s.exec.runs)

	p, err := s.proposals.Get(s.db, other)
	assert.Nil(t, err)
	assert.Equal(t, false, p.Executed)
	assert.Equal(t, false, s.proposal(t).Executed)
}

func TestStagedIgnoresOtherEngines(t *testing.T) {
	s := newSetup(t, 2)
	o := newSetup(t, 2)

	var (
		ownStaged   bool
		otherStaged bool
		innerOwn    bool
		innerOuter  bool
	)
	o.exec.during = func(ctx threshold.Context, db threshold.CacheableKVStore, a execution.Action) {
		staged, ok := o.engine.Staged(ctx)
		innerOwn = ok && staged == db
		// the outer execution is still running in the context
		_, innerOuter = s.engine.Staged(ctx)
	}
	s.exec.during = func(ctx threshold.Context, db threshold.CacheableKVStore, a execution.Action) {
		_, ownStaged = s.engine.Staged(ctx)
		_, otherStaged = o.engine.Staged(ctx)
		assert.Nil(t, o.engine.Execute(ctx, o.db, o.a, o.id))
	}

	assert.Nil(t, s.engine.Execute(context.Background(), s.db, s.a, s.id))
	assert.Equal(t, true, ownStaged)
	assert.Equal(t, false, otherStaged)
	assert.Equal(t, true, innerOwn)
	assert.Equal(t, true, innerOuter)

	// the nested execution of the other engine committed to its own store
	p, err := o.proposals.Get(o.db, o.id)
	assert.Nil(t, err)
	assert.Equal(t, true, p.Executed)
	assert.Equal(t, true, s.proposal(t).Executed)
	assert.Equal(t, true, o.hasMarker(t))
}
