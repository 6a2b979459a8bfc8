/*
Package proposals implements the proposal store and the confirmation
ledger of a wallet.

A proposal is created by a principal and identified by a sequential
number. Principals confirm and revoke their confirmation until the
proposal is executed, after which the proposal is frozen forever. The
confirmation count stored with each proposal always equals the number of
confirmation records held for it: both are written together, within one
savepoint.
*/
package proposals

import (
	"github.com/iov-one/threshold"
	"github.com/iov-one/threshold/errors"
	"github.com/iov-one/threshold/orm"
	"github.com/iov-one/threshold/x/events"
	"github.com/iov-one/threshold/x/principals"
	"github.com/iov-one/threshold/x/utils"
)

const (
	// BucketName is where we store the proposals
	BucketName = "proposals"
	// SequenceName is an auto-increment ID counter for proposals
	SequenceName = "id"
)

// Proposal is an action waiting for enough confirmations to be executed.
type Proposal struct {
	ID       uint64            `json:"id"`
	Proposer threshold.Address `json:"proposer"`
	// Target is the account or contract the action is addressed to.
	Target threshold.Address `json:"target"`
	// Value is the amount moved from the wallet custody to the target.
	Value uint64 `json:"value"`
	// Payload is opaque data handed to the target.
	Payload       []byte `json:"payload,omitempty"`
	Executed      bool   `json:"executed"`
	Confirmations uint32 `json:"confirmation_count"`
}

// Validate is called before every save.
func (p *Proposal) Validate() error {
	if err := p.Proposer.Validate(); err != nil {
		return errors.Wrap(err, "proposer")
	}
	if err := p.Target.Validate(); err != nil {
		return errors.Wrap(err, "target")
	}
	return nil
}

// Copy returns a deep copy, so views handed out never alias stored data.
func (p *Proposal) Copy() *Proposal {
	c := *p
	c.Proposer = p.Proposer.Clone()
	c.Target = p.Target.Clone()
	if p.Payload != nil {
		c.Payload = append([]byte(nil), p.Payload...)
	}
	return &c
}

// Store is the append-only sequence of proposals. Identifiers are assigned
// in submission order starting with zero and are never reused.
type Store struct {
	registry *principals.Registry
	events   *events.Log
	bucket   orm.Bucket
	seq      orm.Sequence
}

// NewStore returns a store for the proposals of a wallet configured with
// given registry. Transitions are recorded in the log.
func NewStore(registry *principals.Registry, log *events.Log) *Store {
	return &Store{
		registry: registry,
		events:   log,
		bucket:   orm.NewBucket(BucketName),
		seq:      orm.NewSequence(BucketName, SequenceName),
	}
}

// Submit appends a new proposal with no confirmations and returns its id.
func (s *Store) Submit(db threshold.CacheableKVStore, caller, target threshold.Address, value uint64, payload []byte) (uint64, error) {
	if err := s.registry.Authorize(caller); err != nil {
		return 0, err
	}
	if err := target.Validate(); err != nil {
		return 0, errors.Wrap(err, "target")
	}

	var id uint64
	err := utils.Savepoint(db, func(db threshold.CacheableKVStore) error {
		var err error
		if id, err = s.seq.Reserve(db); err != nil {
			return errors.Wrap(err, "cannot acquire ID")
		}
		p := &Proposal{
			ID:       id,
			Proposer: caller.Clone(),
			Target:   target.Clone(),
			Value:    value,
			Payload:  append([]byte(nil), payload...),
		}
		if err := s.save(db, p); err != nil {
			return err
		}
		_, err = s.events.Append(db, events.Submit(caller, id, target, value, payload))
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get returns a copy of the proposal with given id.
func (s *Store) Get(db threshold.ReadOnlyKVStore, id uint64) (*Proposal, error) {
	var p Proposal
	ok, err := s.bucket.Get(db, orm.EncodeID(id), &p)
	if err != nil {
		return nil, errors.Wrapf(err, "proposal %d", id)
	}
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "proposal %d", id)
	}
	return &p, nil
}

// Count returns the number of proposals ever submitted.
func (s *Store) Count(db threshold.ReadOnlyKVStore) (uint64, error) {
	return s.seq.Latest(db)
}

// MarkExecuted sets the executed flag. It is reserved to the execution
// engine, which calls it inside the savepoint of the execution attempt.
func (s *Store) MarkExecuted(db threshold.KVStore, p *Proposal) error {
	if p.Executed {
		return errors.Wrapf(errors.ErrAlreadyExecuted, "proposal %d", p.ID)
	}
	p.Executed = true
	return s.save(db, p)
}

// Filter selects proposals by execution state.
type Filter int

const (
	// Pending selects proposals not executed yet.
	Pending Filter = 1 << iota
	// Executed selects executed proposals.
	Executed
	// Any selects every proposal.
	Any = Pending | Executed
)

// IDs returns the identifiers within [from, to) matching the filter, in
// ascending order. A to beyond the number of proposals is capped.
func (s *Store) IDs(db threshold.ReadOnlyKVStore, from, to uint64, f Filter) ([]uint64, error) {
	n, err := s.Count(db)
	if err != nil {
		return nil, err
	}
	if to > n {
		to = n
	}
	var ids []uint64
	for id := from; id < to; id++ {
		p, err := s.Get(db, id)
		if err != nil {
			return nil, err
		}
		if (p.Executed && f&Executed != 0) || (!p.Executed && f&Pending != 0) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Store) save(db threshold.KVStore, p *Proposal) error {
	return s.bucket.Save(db, orm.EncodeID(p.ID), p)
}
