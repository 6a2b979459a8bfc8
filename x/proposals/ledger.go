package proposals

import (
	"encoding/binary"

	"github.com/iov-one/threshold"
	"github.com/iov-one/threshold/errors"
	"github.com/iov-one/threshold/orm"
	"github.com/iov-one/threshold/x/events"
	"github.com/iov-one/threshold/x/principals"
	"github.com/iov-one/threshold/x/utils"
)

// LedgerBucketName is where the confirmation records are stored.
const LedgerBucketName = "confirmations"

// confirmed is the value of an active confirmation record. A revoked
// confirmation has no record.
var confirmed = []byte{1}

// Ledger holds the confirmation records, one per proposal and principal,
// and keeps the confirmation count of every proposal in step with them.
type Ledger struct {
	registry  *principals.Registry
	proposals *Store
	events    *events.Log
	bucket    orm.Bucket
}

// NewLedger returns the ledger for proposals kept in given store.
func NewLedger(proposals *Store) *Ledger {
	return &Ledger{
		registry:  proposals.registry,
		proposals: proposals,
		events:    proposals.events,
		bucket:    orm.NewBucket(LedgerBucketName),
	}
}

// Confirm records the approval of the caller. Extra guards run after the
// proposal was loaded and before the state checks.
func (l *Ledger) Confirm(db threshold.CacheableKVStore, caller threshold.Address, id uint64, extra ...Guard) error {
	req := &Request{Caller: caller, ID: id}
	if err := Check(db, req, l.guards(extra, l.NotConfirmedBy())...); err != nil {
		return err
	}

	p := req.Proposal
	return utils.Savepoint(db, func(db threshold.CacheableKVStore) error {
		if err := db.Set(l.recordKey(id, caller), confirmed); err != nil {
			return err
		}
		p.Confirmations++
		if err := l.proposals.save(db, p); err != nil {
			return err
		}
		_, err := l.events.Append(db, events.Confirm(caller, id))
		return err
	})
}

// Revoke withdraws the approval of the caller. Extra guards are handled as
// in Confirm.
func (l *Ledger) Revoke(db threshold.CacheableKVStore, caller threshold.Address, id uint64, extra ...Guard) error {
	req := &Request{Caller: caller, ID: id}
	if err := Check(db, req, l.guards(extra, l.ConfirmedBy())...); err != nil {
		return err
	}

	p := req.Proposal
	if p.Confirmations == 0 {
		return errors.Wrapf(errors.ErrInvariant, "proposal %d has a record but no count", id)
	}
	return utils.Savepoint(db, func(db threshold.CacheableKVStore) error {
		if err := db.Delete(l.recordKey(id, caller)); err != nil {
			return err
		}
		p.Confirmations--
		if err := l.proposals.save(db, p); err != nil {
			return err
		}
		_, err := l.events.Append(db, events.Revoke(caller, id))
		return err
	})
}

func (l *Ledger) guards(extra []Guard, last Guard) []Guard {
	gs := []Guard{l.proposals.Authorized(), l.proposals.Exists()}
	gs = append(gs, extra...)
	return append(gs, NotExecuted(), last)
}

// IsConfirmed returns true if the principal has an active confirmation of
// the proposal.
func (l *Ledger) IsConfirmed(db threshold.ReadOnlyKVStore, id uint64, principal threshold.Address) (bool, error) {
	if !l.registry.IsPrincipal(principal) {
		return false, nil
	}
	return db.Has(l.recordKey(id, principal))
}

// Confirmations returns the principals with an active confirmation of the
// proposal, in registration order.
func (l *Ledger) Confirmations(db threshold.ReadOnlyKVStore, id uint64) ([]threshold.Address, error) {
	if _, err := l.proposals.Get(db, id); err != nil {
		return nil, err
	}
	var out []threshold.Address
	err := l.bucket.Iterate(db, orm.EncodeID(id), func(key, _ []byte) error {
		idx := binary.BigEndian.Uint32(key[8:])
		if int(idx) >= l.registry.Len() {
			return errors.Wrapf(errors.ErrInvariant, "proposal %d confirmed by unknown principal #%d", id, idx)
		}
		out = append(out, l.registry.At(int(idx)))
		return nil
	})
	return out, err
}

// Verify checks that the stored confirmation count of the proposal equals
// the number of its confirmation records.
func (l *Ledger) Verify(db threshold.ReadOnlyKVStore, id uint64) error {
	p, err := l.proposals.Get(db, id)
	if err != nil {
		return err
	}
	records, err := l.Confirmations(db, id)
	if err != nil {
		return err
	}
	if int(p.Confirmations) != len(records) {
		return errors.Wrapf(errors.ErrInvariant,
			"proposal %d counts %d confirmations, %d recorded", id, p.Confirmations, len(records))
	}
	return nil
}

// NotConfirmedBy rejects a caller that already confirmed the proposal.
func (l *Ledger) NotConfirmedBy() Guard {
	return func(db threshold.ReadOnlyKVStore, req *Request) error {
		ok, err := db.Has(l.recordKey(req.ID, req.Caller))
		switch {
		case err != nil:
			return err
		case ok:
			return errors.Wrapf(errors.ErrAlreadyConfirmed, "proposal %d by %s", req.ID, req.Caller)
		}
		return nil
	}
}

// ConfirmedBy rejects a caller without an active confirmation.
func (l *Ledger) ConfirmedBy() Guard {
	return func(db threshold.ReadOnlyKVStore, req *Request) error {
		ok, err := db.Has(l.recordKey(req.ID, req.Caller))
		switch {
		case err != nil:
			return err
		case !ok:
			return errors.Wrapf(errors.ErrNotConfirmed, "proposal %d by %s", req.ID, req.Caller)
		}
		return nil
	}
}

// recordKey is the key of the (proposal, principal) relation. Principals
// are referenced by their registration index, so all records of a proposal
// share the proposal prefix. Callers must be authorized first.
func (l *Ledger) recordKey(id uint64, principal threshold.Address) []byte {
	idx, _ := l.registry.IndexOf(principal)
	key := make([]byte, 12)
	binary.BigEndian.PutUint64(key, id)
	binary.BigEndian.PutUint32(key[8:], uint32(idx))
	return l.bucket.DBKey(key)
}
