package proposals

import (
	"github.com/iov-one/threshold"
	"github.com/iov-one/threshold/errors"
)

// Request is what the guards of an operation on an existing proposal
// inspect. The Exists guard fills in the proposal so that the guards
// following it can use it.
type Request struct {
	Caller   threshold.Address
	ID       uint64
	Proposal *Proposal
}

// Guard checks a single precondition of an operation. Guards only read.
type Guard func(db threshold.ReadOnlyKVStore, req *Request) error

// Check runs the guards in order and returns the first violation. No guard
// runs after one failed.
func Check(db threshold.ReadOnlyKVStore, req *Request, guards ...Guard) error {
	for _, g := range guards {
		if err := g(db, req); err != nil {
			return err
		}
	}
	return nil
}

// Authorized rejects callers that are not principals.
func (s *Store) Authorized() Guard {
	return func(db threshold.ReadOnlyKVStore, req *Request) error {
		return s.registry.Authorize(req.Caller)
	}
}

// Exists loads the proposal into the request, failing if there is none.
func (s *Store) Exists() Guard {
	return func(db threshold.ReadOnlyKVStore, req *Request) error {
		p, err := s.Get(db, req.ID)
		if err != nil {
			return err
		}
		req.Proposal = p
		return nil
	}
}

// NotExecuted rejects operations on executed proposals. It must follow
// Exists.
func NotExecuted() Guard {
	return func(db threshold.ReadOnlyKVStore, req *Request) error {
		if req.Proposal.Executed {
			return errors.Wrapf(errors.ErrAlreadyExecuted, "proposal %d", req.ID)
		}
		return nil
	}
}
