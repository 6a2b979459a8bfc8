/*
Package principals holds the fixed set of identities allowed to operate a
wallet, together with the number of distinct confirmations required to
execute a proposal.

The set is validated once, when the wallet is initialized, and never
changes afterwards. A Registry is safe for concurrent use because it is
read only.
*/
package principals

import (
	"encoding/binary"

	"github.com/iov-one/threshold"
	"github.com/iov-one/threshold/errors"
)

// Registry is the immutable set of principals and the confirmation
// threshold.
type Registry struct {
	principals []threshold.Address
	index      map[string]int
	threshold  int
}

// Initialize validates the principal set and threshold and returns a
// registry holding a private copy of them.
//
// It fails with ErrConfiguration if the set is empty, contains a null or
// duplicated entry, or the threshold is not within [1, len(principals)].
func Initialize(principals []threshold.Address, minConfirmations int) (*Registry, error) {
	if len(principals) == 0 {
		return nil, errors.Wrap(errors.ErrConfiguration, "no principals")
	}
	r := &Registry{
		principals: make([]threshold.Address, 0, len(principals)),
		index:      make(map[string]int, len(principals)),
		threshold:  minConfirmations,
	}
	for i, p := range principals {
		if len(p) == 0 {
			return nil, errors.Wrapf(errors.ErrConfiguration, "principal #%d is null", i)
		}
		if err := p.Validate(); err != nil {
			return nil, errors.Wrapf(errors.ErrConfiguration, "principal #%d: %s", i, err)
		}
		if prev, ok := r.index[string(p)]; ok {
			return nil, errors.Wrapf(errors.ErrConfiguration, "principal #%d duplicates #%d: %s", i, prev, p)
		}
		r.index[string(p)] = i
		r.principals = append(r.principals, p.Clone())
	}
	if minConfirmations < 1 || minConfirmations > len(principals) {
		return nil, errors.Wrapf(errors.ErrConfiguration,
			"threshold %d not within [1, %d]", minConfirmations, len(principals))
	}
	return r, nil
}

// IsPrincipal returns true if given address belongs to the principal set.
func (r *Registry) IsPrincipal(a threshold.Address) bool {
	_, ok := r.index[string(a)]
	return ok
}

// IndexOf returns the position of the principal in the registration order.
func (r *Registry) IndexOf(a threshold.Address) (int, bool) {
	i, ok := r.index[string(a)]
	return i, ok
}

// At returns the principal registered at given position.
func (r *Registry) At(i int) threshold.Address {
	return r.principals[i].Clone()
}

// List returns all principals in registration order. The returned slice
// is a copy.
func (r *Registry) List() []threshold.Address {
	out := make([]threshold.Address, len(r.principals))
	for i, p := range r.principals {
		out[i] = p.Clone()
	}
	return out
}

// Len returns the number of principals.
func (r *Registry) Len() int {
	return len(r.principals)
}

// Threshold returns the minimum number of distinct confirmations required
// to execute a proposal.
func (r *Registry) Threshold() int {
	return r.threshold
}

// Authorize is a guard that rejects callers outside of the principal set.
func (r *Registry) Authorize(caller threshold.Address) error {
	if !r.IsPrincipal(caller) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s is not a principal", caller)
	}
	return nil
}

// Address returns the custody account of the wallet. It is derived from
// the principal set and the threshold, so two wallets share an account
// only if they are configured identically.
func (r *Registry) Address() threshold.Address {
	data := []byte("wallet/")
	for _, p := range r.principals {
		data = append(data, p...)
	}
	var th [4]byte
	binary.BigEndian.PutUint32(th[:], uint32(r.threshold))
	return threshold.NewAddress(append(data, th[:]...))
}
