package custody

import (
	"fmt"
	"sync"

	"github.com/iov-one/threshold"
)

// Call is the request a contract receives when a proposal addressed to it
// is executed. The value is already credited to the contract account.
type Call struct {
	Wallet     threshold.Address
	Caller     threshold.Address
	ProposalID uint64
	Value      uint64
	Payload    []byte
}

// Contract is a target that runs code when a proposal is executed. Any
// error it returns fails the execution and rolls back every change made
// for it, including the value transfer.
type Contract interface {
	Call(ctx threshold.Context, db threshold.CacheableKVStore, c Call) error
}

// ContractFunc allows a function to be used as a Contract.
type ContractFunc func(ctx threshold.Context, db threshold.CacheableKVStore, c Call) error

var _ Contract = ContractFunc(nil)

// Call calls fn.
func (fn ContractFunc) Call(ctx threshold.Context, db threshold.CacheableKVStore, c Call) error {
	return fn(ctx, db, c)
}

// Router maps target addresses to the contracts deployed at them. Targets
// without a contract are plain accounts.
type Router struct {
	mu        sync.RWMutex
	contracts map[string]Contract
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{
		contracts: make(map[string]Contract),
	}
}

// Register deploys the contract at given address. It panics on an invalid
// address or if the address is already taken.
func (r *Router) Register(addr threshold.Address, c Contract) {
	if err := addr.Validate(); err != nil {
		panic(fmt.Sprintf("contract address: %s", err))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contracts[string(addr)]; ok {
		panic(fmt.Sprintf("re-registering contract at %s", addr))
	}
	r.contracts[string(addr)] = c
}

// Contract returns the contract deployed at given address, or nil.
func (r *Router) Contract(addr threshold.Address) Contract {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.contracts[string(addr)]
}
