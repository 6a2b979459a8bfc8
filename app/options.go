package app

import (
	"github.com/iov-one/threshold/x/custody"
	"github.com/iov-one/threshold/x/execution"
	"github.com/prometheus/client_golang/prometheus"
)

type config struct {
	executor       execution.Executor
	router         *custody.Router
	recordFailures bool
	registerer     prometheus.Registerer
}

// Option configures a Wallet.
type Option func(*config)

// WithExecutor replaces the default action, which moves the value of the
// proposal to its target and calls the contract deployed there.
func WithExecutor(e execution.Executor) Option {
	return func(c *config) {
		c.executor = e
	}
}

// WithContracts sets the contracts the default action can call.
func WithContracts(r *custody.Router) Option {
	return func(c *config) {
		c.router = r
	}
}

// WithFailureRecords controls whether a failed execution attempt leaves an
// ExecutionFailure record in the event log. It does by default. The state
// of the proposal is rolled back either way.
func WithFailureRecords(enabled bool) Option {
	return func(c *config) {
		c.recordFailures = enabled
	}
}

// WithRegisterer registers the wallet metrics with given registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *config) {
		c.registerer = reg
	}
}
