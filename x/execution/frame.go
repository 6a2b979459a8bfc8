package execution

import (
	"context"
	"sync/atomic"

	"github.com/iov-one/threshold"
)

type contextKey int

const contextKeyFrame contextKey = iota

// frame describes an execution attempt in progress. It is carried by the
// context handed to the executor, so that calls the action makes back
// into the same engine can run inside the staged unit of the attempt.
//
// Frames of nested executions link to the frame they were started in.
type frame struct {
	engine *Engine
	parent *frame
	db     threshold.CacheableKVStore
	closed int32
}

// store returns the staging store of the attempt, or nil once the
// executor returned.
func (f *frame) store() threshold.CacheableKVStore {
	if atomic.LoadInt32(&f.closed) != 0 {
		return nil
	}
	return f.db
}

func (f *frame) close() {
	atomic.StoreInt32(&f.closed, 1)
}

func withFrame(ctx threshold.Context, f *frame) threshold.Context {
	f.parent = frameOf(ctx)
	return context.WithValue(ctx, contextKeyFrame, f)
}

func frameOf(ctx threshold.Context) *frame {
	if ctx == nil {
		return nil
	}
	f, _ := ctx.Value(contextKeyFrame).(*frame)
	return f
}

// Staged returns the staging store of the innermost execution of this
// engine that is still running in the context. Operations on the state of
// this engine called with such a context belong to that execution.
//
// Frames of other engines are skipped, so a context passed from the
// action of one wallet to another wallet is not treated as reentrant.
func (e *Engine) Staged(ctx threshold.Context) (threshold.CacheableKVStore, bool) {
	for f := frameOf(ctx); f != nil; f = f.parent {
		if f.engine != e {
			continue
		}
		if db := f.store(); db != nil {
			return db, true
		}
	}
	return nil, false
}
