package rknpu

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Pool holds several Contexts of the same model, each pinned to an NPU core,
// so inference can run from multiple goroutines.  A Context taken with Get
// belongs to the caller alone until handed back with Return.
type Pool struct {
	// pool of contexts
	contexts chan *Context
	// size of pool
	size int
	// mu guards closed, Return must not send on a closed channel
	mu     sync.Mutex
	closed bool
	log    logrus.FieldLogger
}

// NewPool creates size Contexts of the model file.  Contexts are assigned the
// given NPU cores round robin, pass one of the SoC lists such as RK3588.  An
// empty cores list leaves the core selection to the runtime.
func NewPool(size int, drv Driver, modelFile string, flag InitFlag, cores []CoreMask) (*Pool, error) {

	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}

	p := &Pool{
		contexts: make(chan *Context, size),
		size:     size,
		log:      logrus.StandardLogger().WithField("model", modelFile),
	}

	for i := 0; i < size; i++ {
		ctx, err := NewContext(drv, modelFile, flag)

		if err != nil {
			// close any instances that may have been created before receiving
			// the error
			p.Close()
			return nil, err
		}

		if len(cores) > 0 {
			if err := ctx.SetCoreMask(cores[i%len(cores)]); err != nil {
				// the context never joined the pool, release it here
				if cerr := ctx.Close(); cerr != nil {
					p.log.WithError(cerr).Error("closing context after core mask failure")
				}

				p.Close()
				return nil, err
			}
		}

		// attach to pool
		p.Return(ctx)
	}

	p.log.WithField("size", size).Debug("context pool created")

	return p, nil
}

// Size returns the number of contexts in the pool
func (p *Pool) Size() int {
	return p.size
}

// Get takes a context from the pool, blocking until one is available.  It
// returns nil once the pool is closed.
func (p *Pool) Get() *Context {
	return <-p.contexts
}

// Return a context to the pool.  Once the pool is closed returned contexts
// are closed instead.
func (p *Pool) Return(ctx *Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		if err := ctx.Close(); err != nil {
			p.log.WithError(err).Error("closing context returned to closed pool")
		}
		return
	}

	select {
	case p.contexts <- ctx:
	default:
		// pool is full
	}
}

// Close the pool and all contexts in it.  Contexts still checked out with
// Get are closed when they are returned.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	p.closed = true

	// close channel
	close(p.contexts)

	// close all contexts
	for next := range p.contexts {
		if err := next.Close(); err != nil {
			p.log.WithError(err).Error("closing pooled context")
		}
	}
}
