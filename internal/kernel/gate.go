package kernel

import (
	"context"
	"sync"
)

// FiberGate allows at most one running Fiber per key. Rather than queue
// a later-arriving request behind an in-flight one, it cancels the
// earlier fiber: for a reconciler, a later submission always carries
// the freshest desired state, so finishing or correcting whatever the
// older fiber was doing is strictly better than letting it race to
// completion against newer intent.
type FiberGate struct {
	engine *Engine

	mu      sync.Mutex
	current map[string]*Fiber

	// placeholder is a sentinel "no fiber" value. StartIfNoCurrent is
	// implemented as the CAS variant with this as the expected value,
	// so both start modes share one code path.
	placeholder *Fiber
}

// NewFiberGate creates a gate whose fibers are hosted by engine.
func NewFiberGate(engine *Engine) *FiberGate {
	return &FiberGate{
		engine:      engine,
		current:     make(map[string]*Fiber),
		placeholder: engine.CreateFiber(),
	}
}

// CurrentFibers returns a point-in-time snapshot of the key -> fiber
// table, for observability.
func (g *FiberGate) CurrentFibers() map[string]*Fiber {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]*Fiber, len(g.current))
	for k, v := range g.current {
		out[k] = v
	}
	return out
}

// Start always starts a new fiber for key, cancelling whatever fiber
// currently holds it first. Used when the caller wants the freshest
// intent to win unconditionally.
func (g *FiberGate) Start(ctx context.Context, key string, chain Step, p *Packet, cb CompletionCallback) *Fiber {
	return g.startIfLastMatches(ctx, key, nil, false, chain, p, cb)
}

// StartIfNoCurrent starts a new fiber for key only if no fiber
// currently holds it; otherwise it is a no-op and returns nil.
func (g *FiberGate) StartIfNoCurrent(ctx context.Context, key string, chain Step, p *Packet, cb CompletionCallback) *Fiber {
	return g.startIfLastMatches(ctx, key, g.placeholder, true, chain, p, cb)
}

// StartIfLastMatches atomically replaces expected with a new fiber for
// key; if the key's current fiber is not expected, nothing is started
// and nil is returned. This is the CAS primitive StartIfNoCurrent is
// built from (with expected == the placeholder sentinel).
func (g *FiberGate) StartIfLastMatches(ctx context.Context, key string, expected *Fiber, chain Step, p *Packet, cb CompletionCallback) *Fiber {
	return g.startIfLastMatches(ctx, key, expected, true, chain, p, cb)
}

func (g *FiberGate) startIfLastMatches(ctx context.Context, key string, expected *Fiber, requireMatch bool, chain Step, p *Packet, cb CompletionCallback) *Fiber {
	g.mu.Lock()

	var old *Fiber
	if requireMatch {
		current, exists := g.current[key]
		if expected == g.placeholder {
			if exists {
				g.mu.Unlock()
				return nil
			}
		} else if !exists || current != expected {
			g.mu.Unlock()
			return nil
		} else {
			old = current
		}
	} else {
		old = g.current[key]
	}

	fiber := g.engine.CreateFiber()
	g.current[key] = fiber
	g.mu.Unlock()

	// Flag the old fiber as cancelled right away so it stops at its next
	// step boundary even if the new fiber's wait step has not run yet.
	if old != nil {
		old.cancelled.Store(true)
	}

	wrapped := g.wrapCompletion(key, fiber, cb)
	waitStep := waitForOldFiber(old, chain)
	fiber.Start(ctx, waitStep, p, wrapped)
	return fiber
}

// wrapCompletion returns a CompletionCallback that first invokes cb,
// then removes key from the gate's map — but only if the map still
// points at self. This prevents a late-completing, already-cancelled
// fiber from evicting the fiber that preempted it (the `remove(key,
// self)` discipline).
func (g *FiberGate) wrapCompletion(key string, self *Fiber, cb CompletionCallback) CompletionCallback {
	remove := func() {
		g.mu.Lock()
		if g.current[key] == self {
			delete(g.current, key)
		}
		g.mu.Unlock()
	}
	return CompletionCallback{
		OnCompletion: func(p *Packet) {
			if cb.OnCompletion != nil {
				cb.OnCompletion(p)
			}
			remove()
		},
		OnThrowable: func(p *Packet, cause error) {
			if cb.OnThrowable != nil {
				cb.OnThrowable(p, cause)
			}
			remove()
		},
	}
}

// waitForOldFiber returns a Step that, if old is non-nil and not yet
// terminal, cancels it and suspends until its exit callback fires
// before advancing into next. If old is nil, or has already completed,
// it short-circuits straight into next without suspending. This
// guarantees the new fiber's first real step never runs concurrently
// with the old fiber's last one, so effects of the old fiber are always
// visible before the new fiber touches shared remote state.
func waitForOldFiber(old *Fiber, next Step) Step {
	return func(ctx context.Context, p *Packet) NextAction {
		if old == nil {
			return Advance(next)
		}
		return Suspend(func(fiber *Fiber) {
			willCall := old.CancelAndExitCallback(func() {
				fiber.ResumeWith(ctx, next, p)
			})
			if !willCall {
				// old was already terminal (or the cancellation was
				// recorded for a step boundary that has already
				// passed); either way there is no pending callback to
				// wait for, so proceed immediately.
				fiber.ResumeWith(ctx, next, p)
			}
		})
	}
}
