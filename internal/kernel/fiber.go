package kernel

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// CompletionCallback receives the terminal outcome of a Fiber: exactly
// one of OnCompletion or OnThrowable fires, never both, and never more
// than once.
type CompletionCallback struct {
	OnCompletion func(p *Packet)
	OnThrowable  func(p *Packet, cause error)
}

// CancelledError is the cause reported to a fiber's failure callback
// when it is cancelled rather than completed or thrown. Cancellation
// via the FiberGate is a silent, expected occurrence — it
// is surfaced here as a typed error so callers can distinguish it from
// a genuine failure without string matching.
type CancelledError struct{}

func (CancelledError) Error() string { return "fiber cancelled" }

// fiberState tracks where in its life a Fiber currently is, guarded by
// Fiber.mu.
type fiberState int

const (
	stateIdle fiberState = iota
	stateRunning
	stateSuspended
	stateDone
)

// Fiber is a cooperative execution context that runs a step chain to
// completion, one step at a time, on a goroutine it owns for as long as
// it is runnable. A suspended fiber releases that goroutine; resumption
// spawns a new one. Within a single fiber, steps execute strictly
// sequentially — the only concurrency a Step needs to reason about is
// "some other fiber may be racing me for the same domain", which the
// FiberGate rules out by construction.
type Fiber struct {
	ID uuid.UUID

	engine *Engine
	logger logr.Logger

	mu            sync.Mutex
	state         fiberState
	cancelled     atomic.Bool
	cancelCB      func()
	exitCallbacks []func()
	callback      CompletionCallback
	started       bool
}

func newFiber(engine *Engine, logger logr.Logger) *Fiber {
	return &Fiber{
		ID:     uuid.New(),
		engine: engine,
		logger: logger,
		state:  stateIdle,
	}
}

// PushExitCallback registers f to run, in LIFO order, once the fiber
// reaches a terminal state (completed, thrown, or cancelled). Used for
// structured cleanup such as releasing a Pod Watcher subscription.
func (f *Fiber) PushExitCallback(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exitCallbacks = append(f.exitCallbacks, fn)
}

func (f *Fiber) runExitCallbacks() {
	f.mu.Lock()
	cbs := f.exitCallbacks
	f.exitCallbacks = nil
	f.mu.Unlock()
	for i := len(cbs) - 1; i >= 0; i-- {
		cbs[i]()
	}
}

// Start begins running step on packet, on a goroutine from the
// Engine's pool, reporting the terminal outcome to cb. Start must be
// called at most once per Fiber.
func (f *Fiber) Start(ctx context.Context, step Step, p *Packet, cb CompletionCallback) {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return
	}
	f.started = true
	f.callback = cb
	f.mu.Unlock()

	f.engine.submit(func() { f.run(ctx, step, p) })
}

// resume continues a suspended fiber with step next on packet p, on a
// fresh goroutine from the Engine's pool. It is a no-op if the fiber
// has already reached a terminal state or been cancelled while
// suspended.
func (f *Fiber) resume(ctx context.Context, next Step, p *Packet) {
	f.mu.Lock()
	if f.state == stateDone {
		f.mu.Unlock()
		return
	}
	f.state = stateRunning
	f.mu.Unlock()

	f.engine.submit(func() { f.run(ctx, next, p) })
}

// run drives the step chain forward until it suspends, delays,
// terminates, or throws. Each iteration is one step boundary: the only
// point at which cancellation may be observed and acted on, because a
// remote API call inside a step is never interrupted mid-flight.
func (f *Fiber) run(ctx context.Context, step Step, p *Packet) {
	f.mu.Lock()
	f.state = stateRunning
	f.mu.Unlock()

	for {
		if f.cancelled.Load() {
			f.finishCancelled(p)
			return
		}
		if step == nil {
			f.finishCompleted(p)
			return
		}

		action := step(ctx, p)

		if f.cancelled.Load() {
			f.finishCancelled(p)
			return
		}

		switch action.kind {
		case actionAdvance:
			step = action.next
			continue

		case actionDelay:
			delayedStep, delayedPacket := action.next, p
			f.mu.Lock()
			f.state = stateSuspended
			f.mu.Unlock()
			f.engine.schedule(action.delay, func() {
				f.resume(ctx, delayedStep, delayedPacket)
			})
			return

		case actionSuspend:
			f.mu.Lock()
			f.state = stateSuspended
			f.mu.Unlock()
			if action.onResume != nil {
				action.onResume(f)
			}
			return

		case actionTerminate:
			f.finishCompleted(p)
			return

		case actionThrow:
			f.finishThrown(p, action.cause)
			return

		default:
			f.finishThrown(p, fmt.Errorf("kernel: unknown NextAction kind %d", action.kind))
			return
		}
	}
}

// Resume continues a suspended fiber from wherever it left off is not
// how this kernel works: a Step that suspends is responsible for
// capturing its own continuation (the step to resume into) in the
// closure it hands to Suspend's onResume callback, and calling
// Fiber.ResumeWith. This mirrors the source's fiber.resume(packet)
// contract while keeping "what to run next" explicit at the call site
// instead of implicit fiber state.
func (f *Fiber) ResumeWith(ctx context.Context, next Step, p *Packet) {
	f.resume(ctx, next, p)
}

func (f *Fiber) finishCompleted(p *Packet) {
	f.mu.Lock()
	if f.state == stateDone {
		f.mu.Unlock()
		return
	}
	f.state = stateDone
	cb := f.callback.OnCompletion
	f.mu.Unlock()

	f.runExitCallbacks()
	if cb != nil {
		cb(p)
	}
}

func (f *Fiber) finishThrown(p *Packet, cause error) {
	f.mu.Lock()
	if f.state == stateDone {
		f.mu.Unlock()
		return
	}
	f.state = stateDone
	cb := f.callback.OnThrowable
	f.mu.Unlock()

	f.runExitCallbacks()
	if cb != nil {
		cb(p, cause)
	}
}

func (f *Fiber) finishCancelled(p *Packet) {
	f.mu.Lock()
	if f.state == stateDone {
		f.mu.Unlock()
		return
	}
	f.state = stateDone
	cb := f.callback.OnThrowable
	onCancelled := f.cancelCB
	f.cancelCB = nil
	f.mu.Unlock()

	f.runExitCallbacks()
	if cb != nil {
		cb(p, CancelledError{})
	}
	if onCancelled != nil {
		onCancelled()
	}
}

// CancelAndExitCallback requests cancellation of the fiber. If the
// fiber is currently suspended (parked waiting on an external event),
// onCancelled runs synchronously before this method returns, and the
// method reports true ("will call" — the caller must not invoke
// onCancelled itself, it already ran). If the fiber is running, the
// next step boundary it reaches will trigger onCancelled after the
// step completes and the fiber reports its cancelled terminal state;
// this method returns true here too, since a callback is still coming,
// just not yet. Only when the fiber has already reached a terminal
// state with no pending callback does this method return false,
// meaning the caller must invoke onCancelled itself because none is
// coming. Cancellation never interrupts a step mid-flight: remote API
// calls inside a step are non-atomic and cancelling them part-way
// through risks orphaned Kubernetes resources.
func (f *Fiber) CancelAndExitCallback(onCancelled func()) (willCall bool) {
	f.cancelled.Store(true)

	f.mu.Lock()
	switch f.state {
	case stateDone:
		f.mu.Unlock()
		return false
	case stateSuspended:
		f.state = stateDone
		cb := f.callback.OnThrowable
		f.mu.Unlock()

		f.runExitCallbacks()
		if cb != nil {
			cb(nil, CancelledError{})
		}
		if onCancelled != nil {
			onCancelled()
		}
		return true
	default:
		// Running, or not yet started: record the callback so the next
		// step boundary (run's cancellation check) invokes it.
		f.cancelCB = onCancelled
		f.mu.Unlock()
		return true
	}
}

// IsCancelled reports whether cancellation has been requested, whether
// or not the terminal callback has fired yet.
func (f *Fiber) IsCancelled() bool {
	return f.cancelled.Load()
}

// SuspendWithTimeout returns a Suspend NextAction that races an
// external event against a timer. register is called with a guard
// function: the caller's event-handling code must invoke guard
// (exactly once, with whatever step/packet it wants to resume into)
// when its event fires. If d elapses first, the fiber instead resumes
// into timeoutStep with the same packet. Whichever of the two calls
// guard first wins; the other is silently ignored. ctx is the context
// the fiber was started with and is reused for both resume paths.
func SuspendWithTimeout(ctx context.Context, p *Packet, register func(fiber *Fiber, guard func(next Step)), d time.Duration, timeoutStep Step) NextAction {
	return Suspend(func(fiber *Fiber) {
		var once sync.Once
		guard := func(next Step) {
			once.Do(func() {
				fiber.ResumeWith(ctx, next, p)
			})
		}
		fiber.engine.schedule(d, func() { guard(timeoutStep) })
		register(fiber, guard)
	})
}
