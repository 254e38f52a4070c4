package kernel

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/robfig/cron/v3"
)

// EngineOptions configures a new Engine.
type EngineOptions struct {
	// Workers is the size of the bounded worker pool. Zero selects
	// runtime.GOMAXPROCS(0).
	Workers int
	// Logger is threaded into every fiber this engine creates.
	Logger logr.Logger
}

// Engine is a bounded worker pool that hosts fibers and schedules
// delayed and periodic work. It owns no domain knowledge: it is purely
// the runtime substrate FiberGate and Fiber are built on, matching the
// usual thread-pool-plus-scheduled-executor split for this kind of runtime.
type Engine struct {
	logger logr.Logger

	jobs chan func()

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}

	timersMu sync.Mutex
	timers   []*time.Timer
}

// NewEngine starts opts.Workers goroutines (default GOMAXPROCS) pulling
// from a shared job queue. Call Shutdown to drain and stop it.
func NewEngine(opts EngineOptions) *Engine {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	e := &Engine{
		logger: opts.Logger,
		jobs:   make(chan func(), workers*4),
		stopCh: make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.workerLoop()
	}
	return e
}

func (e *Engine) workerLoop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.stopCh:
			return
		case job, ok := <-e.jobs:
			if !ok {
				return
			}
			e.runJob(job)
		}
	}
}

func (e *Engine) runJob(job func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(fmt.Errorf("panic: %v", r), "kernel: recovered from panic in engine job")
		}
	}()
	job()
}

// submit enqueues a unit of work to run on the worker pool. If the
// queue is full it is run inline on a fresh goroutine rather than
// blocking the caller — engine callers are typically themselves
// running on a worker and must not deadlock the pool.
func (e *Engine) submit(job func()) {
	select {
	case e.jobs <- job:
	default:
		go e.runJob(job)
	}
}

// CreateFiber allocates a new, unstarted Fiber hosted by this engine.
func (e *Engine) CreateFiber() *Fiber {
	return newFiber(e, e.logger)
}

// Submit starts fiber running step on packet p, reporting its terminal
// outcome to cb.
func (e *Engine) Submit(ctx context.Context, fiber *Fiber, step Step, p *Packet, cb CompletionCallback) {
	fiber.Start(ctx, step, p, cb)
}

// schedule runs fn once after d, unless the engine is shut down first.
func (e *Engine) schedule(d time.Duration, fn func()) *time.Timer {
	t := time.AfterFunc(d, func() {
		select {
		case <-e.stopCh:
			return
		default:
		}
		e.submit(fn)
	})
	e.timersMu.Lock()
	e.timers = append(e.timers, t)
	e.timersMu.Unlock()
	return t
}

// Schedule runs fn once after d on the worker pool. It is the public
// entry point steps use to implement Delay-based fallback timeouts
// (e.g. a watch-timeout deadline).
func (e *Engine) Schedule(d time.Duration, fn func()) *time.Timer {
	return e.schedule(d, fn)
}

// ScheduleAtFixedRate runs fn repeatedly according to cadence, a
// robfig/cron "@every" expression (e.g. "@every 30s"), until stop is
// called or the engine shuts down. Used by the Pod Watcher for its
// periodic resync and available to any other component that needs a
// declaratively-tunable cadence instead of a raw duration literal.
func (e *Engine) ScheduleAtFixedRate(cadence string, fn func()) (stop func(), err error) {
	schedule, err := cron.ParseStandard(normalizeCadence(cadence))
	if err != nil {
		return nil, fmt.Errorf("kernel: invalid schedule %q: %w", cadence, err)
	}

	stopCh := make(chan struct{})
	var mu sync.Mutex
	var timer *time.Timer

	var armNext func(from time.Time)
	armNext = func(from time.Time) {
		next := schedule.Next(from)
		d := time.Until(next)
		if d < 0 {
			d = 0
		}
		mu.Lock()
		timer = time.AfterFunc(d, func() {
			select {
			case <-stopCh:
				return
			case <-e.stopCh:
				return
			default:
			}
			e.submit(fn)
			armNext(time.Now())
		})
		mu.Unlock()
	}
	armNext(time.Now())

	return func() {
		close(stopCh)
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}, nil
}

// normalizeCadence accepts either a bare "@every 30s"-style cron
// expression or a raw duration string like "30s", for convenience.
func normalizeCadence(cadence string) string {
	if _, err := time.ParseDuration(cadence); err == nil {
		return "@every " + cadence
	}
	return cadence
}

// Shutdown stops accepting new scheduled work, cancels pending timers,
// and waits (up to ctx's deadline) for in-flight jobs to drain.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.stopOnce.Do(func() {
		close(e.stopCh)
		e.timersMu.Lock()
		for _, t := range e.timers {
			t.Stop()
		}
		e.timersMu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
