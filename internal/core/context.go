package core

import (
	"context"
	"log/slog"
	"sync"
)

// Hooks lets the owner (gbasup.Context) observe lifecycle events without
// core depending on gbasup or on any particular engine type.
type Hooks struct {
	// OnCrash is invoked by ReportCrash, on the goroutine that called it,
	// when the engine or its debugger reports an unrecoverable failure,
	// immediately after state becomes Crashed.
	OnCrash func(err error)

	// OnWorkerEnter runs on the worker goroutine before Bootstrap, giving
	// the owner a chance to publish itself to the context registry.
	OnWorkerEnter func()

	// OnWorkerExit runs on the worker goroutine after Teardown, the
	// matching registry-clear call.
	OnWorkerExit func()
}

// Worker is the narrow surface core needs from the hosted engine. It is
// satisfied by an adapter gbasup builds around an engine.Core, keeping
// core free of a dependency on the engine package's full capability set.
type Worker interface {
	// Bootstrap runs once, before the outer loop, on the worker goroutine.
	// Returning an error moves straight to Shutdown without entering
	// Running.
	Bootstrap() error
	// RunWhileRunning runs the engine's inner loop for as long as
	// stillRunning reports true, returning control to the supervisor at
	// the next natural boundary (frame, debugger step, or state change).
	RunWhileRunning(sc *SyncChannel, stillRunning func() bool)
	// RequestReturn asks a RunWhileRunning in progress to return promptly.
	RequestReturn()
	// ClearHalt clears the engine's halted flag. Called synchronously by
	// End, from whichever goroutine calls it, so a CPU parked in a
	// halted-wait inside RunOneStep is released immediately rather than
	// waiting for the worker to reach Teardown — which it can only do once
	// unblocked in the first place.
	ClearHalt()
	// Reinitialize re-creates engine state in place after a Reset.
	Reinitialize() error
	// Teardown runs once, after the outer loop, on the worker goroutine.
	Teardown()
}

// Context is the supervisor's private implementation, behind gbasup's
// public Context. One per emulator session.
type Context struct {
	Sync *SyncChannel

	stateMu sync.Mutex
	stateCd *sync.Cond
	state   State
	saved   State
	depth   int

	worker Worker
	hooks  Hooks
	log    *slog.Logger

	started bool
	exitCtx context.Context
	exitFn  context.CancelFunc
	wg      sync.WaitGroup

	resetPending bool
}

// New builds an Initialized Context around worker. hooks and log may be
// the zero value; log defaults to slog.Default() internally when nil.
func New(worker Worker, hooks Hooks, log *slog.Logger) *Context {
	if log == nil {
		log = slog.Default()
	}
	c := &Context{
		Sync:  newSyncChannel(),
		state: Initialized,
		worker: worker,
		hooks: hooks,
		log:   log,
	}
	c.stateCd = sync.NewCond(&c.stateMu)
	return c
}

// --- queries ---

func (c *Context) State() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

func (c *Context) HasStarted() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.started
}

func (c *Context) HasExited() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state == Shutdown
}

func (c *Context) HasCrashed() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state == Crashed
}

func (c *Context) IsActive() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state.active()
}

func (c *Context) IsPaused() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state == Paused
}

// isRunning reports whether state is still Running. It is handed to
// Worker.RunWhileRunning as the inner-loop continuation predicate.
func (c *Context) isRunning() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state == Running
}

// --- internal helpers ---

// waitOnInterrupt serializes every controller verb behind an active
// debugging session: while the worker is parked in Interrupted, further
// commands wait their turn. Callers must hold stateMu.
func (c *Context) waitOnInterrupt() {
	for c.state == Interrupted {
		c.stateCd.Wait()
	}
}

// waitUntilNotState blocks until state no longer equals oldState,
// periodically waking the sync channel's condvars (with videoFrameWait
// suspended for the duration) so a producer or consumer parked there can
// make progress toward the state change the caller is waiting for.
// Callers must hold stateMu; it is released for the duration and
// re-acquired before returning.
func (c *Context) waitUntilNotState(oldState State) {
	c.Sync.withVideoWaitSuspended(func() {
		for c.state == oldState {
			c.stateMu.Unlock()

			c.Sync.wakeVideo()
			c.Sync.wakeAudio()

			c.stateMu.Lock()
			c.stateCd.Broadcast()
			if c.state != oldState {
				break
			}
			c.stateCd.Wait()
		}
	})
}

func (c *Context) setState(s State) {
	c.state = s
	c.stateCd.Broadcast()
}

// --- controller verbs ---

// Pause requests RUNNING -> PAUSING and blocks until the worker parks in
// PAUSED (or the state moved on for some other reason).
func (c *Context) Pause() {
	c.stateMu.Lock()
	c.waitOnInterrupt()
	if c.state == Running {
		c.setState(Pausing)
		c.waitUntilNotState(Pausing)
	}
	c.stateMu.Unlock()
	c.Sync.SuspendDrawing()
}

// Unpause resumes a paused or pausing worker. Non-blocking.
func (c *Context) Unpause() {
	c.stateMu.Lock()
	c.waitOnInterrupt()
	if c.state == Paused || c.state == Pausing {
		c.setState(Running)
	}
	c.stateMu.Unlock()
}

// TogglePause flips between Pause and Unpause based on current state.
func (c *Context) TogglePause() {
	c.stateMu.Lock()
	paused := c.state == Paused || c.state == Pausing
	c.stateMu.Unlock()
	if paused {
		c.Unpause()
	} else {
		c.Pause()
	}
}

// PauseFromThread is the worker's own self-pause: it sets Pausing without
// waiting for the transition, since the worker will park as soon as
// control returns to the outer loop.
func (c *Context) PauseFromThread() {
	c.stateMu.Lock()
	if c.state == Running {
		c.setState(Pausing)
	}
	c.stateMu.Unlock()
}

// Reset asks the worker to reinitialize the engine and resume Running.
// Non-blocking; the worker reacts at its next opportunity.
func (c *Context) Reset() {
	c.stateMu.Lock()
	c.waitOnInterrupt()
	if c.state.active() {
		c.setState(Reseting)
	}
	c.stateMu.Unlock()
}

// Interrupt nests: it increments interruptDepth and, on the outermost
// call, drives the worker into Interrupted and blocks until it parks.
// Nested calls return immediately since the worker is already parked.
func (c *Context) Interrupt() {
	c.stateMu.Lock()
	c.depth++
	if c.depth > 1 {
		c.stateMu.Unlock()
		return
	}
	c.waitOnInterrupt()
	if c.state.active() {
		c.saved = c.state
		c.setState(Interrupting)
		if c.worker != nil {
			c.worker.RequestReturn()
		}
		c.waitUntilNotState(Interrupting)
	}
	c.stateMu.Unlock()
}

// Continue unwinds one level of interrupt. At depth 0 it restores the
// state saved by the outermost Interrupt.
func (c *Context) Continue() {
	c.stateMu.Lock()
	if c.depth <= 0 {
		// interruptDepth must never go negative; treat as caller bug and
		// leave state unchanged.
		c.log.Error("core: Continue called without matching Interrupt")
		c.stateMu.Unlock()
		return
	}
	c.depth--
	if c.depth == 0 && c.state == Interrupted {
		c.setState(c.saved)
	}
	c.stateMu.Unlock()
}

// End initiates shutdown. Always safe to call from any thread at any
// time; wakes every condvar the worker could be waiting on and clears the
// engine's halt flag synchronously, so a CPU parked in a halted-wait
// inside RunOneStep is released immediately rather than only once the
// worker reaches Teardown.
func (c *Context) End() {
	c.stateMu.Lock()
	if c.state != Shutdown && c.state != Crashed {
		c.setState(Exiting)
	}
	c.stateMu.Unlock()

	c.Sync.SuspendDrawing()
	c.Sync.SetAudioWait(false)
	c.Sync.wakeVideo()
	c.Sync.wakeAudio()

	if c.worker != nil {
		c.worker.ClearHalt()
		c.worker.RequestReturn()
	}
}

// ReportCrash is the external hook spec's open question (b) asks for: the
// engine or an attached debugger calls this from the worker goroutine (or
// anywhere, defensively) to record an unrecoverable failure.
func (c *Context) ReportCrash(err error) {
	c.stateMu.Lock()
	c.setState(Crashed)
	c.stateMu.Unlock()

	c.Sync.wakeVideo()
	c.Sync.wakeAudio()

	if c.hooks.OnCrash != nil {
		c.hooks.OnCrash(err)
	}
}

// Start spawns the worker goroutine and blocks until it reaches Running
// (or fails to). Returns false if the context was already started.
func (c *Context) Start() bool {
	c.stateMu.Lock()
	if c.started {
		c.stateMu.Unlock()
		return false
	}
	c.started = true
	c.stateMu.Unlock()

	blockBootstrapSignals()

	c.exitCtx, c.exitFn = context.WithCancel(context.Background())
	c.wg.Add(1)
	go c.workerMain()

	c.stateMu.Lock()
	for c.state == Initialized {
		c.stateCd.Wait()
	}
	c.stateMu.Unlock()

	return c.State() == Running
}

// Abort moves a never-started context straight to Shutdown, for bootstrap
// failures detected before a worker is worth spawning (e.g. no ROM could
// be resolved). started is left false, so Join remains a no-op.
func (c *Context) Abort() {
	c.stateMu.Lock()
	c.setState(Shutdown)
	c.stateMu.Unlock()
}

// Join waits for the worker to reach Shutdown (or Crashed) and returns. A
// Join on a context whose worker never started is a safe no-op.
func (c *Context) Join() {
	c.stateMu.Lock()
	started := c.started
	c.stateMu.Unlock()
	if !started {
		return
	}
	c.wg.Wait()
	if c.exitFn != nil {
		c.exitFn()
	}
}
