package core_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/orion-emu/gbasup/internal/core"
)

// stubWorker is a minimal core.Worker: its inner loop does nothing but
// PostFrame as fast as stillRunning allows, which is all the state
// machine tests need from it.
type stubWorker struct {
	bootErr  error
	steps    atomic.Int64
	torndown atomic.Bool
}

func (w *stubWorker) Bootstrap() error { return w.bootErr }

func (w *stubWorker) RunWhileRunning(sc *core.SyncChannel, stillRunning func() bool) {
	for stillRunning() {
		sc.PostFrame()
		w.steps.Add(1)
	}
}

func (w *stubWorker) RequestReturn()      {}
func (w *stubWorker) ClearHalt()          {}
func (w *stubWorker) Reinitialize() error { return nil }
func (w *stubWorker) Teardown()           { w.torndown.Store(true) }

func newTestContext(w *stubWorker) *core.Context {
	return core.New(w, core.Hooks{}, nil)
}

// TestStartReachesRunning verifies a Context with a working Bootstrap
// reaches Running and reports HasStarted.
func TestStartReachesRunning(t *testing.T) {
	w := &stubWorker{}
	c := newTestContext(w)

	if ok := c.Start(); !ok {
		t.Fatal("Start returned false")
	}
	if c.State() != core.Running {
		t.Errorf("state = %v, want Running", c.State())
	}
	if !c.HasStarted() {
		t.Error("HasStarted = false after successful Start")
	}

	c.End()
	c.Join()
}

// TestStartBootstrapFailureShutsDown verifies a Bootstrap error moves
// straight to Shutdown without entering Running, per the no-ROM scenario.
func TestStartBootstrapFailureShutsDown(t *testing.T) {
	w := &stubWorker{bootErr: core.ErrNoROM}
	c := newTestContext(w)

	if ok := c.Start(); ok {
		t.Fatal("Start returned true despite Bootstrap failure")
	}
	if c.State() != core.Shutdown {
		t.Errorf("state = %v, want Shutdown", c.State())
	}

	c.Join()
}

// TestDoubleStartIsRejected verifies Start is idempotent: a second call
// on an already-started Context returns false without side effects.
func TestDoubleStartIsRejected(t *testing.T) {
	w := &stubWorker{}
	c := newTestContext(w)

	if !c.Start() {
		t.Fatal("first Start failed")
	}
	if c.Start() {
		t.Error("second Start returned true")
	}

	c.End()
	c.Join()
}

// TestPauseUnpauseRace drives concurrent Pause/Unpause calls against a
// running worker and asserts the state they leave behind is one of
// {Running, Pausing, Paused}.
func TestPauseUnpauseRace(t *testing.T) {
	w := &stubWorker{}
	c := newTestContext(w)
	if !c.Start() {
		t.Fatal("Start failed")
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Pause()
			c.Unpause()
		}()
	}
	wg.Wait()

	switch s := c.State(); s {
	case core.Running, core.Pausing, core.Paused:
	default:
		t.Errorf("state after pause/unpause race = %v, want Running/Pausing/Paused", s)
	}

	c.End()
	c.Join()
}

// TestNestedInterrupt verifies Interrupt/Continue nest correctly: the
// worker only resumes once the outermost Continue unwinds the depth.
func TestNestedInterrupt(t *testing.T) {
	w := &stubWorker{}
	c := newTestContext(w)
	if !c.Start() {
		t.Fatal("Start failed")
	}

	c.Interrupt()
	c.Interrupt()
	if c.State() != core.Interrupted {
		t.Fatalf("state = %v, want Interrupted after nested Interrupt", c.State())
	}

	c.Continue()
	if c.State() != core.Interrupted {
		t.Errorf("state = %v, want still Interrupted after one Continue", c.State())
	}

	c.Continue()
	deadline := time.After(time.Second)
	for c.State() == core.Interrupted {
		select {
		case <-deadline:
			t.Fatal("worker never left Interrupted after outermost Continue")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	c.End()
	c.Join()
}

// TestEndWhileInterrupted verifies End always wins, even against a
// worker parked in Interrupted.
func TestEndWhileInterrupted(t *testing.T) {
	w := &stubWorker{}
	c := newTestContext(w)
	if !c.Start() {
		t.Fatal("Start failed")
	}

	c.Interrupt()
	if c.State() != core.Interrupted {
		t.Fatalf("state = %v, want Interrupted", c.State())
	}

	c.End()

	done := make(chan struct{})
	go func() {
		c.Join()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Join never returned after End while Interrupted")
	}

	if !c.HasExited() {
		t.Error("HasExited = false after Join")
	}
}

// TestAbortNeverStarts verifies Abort moves a fresh Context to Shutdown
// without spawning a worker, and that Join on it is a no-op.
func TestAbortNeverStarts(t *testing.T) {
	w := &stubWorker{}
	c := newTestContext(w)

	c.Abort()

	if c.HasStarted() {
		t.Error("HasStarted = true after Abort")
	}
	if c.State() != core.Shutdown {
		t.Errorf("state = %v, want Shutdown", c.State())
	}

	done := make(chan struct{})
	go func() {
		c.Join()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Join blocked on a never-started Context")
	}

	if w.steps.Load() != 0 {
		t.Error("worker ran despite Abort")
	}
}

// TestResetKeepsRunning verifies Reset reinitializes without leaving the
// worker parked: state settles back to Running.
func TestResetKeepsRunning(t *testing.T) {
	w := &stubWorker{}
	c := newTestContext(w)
	if !c.Start() {
		t.Fatal("Start failed")
	}

	c.Reset()

	deadline := time.After(time.Second)
	for c.State() != core.Running {
		select {
		case <-deadline:
			t.Fatalf("state settled at %v, never returned to Running after Reset", c.State())
		default:
			time.Sleep(time.Millisecond)
		}
	}

	c.End()
	c.Join()
}

// TestReportCrashIsTerminal verifies a crash short-circuits the outer
// loop and is observable via HasCrashed, and that the OnCrash hook runs.
func TestReportCrashIsTerminal(t *testing.T) {
	w := &stubWorker{}
	var hookErr error
	var mu sync.Mutex
	c := core.New(w, core.Hooks{
		OnCrash: func(err error) {
			mu.Lock()
			hookErr = err
			mu.Unlock()
		},
	}, nil)
	if !c.Start() {
		t.Fatal("Start failed")
	}

	wantErr := core.ErrEngineCreate
	c.ReportCrash(wantErr)

	if !c.HasCrashed() {
		t.Error("HasCrashed = false after ReportCrash")
	}

	done := make(chan struct{})
	go func() {
		c.Join()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Join never returned after a crash")
	}

	mu.Lock()
	defer mu.Unlock()
	if hookErr != wantErr {
		t.Errorf("OnCrash hook saw %v, want %v", hookErr, wantErr)
	}
}
