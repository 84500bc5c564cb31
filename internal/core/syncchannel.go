package core

import (
	"sync"
	"sync/atomic"
	"time"
)

// videoFrameTimeout bounds WaitFrameStart's wait for a produced frame, so a
// stalled worker cannot freeze a UI consumer forever.
const videoFrameTimeout = 50 * time.Millisecond

// SyncChannel is the paced rendezvous between the worker (producer) and two
// independent external consumers: a video presenter and an audio consumer.
// It is modeled on the teacher's single-slot mailbox primitives
// (worker_slot.go's cond-guarded single frame, bus.go's latestFrameHolder)
// but adds the skip-counter producer-block handshake a display pacing
// contract needs and the original lacks.
type SyncChannel struct {
	videoMu                 sync.Mutex
	videoFrameAvailableCond *sync.Cond
	videoFrameRequiredCond  *sync.Cond
	videoFrameOn            bool
	videoFrameWait          bool
	videoFramePending       int
	videoFrameSkip          atomic.Int32

	audioMu           sync.Mutex
	audioRequiredCond *sync.Cond
	audioWait         bool
	audioGen          uint64
}

func newSyncChannel() *SyncChannel {
	sc := &SyncChannel{}
	sc.videoFrameAvailableCond = sync.NewCond(&sc.videoMu)
	sc.videoFrameRequiredCond = sync.NewCond(&sc.videoMu)
	sc.audioRequiredCond = sync.NewCond(&sc.audioMu)
	return sc
}

// FrameGuard is the scoped handle WaitFrameStart returns. It always holds
// videoMu on return, matching every path through WaitFrameStart; callers
// must pair it with Close (WaitFrameEnd), even when Ready is false.
type FrameGuard struct {
	sc    *SyncChannel
	ready bool
}

// Ready reports whether a frame became available before the guard's
// deadline. When false, the caller still holds the section (and must
// still Close it) but has nothing new to draw.
func (g *FrameGuard) Ready() bool { return g.ready }

// Close releases the video mutex, the WaitFrameEnd half of the pair.
func (g *FrameGuard) Close() { g.sc.videoMu.Unlock() }

// PostFrame is called by the worker once per simulated frame. It is the
// producer half of the video protocol: it may block the worker until a
// consumer drains the pending frame, unless the consumer has disabled
// waiting (SuspendDrawing, or End at shutdown).
func (sc *SyncChannel) PostFrame() {
	sc.videoMu.Lock()
	sc.videoFramePending++
	skip := sc.videoFrameSkip.Add(-1)
	if skip < 0 {
		for {
			sc.videoFrameAvailableCond.Signal()
			if !sc.videoFrameWait {
				break
			}
			sc.videoFrameRequiredCond.Wait()
			if !sc.videoFrameWait || sc.videoFramePending == 0 {
				break
			}
		}
	}
	sc.videoMu.Unlock()
}

// WaitFrameStart opens the consumer's critical section: wake any producer
// parked in PostFrame, then wait up to videoFrameTimeout for a pending
// frame. The returned FrameGuard always holds videoMu; the caller must
// Close it, whether or not Ready reports true.
func (sc *SyncChannel) WaitFrameStart(skip int) *FrameGuard {
	sc.videoMu.Lock()
	sc.videoFrameRequiredCond.Signal()

	if !sc.videoFrameOn && sc.videoFramePending == 0 {
		return &FrameGuard{sc: sc, ready: false}
	}

	if sc.videoFrameOn {
		deadline := time.Now().Add(videoFrameTimeout)
		for sc.videoFramePending == 0 {
			if sc.waitAvailableUntil(deadline) {
				if sc.videoFramePending == 0 {
					return &FrameGuard{sc: sc, ready: false}
				}
				break
			}
		}
	}

	sc.videoFramePending = 0
	sc.videoFrameSkip.Store(int32(skip))
	return &FrameGuard{sc: sc, ready: true}
}

// waitAvailableUntil waits on videoFrameAvailableCond, returning true once
// deadline has passed. Go's sync.Cond has no native timed wait, so a timer
// goroutine forces one spurious broadcast at the deadline; the caller
// rechecks its own predicate either way, exactly like any other condvar
// wait.
func (sc *SyncChannel) waitAvailableUntil(deadline time.Time) (timedOut bool) {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return true
	}
	timer := time.AfterFunc(remaining, func() {
		sc.videoMu.Lock()
		sc.videoFrameAvailableCond.Broadcast()
		sc.videoMu.Unlock()
	})
	sc.videoFrameAvailableCond.Wait()
	timer.Stop()
	return !time.Now().Before(deadline)
}

// DrawingFrame reports whether the current frame is one the consumer will
// actually see, given the skip counter. It is advisory and lock-free by
// design (spec); the backing counter is atomic so this is race-free
// without taking videoMu.
func (sc *SyncChannel) DrawingFrame() bool {
	return sc.videoFrameSkip.Load() <= 0
}

// SuspendDrawing detaches the video consumer. Unlike the plain on/off flip
// the original performs, this also clears videoFrameWait and wakes a
// producer parked in PostFrame: with no consumer attached, blocking the
// worker for one serves no purpose, and leaving it parked would violate
// the "producer continues within one quantum" contract.
func (sc *SyncChannel) SuspendDrawing() {
	sc.videoMu.Lock()
	sc.videoFrameOn = false
	sc.videoFrameWait = false
	sc.videoFrameAvailableCond.Broadcast()
	sc.videoFrameRequiredCond.Broadcast()
	sc.videoMu.Unlock()
}

// ResumeDrawing reattaches the video consumer and sets videoFrameWait to
// wait, reinstating (or not) the backpressure SuspendDrawing cleared;
// gbasup passes the boot config's VideoSync policy here.
func (sc *SyncChannel) ResumeDrawing(wait bool) {
	sc.videoMu.Lock()
	sc.videoFrameOn = true
	sc.videoFrameWait = wait
	sc.videoFrameAvailableCond.Broadcast()
	sc.videoMu.Unlock()
}

// SetVideoWait is used by bootstrap to set the initial pacing policy.
func (sc *SyncChannel) SetVideoWait(wait bool) {
	sc.videoMu.Lock()
	sc.videoFrameWait = wait
	sc.videoMu.Unlock()
}

// withVideoWaitSuspended implements the cross-wake discipline
// _waitUntilNotState needs: while the controller loops waiting for the
// worker to leave a state, a producer parked in PostFrame must be able to
// make progress so it can reach a point where it observes state changes.
// videoFrameWait is cleared for the duration of fn and restored on every
// exit path, even a panic.
func (sc *SyncChannel) withVideoWaitSuspended(fn func()) {
	sc.videoMu.Lock()
	prior := sc.videoFrameWait
	sc.videoFrameWait = false
	sc.videoMu.Unlock()

	defer func() {
		sc.videoMu.Lock()
		sc.videoFrameWait = prior
		sc.videoMu.Unlock()
	}()

	fn()
}

// wakeVideo broadcasts both video condvars, used by End and by the
// cross-wake helper to unstick any producer or consumer.
func (sc *SyncChannel) wakeVideo() {
	sc.videoMu.Lock()
	sc.videoFrameAvailableCond.Broadcast()
	sc.videoFrameRequiredCond.Broadcast()
	sc.videoMu.Unlock()
}

// LockAudio acquires the audio mutex for the consumer, ahead of a buffer
// read paired with ConsumeAudio.
func (sc *SyncChannel) LockAudio() { sc.audioMu.Lock() }

// UnlockAudio releases the audio mutex without signaling — used by a
// consumer that peeked without actually consuming.
func (sc *SyncChannel) UnlockAudio() { sc.audioMu.Unlock() }

// ProduceAudio is the producer half of the audio protocol. The caller must
// already hold audioMu (via LockAudio, or because it is the worker thread
// which owns it across the write). If audioWait and wait are both true,
// it blocks until a consumer calls ConsumeAudio. It loops on audioGen
// rather than a bare Wait() — the one place the original is explicitly
// missing a loop (see design notes) — so a spurious wakeup re-parks the
// producer instead of letting it return before anything was consumed.
func (sc *SyncChannel) ProduceAudio(wait bool) {
	startGen := sc.audioGen
	for sc.audioWait && wait && sc.audioGen == startGen {
		sc.audioRequiredCond.Wait()
	}
	sc.audioMu.Unlock()
}

// ConsumeAudio signals a producer parked in ProduceAudio and releases the
// mutex the caller is assumed to hold.
func (sc *SyncChannel) ConsumeAudio() {
	sc.audioGen++
	sc.audioRequiredCond.Signal()
	sc.audioMu.Unlock()
}

// SetAudioWait configures whether ProduceAudio should apply backpressure.
func (sc *SyncChannel) SetAudioWait(wait bool) {
	sc.audioMu.Lock()
	sc.audioWait = wait
	sc.audioMu.Unlock()
}

// wakeAudio wakes anything parked on the audio condvar.
func (sc *SyncChannel) wakeAudio() {
	sc.audioMu.Lock()
	sc.audioGen++
	sc.audioRequiredCond.Broadcast()
	sc.audioMu.Unlock()
}
