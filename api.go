package gbasup

import "github.com/orion-emu/gbasup/internal/core"

// Public API — re-export internal types as a stable contract, the way the
// teacher's framebus package wraps its internal/bus package.

// State is the supervisor's state variable.
type State = core.State

const (
	Initialized  = core.Initialized
	Running      = core.Running
	Interrupting = core.Interrupting
	Interrupted  = core.Interrupted
	Pausing      = core.Pausing
	Paused       = core.Paused
	Reseting     = core.Reseting
	Exiting      = core.Exiting
	Shutdown     = core.Shutdown
	Crashed      = core.Crashed
)

// FrameGuard is the scoped handle WaitFrameStart returns; Close performs
// the paired WaitFrameEnd on every exit path, including an early return.
type FrameGuard = core.FrameGuard

// Public API errors — re-exported from internal/core as a stable
// contract.
var (
	ErrNoROM          = core.ErrNoROM
	ErrAlreadyStarted = core.ErrAlreadyStarted
	ErrEngineCreate   = core.ErrEngineCreate
)
