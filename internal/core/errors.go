package core

import "errors"

var (
	// ErrNoROM is returned by a Worker's Bootstrap when no ROM handle was
	// provided and none could be resolved from a game directory; Start
	// itself reports that failure by returning false.
	ErrNoROM = errors.New("core: no ROM handle available")

	// ErrAlreadyStarted names the condition of a context whose worker is
	// already running or has already run. Start reports it by returning
	// false and does not return this error.
	ErrAlreadyStarted = errors.New("core: context already started")

	// ErrEngineCreate wraps a failure from the engine's Create/Init hooks
	// during bootstrap.
	ErrEngineCreate = errors.New("core: engine failed to initialize")
)
