// Package engine defines the capability surface the supervisor core depends
// on. The engine itself — CPU, video, audio, memory — is never implemented
// here; this package only describes the narrow set of behaviors the
// supervisor needs to drive one forward, the way a debugger or a cheat
// device attaches to it.
package engine

import "github.com/orion-emu/gbasup/vfs"

// Core is the minimal step/lifecycle surface the worker loop drives.
// An implementation owns its own CPU, memory and video state; the
// supervisor calls these methods from the worker goroutine, except
// RequestReturn and SetHalted, which Interrupt and End call from the
// goroutine that issued them.
type Core interface {
	// Create allocates engine-internal state. Called once per Start.
	Create() error

	// Init brings a freshly-Created engine to a runnable state. The worker
	// calls it after the ROM, BIOS and patch are loaded and before
	// overrides and components are applied.
	Init() error

	// Reset reinitializes the engine in place, as if freshly Init'd.
	Reset() error

	// Deinit releases resources acquired by Init without deallocating the
	// engine itself; called before Reset re-applies Init.
	Deinit()

	// Destroy releases everything. Called once, from worker shutdown.
	Destroy()

	// RunOneStep advances the engine by one step (instruction, scanline,
	// or frame — the granularity is the engine's choice). Implementations
	// must return promptly once RequestReturn has been called.
	RunOneStep()

	// RequestReturn asks a RunOneStep in progress to return at its next
	// natural boundary. Called by the supervisor immediately before
	// parking the worker, so control reaches the state machine promptly.
	RequestReturn()

	// SetHalted controls the engine's halted flag. The supervisor clears
	// it (SetHalted(false)) when ending a session, so a halted CPU does
	// not block a final step.
	SetHalted(halted bool)
}

// Renderer exposes the engine's video back buffer. GetPixels must be safe
// to call only while the caller holds the sync channel's video mutex
// (between WaitFrameStart returning true and the paired WaitFrameEnd).
type Renderer interface {
	GetPixels() (stride int, pixels []byte)
}

// SaveStater captures and restores engine state for save states and the
// rewind ring.
type SaveStater interface {
	Serialize() ([]byte, error)
	Deserialize([]byte) error
}

// BatterySaver exposes battery-backed save memory, independent of full
// save states.
type BatterySaver interface {
	HasBattery() bool
	GetSRAM() []byte
	SetSRAM([]byte)
}

// ComponentTable lets the supervisor attach pluggable components (cheats,
// a debugger, SIO drivers) without the engine needing to know their
// concrete types.
type ComponentTable interface {
	SetComponentTable(components map[string]any)
}

// Debugger, when attached, takes over stepping from the worker loop. Run
// is called once per outer-loop iteration while state is RUNNING; it
// returns true when the debugger wants the worker to move to EXITING.
type Debugger interface {
	Run(core Core) (shutdown bool)
}

// ROMLoader is the engine-side half of artifact loading: the worker hands
// it the files the lifecycle/bootstrap component resolved.
type ROMLoader interface {
	LoadROM(rom vfs.File, save vfs.File, name string) error
	LoadBIOS(bios vfs.File) error
	ApplyPatch(patch vfs.File) error
	SkipBIOS()
}

// Override describes a per-game cartridge override (hardware quirks,
// RTC presence, save type) keyed by game code.
type Override struct {
	GameCode [12]byte
	Data     map[string]any
}

// Overrider looks up and applies cartridge overrides.
type Overrider interface {
	OverrideFind(gameCode [12]byte) (Override, bool)
	OverrideApply(Override)
}

// KeySource supplies the current input state as a bitmask, decoupling the
// engine from any particular input backend.
type KeySource interface {
	ActiveKeys() uint32
}

// SIODriverSet attaches serial I/O link drivers to a Core.
type SIODriverSet interface {
	Attach(Core)
}

// CheatDevice parses a cheat list and attaches itself to a Core.
type CheatDevice interface {
	ParseFile(vfs.File) error
	AttachTo(Core)
}

// ReplayMovie supplies recorded input in place of a live KeySource.
type ReplayMovie interface {
	KeySource
	Close() error
}
