// Package gbasup is the public facade over the supervisor core: a
// concurrency engine that hosts a CPU-bound simulation worker (an
// "engine", e.g. a Game Boy Advance CPU+video+audio implementation
// satisfying engine.Core) and coordinates it with a video presenter, an
// audio consumer, and a controller thread, per the ordered supervisor
// state machine in State.
package gbasup

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/orion-emu/gbasup/engine"
	"github.com/orion-emu/gbasup/internal/core"
	"github.com/orion-emu/gbasup/registry"
	"github.com/orion-emu/gbasup/rewind"
	"github.com/orion-emu/gbasup/screenshot"
	"github.com/orion-emu/gbasup/vfs"
)

// Context is one emulator session: the supervisor state machine, its sync
// channel, and the artifact handles and engine it was booted with.
type Context struct {
	// ID correlates this session's log lines. It has no bearing on the
	// state machine.
	ID     uuid.UUID
	Logger *slog.Logger

	cfg BootConfig
	eng engine.Core

	rom      vfs.File
	romName  string
	save     vfs.File
	bios     vfs.File
	patch    vfs.File
	debugger engine.Debugger
	cheats   engine.CheatDevice
	overrid  engine.Overrider
	sio      engine.SIODriverSet
	keys     engine.KeySource

	rewind *rewind.Buffer

	core *core.Context
}

// New builds an Initialized Context around eng, applying opts to a
// DefaultBootConfig.
func New(eng engine.Core, opts ...Option) *Context {
	cfg := DefaultBootConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Context{
		ID:     uuid.New(),
		Logger: slog.Default(),
		cfg:    cfg,
		eng:    eng,
		rewind: rewind.New(cfg.RewindCapacity, cfg.RewindFrameStep),
	}

	c.core = core.New(&workerAdapter{gc: c}, core.Hooks{
		OnCrash:       c.onCrash,
		OnWorkerEnter: func() { registry.Bind(c) },
		OnWorkerExit:  registry.Clear,
	}, c.Logger)

	c.core.Sync.SetVideoWait(cfg.VideoSync)
	c.core.Sync.SetAudioWait(cfg.AudioSync)

	return c
}

func (c *Context) onCrash(err error) {
	c.Logger.Error("engine crashed", "session", c.ID, "error", err)
}

// SetROM assigns the ROM handle directly, bypassing GameDir scanning.
func (c *Context) SetROM(f vfs.File, name string) { c.rom = f; c.romName = name }

// SetSave assigns the battery-save handle.
func (c *Context) SetSave(f vfs.File) { c.save = f }

// SetBIOS assigns the BIOS handle.
func (c *Context) SetBIOS(f vfs.File) { c.bios = f }

// SetPatch assigns a patch handle to apply over the ROM.
func (c *Context) SetPatch(f vfs.File) { c.patch = f }

// SetDebugger attaches a debugger; once attached it takes over stepping
// from the worker's plain inner loop.
func (c *Context) SetDebugger(d engine.Debugger) { c.debugger = d }

// SetCheats attaches a cheat device.
func (c *Context) SetCheats(cd engine.CheatDevice) { c.cheats = cd }

// SetOverrider attaches a cartridge override source.
func (c *Context) SetOverrider(o engine.Overrider) { c.overrid = o }

// SetSIODrivers attaches serial I/O link drivers.
func (c *Context) SetSIODrivers(s engine.SIODriverSet) { c.sio = s }

// SetKeySource attaches an input source (or a replay movie, via
// engine.ReplayMovie).
func (c *Context) SetKeySource(k engine.KeySource) { c.keys = k }

// --- queries, forwarded to the state machine ---

func (c *Context) State() State           { return c.core.State() }
func (c *Context) HasStarted() bool       { return c.core.HasStarted() }
func (c *Context) HasExited() bool        { return c.core.HasExited() }
func (c *Context) HasCrashed() bool       { return c.core.HasCrashed() }
func (c *Context) IsActive() bool         { return c.core.IsActive() }
func (c *Context) IsPaused() bool         { return c.core.IsPaused() }

// --- controller verbs, forwarded to the state machine ---

func (c *Context) Pause()          { c.core.Pause() }
func (c *Context) Unpause()        { c.core.Unpause(); c.core.Sync.ResumeDrawing(c.cfg.VideoSync) }
func (c *Context) TogglePause()    { c.core.TogglePause() }
func (c *Context) PauseFromThread() { c.core.PauseFromThread() }
func (c *Context) Reset()          { c.core.Reset() }
func (c *Context) Interrupt()      { c.core.Interrupt() }
func (c *Context) Continue()       { c.core.Continue() }
func (c *Context) End()            { c.core.End() }

// Start validates that a ROM handle is present (resolving one from
// GameDir if needed, together with a save file under StateDir when that
// is set), and launches the worker,
// blocking until it reaches Running. If no ROM can be identified, the
// worker is never spawned: Start returns false, state moves directly to
// Shutdown, HasStarted stays false, and Join is a safe no-op.
func (c *Context) Start() bool {
	if c.rom == nil && c.cfg.GameDir != "" {
		if err := c.resolveFromGameDir(); err != nil {
			c.Logger.Error("gbasup: game directory scan failed", "error", err)
		}
	}
	if c.rom == nil {
		c.Logger.Error("gbasup: no rom to start", "session", c.ID)
		c.core.Abort()
		return false
	}
	return c.core.Start()
}

func (c *Context) resolveFromGameDir() error {
	dir, err := vfs.OpenOSDir(c.cfg.GameDir)
	if err != nil {
		return fmt.Errorf("gbasup: open game directory: %w", err)
	}
	resolved, err := vfs.ResolveROM(dir)
	if err != nil {
		return err
	}
	c.rom = resolved.ROM
	c.romName = resolved.ROMName
	if resolved.PatchSet {
		c.patch = resolved.Patch
	}
	if c.cfg.StateDir != "" {
		save, err := vfs.OpenOptionalSibling(c.cfg.StateDir, resolved.ROMName, "sav")
		if err == nil {
			c.save = save
		}
	}
	return nil
}

// Join waits for the worker to reach Shutdown and closes every artifact
// handle the supervisor owns.
func (c *Context) Join() {
	c.core.Join()
	c.closeArtifacts()
}

func (c *Context) closeArtifacts() {
	for _, f := range []vfs.File{c.rom, c.save, c.bios, c.patch} {
		if f != nil {
			f.Close()
		}
	}
}

// WaitFrameStart opens the video consumer's critical section, per
// FrameGuard's contract.
func (c *Context) WaitFrameStart(skip int) *FrameGuard { return c.core.Sync.WaitFrameStart(skip) }

// DrawingFrame is advisory: true iff the current frame is one the
// consumer will actually see.
func (c *Context) DrawingFrame() bool { return c.core.Sync.DrawingFrame() }

// LockAudio/UnlockAudio/ConsumeAudio expose the audio consumer's half of
// the sync channel.
func (c *Context) LockAudio()    { c.core.Sync.LockAudio() }
func (c *Context) UnlockAudio()  { c.core.Sync.UnlockAudio() }
func (c *Context) ConsumeAudio() { c.core.Sync.ConsumeAudio() }

// ReportCrash is the external hook an engine or debugger calls when it
// detects an unrecoverable failure.
func (c *Context) ReportCrash(err error) { c.core.ReportCrash(err) }

// Rewind pops up to n captured snapshots and restores the oldest of
// those popped. It reports how many were actually available.
func (c *Context) Rewind(n int) (int, error) {
	saver, ok := c.eng.(engine.SaveStater)
	if !ok {
		return 0, fmt.Errorf("gbasup: engine does not support save states")
	}
	return c.rewind.Rewind(saver, n)
}

// Screenshot writes the current video back buffer to path. It is only
// valid to call while holding a FrameGuard obtained from WaitFrameStart.
func (c *Context) Screenshot(guard *FrameGuard, path string) error {
	renderer, ok := c.eng.(engine.Renderer)
	if !ok {
		return fmt.Errorf("gbasup: engine does not expose a renderer")
	}
	if !guard.Ready() {
		return fmt.Errorf("gbasup: no frame available to screenshot")
	}
	stride, pixels := renderer.GetPixels()
	width := stride / 4
	height := 0
	if width > 0 {
		height = len(pixels) / stride
	}
	return screenshot.Write(path, stride, width, height, pixels)
}
