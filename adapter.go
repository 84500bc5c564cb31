package gbasup

import (
	"fmt"

	"github.com/orion-emu/gbasup/engine"
	"github.com/orion-emu/gbasup/internal/core"
)

// workerAdapter is the glue core.Worker the state machine drives: it owns
// no state of its own beyond a back-reference to the Context that built
// it, and translates the narrow core.Worker contract into calls against
// whatever capabilities the attached engine.Core actually implements.
type workerAdapter struct {
	gc *Context
}

func (w *workerAdapter) Bootstrap() error {
	gc := w.gc
	if gc.rom == nil {
		return core.ErrNoROM
	}

	if err := gc.eng.Create(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrEngineCreate, err)
	}

	if loader, ok := gc.eng.(engine.ROMLoader); ok {
		if err := loader.LoadROM(gc.rom, gc.save, gc.romName); err != nil {
			return fmt.Errorf("gbasup: load rom: %w", err)
		}

		switch {
		case gc.bios != nil:
			if err := loader.LoadBIOS(gc.bios); err != nil {
				gc.Logger.Warn("gbasup: bios load failed, skipping bios", "error", err)
				loader.SkipBIOS()
			}
		case gc.cfg.SkipBIOS:
			loader.SkipBIOS()
		}

		if gc.patch != nil {
			if err := loader.ApplyPatch(gc.patch); err != nil {
				gc.Logger.Warn("gbasup: patch failed, continuing without patch", "error", err)
			}
		}
	}

	if err := gc.eng.Init(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrEngineCreate, err)
	}

	if overrider, ok := gc.eng.(engine.Overrider); ok && gc.overrid != nil {
		if override, found := gc.overrid.OverrideFind(gameCodeFromName(gc.romName)); found {
			overrider.OverrideApply(override)
		}
	}

	if table, ok := gc.eng.(engine.ComponentTable); ok {
		components := map[string]any{}
		if gc.cheats != nil {
			components["cheats"] = gc.cheats
			gc.cheats.AttachTo(gc.eng)
		}
		if gc.sio != nil {
			components["sio"] = gc.sio
			gc.sio.Attach(gc.eng)
		}
		table.SetComponentTable(components)
	}

	return nil
}

func (w *workerAdapter) RunWhileRunning(sc *core.SyncChannel, stillRunning func() bool) {
	gc := w.gc

	if gc.debugger != nil {
		if !stillRunning() {
			return
		}
		if gc.debugger.Run(gc.eng) {
			gc.core.End()
		}
		return
	}

	saver, canSave := gc.eng.(engine.SaveStater)

	for stillRunning() {
		gc.eng.RunOneStep()
		sc.PostFrame()

		if canSave && gc.rewind.Capacity() > 0 {
			if err := gc.rewind.Capture(saver); err != nil {
				gc.Logger.Warn("gbasup: rewind capture failed", "error", err)
			}
		}
	}
}

// gameCodeFromName derives a 12-byte override lookup key from a ROM's
// file name, since this module has no cartridge header parser of its own
// (header parsing belongs to the engine, out of scope per the file-system
// surface contract) — close enough for an override source to key on.
func gameCodeFromName(name string) [12]byte {
	var code [12]byte
	copy(code[:], name)
	return code
}

func (w *workerAdapter) RequestReturn() { w.gc.eng.RequestReturn() }

// ClearHalt is End's synchronous unstick for a CPU parked in a
// halted-wait inside RunOneStep: clearing the flag here, off the worker
// goroutine, can release it without waiting for the outer loop to reach
// Teardown.
func (w *workerAdapter) ClearHalt() { w.gc.eng.SetHalted(false) }

func (w *workerAdapter) Reinitialize() error {
	gc := w.gc
	gc.eng.Deinit()
	if err := gc.eng.Reset(); err != nil {
		return err
	}
	if gc.cfg.SkipBIOS {
		if loader, ok := gc.eng.(engine.ROMLoader); ok {
			loader.SkipBIOS()
		}
	}
	return nil
}

func (w *workerAdapter) Teardown() {
	gc := w.gc
	gc.eng.Destroy()
	if movie, ok := gc.keys.(engine.ReplayMovie); ok {
		movie.Close()
	}
}
