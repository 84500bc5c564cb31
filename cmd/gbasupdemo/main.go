// Command gbasupdemo drives a toy engine through the supervisor, presents
// its video output in an ebiten window, and plays a placeholder tone
// through oto — a minimal, runnable exercise of the public Context API
// against video and audio consumers, the way the teacher's standalone
// package exercises emucore.CoreFactory against a real frontend.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/orion-emu/gbasup"
	"github.com/orion-emu/gbasup/engine"
	"github.com/orion-emu/gbasup/screenshot"
)

const (
	toyWidth  = 240
	toyHeight = 160
	winScale  = 3
)

func main() {
	gameDir := flag.String("gamedir", "", "directory to scan for a ROM-shaped file")
	stateDir := flag.String("statedir", "", "directory for save files and screenshots")
	rewindCapacity := flag.Int("rewind", 600, "number of rewind snapshots to retain (0 disables)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	toy := engine.NewToy(toyWidth, toyHeight)
	ctx := gbasup.New(toy,
		gbasup.WithGameDir(*gameDir),
		gbasup.WithStateDir(*stateDir),
		gbasup.WithRewind(*rewindCapacity, 1),
		gbasup.WithVideoSync(true),
	)
	ctx.Logger = logger

	if !ctx.Start() {
		logger.Error("gbasupdemo: no rom found", "gamedir", *gameDir)
		os.Exit(1)
	}

	audio, err := newDemoAudio(ctx)
	if err != nil {
		logger.Warn("gbasupdemo: audio disabled", "error", err)
	} else {
		go audio.run(toy.Frame)
	}

	shotDir := *stateDir
	if shotDir == "" {
		shotDir = "."
	}
	g := &demoGame{ctx: ctx, toy: toy, logger: logger, shotDir: shotDir}

	ebiten.SetWindowTitle("gbasupdemo")
	ebiten.SetWindowSize(toyWidth*winScale, toyHeight*winScale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	runErr := ebiten.RunGame(g)

	if audio != nil {
		audio.close()
	}
	ctx.End()
	ctx.Join()

	if runErr != nil {
		logger.Error("gbasupdemo: ebiten exited with error", "error", runErr)
		os.Exit(1)
	}
}

// demoGame implements ebiten.Game, presenting whatever frame the
// supervisor's video consumer protocol hands it and forwarding a
// handful of keys to the controller API.
type demoGame struct {
	ctx     *gbasup.Context
	toy     *engine.Toy
	logger  *slog.Logger
	shotDir string

	img *ebiten.Image
}

func (g *demoGame) Update() error {
	switch {
	case ebiten.IsKeyPressed(ebiten.KeyEscape):
		return ebiten.Termination
	case inpututilJustPressed(ebiten.KeyP):
		g.ctx.TogglePause()
	case inpututilJustPressed(ebiten.KeyR):
		if popped, err := g.ctx.Rewind(60); err != nil {
			g.logger.Warn("gbasupdemo: rewind failed", "error", err)
		} else {
			g.logger.Info("gbasupdemo: rewound", "snapshots", popped)
		}
	case inpututilJustPressed(ebiten.KeyF2):
		g.takeScreenshot()
	}
	return nil
}

func (g *demoGame) takeScreenshot() {
	path, err := screenshot.NextPath(g.shotDir, "gbasupdemo")
	if err != nil {
		g.logger.Warn("gbasupdemo: screenshot path", "error", err)
		return
	}

	guard := g.ctx.WaitFrameStart(0)
	defer guard.Close()
	if !guard.Ready() {
		return
	}
	if err := g.ctx.Screenshot(guard, path); err != nil {
		g.logger.Warn("gbasupdemo: screenshot failed", "error", err)
	}
}

func (g *demoGame) Draw(screen *ebiten.Image) {
	guard := g.ctx.WaitFrameStart(0)
	ready := guard.Ready()
	var stride int
	var pixels []byte
	if ready {
		stride, pixels = g.toy.GetPixels()
	}
	guard.Close()

	if !ready {
		return
	}

	if g.img == nil {
		g.img = ebiten.NewImage(toyWidth, toyHeight)
	}
	g.img.WritePixels(packRGBA(stride, toyWidth, toyHeight, pixels))

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(winScale, winScale)
	screen.DrawImage(g.img, op)
}

func (g *demoGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return toyWidth * winScale, toyHeight * winScale
}

// packRGBA copies a stride-aligned framebuffer into a tightly packed
// RGBA buffer, the shape ebiten.Image.WritePixels requires.
func packRGBA(stride, width, height int, pixels []byte) []byte {
	out := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		src := y * stride
		dst := y * width * 4
		n := width * 4
		if src+n > len(pixels) {
			n = len(pixels) - src
		}
		if n <= 0 {
			break
		}
		copy(out[dst:dst+n], pixels[src:src+n])
	}
	return out
}

// inpututilJustPressed is a thin, dependency-light stand-in for
// inpututil.IsKeyJustPressed: this demo only needs single-key toggles,
// so it tracks its own previous-frame state rather than pulling in the
// inpututil package for one call.
var keyWasDown = map[ebiten.Key]bool{}

func inpututilJustPressed(key ebiten.Key) bool {
	down := ebiten.IsKeyPressed(key)
	was := keyWasDown[key]
	keyWasDown[key] = down
	return down && !was
}
