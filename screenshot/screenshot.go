// Package screenshot writes the engine's current video back buffer to a
// PNG file at an auto-incremented path. It is only safe to call while the
// caller holds the equivalent of the video mutex — in practice, while
// holding a *gbasup.FrameGuard obtained from WaitFrameStart.
package screenshot

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
)

// Write encodes an RGBA8888 framebuffer (stride bytes per row, width x
// height pixels) as a PNG at path.
func Write(path string, stride, width, height int, pixels []byte) error {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		rowStart := y * stride
		for x := 0; x < width; x++ {
			i := rowStart + x*4
			if i+3 >= len(pixels) {
				break
			}
			img.Set(x, y, color.RGBA{
				R: pixels[i],
				G: pixels[i+1],
				B: pixels[i+2],
				A: pixels[i+3],
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}

// NextPath finds the first "<prefix>-NNNN.png" under dir that does not
// already exist, starting the search at 1 — the auto-incremented path the
// screenshot helper contract calls for.
func NextPath(dir, prefix string) (string, error) {
	for i := 1; i < 1_000_000; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s-%04d.png", prefix, i))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("screenshot: exhausted candidate paths under %s", dir)
}
