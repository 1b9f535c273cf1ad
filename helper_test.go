package menufixture

import (
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeGoRegular writes the Go Regular font into a temporary directory and returns its path.
func writeGoRegular(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "goregular.ttf")
	if err := os.WriteFile(p, goregular.TTF, 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func darkPixels(img image.Image, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			if g.Y < 128 {
				n++
			}
		}
	}
	return n
}
