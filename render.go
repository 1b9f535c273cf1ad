package menufixture

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	CanvasWidth  = 800
	CanvasHeight = 600
)

// NewCanvas returns a white canvas of the given size.
func NewCanvas(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return img
}

// Render draws every line of m onto dst in order.
// Each line is positioned by the top-left corner of its text, so the baseline sits one ascent below Y.
func Render(dst draw.Image, m *Menu, faces *Faces) error {
	d := &font.Drawer{
		Dst: dst,
	}
	for i, l := range m.Lines {
		face, err := faces.Face(l.Size)
		if err != nil {
			return fmt.Errorf("failed to draw line %d: %w", i, err)
		}
		d.Face = face
		d.Src = image.NewUniform(l.Color)
		d.Dot = fixed.Point26_6{
			X: fixed.I(m.X),
			Y: fixed.I(l.Y) + face.Metrics().Ascent,
		}
		d.DrawString(l.Text)
	}
	return nil
}
