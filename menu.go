package menufixture

import (
	"fmt"
	"image/color"
)

const (
	// MinLineSpacing is the minimum vertical distance between two consecutive menu lines.
	MinLineSpacing = 80
	defaultMenuX   = 100
)

type FontSize string

const (
	FontSizeLarge  FontSize = "large"
	FontSizeMedium FontSize = "medium"
)

// Points returns the em size of the face in pixels.
func (s FontSize) Points() (float64, error) {
	switch s {
	case FontSizeLarge:
		return 60, nil
	case FontSizeMedium:
		return 40, nil
	default:
		return 0, fmt.Errorf("unknown font size: %q", s)
	}
}

var black = color.RGBA{A: 255}

// MenuLine is a single line of text drawn on the canvas.
type MenuLine struct {
	Text  string     `json:"text"`
	Y     int        `json:"y"`
	Color color.RGBA `json:"color"`
	Size  FontSize   `json:"size"`
}

// Menu is an ordered list of lines sharing the same horizontal offset.
type Menu struct {
	X     int         `json:"x"`
	Lines []*MenuLine `json:"lines"`
}

// DefaultMenu returns the menu rendered into the OCR fixture.
func DefaultMenu() *Menu {
	return &Menu{
		X: defaultMenuX,
		Lines: []*MenuLine{
			{Text: "メニュー", Y: 100, Color: black, Size: FontSizeLarge},
			{Text: "スシ        ¥1000", Y: 200, Color: black, Size: FontSizeMedium},
			{Text: "ラーメン    ¥800", Y: 280, Color: black, Size: FontSizeMedium},
			{Text: "天ぷら      ¥1200", Y: 360, Color: black, Size: FontSizeMedium},
			{Text: "カレー      ¥900", Y: 440, Color: black, Size: FontSizeMedium},
		},
	}
}

// Texts returns the line texts in drawing order.
func (m *Menu) Texts() []string {
	texts := make([]string, 0, len(m.Lines))
	for _, l := range m.Lines {
		texts = append(texts, l.Text)
	}
	return texts
}

// Runes returns the distinct runes used by the menu, in first-seen order.
func (m *Menu) Runes() []rune {
	var runes []rune
	seen := map[rune]struct{}{}
	for _, l := range m.Lines {
		for _, r := range l.Text {
			if r == ' ' {
				continue
			}
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			runes = append(runes, r)
		}
	}
	return runes
}

// Validate checks that the menu fits a canvas of the given height without overlapping lines.
func (m *Menu) Validate(height int) error {
	if m == nil {
		return fmt.Errorf("menu is nil")
	}
	if len(m.Lines) == 0 {
		return fmt.Errorf("menu has no lines")
	}
	if m.X < 0 {
		return fmt.Errorf("invalid horizontal offset: %d", m.X)
	}
	for i, l := range m.Lines {
		if l == nil {
			return fmt.Errorf("line %d is nil", i)
		}
		if _, err := l.Size.Points(); err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
		if l.Y < 0 || l.Y >= height {
			return fmt.Errorf("line %d: vertical offset %d is out of canvas (height: %d)", i, l.Y, height)
		}
		if i == 0 {
			continue
		}
		prev := m.Lines[i-1]
		if l.Y <= prev.Y {
			return fmt.Errorf("line %d: vertical offset %d must be greater than %d", i, l.Y, prev.Y)
		}
		if l.Y-prev.Y < MinLineSpacing {
			return fmt.Errorf("line %d: lines must be at least %dpx apart, got %dpx", i, MinLineSpacing, l.Y-prev.Y)
		}
	}
	return nil
}
