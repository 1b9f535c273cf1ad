package menufixture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/k1LoW/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// BuiltinFont is the locator reported when no candidate could be loaded.
const BuiltinFont = "builtin"

const fontDPI = 72

// DefaultFontCandidates are tried in order until one of them can be loaded.
// Hiragino comes first so that fixtures generated on macOS keep their original look.
var DefaultFontCandidates = []string{
	"/System/Library/Fonts/ヒラギノ角ゴシック W4.ttc",
	"/System/Library/Fonts/Hiragino Sans GB.ttc",
	"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/noto-cjk/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/google-noto-cjk/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/truetype/fonts-japanese-gothic.ttf",
	`C:\Windows\Fonts\YuGothM.ttc`,
	`C:\Windows\Fonts\msgothic.ttc`,
}

// Faces holds one font face per FontSize, all taken from the same font resource.
type Faces struct {
	source string
	faces  map[FontSize]font.Face
}

// Source returns the locator the faces were loaded from.
func (f *Faces) Source() string {
	return f.source
}

func (f *Faces) Face(s FontSize) (font.Face, error) {
	face, ok := f.faces[s]
	if !ok {
		return nil, fmt.Errorf("no face for font size: %q", s)
	}
	return face, nil
}

func (f *Faces) Close() error {
	var errs []error
	for _, face := range f.faces {
		if err := face.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// builtinFaces never fails, but the face only covers ASCII and Latin-1.
func builtinFaces() *Faces {
	return &Faces{
		source: BuiltinFont,
		faces: map[FontSize]font.Face{
			FontSizeLarge:  basicfont.Face7x13,
			FontSizeMedium: basicfont.Face7x13,
		},
	}
}

type fontLoader struct {
	fetcher *fontFetcher
	probe   []rune
	logger  *slog.Logger
}

// Load returns the faces of the first candidate that can be loaded.
// If none can, the built-in face is returned.
func (l *fontLoader) Load(ctx context.Context, candidates []string) *Faces {
	for _, c := range candidates {
		l.logger.Debug("trying font candidate", slog.String("font", c))
		faces, err := l.load(ctx, c)
		if err != nil {
			l.logger.Info("font candidate unavailable", slog.String("font", c), slog.String("error", err.Error()))
			continue
		}
		l.logger.Info("loaded font", slog.String("font", c))
		return faces
	}
	l.logger.Warn("fell back to built-in font, non-Latin glyphs may not render")
	return builtinFaces()
}

func (l *fontLoader) load(ctx context.Context, locator string) (_ *Faces, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	b, err := l.read(ctx, locator)
	if err != nil {
		return nil, err
	}
	f, err := parseFont(b, l.probe)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", locator, err)
	}
	return newFaces(locator, f)
}

func (l *fontLoader) read(ctx context.Context, locator string) ([]byte, error) {
	if isRemoteLocator(locator) {
		if l.fetcher == nil {
			return nil, fmt.Errorf("remote font is not supported: %s", locator)
		}
		return l.fetcher.Fetch(ctx, locator)
	}
	b, err := os.ReadFile(locator)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file %s: %w", locator, err)
	}
	return b, nil
}

func isRemoteLocator(locator string) bool {
	return strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://")
}

// parseFont parses a single font or a font collection.
// For a collection, the first member covering every probe rune wins, otherwise the first member.
func parseFont(b []byte, probe []rune) (*opentype.Font, error) {
	c, err := opentype.ParseCollection(b)
	if err != nil {
		return nil, err
	}
	var (
		first *opentype.Font
		buf   sfnt.Buffer
	)
	for i := 0; i < c.NumFonts(); i++ {
		f, err := c.Font(i)
		if err != nil {
			return nil, err
		}
		if first == nil {
			first = f
		}
		if covers(f, &buf, probe) {
			return f, nil
		}
	}
	if first == nil {
		return nil, fmt.Errorf("font collection is empty")
	}
	return first, nil
}

func covers(f *opentype.Font, buf *sfnt.Buffer, probe []rune) bool {
	for _, r := range probe {
		idx, err := f.GlyphIndex(buf, r)
		if err != nil || idx == 0 {
			return false
		}
	}
	return true
}

func newFaces(source string, f *opentype.Font) (_ *Faces, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	faces := &Faces{
		source: source,
		faces:  map[FontSize]font.Face{},
	}
	for _, s := range []FontSize{FontSizeLarge, FontSizeMedium} {
		size, err := s.Points()
		if err != nil {
			return nil, err
		}
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    size,
			DPI:     fontDPI,
			Hinting: font.HintingFull,
		})
		if err != nil {
			_ = faces.Close()
			return nil, fmt.Errorf("failed to create %s face from %s: %w", s, source, err)
		}
		faces.faces[s] = face
	}
	return faces, nil
}
