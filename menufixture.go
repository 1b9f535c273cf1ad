package menufixture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/foodiepass/menufixture/config"
	"github.com/k1LoW/errors"
)

const (
	// DefaultOutput is where the fixture is written, relative to the working directory.
	DefaultOutput  = "backend/src/test/resources/images/test-menu.jpg"
	DefaultQuality = 95
)

type Generator struct {
	output      string
	quality     int
	width       int
	height      int
	menu        *Menu
	candidates  []string
	systemFonts bool
	httpClient  *http.Client
	cacheDir    string
	logger      *slog.Logger
}

type Option func(*Generator) error

func WithOutput(p string) Option {
	return func(g *Generator) error {
		if p == "" {
			return nil
		}
		g.output = p
		return nil
	}
}

func WithQuality(q int) Option {
	return func(g *Generator) error {
		if q < 1 || q > 100 {
			return fmt.Errorf("invalid JPEG quality: %d, must be between 1 and 100", q)
		}
		g.quality = q
		return nil
	}
}

// WithFontCandidates adds font locators that are tried before the default ones.
// A locator is a file path or an http(s) URL.
func WithFontCandidates(locators ...string) Option {
	return func(g *Generator) error {
		g.candidates = append(g.candidates, locators...)
		return nil
	}
}

// WithoutSystemFonts skips DefaultFontCandidates.
func WithoutSystemFonts() Option {
	return func(g *Generator) error {
		g.systemFonts = false
		return nil
	}
}

func WithMenu(m *Menu) Option {
	return func(g *Generator) error {
		if err := m.Validate(g.height); err != nil {
			return fmt.Errorf("invalid menu: %w", err)
		}
		g.menu = m
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) error {
		g.logger = logger
		return nil
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(g *Generator) error {
		g.httpClient = client
		return nil
	}
}

func WithFontCacheDir(dir string) Option {
	return func(g *Generator) error {
		g.cacheDir = dir
		return nil
	}
}

// Result describes a written fixture.
type Result struct {
	Path   string
	Width  int
	Height int
	Size   int64
	Font   string
}

// SizeKB returns the file size in kilobytes.
func (r *Result) SizeKB() float64 {
	return float64(r.Size) / 1024
}

// New creates a new Generator.
func New(opts ...Option) (_ *Generator, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	g := &Generator{
		output:      DefaultOutput,
		quality:     DefaultQuality,
		width:       CanvasWidth,
		height:      CanvasHeight,
		menu:        DefaultMenu(),
		systemFonts: true,
		cacheDir:    filepath.Join(config.DataHomePath(), "fonts"),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	if g.httpClient == nil {
		g.httpClient = newRetryClient(g.logger)
	}
	return g, nil
}

// Output returns the absolute path the fixture is written to.
func (g *Generator) Output() (string, error) {
	return filepath.Abs(g.output)
}

// FontCandidates returns every locator in the order they are tried.
func (g *Generator) FontCandidates() []string {
	candidates := append([]string{}, g.candidates...)
	if g.systemFonts {
		candidates = append(candidates, DefaultFontCandidates...)
	}
	return candidates
}

func (g *Generator) fontLoader() *fontLoader {
	return &fontLoader{
		fetcher: &fontFetcher{
			client:   g.httpClient,
			cacheDir: g.cacheDir,
			logger:   g.logger,
		},
		probe:  g.menu.Runes(),
		logger: g.logger,
	}
}

// CheckFont reports whether the font at locator can be used.
func (g *Generator) CheckFont(ctx context.Context, locator string) error {
	faces, err := g.fontLoader().load(ctx, locator)
	if err != nil {
		return err
	}
	return faces.Close()
}

// Render draws the menu onto a new canvas and returns it with the source of the faces used.
func (g *Generator) Render(ctx context.Context) (_ *image.RGBA, _ string, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	faces := g.fontLoader().Load(ctx, g.FontCandidates())
	defer func() {
		if cerr := faces.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	img := NewCanvas(g.width, g.height)
	if err := Render(img, g.menu, faces); err != nil {
		return nil, "", err
	}
	for _, l := range g.menu.Lines {
		g.logger.Info("drew menu line", slog.String("text", l.Text), slog.Int("y", l.Y))
	}
	g.logger.Info("rendered menu", slog.String("font", faces.Source()))
	return img, faces.Source(), nil
}

// Generate renders the menu and writes it as a JPEG, replacing any existing file.
func (g *Generator) Generate(ctx context.Context) (_ *Result, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	img, source, err := g.Render(ctx)
	if err != nil {
		return nil, err
	}
	p, err := g.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output path %s: %w", g.output, err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: g.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write image to %s: %w", p, err)
	}
	fi, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image %s: %w", p, err)
	}
	g.logger.Info("fixture written", slog.String("path", p), slog.Int64("bytes", fi.Size()))
	return &Result{
		Path:   p,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Size:   fi.Size(),
		Font:   source,
	}, nil
}
