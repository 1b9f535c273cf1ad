package dot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/k1LoW/errors"
)

var (
	yellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

var _ slog.Handler = (*dotHandler)(nil)

// dotHandler prints one glyph per generation step instead of log lines.
type dotHandler struct {
	handler slog.Handler
	spinner *spinner.Spinner
	out     io.Writer
	prefix  []byte
}

func New(h slog.Handler, out io.Writer) (_ *dotHandler, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	if err := s.Color("yellow"); err != nil {
		return nil, err
	}
	s.Start()
	s.Disable()
	return &dotHandler{
		handler: h,
		spinner: s,
		out:     out,
	}, nil
}

func (h *dotHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *dotHandler) Handle(ctx context.Context, r slog.Record) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()

	if strings.HasPrefix(r.Message, "retrying") || r.Message == "fetching font" {
		if !h.spinner.Enabled() {
			h.spinner.Enable()
		}
		return nil
	}
	if h.spinner.Enabled() {
		h.spinner.Disable()
		_, _ = h.out.Write(h.prefix)
	}
	switch {
	case r.Message == "font candidate unavailable":
		return h.write([]byte(gray("-")))
	case r.Message == "loaded font":
		return h.write([]byte(green("+")))
	case strings.HasPrefix(r.Message, "fell back"):
		return h.write([]byte(red("!")))
	case r.Message == "drew menu line":
		return h.write([]byte(yellow(".")))
	case strings.Contains(r.Message, "failed to"):
		return h.write([]byte(red("!")))
	case r.Message == "rendered menu":
		_, _ = h.out.Write([]byte("\n"))
		h.prefix = nil
		return nil
	}
	return nil
}

func (h *dotHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dotHandler{handler: h.handler.WithAttrs(attrs), spinner: h.spinner, out: h.out}
}

func (h *dotHandler) WithGroup(name string) slog.Handler {
	return &dotHandler{handler: h.handler.WithGroup(name), spinner: h.spinner, out: h.out}
}

// Stop stops the spinner goroutine.
func (h *dotHandler) Stop() {
	h.spinner.Stop()
}

func (h *dotHandler) write(s []byte) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()

	_, err = h.out.Write(s)
	if err != nil {
		return err
	}
	h.prefix = append(h.prefix, s...)
	return nil
}
