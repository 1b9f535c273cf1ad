package cmd

import (
	"io"
	"log/slog"

	"github.com/foodiepass/menufixture/handler/dot"
	"github.com/k1LoW/tail"
	slogmulti "github.com/samber/slog-multi"
)

const tailLines = 100

// tb keeps the latest JSON log lines for the error dump.
var tb = tail.New(tailLines)

func newLogger(stderr io.Writer) (_ *slog.Logger, stop func(), err error) {
	tail := slog.NewJSONHandler(tb, &slog.HandlerOptions{Level: slog.LevelDebug})
	if verbose {
		text := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		return slog.New(slogmulti.Fanout(text, tail)), func() {}, nil
	}
	d, err := dot.New(slog.NewTextHandler(io.Discard, nil), stderr)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(slogmulti.Fanout(d, tail)), d.Stop, nil
}
