package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/foodiepass/menufixture"
	"github.com/foodiepass/menufixture/config"
	"github.com/foodiepass/menufixture/version"
	"github.com/k1LoW/errors"
	"github.com/mattn/go-colorable"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var (
	profile  string
	verbose  bool
	openFile bool
	gf       flags
)

var rootCmd = &cobra.Command{
	Use:   "menufixture",
	Short: "menufixture generates a Japanese menu image for OCR tests",
	Long: `menufixture generates a Japanese menu image for OCR tests.

The image is written to ` + menufixture.DefaultOutput + ` relative to the
current directory, so run it from the repository root. Missing directories are
created and an existing image is overwritten.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	Version:      fmt.Sprintf("%s (rev:%s)", version.Version, version.Revision),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, stop, err := newLogger(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer stop()
		g, err := newGenerator(cmd, logger)
		if err != nil {
			return err
		}
		res, err := g.Generate(cmd.Context())
		if err != nil {
			return err
		}
		report(cmd.OutOrStdout(), res)
		if openFile {
			return browser.OpenFile(res.Path)
		}
		return nil
	},
}

type errorData struct {
	LatestLogs  []any     `json:"latest_logs"`
	StackTraces any       `json:"stack_traces"`
	CreatedAt   time.Time `json:"created_at"`
	Version     string    `json:"version"`
	Revision    string    `json:"revision"`
}

func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	rootCmd.SetOut(colorable.NewColorableStdout())
	rootCmd.SetErr(colorable.NewColorableStderr())
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Write stack trace log to state directory
		var latestLogs []any
		for _, line := range tb.Lines() {
			var m map[string]any
			if err := json.Unmarshal([]byte(line), &m); err != nil {
				latestLogs = append(latestLogs, line)
			} else {
				latestLogs = append(latestLogs, m)
			}
		}
		d := &errorData{
			LatestLogs:  latestLogs,
			StackTraces: errors.StackTraces(err),
			CreatedAt:   time.Now(),
			Version:     version.Version,
			Revision:    version.Revision,
		}
		b, err := json.Marshal(d)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		} else {
			dumpPath := filepath.Join(config.StateHomePath(), "error.json")
			if err := os.MkdirAll(filepath.Dir(dumpPath), 0o700); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "failed to create %s: %v\n", filepath.Dir(dumpPath), err)
			} else if err := os.WriteFile(dumpPath, b, 0o600); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "failed to write error.json to %s: %v\n", dumpPath, err)
			}
		}
		cancel()
		os.Exit(1)
	}
}

func report(w io.Writer, res *menufixture.Result) {
	_, _ = color.New(color.FgGreen).Fprintf(w, "✅ Test menu image created: %s\n", res.Path)
	_, _ = fmt.Fprintf(w, "📏 Image size: %dx%d\n", res.Width, res.Height)
	_, _ = fmt.Fprintf(w, "💾 File size: %.2f KB\n", res.SizeKB())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "", "", "profile name")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print logs instead of progress")
	rootCmd.PersistentFlags().StringVarP(&gf.out, "out", "o", "", fmt.Sprintf("output file (default %q)", menufixture.DefaultOutput))
	rootCmd.PersistentFlags().IntVarP(&gf.quality, "quality", "q", 0, fmt.Sprintf("JPEG quality (default %d)", menufixture.DefaultQuality))
	rootCmd.PersistentFlags().StringArrayVarP(&gf.fonts, "font", "", nil, "font file path or URL to try before the system fonts")
	rootCmd.PersistentFlags().BoolVarP(&gf.builtinFont, "builtin-font", "", false, "skip the system fonts")
	rootCmd.Flags().BoolVarP(&openFile, "open", "", false, "open the generated image")
}
