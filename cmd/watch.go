package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/foodiepass/menufixture/config"
	"github.com/fsnotify/fsnotify"
	"github.com/k1LoW/errors"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "regenerate the fixture whenever the config file changes",
	Long:  `regenerate the fixture whenever the config file changes.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			err = errors.WithStack(err)
		}()
		ctx := cmd.Context()
		logger, stop, err := newLogger(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer stop()

		generate := func() error {
			g, err := newGenerator(cmd, logger)
			if err != nil {
				return err
			}
			res, err := g.Generate(ctx)
			if err != nil {
				return err
			}
			report(cmd.OutOrStdout(), res)
			return nil
		}
		if err := generate(); err != nil {
			return err
		}

		// Watch the directory, editors often replace the file instead of writing to it
		dir := config.ConfigHomePath()
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer watcher.Close()
		if err := watcher.Add(dir); err != nil {
			return err
		}
		targets := config.Candidates(profile)
		cmd.Printf("Watching %s\n", dir)
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !slices.Contains(targets, filepath.Clean(ev.Name)) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				logger.Info("config changed", slog.String("path", ev.Name))
				if err := generate(); err != nil {
					logger.Error("failed to regenerate fixture", slog.String("error", err.Error()))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				return err
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
