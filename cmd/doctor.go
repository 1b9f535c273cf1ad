package cmd

import (
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/foodiepass/menufixture/config"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check which fonts and configuration menufixture would use",
	Long:  `Check which fonts and configuration menufixture would use.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		green := color.New(color.FgGreen)
		red := color.New(color.FgRed)
		yellow := color.New(color.FgYellow)
		bold := color.New(color.Bold)
		w := cmd.OutOrStdout()

		// 1. Check configuration file (optional)
		cmd.Print("🔧 Checking configuration file ... ")
		cfg, err := config.Load(profile)
		switch {
		case err != nil:
			_, _ = yellow.Fprintln(w, "⚠️ CONFIG ERROR")
			cmd.Printf("   Error loading config: %v\n", err)
			return nil
		case cfg.Path() == "":
			_, _ = green.Fprintln(w, "✓ OK")
			cmd.Println("   No configuration file, using defaults")
		default:
			_, _ = green.Fprintln(w, "✓ OK")
			cmd.Printf("   Configuration file: %s\n", cfg.Path())
		}

		// 2. Check font candidates in order
		g, err := newGenerator(cmd, slog.New(slog.NewTextHandler(io.Discard, nil)))
		if err != nil {
			return err
		}
		selected := ""
		for _, c := range g.FontCandidates() {
			cmd.Printf("🔍 Checking font %s ... ", c)
			if err := g.CheckFont(ctx, c); err != nil {
				_, _ = red.Fprintln(w, "✗ UNAVAILABLE")
				continue
			}
			if selected == "" {
				selected = c
				_, _ = green.Fprintln(w, "✓ OK (selected)")
				continue
			}
			_, _ = green.Fprintln(w, "✓ OK")
		}

		// Final message
		cmd.Println()
		if selected != "" {
			_, _ = bold.Fprint(w, "🎉 ")
			_, _ = green.Fprintf(w, "Japanese text will be rendered with %s\n", selected)
			return nil
		}
		_, _ = red.Fprintln(w, "⚠️  No font candidate is available.")
		cmd.Println("The built-in font will be used and Japanese text will not render.")
		cmd.Println("Install a Japanese font or pass one with --font.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
