package cmd

import (
	"log/slog"

	"github.com/foodiepass/menufixture"
	"github.com/foodiepass/menufixture/config"
	"github.com/k1LoW/errors"
	"github.com/spf13/cobra"
)

type flags struct {
	out         string
	quality     int
	fonts       []string
	builtinFont bool
	// qualitySet is true when --quality was given, even as 0
	qualitySet bool
}

type settings struct {
	output      string
	quality     int
	fonts       []string
	systemFonts bool
}

// resolve merges command line flags over the config file over the defaults.
func resolve(f flags, cfg *config.Config) settings {
	s := settings{
		output:      menufixture.DefaultOutput,
		quality:     menufixture.DefaultQuality,
		systemFonts: true,
	}
	if cfg.Output != "" {
		s.output = cfg.Output
	}
	if f.out != "" {
		s.output = f.out
	}
	if cfg.Quality != nil {
		s.quality = *cfg.Quality
	}
	if f.qualitySet {
		s.quality = f.quality
	}
	s.fonts = append(append(s.fonts, f.fonts...), cfg.Fonts...)
	if f.builtinFont || (cfg.BuiltinFont != nil && *cfg.BuiltinFont) {
		s.systemFonts = false
	}
	return s
}

func (s settings) options() []menufixture.Option {
	opts := []menufixture.Option{
		menufixture.WithOutput(s.output),
		menufixture.WithQuality(s.quality),
		menufixture.WithFontCandidates(s.fonts...),
	}
	if !s.systemFonts {
		opts = append(opts, menufixture.WithoutSystemFonts())
	}
	return opts
}

func newGenerator(cmd *cobra.Command, logger *slog.Logger) (_ *menufixture.Generator, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	cfg, err := config.Load(profile)
	if err != nil {
		return nil, err
	}
	if cfg.Path() != "" {
		logger.Debug("loaded config", slog.String("path", cfg.Path()))
	}
	f := gf
	f.qualitySet = cmd.Flags().Changed("quality")
	opts := append(resolve(f, cfg).options(), menufixture.WithLogger(logger))
	return menufixture.New(opts...)
}
