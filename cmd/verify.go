package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/foodiepass/menufixture"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [IMAGE_FILE]",
	Short: "verify that the fixture matches what would be generated now",
	Long:  `verify that the fixture is an 800x600 JPEG and looks like a fresh render of the menu.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger, stop, err := newLogger(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer stop()
		g, err := newGenerator(cmd, logger)
		if err != nil {
			return err
		}
		p, err := g.Output()
		if err != nil {
			return err
		}
		if len(args) > 0 {
			p = args[0]
		}
		f, err := menufixture.Inspect(p)
		if err != nil {
			return err
		}
		img, source, err := g.Render(ctx)
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		mark := func(ok bool) string {
			if ok {
				return green("✓")
			}
			return red("✗")
		}
		formatOK := f.MIMEType() == menufixture.MIMETypeImageJPEG
		sizeOK := f.Width() == img.Bounds().Dx() && f.Height() == img.Bounds().Dy()
		distance, err := f.Distance(img)
		if err != nil {
			return err
		}
		contentOK := f.Equivalent(img)

		cmd.Printf("%s format: %s\n", mark(formatOK), f.MIMEType())
		cmd.Printf("%s size: %dx%d\n", mark(sizeOK), f.Width(), f.Height())
		cmd.Printf("%s content: distance %d from a render with %s\n", mark(contentOK), distance, source)
		if !formatOK || !sizeOK || !contentOK {
			return fmt.Errorf("fixture %s does not match the menu", p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
