package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/imagekit/internal/cli/ui"
	"github.com/ironsheep/imagekit/internal/imaging"
	"github.com/ironsheep/imagekit/internal/pipeline"
)

func newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply FILE",
		Short: "Apply operations to an image and save it",
		Long: `Apply operations in the order given and save the result in the source
image's format. Either --output or --in-place is required.`,
		Example: `  imagekit apply photo.jpg --op crop=800x600+100+50 --op scale=400 -o small.jpg
  imagekit apply logo.png --op flatten=#ffffff --quality 9 --in-place`,
		Args: cobra.ExactArgs(1),
		RunE: runApply,
	}
	cmd.Flags().StringArray("op", nil, "Operation to apply (repeatable)")
	cmd.Flags().StringP("output", "o", "", "Write the result to this file")
	cmd.Flags().Bool("in-place", false, "Overwrite the source file")
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing output file")
	cmd.Flags().Int("quality", 0, "Encoder quality: 0-9 for PNG, 0-100 for JPEG")
	cmd.Flags().Int("dpi", 0, "Resolution to stamp on the output")
	return cmd
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	ops, _ := cmd.Flags().GetStringArray("op")
	p, err := pipeline.Parse(ops)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	inPlace, _ := cmd.Flags().GetBool("in-place")
	force, _ := cmd.Flags().GetBool("force")
	switch {
	case output == "" && !inPlace:
		return errors.New("either --output or --in-place is required")
	case output != "" && inPlace:
		return errors.New("--output and --in-place cannot be used together")
	}
	if output != "" && !force && !cfg.Output.Overwrite {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", output)
		}
	}

	img, err := imaging.Open(args[0], imaging.WithLogger(log))
	if err != nil {
		return err
	}
	defer img.Destroy()

	if err := p.Apply(img, opener(log)); err != nil {
		return err
	}
	if cmd.Flags().Changed("quality") {
		q, _ := cmd.Flags().GetInt("quality")
		if err := img.SetQuality(q); err != nil {
			return err
		}
	}
	dpi := cfg.Output.DefaultDPI
	if cmd.Flags().Changed("dpi") {
		dpi, _ = cmd.Flags().GetInt("dpi")
	}
	if dpi != 0 {
		if err := img.SetResolution(dpi, dpi); err != nil {
			return err
		}
	}

	if err := img.Save(output); err != nil {
		return err
	}

	dest := output
	if dest == "" {
		dest = img.Path()
	}
	log.Debug("image saved", "path", dest, "ops", p.String())
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Success(fmt.Sprintf("wrote %s (%dx%d %s)", dest, img.Width(), img.Height(), img.Format()), colorFor(out)))
	return nil
}

func opener(log *slog.Logger) pipeline.Opener {
	return func(path string) (*imaging.Image, error) {
		return imaging.Open(path, imaging.WithLogger(log))
	}
}
