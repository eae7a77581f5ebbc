package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/imagekit/internal/cli/ui"
	"github.com/ironsheep/imagekit/internal/imaging"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "Check that files exist, are readable and are supported images",
		Long: `Check each file without decoding it. The command fails when any file is
not an acceptable PNG, JPEG or GIF image.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			color := colorFor(out)

			rejected := 0
			for _, path := range args {
				if imaging.IsAcceptable(path) {
					fmt.Fprintln(out, ui.Success(path, color))
					continue
				}
				rejected++
				fmt.Fprintln(out, ui.Failure(path, color))
			}
			if rejected > 0 {
				return fmt.Errorf("%d of %d files are not acceptable images", rejected, len(args))
			}
			return nil
		},
	}
}
