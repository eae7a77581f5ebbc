package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/imagekit/internal/imaging"
	"github.com/ironsheep/imagekit/internal/pipeline"
)

func newDataURICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datauri FILE",
		Short: "Print an image, optionally transformed, as a data: URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, err := setup(cmd)
			if err != nil {
				return err
			}
			ops, _ := cmd.Flags().GetStringArray("op")
			p, err := pipeline.Parse(ops)
			if err != nil {
				return err
			}

			img, err := imaging.Open(args[0], imaging.WithLogger(log))
			if err != nil {
				return err
			}
			defer img.Destroy()

			if err := p.Apply(img, opener(log)); err != nil {
				return err
			}
			uri, err := img.DataURI()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), uri)
			return nil
		},
	}
	cmd.Flags().StringArray("op", nil, "Operation to apply first (repeatable)")
	return cmd
}
