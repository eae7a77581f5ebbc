package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ironsheep/imagekit/internal/httpapi"
)

func newHTTPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve images from a directory over HTTP",
		Long: `Serve the images under --root. Operations are passed as repeated op
query parameters and applied before the image is sent:

  GET /images/photo.jpg?op=scale=320&op=filter=grayscale
  GET /images/photo.jpg/info
  GET /images/photo.jpg/datauri`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			srv, err := httpapi.New(cfg.HTTP, log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default 127.0.0.1:8080)")
	cmd.Flags().String("root", "", "Directory to serve images from (default .)")
	return cmd
}
