package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ironsheep/imagekit/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP tool server on stdin/stdout",
		Long: `Run imagekit as an MCP (Model Context Protocol) server. The protocol is
spoken on stdin/stdout; logs go to stderr. Configure it in your MCP client as
the command "imagekit serve".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			if cfg.Server.Version == "dev" {
				cfg.Server.Version = buildVersion
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info("mcp server starting", "name", cfg.Server.Name, "version", cfg.Server.Version,
				"max_handles", cfg.Server.MaxHandles)
			return server.New(cfg.Server, log).Run(ctx)
		},
	}
	cmd.Flags().Int("max-handles", 0, "Maximum number of images held open at once")
	return cmd
}
