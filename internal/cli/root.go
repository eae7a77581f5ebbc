// Package cli implements the imagekit command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ironsheep/imagekit/internal/cli/ui"
	"github.com/ironsheep/imagekit/internal/config"
	"github.com/ironsheep/imagekit/internal/imaging"
	"github.com/ironsheep/imagekit/internal/logging"
)

var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersion is called from main to inject build-time version info.
func SetVersion(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
}

// configFlagNames are the flags that override config values, keyed the way
// config.Load expects them.
var configFlagNames = map[string]bool{
	"log-level":   true,
	"log-format":  true,
	"addr":        true,
	"root":        true,
	"max-handles": true,
}

// NewRootCmd builds the imagekit command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "imagekit",
		Short: "Inspect, transform and serve PNG, JPEG and GIF images",
		Long: `imagekit opens PNG, JPEG and GIF images, transforms them with a small
operation language and writes them back, as a command line tool, an MCP tool
server or an HTTP image server.

Operations:
  crop=WxH[+L+T]  scale=W[xH]  rotate=DEG  flip=h|v|b  flatten[=COLOR]
  filter=NAME[:A,B,...]  opacity=PCT  quality=Q  resolution=H[xV]
  watermark=PATH[@L,T]

Examples:
  imagekit info photo.jpg
  imagekit apply photo.png --op scale=400 --op flip=h -o thumb.png
  imagekit serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "Config file (default "+config.DefaultPath+" when present)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	root.PersistentFlags().String("log-format", "", "Log format: text or json")

	root.AddCommand(
		newInfoCmd(),
		newCheckCmd(),
		newApplyCmd(),
		newDataURICmd(),
		newFormatsCmd(),
		newServeCmd(),
		newHTTPCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and reports a failure on stderr.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError(err.Error(), ui.ColorEnabledFd(os.Stderr.Fd()), suggestionsFor(err)...))
	}
	return err
}

func suggestionsFor(err error) []string {
	switch {
	case errors.Is(err, imaging.ErrUnsupported):
		return []string{"imagekit formats", "imagekit check FILE"}
	case errors.Is(err, imaging.ErrInvalidOperation):
		return []string{"imagekit info FILE"}
	}
	return nil
}

// loadConfig reads the config file named by --config, the environment and
// any config-bearing flags set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
	}
	return config.Load(path, configFlags(cmd.Flags()))
}

func configFlags(fs *pflag.FlagSet) map[string]string {
	flags := map[string]string{}
	fs.Visit(func(f *pflag.Flag) {
		if configFlagNames[f.Name] {
			flags[f.Name] = f.Value.String()
		}
	})
	return flags
}

// setup loads the config and builds a logger writing to stderr. stdout is
// reserved for command output and, under serve, for the MCP protocol.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	log, _ := logging.New(cfg.Logging, cmd.ErrOrStderr())
	return cfg, log, nil
}

// colorFor reports whether output written to w should be styled.
func colorFor(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && ui.ColorEnabledFd(f.Fd())
}
