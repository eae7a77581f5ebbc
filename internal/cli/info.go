package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ironsheep/imagekit/internal/cli/ui"
	"github.com/ironsheep/imagekit/internal/imaging"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info FILE...",
		Short: "Show dimensions, format, quality and resolution of images",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runInfo,
	}
	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}

func runInfo(cmd *cobra.Command, args []string) error {
	_, log, err := setup(cmd)
	if err != nil {
		return err
	}

	infos := make([]imaging.Info, 0, len(args))
	for _, path := range args {
		img, err := imaging.Open(path, imaging.WithLogger(log))
		if err != nil {
			return err
		}
		infos = append(infos, img.Info())
		img.Destroy()
	}

	out := cmd.OutOrStdout()
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	color := colorFor(out)
	for i, info := range infos {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprint(out, ui.KeyValues(infoFields(info), color))
	}
	return nil
}

func infoFields(info imaging.Info) []ui.Field {
	quality := "n/a"
	if info.Quality != nil {
		quality = strconv.Itoa(*info.Quality)
	}
	return []ui.Field{
		{Label: "File", Value: info.Path},
		{Label: "Format", Value: fmt.Sprintf("%s (%s, .%s)", info.Format, info.Mime, info.Extension)},
		{Label: "Size", Value: fmt.Sprintf("%dx%d", info.Width, info.Height)},
		{Label: "Quality", Value: quality},
		{Label: "Resolution", Value: fmt.Sprintf("%dx%d dpi", info.HorizDPI, info.VertDPI)},
		{Label: "Alpha", Value: strconv.FormatBool(info.SaveAlpha)},
	}
}
