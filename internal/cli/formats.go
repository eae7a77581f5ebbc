package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ironsheep/imagekit/internal/format"
)

func newFormatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List supported formats and their quality ranges",
		RunE: func(cmd *cobra.Command, args []string) error {
			var policies []format.Policy
			for _, f := range format.Supported() {
				if p, ok := format.Lookup(f); ok {
					policies = append(policies, p)
				}
			}

			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(policies)
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "FORMAT\tMIME\tEXTENSIONS\tQUALITY\tALPHA")
			for _, p := range policies {
				quality := "-"
				if p.QualityApplicable {
					quality = fmt.Sprintf("%d-%d (default %d)", p.MinQuality, p.MaxQuality, p.DefaultQuality)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", p.Name, p.Mime, strings.Join(p.Extensions, ","), quality, p.PreserveAlpha)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}
