package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print imagekit version",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"version": buildVersion,
					"commit":  buildCommit,
					"date":    buildDate,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imagekit %s (commit: %s, built: %s)\n", buildVersion, buildCommit, buildDate)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}
