package cmd

import (
	"fmt"

	"github.com/KaramelBytes/edudanger-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	sumOutputPath string
	sumJSON       bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the filtered incidents (Markdown or JSON)",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		req, err := filterRequest(cmd.Context(), svc)
		if err != nil {
			return err
		}
		res, err := svc.Explore(cmd.Context(), req)
		if err != nil {
			return err
		}
		s := res.Summary()
		if s.Incidents == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "⚠ Warning: no incidents match the filters")
		}

		var out []byte
		if sumJSON {
			if out, err = utils.PrettyJSON(s); err != nil {
				return err
			}
			out = append(out, '\n')
		} else {
			out = []byte(s.Markdown())
		}
		if err := utils.WriteOutput(sumOutputPath, out); err != nil {
			return err
		}
		if sumOutputPath != "" && sumOutputPath != "-" {
			fmt.Printf("✓ Wrote summary of %d incidents to %s\n", s.Incidents, sumOutputPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	addFilterFlags(summaryCmd)
	summaryCmd.Flags().StringVarP(&sumOutputPath, "output", "o", "", "optional path to write the summary (default stdout)")
	summaryCmd.Flags().BoolVar(&sumJSON, "json", false, "emit JSON instead of Markdown")
}
