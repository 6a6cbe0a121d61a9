package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fetchRefresh bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the incident workbook into the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireConfig(); err != nil {
			return err
		}
		if cfg.SourcePath != "" {
			fmt.Printf("✓ Using local workbook %s (nothing to download)\n", cfg.SourcePath)
			return nil
		}
		r := newRemote()
		if fetchRefresh {
			if err := r.Refresh(); err != nil {
				return err
			}
		}
		p, err := r.Locate(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("✓ Dataset cached at %s\n", p)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().BoolVar(&fetchRefresh, "refresh", false, "discard the cached copy and download again")
}
