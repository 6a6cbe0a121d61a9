package cmd

import (
	"fmt"

	"github.com/KaramelBytes/edudanger-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	clusterK          int
	clusterOutputPath string
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Group the filtered incidents by impact profile (k-means)",
	Long: `Cluster standardizes the per-incident impact ratios (killed, injured, kidnapped,
arrested, sexual violence) and groups incidents with k-means. The report lists each
cluster's mean profile and the silhouette score. When too few incidents match the
filters, the report says so instead of failing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		req, err := filterRequest(cmd.Context(), svc)
		if err != nil {
			return err
		}
		req.Cluster = true
		req.K = clusterK
		res, err := svc.Explore(cmd.Context(), req)
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s\n", w)
		}
		if err := utils.WriteOutput(clusterOutputPath, []byte(res.ClusterMarkdown())); err != nil {
			return err
		}
		if clusterOutputPath != "" && clusterOutputPath != "-" {
			fmt.Printf("✓ Wrote cluster report to %s\n", clusterOutputPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clusterCmd)
	addFilterFlags(clusterCmd)
	clusterCmd.Flags().IntVarP(&clusterK, "clusters", "k", 0, "number of clusters (default from config)")
	clusterCmd.Flags().StringVarP(&clusterOutputPath, "output", "o", "", "optional path to write the report (default stdout)")
}
