package cmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/KaramelBytes/edudanger-cli/internal/geo"
	"github.com/KaramelBytes/edudanger-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	expFormat     string
	expCluster    bool
	expK          int
	expOutputPath string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the filtered incidents as CSV, JSON or GeoJSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(strings.TrimSpace(expFormat))
		switch format {
		case "csv", "json", "geojson":
		default:
			return fmt.Errorf("unsupported --format: %s (use csv|json|geojson)", expFormat)
		}
		svc, err := newService()
		if err != nil {
			return err
		}
		req, err := filterRequest(cmd.Context(), svc)
		if err != nil {
			return err
		}
		req.Cluster = expCluster
		req.K = expK
		res, err := svc.Explore(cmd.Context(), req)
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s\n", w)
		}

		var out []byte
		switch format {
		case "csv":
			var buf bytes.Buffer
			if err := res.Dataset.WriteCSV(&buf); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
			out = buf.Bytes()
		case "json":
			if out, err = utils.PrettyJSON(res.Dataset.Incidents()); err != nil {
				return err
			}
		case "geojson":
			if out, err = utils.PrettyJSON(geo.FeatureCollection(res.Dataset)); err != nil {
				return err
			}
		}
		if err := utils.WriteOutput(expOutputPath, out); err != nil {
			return err
		}
		if expOutputPath != "" && expOutputPath != "-" {
			fmt.Printf("✓ Exported %d incidents to %s\n", res.Dataset.Len(), expOutputPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addFilterFlags(exportCmd)
	exportCmd.Flags().StringVar(&expFormat, "format", "csv", "output format: csv | json | geojson")
	exportCmd.Flags().BoolVar(&expCluster, "cluster", false, "add the Cluster column (k-means on impact ratios)")
	exportCmd.Flags().IntVarP(&expK, "clusters", "k", 0, "number of clusters when --cluster is set (default from config)")
	exportCmd.Flags().StringVarP(&expOutputPath, "output", "o", "", "optional output path (default stdout)")
}
