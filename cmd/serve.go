package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/edudanger-cli/internal/api"
	"github.com/KaramelBytes/edudanger-cli/internal/dashboard"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	serveAddr    string
	serveRefresh string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		addr := cfg.ServerAddr
		if cmd.Flags().Changed("addr") && serveAddr != "" {
			addr = serveAddr
		}
		spec := cfg.RefreshSchedule
		if cmd.Flags().Changed("refresh") {
			spec = serveRefresh
		}
		if spec != "" {
			var src dashboard.Downloader
			if cfg.SourcePath == "" {
				src = newRemote()
			}
			sched, err := svc.ScheduleRefresh(spec, src)
			if err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()
			logger.Info().Str("schedule", spec).Msg("dataset refresh scheduled")
		}
		if !debug {
			gin.SetMode(gin.ReleaseMode)
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return api.Serve(ctx, addr, api.SetupRouter(svc, logger), logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&serveRefresh, "refresh", "", `cron schedule for reloading the dataset, e.g. "@daily" (default from config)`)
}
