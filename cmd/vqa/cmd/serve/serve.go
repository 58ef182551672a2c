package serve

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"video-qa/cmd/vqa/cmd/cli"
	"video-qa/internal/api/server"
	"video-qa/internal/api/v1/services"
	"video-qa/internal/app/common"
)

var (
	host            string
	port            int
	shutdownTimeout time.Duration
)

func init() {
	Cmd.Flags().StringVar(&host, "host", "", "listen host (overrides config)")
	Cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	Cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 15*time.Second, "grace period for in-flight requests")
}

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the index, search and chat HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		session, err := cli.Bootstrap(ctx, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer session.Close()

		rt := session.Runtime
		srvCfg := server.ConfigFrom(rt.Config.Server)
		if host != "" {
			srvCfg.Host = host
		}
		if port != 0 {
			srvCfg.Port = port
		}

		logger := common.NewZapLogger(session.Logger)
		srv := server.NewServer(srvCfg, services.NewVideoQAService(rt.Engine, rt.Config.Server.AnalysisRoot), rt.Metrics, logger)
		errCh := srv.Start()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
