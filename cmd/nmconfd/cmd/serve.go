package cmd

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mejarrett/netmap/internal/config"
	"github.com/mejarrett/netmap/internal/server"
	"github.com/mejarrett/netmap/internal/slogutil"
)

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the configuration channel daemon",
		Long:  `Start the daemon serving configuration exchanges on the configured socket.`,
		RunE:  runServe,
	}

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		slog.Default().Error("failed to load config", "err", err)
		return err
	}

	logger := slogutil.Setup(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting nmconfd",
		"network", cfg.Listen.Network,
		"address", cfg.Listen.Address,
		"transform", cfg.GetTransform(),
		"segment_size", cfg.GetSegmentSize(),
		"max_segments", cfg.GetMaxSegments(),
		"log_file", cfg.Log.File,
	)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Serve(ctx)
}
