package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"cosmossdk.io/log"
	"github.com/cometbft/cometbft/abci/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/syndtr/goleveldb/leveldb"

	"twothirds/internal/app"
	"twothirds/internal/config"
)

// StartCmd runs the ABCI application until SIGINT or SIGTERM.
func StartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Serve the game state machine over ABCI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(viper.New(), cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := NewLogger(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}

			db, err := leveldb.OpenFile(cfg.DataDir(), nil)
			if err != nil {
				return fmt.Errorf("open state db: %w", err)
			}
			defer func() { _ = db.Close() }()

			a, err := app.New(db, cfg, logger)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}

			srv, err := server.NewServer(cfg.Addr, cfg.Transport, a)
			if err != nil {
				return fmt.Errorf("start abci server: %w", err)
			}
			if err := srv.Start(); err != nil {
				return fmt.Errorf("abci server start: %w", err)
			}
			defer func() { _ = srv.Stop() }()
			logger.Info("abci server listening", "addr", cfg.Addr, "transport", cfg.Transport, "faucet", cfg.Faucet)

			// Wait for signal.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			logger.Info("shutting down")
			return nil
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// NewLogger builds the node logger from the log_level and log_format settings.
func NewLogger(w io.Writer, cfg config.Config) (log.Logger, error) {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", config.KeyLogLevel, cfg.LogLevel, err)
	}
	opts := []log.Option{log.LevelOption(lvl)}
	if cfg.LogFormat == "json" {
		opts = append(opts, log.OutputJSONOption())
	} else {
		opts = append(opts, log.ColorOption(false))
	}
	return log.NewLogger(w, opts...), nil
}
