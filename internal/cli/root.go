// Package cli implements the tau command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/f3rmion/tau/internal/config"
	"github.com/f3rmion/tau/internal/logging"
	"github.com/f3rmion/tau/internal/metrics"
	"github.com/f3rmion/tau/sequencer"
)

// app carries what every command needs once flags are parsed.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	client  *sequencer.Client
}

type appKey struct{}

func appFrom(cmd *cobra.Command) *app {
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "tau",
		Short: "Participate in a KZG powers-of-tau ceremony",
		Long: `tau contributes to a KZG powers-of-tau ceremony.

It signs you in with GitHub or an Ethereum address, waits in the
coordinator's lobby for a turn, mixes a fresh secret into every
sub-ceremony, binds the result to your identity and submits it.
The secret never leaves memory and is erased once used.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			m := metrics.New()
			client, err := sequencer.New(cfg.SequencerURL,
				sequencer.WithLogger(logger.Named("sequencer")),
				sequencer.WithObserver(m),
				sequencer.WithRateLimit(cfg.RequestRate),
			)
			if err != nil {
				return err
			}

			a := &app{cfg: cfg, logger: logger, metrics: m, client: client}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a := appFrom(cmd); a != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(newStartCommand())
	root.AddCommand(newStatusCommand())
	root.AddCommand(newCurrentStateCommand())
	return root
}

// Execute runs the command line with ctx, which is cancelled on interrupt.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// requestContext bounds a single coordinator call.
func (a *app) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.cfg.RequestTimeout)
}

// serveMetrics exposes the metrics endpoint until the returned function is
// called. It does nothing when no address is configured.
func (a *app) serveMetrics(errOut io.Writer) func() {
	if a.cfg.MetricsAddr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", zap.Error(err))
			fmt.Fprintf(errOut, "metrics endpoint unavailable: %v\n", err)
		}
	}()
	a.logger.Info("serving metrics", zap.String("addr", a.cfg.MetricsAddr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
