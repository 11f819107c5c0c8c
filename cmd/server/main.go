package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/duocall/internal/adapters/http"
	wssignal "github.com/dkeye/duocall/internal/adapters/signal"
	"github.com/dkeye/duocall/internal/app"
	"github.com/dkeye/duocall/internal/app/orch"
	"github.com/dkeye/duocall/internal/config"
	"github.com/dkeye/duocall/internal/domain"
	"github.com/dkeye/duocall/internal/ice"
	"github.com/dkeye/duocall/internal/logging"
	"github.com/dkeye/duocall/internal/metrics"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "duocall",
		Short:         "Signaling relay for one-to-one WebRTC calls",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			if err := run(ctx, cmd); err != nil {
				log.Error().Err(err).Msg("server stopped")
				return err
			}
			return nil
		},
	}
	cmd.Flags().String("env", "dev", "config environment (config/config.<env>.yaml)")
	cmd.Flags().String("config", "", "explicit config file path")
	cmd.Flags().Int("port", 8000, "listen port")
	return cmd
}

func run(ctx context.Context, cmd *cobra.Command) error {
	// Logger first so config.Load can use it; reconfigured once config is read.
	logging.Setup(logging.Options{Level: "info"})

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logCloser := logging.Setup(logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	policy, err := app.PolicyByName(cfg.Backpressure)
	if err != nil {
		return err
	}
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Calls:    app.NewCallTracker(),
		Policy:   policy,
		Metrics:  m,
		Rules: domain.IdentifierRules{
			MinLen: cfg.Identifier.MinLen,
			MaxLen: cfg.Identifier.MaxLen,
		},
	}

	iceProvider, err := ice.New(iceOptions(cfg))
	if err != nil {
		return err
	}

	ctrl := wssignal.NewSignalWSController(o, wssignal.Options{
		ReadLimit:    cfg.ReadLimit,
		PingPeriod:   cfg.PingPeriod,
		WriteTimeout: cfg.WriteTimeout,
		SendBuffer:   cfg.SendBuffer,
		Limiter:      wssignal.NewClaimRateLimiter(nil, cfg.ClaimLimit, cfg.ClaimInterval),
	})

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Orch:    o,
		Signal:  ctrl,
		ICE:     iceProvider,
		Metrics: m,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if cfg.TLSEnabled() {
			log.Info().Str("addr", addr).Msg("duocall server started (https)")
			err = srv.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			log.Warn().Str("cert", cfg.TLS.CertFile).Str("key", cfg.TLS.KeyFile).Msg("TLS files not found, serving plain HTTP")
			log.Info().Str("addr", addr).Msg("duocall server started")
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	err = multierr.Append(err, logCloser.Close())
	if err == nil {
		log.Info().Msg("Server exited gracefully")
	}
	return err
}

func iceOptions(cfg *config.Config) ice.Options {
	t := cfg.TURN
	return ice.Options{
		Provider:         t.Provider,
		CacheTTL:         t.CacheTTL,
		ICEServers:       t.ICEServers,
		TwilioAccountSID: t.Twilio.AccountSID,
		TwilioAuthToken:  t.Twilio.AuthToken,
		TwilioTTL:        t.Twilio.TTL,
		SharedSecret: ice.SharedSecretOptions{
			Secret: t.SharedSecret.Secret,
			TTL:    t.SharedSecret.TTL,
			Prefix: t.SharedSecret.Prefix,
			URLs:   t.SharedSecret.URLs,
		},
		HTTP: ice.HTTPOptions{
			URL:     t.HTTP.URL,
			Token:   t.HTTP.Token,
			Timeout: t.HTTP.Timeout,
		},
	}
}
