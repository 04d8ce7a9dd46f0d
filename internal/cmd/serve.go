package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadpulse/leadpulse/internal/config"
	"github.com/leadpulse/leadpulse/internal/observability"
	"github.com/leadpulse/leadpulse/internal/server"
	"github.com/leadpulse/leadpulse/internal/server/handlers"
	"github.com/leadpulse/leadpulse/pkg/enrich"
	"github.com/leadpulse/leadpulse/pkg/instantly"
	"github.com/leadpulse/leadpulse/pkg/jobengine"
	"github.com/leadpulse/leadpulse/pkg/jobstore"
	"github.com/leadpulse/leadpulse/pkg/refdata"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the lead enrichment HTTP API",
	Long: `Run the HTTP API used by the browser extension.

Reference data is loaded and validated at startup; a contact directory or
message catalog missing a required column prevents the server from
starting.

Example:
  leadpulse serve
  leadpulse serve --port 9000
  LEADPULSE_API_KEY=... leadpulse serve`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Override listen host")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Override listen port")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	if err := cfg.ValidateServe(); err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}
	if err := observability.InitServerLogger(cfg.Logging.Level, cfg.Logging.Profile); err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid logging configuration", err)
	}
	log := observability.ServerLogger

	ref, err := refdata.LoadGlob(cfg.Refdata.ContactsPath, cfg.Refdata.MessagesGlob)
	if err != nil {
		observability.CLILogger.Error("Failed to load reference data",
			zap.String("contacts", cfg.Refdata.ContactsPath),
			zap.String("messages", cfg.Refdata.MessagesGlob),
			zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Invalid reference data", err)
	}
	log.Info("reference data loaded",
		zap.Int("contacts", ref.ContactCount()),
		zap.Int("messages", ref.MessageCount()))

	client, err := instantly.New(instantly.Config{
		BaseURL: cfg.Instantly.BaseURL,
		APIKey:  cfg.Instantly.APIKey,
		Filter:  cfg.Instantly.Filter,
		Timeout: cfg.Instantly.Timeout,
	})
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid API configuration", err)
	}

	store := jobstore.NewStore()
	enricher := enrich.New(ref)
	engine := jobengine.New(client, enricher, store,
		jobengine.Config{PageDelay: cfg.Engine.PageDelay}, log)

	manager := handlers.InitHealthManager(versionInfo.Version)
	if cfg.Health.Enabled {
		manager.RegisterChecker("refdata", refdataHealthChecker{store: ref})
		manager.RegisterChecker("upstream_config", upstreamConfigHealthChecker{
			baseURL: cfg.Instantly.BaseURL,
			apiKey:  cfg.Instantly.APIKey,
			filter:  cfg.Instantly.Filter,
		})
	}

	srv := server.New(cfg.Server.Host, cfg.Server.Port)
	srv.SetTimeouts(server.Timeouts{
		Read:     cfg.Server.ReadTimeout,
		Write:    cfg.Server.WriteTimeout,
		Idle:     cfg.Server.IdleTimeout,
		Shutdown: cfg.Server.ShutdownTimeout,
	})
	srv.MountAPI(handlers.NewAPI(engine, store, client, enricher, cfg.Engine.PageDelay, log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	log.Info("server started",
		zap.String("addr", srv.Addr()),
		zap.String("version", versionInfo.Version))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server failed", zap.Error(err))
			return exitError(foundry.ExitExternalServiceUnavailable, "Server failed", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutdown signal received")
		if err := srv.Shutdown(context.Background()); err != nil {
			return exitError(foundry.ExitSignalInt, "Shutdown did not complete cleanly", err)
		}
		log.Info("server stopped")
		return nil
	}
}

// refdataHealthChecker reports healthy while the in-memory tables hold
// data. The store is immutable, so this only fails on a wiring bug.
type refdataHealthChecker struct {
	store *refdata.Store
}

func (c refdataHealthChecker) CheckHealth(ctx context.Context) error {
	if c.store == nil {
		return fmt.Errorf("reference data store not initialized")
	}
	if c.store.ContactCount() == 0 {
		return fmt.Errorf("contact directory is empty")
	}
	return nil
}

// upstreamConfigHealthChecker validates the upstream API configuration
// without issuing a network call.
type upstreamConfigHealthChecker struct {
	baseURL string
	apiKey  string
	filter  string
}

func (c upstreamConfigHealthChecker) CheckHealth(ctx context.Context) error {
	if c.baseURL == "" {
		return fmt.Errorf("missing base URL")
	}
	if c.apiKey == "" {
		return fmt.Errorf("missing API key")
	}
	if c.filter == "" {
		return fmt.Errorf("missing lead filter")
	}
	return nil
}
