package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"stock-alerts/internal/alerting"
	"stock-alerts/internal/config"
	"stock-alerts/internal/quotes"
	"stock-alerts/internal/scheduler"
	"stock-alerts/internal/service"
	"stock-alerts/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newQuoteClient() *quotes.Polygon {
	return quotes.NewPolygon(quotes.PolygonOptions{
		BaseURL:   a.Config.Polygon.BaseURL,
		APIKey:    a.Config.Polygon.APIKey,
		Timeout:   a.Config.Polygon.RequestTimeout,
		UserAgent: a.Config.Polygon.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Mailer.Enabled {
		cfg := a.Config.Mailer
		return alerting.NewSMTPNotifier(cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.From, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running alert monitoring service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn not configured; the sweep needs the alert collection")
	}
	defer closeStore()

	if a.Config.Metrics.Enabled {
		stopMetrics := a.serveMetrics()
		defer stopMetrics()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	fetcher := a.newQuoteClient()
	notifier := a.newNotifier()
	if notifier == nil {
		a.Logger.Warn().Msg("mailer not configured; fired alerts will not be delivered")
	}

	svc := service.New(a.Config, sched, fetcher, store, store, store, notifier, a.Logger)

	a.Logger.Info().Msg("starting alert monitoring service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("alert monitoring service stopped")
	return nil
}

func (a *App) serveMetrics() func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: a.Config.Metrics.ListenAddr, Handler: mux}
	go func() {
		a.Logger.Info().Str("addr", srv.Addr).Msg("metrics endpoint listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error().Err(err).Msg("metrics endpoint failed")
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

// Migrate applies pending database schema migrations.
func (a *App) Migrate(ctx context.Context) error {
	if err := storage.Migrate(a.Config.Database); err != nil {
		return err
	}
	a.Logger.Info().Msg("migrations applied")
	return nil
}

// ExportOptions hold parameters for exporting quote history.
type ExportOptions struct {
	Symbol    string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Symbol        string
	Limit         int
	Notifications bool
}

// BackfillOptions configure the history backfill job.
type BackfillOptions struct {
	Symbol     string
	Resolution string
	From       time.Time
	To         time.Time
	DryRun     bool
}

// IndicesOptions configure the index summary listing.
type IndicesOptions struct {
	Limit int
}
