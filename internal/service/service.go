package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stock-alerts/internal/alerting"
	"stock-alerts/internal/config"
	"stock-alerts/internal/metrics"
	"stock-alerts/internal/quotes"
	"stock-alerts/internal/scheduler"
	"stock-alerts/internal/storage"
)

// Service owns the periodic alert sweep: it loads the alert collection,
// resolves quotes, evaluates thresholds, dispatches notifications, and
// persists state transitions.
type Service struct {
	scheduler     *scheduler.Scheduler
	quotes        quotes.QuoteFetcher
	alerts        storage.AlertStore
	samples       storage.QuoteSampleStore
	notifications storage.NotificationStore
	notifier      alerting.Notifier
	logger        zerolog.Logger

	maxParallel int
	notifyOnce  bool
	sweeping    atomic.Bool
}

// New constructs the alert evaluation service.
func New(cfg *config.Config, sched *scheduler.Scheduler, fetcher quotes.QuoteFetcher, alertStore storage.AlertStore, sampleStore storage.QuoteSampleStore, notificationStore storage.NotificationStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	maxParallel := cfg.Alerting.MaxParallel
	if maxParallel <= 0 {
		maxParallel = 1
	}

	return &Service{
		scheduler:     sched,
		quotes:        fetcher,
		alerts:        alertStore,
		samples:       sampleStore,
		notifications: notificationStore,
		notifier:      notifier,
		logger:        logger.With().Str("component", "service").Logger(),
		maxParallel:   maxParallel,
		notifyOnce:    cfg.Alerting.NotifyOnce,
	}
}

// Run begins the fixed-cadence sweep loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.Sweep)
}

// Sweep 执行一轮完整的告警评估。
// A tick arriving while a previous sweep is still running no-ops instead of
// running concurrently, so two sweeps never race on the same un-triggered
// alert. A failed alert-collection read aborts the whole sweep; every other
// failure is contained to its own alert.
func (s *Service) Sweep(ctx context.Context, tick time.Time) error {
	if !s.sweeping.CompareAndSwap(false, true) {
		s.logger.Warn().Time("tick", tick).Msg("previous sweep still running; skipping tick")
		metrics.SweepsTotal.WithLabelValues("skipped").Inc()
		return nil
	}
	defer s.sweeping.Store(false)

	started := time.Now()
	defer func() {
		metrics.SweepDuration.Observe(time.Since(started).Seconds())
	}()

	alerts, err := s.alerts.ListAlerts(ctx)
	if err != nil {
		metrics.SweepsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("list alerts: %w", err)
	}

	set := newSampleSet(tick)
	var evaluated, fired, skipped int64

	sem := make(chan struct{}, s.maxParallel)
	var wg sync.WaitGroup

	for _, alert := range alerts {
		if err := alert.Validate(); err != nil {
			s.logger.Warn().Err(err).Str("alert_id", alert.ID).Msg("skipping malformed alert record")
			metrics.AlertsInvalid.Inc()
			continue
		}
		if !alert.Active {
			continue
		}

		wg.Add(1)
		go func(alert storage.Alert) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error().Interface("panic", r).Str("alert_id", alert.ID).Msg("recovered panic during alert evaluation")
					metrics.PanicsRecovered.WithLabelValues("sweep").Inc()
				}
			}()

			sem <- struct{}{}
			defer func() { <-sem }()

			atomic.AddInt64(&evaluated, 1)
			metrics.AlertsEvaluated.Inc()

			didFire, err := s.processAlert(ctx, alert, set)
			if err != nil {
				atomic.AddInt64(&skipped, 1)
				return
			}
			if didFire {
				atomic.AddInt64(&fired, 1)
			}
		}(alert)
	}
	wg.Wait()

	s.persistSamples(ctx, set)

	metrics.SweepsTotal.WithLabelValues("completed").Inc()
	s.logger.Info().
		Time("tick", tick).
		Int("alerts", len(alerts)).
		Int64("evaluated", evaluated).
		Int64("fired", fired).
		Int64("skipped", skipped).
		Msg("sweep completed")
	return nil
}

// ProcessAlert runs one alert through the full fetch-evaluate-notify-persist
// pipeline and reports whether its condition fired.
func (s *Service) ProcessAlert(ctx context.Context, alert storage.Alert) (bool, error) {
	return s.processAlert(ctx, alert, nil)
}

func (s *Service) processAlert(ctx context.Context, alert storage.Alert, set *sampleSet) (bool, error) {
	quote, err := s.quotes.GetQuote(ctx, alert.Symbol)
	if err != nil {
		// Treated as not-fired for this sweep; the alert is retried on the
		// next tick.
		kind := "provider"
		if errors.Is(err, quotes.ErrSymbolNotFound) {
			kind = "not_found"
		}
		metrics.QuoteFetchErrors.WithLabelValues(kind).Inc()
		s.logger.Warn().Err(err).Str("symbol", alert.Symbol).Str("alert_id", alert.ID).Msg("quote unavailable; alert skipped this sweep")
		return false, fmt.Errorf("fetch quote for %s: %w", alert.Symbol, err)
	}

	if set != nil {
		set.record(alert.Symbol, quote)
	}

	if !alerting.ShouldTrigger(alert, quote) {
		return false, nil
	}

	if s.notifyOnce && alert.Triggered {
		s.logger.Debug().Str("alert_id", alert.ID).Str("symbol", alert.Symbol).Msg("condition still met; repeat notification suppressed")
		return false, nil
	}

	if s.notifier == nil {
		s.logger.Warn().Str("alert_id", alert.ID).Msg("no notifier configured; alert fired without delivery")
		return false, nil
	}

	// Notify before the state update: flipping the flag first would lose the
	// notification entirely if the send then failed.
	msg := alerting.ComposeAlertEmail(alert, quote.Current)
	if err := s.notifier.Send(ctx, msg); err != nil {
		metrics.NotifySendErrors.Inc()
		s.logger.Error().Err(err).Str("alert_id", alert.ID).Str("to", msg.To).Msg("failed to send alert email")
		return false, nil
	}
	metrics.AlertsTriggered.Inc()

	if s.notifications != nil {
		record := storage.NotificationRecord{
			AlertID:   alert.ID,
			Symbol:    alert.Symbol,
			Recipient: alert.Email,
			Direction: alert.Type,
			Threshold: alert.Threshold,
			Price:     quote.Current,
		}
		if _, err := s.notifications.InsertNotification(ctx, record); err != nil {
			s.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("failed to persist notification record")
		}
	}

	if s.alerts != nil && alert.ID != "" {
		if err := s.alerts.MarkTriggered(ctx, alert.ID); err != nil {
			// The email already went out; at-least-once delivery is accepted.
			s.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("notification delivered but triggered flag not persisted")
		}
	}

	return true, nil
}

func (s *Service) persistSamples(ctx context.Context, set *sampleSet) {
	if s.samples == nil {
		return
	}
	for _, sample := range set.all() {
		if err := s.samples.InsertQuoteSample(ctx, sample); err != nil {
			s.logger.Error().Err(err).Str("symbol", sample.Symbol).Msg("failed to persist quote sample")
		}
	}
}

// CreateAlert registers a new alert for a user. The store assigns the id and
// creation timestamp; alerts start active and un-triggered.
func (s *Service) CreateAlert(ctx context.Context, userID, symbol string, threshold decimal.Decimal, alertType storage.AlertType, email string) (storage.Alert, error) {
	if s.alerts == nil {
		return storage.Alert{}, storage.ErrNotConfigured
	}
	if userID == "" {
		return storage.Alert{}, fmt.Errorf("userId is required")
	}
	if symbol == "" {
		return storage.Alert{}, fmt.Errorf("symbol is required")
	}
	if email == "" {
		return storage.Alert{}, fmt.Errorf("email is required")
	}
	if _, err := storage.ParseAlertType(string(alertType)); err != nil {
		return storage.Alert{}, err
	}

	return s.alerts.CreateAlert(ctx, storage.Alert{
		UserID:    userID,
		Symbol:    symbol,
		Threshold: threshold,
		Type:      alertType,
		Email:     email,
	})
}

// RemoveAlert deletes the first alert matching (userID, symbol) and reports
// whether one was found. Duplicate registrations are removed one at a time.
func (s *Service) RemoveAlert(ctx context.Context, userID, symbol string) (bool, error) {
	if s.alerts == nil {
		return false, storage.ErrNotConfigured
	}
	return s.alerts.DeleteAlert(ctx, userID, symbol)
}

// ListUserAlerts returns every alert owned by a user, regardless of
// active/triggered state.
func (s *Service) ListUserAlerts(ctx context.Context, userID string) ([]storage.Alert, error) {
	if s.alerts == nil {
		return nil, storage.ErrNotConfigured
	}
	return s.alerts.ListUserAlerts(ctx, userID)
}

// sampleSet collects one quote sample per distinct symbol within a sweep.
type sampleSet struct {
	mu      sync.Mutex
	tick    time.Time
	samples map[string]storage.QuoteSample
}

func newSampleSet(tick time.Time) *sampleSet {
	return &sampleSet{tick: tick, samples: make(map[string]storage.QuoteSample)}
}

func (s *sampleSet) record(symbol string, quote quotes.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.samples[symbol]; ok {
		return
	}
	s.samples[symbol] = storage.QuoteSample{
		Symbol:        symbol,
		SampleTS:      s.tick,
		Current:       quote.Current,
		High:          quote.High,
		Low:           quote.Low,
		Open:          quote.Open,
		PreviousClose: quote.PreviousClose,
	}
}

func (s *sampleSet) all() []storage.QuoteSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]storage.QuoteSample, 0, len(s.samples))
	for _, sample := range s.samples {
		out = append(out, sample)
	}
	return out
}
