// Package service runs the scrape-filter-notify pipeline on a schedule.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"teewatch/internal/filter"
	"teewatch/internal/holidays"
	"teewatch/internal/metrics"
	"teewatch/internal/model"
	"teewatch/internal/solar"
	"teewatch/internal/storage"
)

// Config holds pipeline settings.
type Config struct {
	// Interval is how often to scrape. Default: 5 minutes.
	Interval time.Duration

	// MaxConcurrent limits parallel per-user filter passes. Default: 8.
	MaxConcurrent int

	// RunRetention is how long run history is kept. Default: 14 days.
	RunRetention time.Duration

	// ExcludedHolidays are federal holiday names that never count as
	// playable holidays.
	ExcludedHolidays []string

	// OperatorEmail receives run failure reports. Empty disables them.
	OperatorEmail string
}

// Service owns the periodic pipeline.
type Service struct {
	cfg      Config
	scraper  Scraper
	store    Store
	notifier Notifier
	location solar.Location
	logger   *zerolog.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// New creates the pipeline service.
func New(cfg Config, scraper Scraper, store Store, notifier Notifier, location solar.Location, logger *zerolog.Logger) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 8
	}
	if cfg.RunRetention <= 0 {
		cfg.RunRetention = 14 * 24 * time.Hour
	}

	return &Service{
		cfg:      cfg,
		scraper:  scraper,
		store:    store,
		notifier: notifier,
		location: location,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the scrape loop. The first run happens immediately.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info().Dur("interval", s.cfg.Interval).Msg("pipeline started")
}

// Stop halts the loop and waits for an in-flight run to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()

	s.logger.Info().Msg("pipeline stopped")
}

func (s *Service) loop(ctx context.Context) {
	defer s.wg.Done()

	s.runGuarded(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runGuarded(ctx)
		}
	}
}

func (s *Service) runGuarded(ctx context.Context) {
	start := time.Now()

	err := s.RunOnce(ctx)
	metrics.ObserveRunDuration(time.Since(start).Seconds())

	if err != nil {
		metrics.IncRun("error")
		s.logger.Error().Err(err).Msg("run failed")

		if alertErr := s.notifier.SendOperatorAlert(ctx, s.cfg.OperatorEmail, err); alertErr != nil {
			s.logger.Error().Err(alertErr).Msg("operator alert failed")
		}
		return
	}
	metrics.IncRun("ok")
}

// RunOnce executes one full scrape-filter-notify pass. The latest snapshot is
// published wholesale only after every user has been processed, so a crash
// mid-pass never loses novelty.
func (s *Service) RunOnce(ctx context.Context) error {
	slots, err := s.scraper.Fetch(ctx)
	if err != nil {
		return err
	}
	metrics.AddSlotsScraped(len(slots))

	emails, err := s.store.ListUserEmails()
	if err != nil {
		return err
	}

	previous, err := s.store.LatestFiltered()
	if err != nil {
		return err
	}

	holidayDates := holidays.RecognizedDates(time.Now().Year(), s.cfg.ExcludedHolidays)
	filterer := filter.New(configStore{s.store}, s.location, holidayDates, s.logger)

	filtered := make(map[string][]model.TimeSlot, len(emails))
	var filteredMu sync.Mutex

	sem := make(chan struct{}, s.cfg.MaxConcurrent)
	var wg sync.WaitGroup

	for _, userEmail := range emails {
		wg.Add(1)
		sem <- struct{}{} // acquire

		go func(userEmail string) {
			defer wg.Done()
			defer func() { <-sem }() // release

			userSlots := s.processUser(ctx, filterer, userEmail, slots, previous[userEmail])

			filteredMu.Lock()
			filtered[userEmail] = userSlots
			filteredMu.Unlock()
		}(userEmail)
	}
	wg.Wait()

	if err := s.store.PublishRun(storage.RunRecord{
		AllSlots: slots,
		Filtered: filtered,
	}); err != nil {
		return err
	}

	if removed, err := s.store.CleanupRuns(time.Now().Add(-s.cfg.RunRetention)); err != nil {
		s.logger.Warn().Err(err).Msg("run cleanup failed")
	} else if removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("pruned old runs")
	}

	return nil
}

// processUser filters the sheet for one user and notifies them of anything
// they have not seen before. A failed pass keeps the user's previous
// snapshot, so the slots are retried as new next run instead of being
// silently dropped.
func (s *Service) processUser(ctx context.Context, filterer *filter.Filterer, userEmail string, slots []model.TimeSlot, previous []model.TimeSlot) []model.TimeSlot {
	userSlots, err := filterer.ForUser(ctx, slots, userEmail)
	if err != nil {
		metrics.IncUserError()
		s.logger.Error().Err(err).Str("user", userEmail).Msg("user filter pass failed")
		return previous
	}

	fresh := filter.RemoveExisting(userSlots, previous)
	if len(fresh) == 0 {
		return userSlots
	}

	if err := s.notifier.NotifyNewSlots(ctx, userEmail, fresh); err != nil {
		metrics.IncUserError()
		s.logger.Error().Err(err).Str("user", userEmail).Msg("notification failed")
		// Keep the old snapshot so the slots count as new again next run.
		return previous
	}

	metrics.AddSlotsNotified(len(fresh))
	return userSlots
}

// configStore adapts the storage layer to the filter's config lookup.
type configStore struct {
	store Store
}

func (c configStore) GetUserConfig(ctx context.Context, email string) (model.UserConfig, error) {
	cfg, _, err := c.store.GetUserConfig(email)
	return cfg, err
}
