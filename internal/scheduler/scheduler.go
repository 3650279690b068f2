package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/i474232898/carbon-intensity-aggregation/internal/common"
	"github.com/i474232898/carbon-intensity-aggregation/internal/intensity"
)

// BatchRunner executes a batch of observations; *intensity.Service satisfies it.
type BatchRunner interface {
	Execute(ctx context.Context, batch []intensity.Observation) ([]intensity.Record, error)
}

// Scheduler periodically reports trailing-window carbon intensity for a set of zones.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    BatchRunner
	zones     []string
	interval  time.Duration
	window    time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates a new Scheduler.
func New(zones []string, interval, window time.Duration, runner BatchRunner, logger zerolog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		zones:     zones,
		interval:  interval,
		window:    window,
		logger:    logger.With().Str("component", "scheduler").Logger(),
		now:       time.Now,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.zones) == 0 {
		s.logger.Info().Msg("no zones configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// RunOnce reports the window ending at the last full hour for every zone.
// All zones go into one batch so the provider is authenticated once.
func (s *Scheduler) RunOnce(ctx context.Context) []intensity.Record {
	batch := s.Batch()

	s.logger.Info().Int("zones", len(batch)).Msg("running carbon intensity job")

	records, err := s.runner.Execute(ctx, batch)
	if err != nil {
		s.logger.Error().Err(err).Str("kind", string(intensity.KindOf(err))).Msg("carbon intensity job failed")
		return nil
	}

	for _, rec := range records {
		s.logger.Info().
			Interface("zone", rec[intensity.FieldZone]).
			Interface("timestamp", rec[intensity.FieldTimestamp]).
			Interface("carbon_intensity", rec[intensity.FieldCarbonIntensity]).
			Interface("unit", rec[intensity.FieldUnit]).
			Msg("carbon intensity")
	}
	return records
}

// Batch builds the observations for the current trailing window.
func (s *Scheduler) Batch() []intensity.Observation {
	end := common.StartOfHour(s.now().UTC())
	start := end.Add(-s.window)

	batch := make([]intensity.Observation, 0, len(s.zones))
	for _, zone := range s.zones {
		batch = append(batch, intensity.Observation{
			intensity.FieldTimestamp: start.Format(time.RFC3339),
			intensity.FieldDuration:  s.window.Seconds(),
			intensity.FieldZone:      zone,
		})
	}
	return batch
}
