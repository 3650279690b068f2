package intensity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service orchestrates authentication, validation, fetching and aggregation
// for a batch of observations.
type Service struct {
	provider Provider
	logger   zerolog.Logger
}

// NewService creates a new Service.
func NewService(provider Provider, logger zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		logger:   logger.With().Str("component", "intensity").Logger(),
	}
}

// Execute authenticates once, validates the whole batch and then processes
// observations one at a time in input order. Any failure aborts the batch and
// no partial output is returned.
func (s *Service) Execute(ctx context.Context, batch []Observation) ([]Record, error) {
	log := s.logger.With().
		Str("batch_id", uuid.New().String()).
		Str("provider", s.provider.Name()).
		Logger()

	log.Debug().Int("observations", len(batch)).Msg("batch started")

	session, err := s.provider.Authenticate(ctx)
	if err != nil {
		log.Error().Err(err).Msg("authentication failed")
		return nil, err
	}

	reqs, err := Validate(batch)
	if err != nil {
		log.Warn().Err(err).Msg("batch rejected")
		return nil, err
	}

	records := make([]Record, 0, len(reqs))
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("batch interrupted at observation %d: %w", i, err)
		}

		w := req.Window()
		samples, err := session.FetchIntensity(ctx, w, req.Location)
		if err != nil {
			log.Error().Err(err).Int("index", i).Str("location", req.Location.Key()).Msg("fetch failed")
			return nil, err
		}

		res, err := AggregateRequest(req, samples)
		if err != nil {
			log.Error().Err(err).Int("index", i).Int("samples", len(samples)).Msg("aggregation failed")
			return nil, err
		}

		log.Debug().
			Int("index", i).
			Str("location", req.Location.Key()).
			Time("start", w.Start).
			Time("end", w.End).
			Float64("carbon_intensity", res.Value).
			Msg("observation aggregated")

		records = append(records, NewRecord(batch[i], res))
	}

	log.Info().Int("observations", len(records)).Msg("batch completed")
	return records, nil
}
