package weather

import (
	"context"
	"fmt"
	"log/slog"
)

// Service answers parameter and temperature questions on top of a Source.
type Service struct {
	source Source
	logger *slog.Logger
}

// NewService creates a new Service.
func NewService(source Source, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source: source,
		logger: logger,
	}
}

// CheckConnection returns the status code of the source's root resource.
func (s *Service) CheckConnection(ctx context.Context) (int, error) {
	return s.source.CheckConnection(ctx)
}

// Parameters lists the source's parameters sorted by id.
func (s *Service) Parameters(ctx context.Context) ([]Parameter, error) {
	params, err := s.source.ListParameters(ctx)
	if err != nil {
		return nil, fmt.Errorf("list parameters from %s: %w", s.source.Name(), err)
	}
	return params, nil
}

// ActiveStations lists the keys of stations currently reporting.
func (s *Service) ActiveStations(ctx context.Context) ([]string, error) {
	ids, err := s.source.ListActiveStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active stations from %s: %w", s.source.Name(), err)
	}
	return ids, nil
}

// Temperatures fetches latest-day average temperatures for the given stations,
// or for every active station when stationIDs is empty. The result is sorted
// ascending by temperature.
func (s *Service) Temperatures(ctx context.Context, stationIDs []string) ([]TemperatureObservation, error) {
	if len(stationIDs) == 0 {
		ids, err := s.ActiveStations(ctx)
		if err != nil {
			return nil, err
		}
		stationIDs = ids
	}

	s.logger.Debug("fetching latest-day temperatures", "source", s.source.Name(), "stations", len(stationIDs))

	obs, err := s.source.AverageTemperaturesPastDay(ctx, stationIDs)
	if err != nil {
		return nil, fmt.Errorf("average temperatures from %s: %w", s.source.Name(), err)
	}
	SortByTemperature(obs)
	return obs, nil
}

// Extremes returns the warmest and coldest stations together with the full
// sorted list. It returns ErrNoData when no station had a reading.
func (s *Service) Extremes(ctx context.Context, stationIDs []string) (Extremes, []TemperatureObservation, error) {
	obs, err := s.Temperatures(ctx, stationIDs)
	if err != nil {
		return Extremes{}, nil, err
	}
	ext, err := FindExtremes(obs)
	if err != nil {
		return Extremes{}, obs, err
	}
	return ext, obs, nil
}
