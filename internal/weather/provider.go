package weather

import (
	"context"
)

// Source abstracts an observation API (e.g. SMHI metobs).
type Source interface {
	Name() string
	CheckConnection(ctx context.Context) (int, error)
	ListParameters(ctx context.Context) ([]Parameter, error)
	ListActiveStations(ctx context.Context) ([]string, error)
	AverageTemperaturesPastDay(ctx context.Context, stationIDs []string) ([]TemperatureObservation, error)
}
