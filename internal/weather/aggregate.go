package weather

import (
	"errors"
	"sort"
)

// ErrNoData is returned when no station produced a temperature reading.
var ErrNoData = errors.New("no temperature data available")

// SortByTemperature orders observations ascending by temperature.
// Ties are broken by station name and then id so the order never depends on
// the order in which stations were fetched.
func SortByTemperature(obs []TemperatureObservation) {
	sort.Slice(obs, func(i, j int) bool {
		a, b := obs[i], obs[j]
		if a.Temperature != b.Temperature {
			return a.Temperature < b.Temperature
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.StationID < b.StationID
	})
}

// SortParameters orders parameters ascending by id.
func SortParameters(params []Parameter) {
	sort.Slice(params, func(i, j int) bool {
		return params[i].ID < params[j].ID
	})
}

// FindExtremes picks the lowest and highest entries of a list that is already
// sorted by SortByTemperature.
func FindExtremes(sorted []TemperatureObservation) (Extremes, error) {
	if len(sorted) == 0 {
		return Extremes{}, ErrNoData
	}
	return Extremes{
		Highest:  sorted[len(sorted)-1],
		Lowest:   sorted[0],
		Stations: len(sorted),
	}, nil
}
