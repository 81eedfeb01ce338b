package weather

// AirTemperatureParameter is the SMHI parameter id for hourly air temperature.
const AirTemperatureParameter = "2"

// Parameter is a measurable quantity the observation API can report.
type Parameter struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Station is a fixed location reporting observations for a parameter.
type Station struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// TemperatureObservation is the latest-day average temperature of one station.
type TemperatureObservation struct {
	StationID   string  `json:"stationId"`
	Name        string  `json:"name"`
	Temperature float64 `json:"temperatureC"`
}

// Extremes holds the warmest and coldest stations of a sorted observation list.
type Extremes struct {
	Highest  TemperatureObservation `json:"highest"`
	Lowest   TemperatureObservation `json:"lowest"`
	Stations int                    `json:"stations"` // stations that reported data
}
