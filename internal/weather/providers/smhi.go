package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/smhi-observations/internal/weather"
)

// DefaultSMHIBaseURL is the root of SMHI's meteorological observations API.
const DefaultSMHIBaseURL = "https://opendata-download-metobs.smhi.se/api"

// SMHIConfig controls where and how the SMHI client sends requests.
type SMHIConfig struct {
	BaseURL     string
	Format      string // appended to every path, e.g. ".json"
	ParameterID string
	Workers     int // max concurrent station fetches
	Backoff     BackoffConfig
}

// DefaultSMHIConfig returns the configuration for the public API.
func DefaultSMHIConfig() SMHIConfig {
	return SMHIConfig{
		BaseURL:     DefaultSMHIBaseURL,
		Format:      ".json",
		ParameterID: weather.AirTemperatureParameter,
		Workers:     8,
		Backoff: BackoffConfig{
			MaxRetries:      2,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
	}
}

// StationError reports the station whose data could not be fetched or parsed.
type StationError struct {
	StationID string
	Err       error
}

func (e *StationError) Error() string {
	return fmt.Sprintf("station %s: %v", e.StationID, e.Err)
}

func (e *StationError) Unwrap() error {
	return e.Err
}

// SMHIClient implements the weather.Source interface for SMHI metobs.
type SMHIClient struct {
	name    string
	cfg     SMHIConfig
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewSMHIClient creates a client sharing one *http.Client (and its connection
// pool) across all requests. Zero fields of cfg fall back to DefaultSMHIConfig.
func NewSMHIClient(client *http.Client, cfg SMHIConfig, logger *slog.Logger) *SMHIClient {
	def := DefaultSMHIConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.ParameterID == "" {
		cfg.ParameterID = def.ParameterID
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Backoff.InitialInterval <= 0 {
		cfg.Backoff.InitialInterval = def.Backoff.InitialInterval
	}
	if cfg.Backoff.MaxInterval <= 0 {
		cfg.Backoff.MaxInterval = def.Backoff.MaxInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SMHIClient{
		name: "smhi",
		cfg:  cfg,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: cfg.Backoff,
		},
		circuit: newCircuitBreaker("smhi"),
		logger:  logger.With("source", "smhi"),
	}
}

func (c *SMHIClient) Name() string {
	return c.name
}

func (c *SMHIClient) url(path string) string {
	return c.cfg.BaseURL + path + c.cfg.Format
}

// makeRequest issues a plain GET for path; the caller inspects the status.
func (c *SMHIClient) makeRequest(ctx context.Context, path string) (*http.Response, error) {
	if c.httpCfg.Client == nil {
		return nil, errNoHTTPClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, err
	}
	return c.httpCfg.Client.Do(req)
}

// getJSON fetches path through the resilient request path and decodes it into dst.
func (c *SMHIClient) getJSON(ctx context.Context, path string, dst any) error {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, c.url(path), nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodePayload(resp.Body, dst)
}

// CheckConnection returns the status code of the API root.
func (c *SMHIClient) CheckConnection(ctx context.Context) (int, error) {
	resp, err := c.makeRequest(ctx, "")
	if err != nil {
		return 0, err
	}
	drainAndClose(resp)
	return resp.StatusCode, nil
}

// ListParameters returns every parameter the API offers, sorted by id.
func (c *SMHIClient) ListParameters(ctx context.Context) ([]weather.Parameter, error) {
	var payload parametersPayload
	if err := c.getJSON(ctx, "/version/latest/parameter", &payload); err != nil {
		c.logger.Debug("could not list parameters", "err", err)
		return nil, err
	}

	params := make([]weather.Parameter, 0, len(payload.Resource))
	for _, r := range payload.Resource {
		params = append(params, weather.Parameter{
			ID:      int(*r.Key),
			Title:   *r.Title,
			Summary: *r.Summary,
		})
	}
	weather.SortParameters(params)
	return params, nil
}

// ListActiveStations returns the keys of active stations for the configured
// parameter, in the order the API lists them.
func (c *SMHIClient) ListActiveStations(ctx context.Context) ([]string, error) {
	var payload stationsPayload
	path := "/version/latest/parameter/" + url.PathEscape(c.cfg.ParameterID) + "/station"
	if err := c.getJSON(ctx, path, &payload); err != nil {
		c.logger.Debug("could not list stations", "parameter", c.cfg.ParameterID, "err", err)
		return nil, err
	}

	ids := make([]string, 0, len(payload.Station))
	for _, st := range payload.Station {
		if *st.Active {
			ids = append(ids, string(*st.Key))
		}
	}
	return ids, nil
}

// AverageTemperaturesPastDay fetches the latest-day reading of every station
// concurrently. Stations without a reading are skipped. If any station fails,
// nothing is returned and the error names that station.
func (c *SMHIClient) AverageTemperaturesPastDay(ctx context.Context, stationIDs []string) ([]weather.TemperatureObservation, error) {
	results := make([]*weather.TemperatureObservation, len(stationIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)

	for i, id := range stationIDs {
		i, id := i, id
		g.Go(func() error {
			obs, ok, err := c.stationAverage(gctx, id)
			if err != nil {
				// Fetches cancelled because a sibling failed are not worth a log line.
				if !(errors.Is(err, context.Canceled) && gctx.Err() != nil && ctx.Err() == nil) {
					c.logger.Debug("could not read station temperature", "station", id, "err", err)
				}
				return &StationError{StationID: id, Err: err}
			}
			if ok {
				results[i] = &obs
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]weather.TemperatureObservation, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	weather.SortByTemperature(out)
	return out, nil
}

// stationAverage reports false when the station has no reading for the period.
func (c *SMHIClient) stationAverage(ctx context.Context, stationID string) (weather.TemperatureObservation, bool, error) {
	path := fmt.Sprintf("/version/1.0/parameter/%s/station/%s/period/latest-day/data",
		url.PathEscape(c.cfg.ParameterID), url.PathEscape(stationID))

	var payload stationDataPayload
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return weather.TemperatureObservation{}, false, err
	}

	if len(payload.Value) == 0 {
		c.logger.Debug("station has no reading for the latest day", "station", stationID)
		return weather.TemperatureObservation{}, false, nil
	}

	// Only the first entry is read; later entries may be in any shape.
	var first observationValue
	if err := decodePayload(bytes.NewReader(payload.Value[0]), &first); err != nil {
		return weather.TemperatureObservation{}, false, err
	}

	return weather.TemperatureObservation{
		StationID:   stationID,
		Name:        *payload.Station.Name,
		Temperature: float64(*first.Value),
	}, true, nil
}
