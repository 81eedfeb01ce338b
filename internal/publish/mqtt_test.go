package publish

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"

	"github.com/i474232898/smhi-observations/internal/weather"
)

func TestNewMessageEncoding(t *testing.T) {
	ts := time.Date(2026, 10, 18, 6, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	ext := weather.Extremes{
		Highest:  weather.TemperatureObservation{StationID: "3", Name: "Lund", Temperature: 10.0},
		Lowest:   weather.TemperatureObservation{StationID: "2", Name: "Kiruna", Temperature: -2.0},
		Stations: 3,
	}

	payload, err := json.Marshal(NewMessage(ext, ts))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got struct {
		Timestamp time.Time `json:"timestamp"`
		Stations  int       `json:"stations"`
		Highest   struct {
			StationID   string  `json:"stationId"`
			Name        string  `json:"name"`
			Temperature float64 `json:"temperatureC"`
		} `json:"highest"`
		Lowest struct {
			Name        string  `json:"name"`
			Temperature float64 `json:"temperatureC"`
		} `json:"lowest"`
	}
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}

	if !got.Timestamp.Equal(ts) || got.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp = %v, want %v in UTC", got.Timestamp, ts)
	}
	if got.Stations != 3 {
		t.Errorf("stations = %d, want 3", got.Stations)
	}
	if got.Highest.StationID != "3" || got.Highest.Temperature != 10.0 {
		t.Errorf("highest = %+v", got.Highest)
	}
	if got.Lowest.Name != "Kiruna" || got.Lowest.Temperature != -2.0 {
		t.Errorf("lowest = %+v", got.Lowest)
	}
}

func TestPublishWithoutConnection(t *testing.T) {
	p := NewMQTTPublisher(MQTTConfig{
		Broker:   "tcp://127.0.0.1:1",
		ClientID: "test",
		Topic:    "smhi/test",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := p.Publish(ctx, weather.Extremes{Stations: 1})
	if !errors.Is(err, mqtt.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}
