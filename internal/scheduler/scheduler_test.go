package scheduler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/i474232898/smhi-observations/internal/weather"
)

type stubSource struct {
	obs []weather.TemperatureObservation
	err error
}

func (s stubSource) Name() string { return "stub" }

func (s stubSource) CheckConnection(context.Context) (int, error) { return 200, nil }

func (s stubSource) ListParameters(context.Context) ([]weather.Parameter, error) { return nil, nil }

func (s stubSource) ListActiveStations(context.Context) ([]string, error) {
	return []string{"1", "2", "3"}, s.err
}

func (s stubSource) AverageTemperaturesPastDay(context.Context, []string) ([]weather.TemperatureObservation, error) {
	out := make([]weather.TemperatureObservation, len(s.obs))
	copy(out, s.obs)
	return out, s.err
}

type chanPublisher chan weather.Extremes

func (p chanPublisher) Publish(_ context.Context, ext weather.Extremes) error {
	p <- ext
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOncePrintsAndPublishes(t *testing.T) {
	src := stubSource{obs: []weather.TemperatureObservation{
		{StationID: "1", Name: "Malmö", Temperature: 5.0},
		{StationID: "2", Name: "Kiruna", Temperature: -2.0},
		{StationID: "3", Name: "Lund", Temperature: 10.0},
	}}
	svc := weather.NewService(src, quietLogger())
	pub := make(chanPublisher, 1)
	var out bytes.Buffer

	s := New(svc, nil, time.Hour, &out, pub, quietLogger())
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Highest temperature: Lund, 10.0\nLowest temperature: Kiruna, -2.0\n"
	if out.String() != want {
		t.Fatalf("expected %q, got %q", want, out.String())
	}

	select {
	case ext := <-pub:
		if ext.Highest.Name != "Lund" || ext.Lowest.Name != "Kiruna" || ext.Stations != 3 {
			t.Fatalf("unexpected published extremes: %+v", ext)
		}
	default:
		t.Fatalf("expected extremes to be published")
	}
}

func TestRunOnceNoData(t *testing.T) {
	svc := weather.NewService(stubSource{}, quietLogger())
	var out bytes.Buffer

	s := New(svc, nil, time.Hour, &out, nil, quietLogger())
	err := s.RunOnce(context.Background())
	if !errors.Is(err, weather.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if out.String() != "No temperature data available.\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunOnceSourceError(t *testing.T) {
	boom := errors.New("upstream down")
	svc := weather.NewService(stubSource{err: boom}, quietLogger())
	var out bytes.Buffer

	s := New(svc, nil, time.Hour, &out, nil, quietLogger())
	if err := s.RunOnce(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output on failure, got %q", out.String())
	}
}

func TestStartRunsImmediately(t *testing.T) {
	src := stubSource{obs: []weather.TemperatureObservation{
		{StationID: "1", Name: "Malmö", Temperature: 5.0},
	}}
	svc := weather.NewService(src, quietLogger())
	pub := make(chanPublisher, 1)

	s := New(svc, []string{"1"}, time.Hour, io.Discard, pub, quietLogger())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	select {
	case ext := <-pub:
		if ext.Highest.Name != "Malmö" {
			t.Fatalf("unexpected published extremes: %+v", ext)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("scheduler did not run the first job")
	}
}

// blockingSource holds every temperature request until its context is done.
type blockingSource struct {
	stubSource
	entered chan struct{}
}

func (b blockingSource) AverageTemperaturesPastDay(ctx context.Context, _ []string) ([]weather.TemperatureObservation, error) {
	b.entered <- struct{}{}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestStopReturnsAfterContextCancelled(t *testing.T) {
	src := blockingSource{entered: make(chan struct{}, 1)}
	svc := weather.NewService(src, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(svc, []string{"1"}, time.Hour, io.Discard, nil, quietLogger())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-src.entered:
	case <-time.After(5 * time.Second):
		t.Fatalf("scheduler did not run the first job")
	}

	cancel()

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatalf("Stop did not return after the context was cancelled")
	}
}
