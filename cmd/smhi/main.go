package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	httpapi "github.com/i474232898/smhi-observations/internal/api/http"
	"github.com/i474232898/smhi-observations/internal/common"
	"github.com/i474232898/smhi-observations/internal/config"
	"github.com/i474232898/smhi-observations/internal/publish"
	"github.com/i474232898/smhi-observations/internal/report"
	"github.com/i474232898/smhi-observations/internal/scheduler"
	"github.com/i474232898/smhi-observations/internal/weather"
	"github.com/i474232898/smhi-observations/internal/weather/providers"
)

const appName = "smhi-observations"

const (
	modeParameters   = "parameters"
	modeTemperatures = "temperatures"
	modeCheck        = "check"
	modeServe        = "serve"
)

var errUsage = errors.New("usage error")

type options struct {
	mode     string
	stations []string
	watch    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return 1
	}

	logger := newLogger(cfg, stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One client for every request so connections are reused across stations.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	client := providers.NewSMHIClient(httpClient, cfg.SMHI(), logger)
	service := weather.NewService(client, logger)

	switch {
	case opts.mode == modeServe:
		return serve(ctx, cfg, service, stderr, logger)
	case opts.watch:
		return watch(ctx, cfg, service, opts.stations, stdout, logger)
	default:
		return execute(ctx, opts, service, stdout, logger)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("smhi", flag.ContinueOnError)
	fs.SetOutput(stderr)

	parameters := fs.Bool("parameters", false, "List SMHI API parameters")
	temperatures := fs.Bool("temperatures", false, "Print the highest and lowest average temperature over the latest day")
	check := fs.Bool("check", false, "Print the status code of the API root")
	serveHTTP := fs.Bool("serve", false, "Serve parameters, stations and temperatures over HTTP on $PORT")
	stations := fs.String("stations", "", "Comma-separated station ids for --temperatures (default: every active station)")
	watchFlag := fs.Bool("watch", false, "With --temperatures, repeat every $WATCH_INTERVAL until interrupted")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Extract data from SMHI's open observations API.\n\n")
		fmt.Fprintf(fs.Output(), "Usage: smhi --parameters | --temperatures [--stations ids] [--watch] | --check | --serve\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	var selected []string
	for mode, set := range map[string]bool{
		modeParameters:   *parameters,
		modeTemperatures: *temperatures,
		modeCheck:        *check,
		modeServe:        *serveHTTP,
	} {
		if set {
			selected = append(selected, mode)
		}
	}

	switch {
	case fs.NArg() > 0:
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
	case len(selected) != 1:
		fmt.Fprintln(stderr, "exactly one of --parameters, --temperatures, --check or --serve is required")
	case (*watchFlag || *stations != "") && selected[0] != modeTemperatures:
		fmt.Fprintln(stderr, "--stations and --watch only apply to --temperatures")
	default:
		return options{
			mode:     selected[0],
			stations: common.SplitList(*stations),
			watch:    *watchFlag,
		}, nil
	}

	fs.Usage()
	return options{}, errUsage
}

// execute runs a one-shot mode and returns the process exit code.
func execute(ctx context.Context, opts options, service *weather.Service, stdout io.Writer, logger *slog.Logger) int {
	switch opts.mode {
	case modeCheck:
		status, err := service.CheckConnection(ctx)
		if err != nil {
			logger.Error("connection check failed", "err", err)
			return 1
		}
		fmt.Fprintln(stdout, status)
		if status != http.StatusOK {
			return 1
		}
		return 0

	case modeParameters:
		params, err := service.Parameters(ctx)
		if err != nil {
			logger.Error("could not list parameters", "err", err)
			return 1
		}
		if err := report.WriteParameters(stdout, params); err != nil {
			logger.Error("write report", "err", err)
			return 1
		}
		return 0

	case modeTemperatures:
		ext, _, err := service.Extremes(ctx, opts.stations)
		if errors.Is(err, weather.ErrNoData) {
			fmt.Fprintln(stdout, report.NoDataMessage)
			return 1
		}
		if err != nil {
			logger.Error("could not compute temperatures", "err", err)
			return 1
		}
		if err := report.WriteExtremes(stdout, ext); err != nil {
			logger.Error("write report", "err", err)
			return 1
		}
		return 0
	}

	logger.Error("unknown mode", "mode", opts.mode)
	return 2
}

func watch(ctx context.Context, cfg *config.AppConfig, service *weather.Service, stations []string, stdout io.Writer, logger *slog.Logger) int {
	var pub scheduler.Publisher
	if cfg.MQTTBroker != "" {
		mqttPub := publish.NewMQTTPublisher(publish.MQTTConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Topic:    cfg.MQTTTopic,
		}, logger)

		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := mqttPub.Connect(connectCtx)
		cancel()
		if err != nil {
			logger.Error("mqtt unavailable", "broker", cfg.MQTTBroker, "err", err)
			return 1
		}
		defer mqttPub.Close()
		pub = mqttPub
	}

	sched := scheduler.New(service, stations, cfg.WatchInterval, stdout, pub, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "err", err)
		return 1
	}
	defer sched.Stop()

	<-ctx.Done()
	logger.Info("shutting down")
	return 0
}

func serve(ctx context.Context, cfg *config.AppConfig, service *weather.Service, accessLog io.Writer, logger *slog.Logger) int {
	app := httpapi.NewApp(accessLog)
	httpapi.RegisterRoutes(app, service, cfg.ParameterID, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "port", cfg.Port)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		logger.Error("http server stopped", "err", err)
		return 1
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "err", err)
		return 1
	}
	return 0
}

func newLogger(cfg *config.AppConfig, w io.Writer) *slog.Logger {
	if cfg.AppEnv == "dev" {
		h := tint.NewHandler(w, &tint.Options{
			Level:      cfg.LogLevel,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h)
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	return slog.New(h).With("app", appName, "env", cfg.AppEnv)
}
