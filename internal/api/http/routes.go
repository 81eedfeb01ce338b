package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/smhi-observations/internal/common"
	"github.com/i474232898/smhi-observations/internal/weather"
	"github.com/i474232898/smhi-observations/internal/weather/providers"
)

var validate = validator.New()

// upstreamTimeout bounds the SMHI calls made for a single request.
const upstreamTimeout = 2 * time.Minute

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, parameterID string, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 10*time.Second)
		defer cancel()

		status, err := service.CheckConnection(ctx)
		if err != nil || status != http.StatusOK {
			logger.Warn("upstream health check failed", "status", status, "err", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":         "degraded",
				"upstreamStatus": status,
			})
		}
		return c.JSON(fiber.Map{
			"status":         "ok",
			"upstreamStatus": status,
		})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/parameters", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), upstreamTimeout)
		defer cancel()

		params, err := service.Parameters(ctx)
		if err != nil {
			return upstreamError(logger, err, "failed to list parameters")
		}
		return c.JSON(params)
	})

	v1.Get("/stations", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), upstreamTimeout)
		defer cancel()

		ids, err := service.ActiveStations(ctx)
		if err != nil {
			return upstreamError(logger, err, "failed to list active stations")
		}
		return c.JSON(fiber.Map{
			"parameter": parameterID,
			"stations":  ids,
		})
	})

	v1.Get("/temperatures", func(c *fiber.Ctx) error {
		var q temperaturesQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), upstreamTimeout)
		defer cancel()

		ext, obs, err := service.Extremes(ctx, q.Stations)
		if err != nil {
			if errors.Is(err, weather.ErrNoData) {
				return fiber.NewError(fiber.StatusNotFound, "no temperature data available")
			}
			return upstreamError(logger, err, "failed to fetch temperatures")
		}

		return c.JSON(fiber.Map{
			"observations": obs,
			"highest":      ext.Highest,
			"lowest":       ext.Lowest,
		})
	})
}

// upstreamError logs a failed SMHI call and maps it to a client-facing error.
func upstreamError(logger *slog.Logger, err error, msg string) error {
	logger.Error(msg, "err", err)

	var stErr *providers.StationError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, msg+": upstream timed out")
	case errors.As(err, &stErr):
		return fiber.NewError(fiber.StatusBadGateway, msg+": station "+stErr.StationID)
	case errors.Is(err, providers.ErrMalformedResponse):
		return fiber.NewError(fiber.StatusBadGateway, msg+": malformed upstream response")
	default:
		return fiber.NewError(fiber.StatusBadGateway, msg)
	}
}

// temperaturesQuery holds query parameters for the temperatures endpoint.
type temperaturesQuery struct {
	Stations []string `validate:"omitempty,max=500,dive,numeric"`
}

func (q *temperaturesQuery) bind(c *fiber.Ctx) error {
	q.Stations = common.SplitList(c.Query("stations"))
	return validate.Struct(q)
}
