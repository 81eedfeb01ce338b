package httpapi

import (
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp builds the Fiber app with the shared error handler and middleware.
// Access logs go to accessLog; pass nil to disable them.
func NewApp(accessLog io.Writer) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "smhi-observations",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	if accessLog != nil {
		app.Use(logger.New(logger.Config{Output: accessLog}))
	}
	app.Use(recover.New())

	return app
}
