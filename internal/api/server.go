package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

// NewApp builds the fiber application with h's routes. bodyLimit caps
// upload size in bytes; zero keeps fiber's default.
func NewApp(h *Handler, bodyLimit int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "closure-importer",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return writeError(c, code, err.Error())
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "POST, GET, OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	app.Use(requestLogger(h))

	if h.StaticDir != "" && !staticExists(h.StaticDir) {
		logger(h).WithField("dir", h.StaticDir).Warn("static dir has no index.html")
	}
	h.RegisterRoutes(app)
	return app
}

func logger(h *Handler) *logrus.Logger {
	if h.Log == nil {
		return logrus.StandardLogger()
	}
	return h.Log
}

func requestLogger(h *Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger(h).WithFields(logrus.Fields{
			"method":   c.Method(),
			"path":     c.Path(),
			"status":   c.Response().StatusCode(),
			"duration": time.Since(start).String(),
		}).Debug("request")
		return err
	}
}
