package handlers

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/gofiber/fiber/v2"

	"scene-service/internal/metrics"
)

// Instrument records the count, latency and in-flight number of requests,
// labelled by route pattern so ids do not multiply label values.
func Instrument() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		done := metrics.TrackRequest()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		elapsed := time.Since(start)
		done(c.Method(), c.Route().Path, status, float64(elapsed.Microseconds())/1000)

		if elapsed > time.Second {
			logs.WithTag("method", c.Method()).
				WithTag("path", c.Path()).
				WithTag("duration", elapsed.String()).
				Warn("slow request")
		}
		return err
	}
}
