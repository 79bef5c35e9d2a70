package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// NewHealthHandler reports "healthy" when every named check passes and 503 otherwise.
func NewHealthHandler(checks map[string]HealthCheck) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()

		results := make(map[string]string, len(checks))
		var g errgroup.Group
		type result struct {
			name string
			err  error
		}
		out := make(chan result, len(checks))
		for name, check := range checks {
			name, check := name, check
			g.Go(func() error {
				out <- result{name: name, err: check(ctx)}
				return nil
			})
		}
		_ = g.Wait()
		close(out)

		status := http.StatusOK
		for r := range out {
			results[r.name] = "ok"
			if r.err != nil {
				results[r.name] = r.err.Error()
				status = http.StatusServiceUnavailable
			}
		}

		overall := "healthy"
		if status != http.StatusOK {
			overall = "unhealthy"
		}
		return c.JSON(status, echo.Map{
			"status":  overall,
			"service": "bazaar-api",
			"checks":  results,
		})
	}
}
