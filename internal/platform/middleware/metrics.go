package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ercase/ercase/internal/platform/metrics"
)

// Metrics records request counts and latencies. The route pattern rather
// than the raw URL keeps label cardinality bounded.
func Metrics(collector *metrics.Collector) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			collector.RecordHTTPRequest(c.Request().Method, path, strconv.Itoa(status), time.Since(start))
			return err
		}
	}
}
