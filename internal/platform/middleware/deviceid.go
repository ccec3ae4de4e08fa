package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// DeviceIDHeader identifies the handset a request came from. Draft files
// and the case edit cache are partitioned by this value.
const DeviceIDHeader = "X-Device-ID"

const deviceIDKey = "device_id"

// maxDeviceIDLen bounds the header so device ids stay usable as storage
// key segments.
const maxDeviceIDLen = 128

// DeviceID extracts the device header into the request context when
// present. Requests without one pass through; device-scoped behavior is
// simply skipped for them.
func DeviceID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := strings.TrimSpace(c.Request().Header.Get(DeviceIDHeader))
			if id != "" {
				if len(id) > maxDeviceIDLen {
					return echo.NewHTTPError(http.StatusBadRequest, "X-Device-ID too long")
				}
				c.Set(deviceIDKey, id)
			}
			return next(c)
		}
	}
}

// RequireDeviceID rejects requests that do not identify their device.
// Mounted on routes whose data lives entirely in per-device storage.
func RequireDeviceID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := strings.TrimSpace(c.Request().Header.Get(DeviceIDHeader))
			if id == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "X-Device-ID header is required")
			}
			if len(id) > maxDeviceIDLen {
				return echo.NewHTTPError(http.StatusBadRequest, "X-Device-ID too long")
			}
			c.Set(deviceIDKey, id)
			return next(c)
		}
	}
}

// DeviceIDFromContext returns the device id set by DeviceID or
// RequireDeviceID, or an empty string.
func DeviceIDFromContext(c echo.Context) string {
	id, _ := c.Get(deviceIDKey).(string)
	return id
}
