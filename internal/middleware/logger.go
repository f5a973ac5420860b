package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    log "github.com/sirupsen/logrus"
)

// RequestLogger logs each request with its status and latency.
func RequestLogger() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // let echo write the error response so the status is final
                c.Error(err)
            }
            fields := log.Fields{
                "method":  c.Request().Method,
                "path":    c.Request().URL.Path,
                "status":  c.Response().Status,
                "latency": time.Since(start).String(),
            }
            if uid := UserID(c); uid != "" {
                fields["user_id"] = uid
            }
            log.WithFields(fields).Info("HTTP Request")
            return nil
        }
    }
}
