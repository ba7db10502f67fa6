package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Health reports liveness plus the state of the two backing stores.
// Redis being down is reported but does not fail the check: the
// service degrades to in-memory sessions without it.
func Health(db *sql.DB, rdb *redis.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		out := echo.Map{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}

		ctx := c.Request().Context()
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				out["status"] = "degraded"
				out["db"] = "down"
			} else {
				out["db"] = "up"
			}
		}
		if rdb == nil {
			out["redis"] = "disabled"
		} else if err := rdb.Ping(ctx).Err(); err != nil {
			out["redis"] = "down"
		} else {
			out["redis"] = "up"
		}

		code := http.StatusOK
		if out["status"] == "degraded" {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, out)
	}
}
