package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vidyasetu/dbt-portal/internal/session"
)

// SessionGate returns a middleware enforcing that the request's
// session (the sid claim extracted by JWTAuth) is still live.  This
// is the lazy expiry path: every gated request re-checks the stored
// start timestamp against the session timeout, and an aged-out
// session is cleared on the spot.  Profile operations sit behind
// this gate — no valid session, no profile access.
//
// newStore binds a session id to its store; main wires it over the
// shared KV and clock.
func SessionGate(newStore func(sid string) *session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid, ok := c.Get("session_id").(string)
			if !ok || sid == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session required"})
			}
			store := newStore(sid)
			valid, err := store.IsValid(c.Request().Context())
			if err != nil {
				// Storage failure: no safe default, surface it.
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session check failed"})
			}
			if !valid {
				// The client must reauthenticate; same response for
				// timeout and cross-instance logout.
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired"})
			}
			return next(c)
		}
	}
}
