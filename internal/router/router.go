package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"    // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"   // Redis client handed to caching / rate-limit middleware

	"github.com/vidyasetu/dbt-portal/internal/config"     // cache and rate-limit tunables
	"github.com/vidyasetu/dbt-portal/internal/handler"    // import the handlers that implement business logic
	"github.com/vidyasetu/dbt-portal/internal/middleware" // middleware for JWT auth, roles and session checks
	"github.com/vidyasetu/dbt-portal/internal/session"    // session runtime backing the session gate
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, db *sql.DB, rdb *redis.Client) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health(db, rdb))
}

// RegisterAuth registers all authentication‑related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.  Protected routes run three
// layers: JWTAuth validates the bearer token, RequireRole rejects unknown
// roles and SessionGate runs the lazy session-validity check against the
// sid claim.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, st *handler.StudentHandler, jwtSecret string, sessions *session.Runtime) {
	// Create a route group under the /v1/auth prefix for operations that do
	// not require an existing session (register, login, refresh).  Each of
	// these handlers is responsible for generating or exchanging tokens.
	g := e.Group("/v1/auth")
	// Register a POST endpoint to handle user registration at /v1/auth/register.
	g.POST("/register", a.Register)
	// Register a POST endpoint to handle user login at /v1/auth/login.
	g.POST("/login", a.Login)
	// Register a POST endpoint to refresh access tokens at /v1/auth/refresh. This rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Register a POST endpoint to issue a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Register a POST endpoint to log out.  The handler accepts either a
	// valid bearer token (ends that session and revokes every refresh
	// token the user holds) or a JSON body with a `refresh_token` (revokes
	// just that token).  A 204 response signals success.
	g.POST("/logout", a.Logout)

	// Create another group for routes that require a valid access token.  All
	// handlers registered on this group will execute the JWTAuth middleware
	// before being invoked.  Protected endpoints live under /v1.
	auth := e.Group("/v1")
	// Apply the JWTAuth middleware to the protected group using the provided secret.
	auth.Use(middleware.JWTAuth(jwtSecret))
	// Accept every known role on the generic protected endpoints; routes
	// with stricter requirements declare their own RequireRole below.
	auth.Use(middleware.RequireRole("STUDENT", "INSTITUTION", "VOLUNTEER", "GOVT_OFFICIAL"))
	// The session gate sits after JWTAuth so it can read the sid claim.
	// It clears expired sessions on contact and turns them into 401s.
	auth.Use(middleware.SessionGate(sessions.StoreFor))
	// Register a GET endpoint at /v1/me that returns the authenticated user's information.
	auth.GET("/me", a.Me)
	// Session introspection: how old the session is and when it expires.
	auth.GET("/session", a.SessionInfo)

	// Student-only profile endpoints.  The extra RequireRole narrows the
	// group's role set down to students for these routes.
	studentOnly := auth.Group("/student", middleware.RequireRole("STUDENT"))
	studentOnly.GET("/profile", st.GetProfile)
	studentOnly.PUT("/profile", st.UpdateProfile)
	studentOnly.POST("/profile/validate", st.ValidateProfile)

	// Additionally map POST /v1/logout to the same handler so clients can
	// call either path with a refresh token in the body.
	e.POST("/v1/logout", a.Logout)
}

// RegisterScholarships registers the catalog browse endpoints and the
// matching endpoint.  Browse routes are public and run behind the Redis
// response cache and the per-IP token-bucket rate limiter; the matcher is
// protected because it reads the caller's profile and session.
func RegisterScholarships(e *echo.Echo, sh *handler.ScholarshipHandler, jwtSecret string, sessions *session.Runtime, rdb *redis.Client) {
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()

	// Public catalog routes.  The cache middleware short-circuits repeat
	// GETs; the rate limiter protects the catalog from scraping.  Both
	// fail open when Redis is unavailable.
	pub := e.Group("/v1/scholarships",
		middleware.NewTokenBucket(rlCfg, rdb),
		middleware.NewResponseCache(cacheCfg, rdb),
	)
	pub.GET("", sh.List)
	pub.GET("/:id", sh.Detail)

	// The matcher needs the caller's identity and session, so it runs the
	// full protected stack.
	rec := e.Group("/v1/scholarships",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("STUDENT"),
		middleware.SessionGate(sessions.StoreFor),
	)
	rec.POST("/recommendations", sh.Recommend)
}
