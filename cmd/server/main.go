package main // Entry point package

import (
	"log"  // Logging library
	"time" // Session timer durations

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/vidyasetu/dbt-portal/internal/catalog"    // Embedded scholarship catalog
	"github.com/vidyasetu/dbt-portal/internal/config"     // Internal config loader
	"github.com/vidyasetu/dbt-portal/internal/database"   // MySQL connection pool
	"github.com/vidyasetu/dbt-portal/internal/handler"    // HTTP handlers
	"github.com/vidyasetu/dbt-portal/internal/queue"      // RabbitMQ alert consumer
	"github.com/vidyasetu/dbt-portal/internal/repository" // SQL repositories
	"github.com/vidyasetu/dbt-portal/internal/router"     // Route registration
	"github.com/vidyasetu/dbt-portal/internal/session"    // Session store and lifecycle
	"github.com/vidyasetu/dbt-portal/internal/utils"      // Token helpers
)

func main() {
	_ = godotenv.Load() // Load .env if present; real env vars win

	cfg := config.Load() // Load environment config

	// Open the MySQL pool.  Config values are validated by Load, so a
	// failure here means the database itself is unreachable.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Redis backs three optional concerns: session storage, the public
	// catalog response cache and the rate limiter.  When it is down the
	// service falls back to in-process sessions and the middleware fail
	// open, so a nil client is not fatal.
	rdb := config.NewRedisClient()

	// Pick the session backend.  Redis entries carry a TTL slightly
	// past the session timeout so abandoned sessions age out even if
	// nothing ever touches them again.
	var (
		kv      session.KV
		watcher session.Watcher
	)
	if rdb != nil {
		rkv := session.NewRedisKV(rdb, cfg.SessionTimeout+5*time.Minute)
		kv, watcher = rkv, rkv
	} else {
		mkv := session.NewMemoryKV()
		kv, watcher = mkv, mkv
		log.Println("redis unavailable, sessions held in memory")
	}

	// The runtime owns one lifecycle manager per live session: an
	// absolute timeout timer, a proactive token refresh timer and a
	// watcher subscription for sign-outs elsewhere.
	sessions := session.NewRuntime(
		kv, watcher,
		session.SystemClock(), session.SystemTimers(),
		utils.TokenRefresher{Secret: cfg.JWTSecret, TTLMin: cfg.AccessTTLMin},
		cfg.SessionTimeout, cfg.TokenRefresh,
		func(n session.Notice) {
			log.Printf("session %s ended: %s", n.SessionID, n.Reason)
		},
	)

	// Load the scholarship catalog: an external file when CATALOG_PATH
	// is set, otherwise the embedded copy.
	list, err := catalog.Load()
	if cfg.CatalogPath != "" {
		list, err = catalog.LoadFile(cfg.CatalogPath)
	}
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	log.Printf("catalog loaded: %d scholarships", len(list))

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	profiles := repository.NewProfileRepo(db)

	auth := handler.NewAuthHandler(cfg, users, tokens, profiles, sessions)
	student := handler.NewStudentHandler(profiles, sessions)
	scholarships := handler.NewScholarshipHandler(list, profiles, sessions)

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e, db, rdb)
	router.RegisterAuth(e, auth, student, cfg.JWTSecret, sessions)
	router.RegisterScholarships(e, scholarships, cfg.JWTSecret, sessions, rdb)

	// Start the deadline-alert consumer in the background.  It keeps
	// reconnecting on its own; a missing broker only costs alerts.
	go func() {
		if err := queue.StartAlertConsumer(); err != nil {
			log.Printf("alert consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
