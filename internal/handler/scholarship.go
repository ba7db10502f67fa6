package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vidyasetu/dbt-portal/internal/catalog"
	"github.com/vidyasetu/dbt-portal/internal/model"
	"github.com/vidyasetu/dbt-portal/internal/profile"
	"github.com/vidyasetu/dbt-portal/internal/queue"
	"github.com/vidyasetu/dbt-portal/internal/recommend"
	"github.com/vidyasetu/dbt-portal/internal/repository"
	"github.com/vidyasetu/dbt-portal/internal/session"
	alertpub "github.com/vidyasetu/dbt-portal/internal/service"
)

// ScholarshipHandler serves the catalog browse endpoints and the
// matching engine.  The catalog is loaded once at startup and shared
// read-only across requests.
type ScholarshipHandler struct {
	Catalog  []model.Scholarship
	Profiles *repository.ProfileRepo
	Sessions *session.Runtime

	// publish delivers recommendation events to the broker; tests
	// substitute a recorder.
	publish func(context.Context, queue.RecommendationEvent) error
}

func NewScholarshipHandler(list []model.Scholarship, p *repository.ProfileRepo, s *session.Runtime) *ScholarshipHandler {
	return &ScholarshipHandler{
		Catalog:  list,
		Profiles: p,
		Sessions: s,
		publish:  alertpub.PublishRecommendationGenerated,
	}
}

// List returns catalog entries, optionally filtered by query params
// (category, field, gender, age_band).  Order is the catalog order.
func (h *ScholarshipHandler) List(c echo.Context) error {
	q := catalog.Query{
		Category: c.QueryParam("category"),
		Field:    c.QueryParam("field"),
		Gender:   c.QueryParam("gender"),
		AgeBand:  c.QueryParam("age_band"),
	}
	out := catalog.Filter(h.Catalog, q)
	return c.JSON(http.StatusOK, echo.Map{
		"count":        len(out),
		"scholarships": out,
	})
}

// Detail returns a single catalog entry by id.
func (h *ScholarshipHandler) Detail(c echo.Context) error {
	s, ok := catalog.FindByID(h.Catalog, c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "scholarship not found"})
	}
	return c.JSON(http.StatusOK, s)
}

// Recommend scores the caller's profile against the full catalog and
// returns the eligible entries, highest score first.  A profile in
// the request body takes precedence; otherwise the stored profile is
// used, falling back to the session snapshot when the DB row is
// missing.  Raw profiles go through normalization first so the rules
// always see defaults and a resolved age.
func (h *ScholarshipHandler) Recommend(c echo.Context) error {
	uid, _ := c.Get("user_id").(uint64)
	sid, _ := c.Get("session_id").(string)

	var raw model.StudentProfile
	bound := false
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&raw); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		bound = true
	}
	if !bound {
		p, err := h.Profiles.Get(c.Request().Context(), uid)
		switch {
		case err == nil:
			raw = p
		case err == repository.ErrProfileNotFound && sid != "":
			user, uerr := h.Sessions.StoreFor(sid).CurrentUser(c.Request().Context())
			if uerr != nil || user == nil {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "no profile on record"})
			}
			raw = profile.FromUserData(user)
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}

	norm := profile.Normalize(raw, time.Now())
	matches := recommend.Score(norm, h.Catalog)

	if len(matches) > 0 {
		h.publishEvent(uid, sid, matches)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count":   len(matches),
		"matches": matches,
	})
}

// publishEvent emits a recommendation event for downstream alerting.
// Publishing is best effort: a broker outage must not fail the
// request that produced the matches.
func (h *ScholarshipHandler) publishEvent(uid uint64, sid string, matches []model.ScoredMatch) {
	top := matches
	if len(top) > 3 {
		top = top[:3]
	}
	ev := queue.RecommendationEvent{
		UserID:      uid,
		SessionID:   sid,
		MatchCount:  len(matches),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, m := range top {
		ev.TopMatches = append(ev.TopMatches, queue.MatchedAward{
			ScholarshipID: m.ID,
			Name:          m.Name,
			Score:         m.EligibilityScore,
			Deadline:      m.Deadline,
		})
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.publish(ctx, ev); err != nil {
			log.Printf("recommendation event not published: %v", err)
		}
	}()
}
