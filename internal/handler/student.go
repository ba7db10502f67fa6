package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vidyasetu/dbt-portal/internal/model"
	"github.com/vidyasetu/dbt-portal/internal/profile"
	"github.com/vidyasetu/dbt-portal/internal/repository"
	"github.com/vidyasetu/dbt-portal/internal/session"
)

// StudentHandler serves the student profile endpoints.  The stored
// profile row is the source of truth; the session snapshot mirrors it
// so other endpoints can read profile fields without a DB hit.
type StudentHandler struct {
	Profiles *repository.ProfileRepo
	Sessions *session.Runtime
}

func NewStudentHandler(p *repository.ProfileRepo, s *session.Runtime) *StudentHandler {
	return &StudentHandler{Profiles: p, Sessions: s}
}

// GetProfile returns the caller's normalized profile.  Missing
// optional fields come back filled with their defaults so clients
// never need their own fallback logic.
func (h *StudentHandler) GetProfile(c echo.Context) error {
	uid, ok := c.Get("user_id").(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Profiles.Get(ctx, uid)
	if err != nil {
		if err == repository.ErrProfileNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, profile.Normalize(p, time.Now()))
}

// UpdateProfile applies a partial update: only fields present in the
// body change, everything else keeps its stored value.  The merged
// result is normalized, persisted, and patched into the live session
// snapshot so session reads see it immediately.
func (h *StudentHandler) UpdateProfile(c echo.Context) error {
	uid, ok := c.Get("user_id").(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var patch map[string]any
	if err := c.Bind(&patch); err != nil || len(patch) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	// Identity fields are owned by the account, not the profile.
	delete(patch, "email")
	delete(patch, "age")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	current, err := h.Profiles.Get(ctx, uid)
	if err != nil && err != repository.ErrProfileNotFound {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	merged, err := applyPatch(current, patch)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid field value"})
	}
	merged = profile.Normalize(merged, time.Now())

	if err := h.Profiles.Upsert(ctx, uid, merged); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	if sid, _ := c.Get("session_id").(string); sid != "" {
		_, _ = h.Sessions.StoreFor(sid).MergeUserData(ctx, patch)
	}
	return c.JSON(http.StatusOK, merged)
}

// ValidateProfile runs normalization over a candidate profile without
// persisting anything, reporting the resolved values plus warnings
// for fields the defaults had to fill.  Clients call it before the
// recommendations endpoint to preview what the matcher will see.
func (h *StudentHandler) ValidateProfile(c echo.Context) error {
	var raw model.StudentProfile
	if err := c.Bind(&raw); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	norm := profile.Normalize(raw, time.Now())

	var warnings []string
	if raw.Category == "" {
		warnings = append(warnings, "category missing, defaulted to "+norm.Category)
	}
	if raw.YearOfStudy == "" {
		warnings = append(warnings, "year_of_study missing, defaulted to "+norm.YearOfStudy)
	}
	if raw.DOB != "" && norm.Age == nil {
		warnings = append(warnings, "dob not parseable, age unknown")
	}
	if !raw.FamilyIncome.Valid {
		warnings = append(warnings, "family_income missing or not numeric, income rules will not match")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"profile":  norm,
		"warnings": warnings,
	})
}

// applyPatch merges a sparse JSON patch over an existing profile by
// round-tripping both through their JSON forms.  Unknown keys are
// dropped silently.
func applyPatch(base model.StudentProfile, patch map[string]any) (model.StudentProfile, error) {
	body, err := json.Marshal(base)
	if err != nil {
		return base, err
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return base, err
	}
	for k, v := range patch {
		fields[k] = v
	}
	body, err = json.Marshal(fields)
	if err != nil {
		return base, err
	}
	var merged model.StudentProfile
	if err := json.Unmarshal(body, &merged); err != nil {
		return base, err
	}
	return merged, nil
}
