package handler

import (
	"context"             // context with cancellation for DB calls
	"database/sql"        // SQL database interactions
	"encoding/json"       // user snapshot round-trips
	"net/http"            // HTTP status codes and primitives
	"strconv"             // string-to-int conversion
	"strings"             // string manipulation utilities
	"time"                // timeouts for DB calls

	"github.com/golang-jwt/jwt/v5" // access token parsing for logout
	"github.com/google/uuid"       // session identifiers
	"github.com/labstack/echo/v4"  // Echo framework for HTTP routing

	"github.com/vidyasetu/dbt-portal/internal/config"
	"github.com/vidyasetu/dbt-portal/internal/model"
	"github.com/vidyasetu/dbt-portal/internal/profile"
	"github.com/vidyasetu/dbt-portal/internal/repository"
	"github.com/vidyasetu/dbt-portal/internal/session"
	"github.com/vidyasetu/dbt-portal/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints: account
// and token persistence plus the session runtime that owns lifecycle
// managers for logged-in sessions.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Tokens   *repository.TokenRepo
	Profiles *repository.ProfileRepo
	Sessions *session.Runtime
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, p *repository.ProfileRepo, s *session.Runtime) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Profiles: p, Sessions: s}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // STUDENT | INSTITUTION | VOLUNTEER | GOVT_OFFICIAL

	// Optional student profile captured at sign-up.  Ignored for
	// non-student roles.
	Profile *model.StudentProfile `json:"profile"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
	SessionID    string `json:"session_id"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
type authResp struct {
	User      userPart  `json:"user"`
	Access    tokenPart `json:"access"`
	Refresh   tokenPart `json:"refresh"`
	SessionID string    `json:"session_id"`
}

var validRoles = map[string]bool{
	model.RoleStudent:      true,
	model.RoleInstitution:  true,
	model.RoleVolunteer:    true,
	model.RoleGovtOfficial: true,
}

// Register creates the account (and, for students, the profile row),
// then opens a session and returns tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	at := strings.Index(req.Email, "@")
	if at <= 0 || at == len(req.Email)-1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if !validRoles[role] {
		role = model.RoleStudent
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = req.Email[:at]
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, name, req.Email, req.Password, role, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	var prof model.StudentProfile
	if role == model.RoleStudent {
		if req.Profile != nil {
			prof = *req.Profile
		}
		prof.Name, prof.Email = name, req.Email
		prof = profile.Normalize(prof, time.Now())
		if err := h.Profiles.Upsert(ctx, uid, prof); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create profile failed"})
		}
	}

	resp, err := h.openSession(ctx, uid, name, req.Email, role, prof)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "open session failed"})
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials, opens a session and returns a new
// token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	var prof model.StudentProfile
	if u.Role == model.RoleStudent {
		if p, err := h.Profiles.Get(ctx, u.ID); err == nil {
			prof = p
		}
	}

	resp, err := h.openSession(ctx, u.ID, u.Name, u.Email, u.Role, prof)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "open session failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// openSession mints the token pair, persists the refresh hash and
// saves the session snapshot under a fresh session id, starting its
// lifecycle manager.  The snapshot is the user identity plus, for
// students, the profile fields — the record later served back by
// CurrentUser and patched by profile updates.
func (h *AuthHandler) openSession(ctx context.Context, uid uint64, name, email, role string, prof model.StudentProfile) (authResp, error) {
	sid := uuid.NewString()

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, role, sid, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, uid, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}

	snapshot := map[string]any{
		"id":    uid,
		"name":  name,
		"email": email,
		"role":  role,
	}
	if role == model.RoleStudent {
		// Flatten the profile into the snapshot so MergeUserData
		// patches apply field by field.
		if body, err := json.Marshal(prof); err == nil {
			var fields map[string]any
			if json.Unmarshal(body, &fields) == nil {
				for k, v := range fields {
					if _, taken := snapshot[k]; !taken {
						snapshot[k] = v
					}
				}
			}
		}
	}

	if err := h.Sessions.Open(ctx, sid, access.Token, snapshot); err != nil {
		return authResp{}, err
	}

	return authResp{
		User:      userPart{ID: uid, Name: name, Email: email, Role: role},
		Access:    tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh:   tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
		SessionID: sid,
	}, nil
}

// Refresh validates a refresh token by hash, revokes it and issues a
// new pair (token rotation).  When the caller names its session the
// stored session token is replaced too, keeping the lazy validity
// path and the proactive refresh cycle in agreement.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	raw := strings.TrimSpace(req.RefreshToken)
	hash := utils.HashRefreshRaw(raw)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	sid := strings.TrimSpace(req.SessionID)
	if sid == "" {
		sid = uuid.NewString()
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, u.Role, sid, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	newRef, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, userID, utils.HashRefreshRaw(newRef.Raw), newRef.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}
	if req.SessionID != "" {
		_ = h.Sessions.StoreFor(sid).ReplaceToken(ctx, access.Token)
	}

	return c.JSON(http.StatusOK, authResp{
		User:      userPart{ID: userID, Name: u.Name, Email: u.Email, Role: u.Role},
		Access:    tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh:   tokenPart{Token: newRef.Raw, Expires: newRef.Exp},
		SessionID: sid,
	})
}

// RefreshAccess validates a refresh token and returns a new access
// token WITHOUT rotating the refresh token.  Clients use it to pick
// up a fresh short-lived access token mid-session.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	raw := strings.TrimSpace(req.RefreshToken)
	hash := utils.HashRefreshRaw(raw)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	sid := strings.TrimSpace(req.SessionID)
	if sid == "" {
		sid = uuid.NewString()
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, u.Role, sid, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	if req.SessionID != "" {
		_ = h.Sessions.StoreFor(sid).ReplaceToken(ctx, access.Token)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout ends a session.  Two modes: a valid bearer token with no
// body revokes all of the user's refresh tokens and closes the
// bearer's session; a refresh token in the body revokes that single
// token.  Closing the session stops both lifecycle timers before
// storage is cleared, and the cleared token key notifies any other
// instance holding the same session.
func (h *AuthHandler) Logout(c echo.Context) error {
	var (
		uid       uint64
		sid       string
		hasBearer bool
	)
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		rawToken := strings.TrimPrefix(authHeader, "Bearer ")
		tok, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, echo.ErrUnauthorized
			}
			return []byte(h.Cfg.JWTSecret), nil
		})
		if err == nil && tok.Valid {
			if claims, ok := tok.Claims.(jwt.MapClaims); ok {
				switch subVal := claims["sub"].(type) {
				case float64:
					uid = uint64(subVal)
					hasBearer = true
				case string:
					if parsed, err := strconv.ParseUint(subVal, 10, 64); err == nil {
						uid = parsed
						hasBearer = true
					}
				}
				sid, _ = claims["sid"].(string)
			}
		}
	}

	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if hasBearer && refreshToken == "" {
		if uid == 0 {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		if sid != "" {
			_ = h.Sessions.Close(ctx, sid)
		}
		return c.NoContent(http.StatusNoContent)
	}
	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		if s := strings.TrimSpace(req.SessionID); s != "" {
			_ = h.Sessions.Close(ctx, s)
		}
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

// Me is a simple protected endpoint echoing the token's identity.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":    c.Get("user_id"),
		"role":       c.Get("role"),
		"session_id": c.Get("session_id"),
	})
}

// SessionInfo reports where the caller's session sits inside its
// lifetime window.  Durations go out in milliseconds, matching the
// session timestamps' storage resolution.
func (h *AuthHandler) SessionInfo(c echo.Context) error {
	sid, _ := c.Get("session_id").(string)
	if sid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session required"})
	}
	info, err := h.Sessions.StoreFor(sid).Info(c.Request().Context())
	if err != nil {
		if err == session.ErrNoSession {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session lookup failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session_id":   sid,
		"age_ms":       info.Age.Milliseconds(),
		"remaining_ms": info.Remaining.Milliseconds(),
		"expires_at":   info.ExpiresAt,
	})
}
