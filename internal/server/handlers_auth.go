package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mwillis/coinfolio/internal/models"
)

// handleUserRegister handles POST /api/users.
func (s *Server) handleUserRegister(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Handle      string `json:"handle"`
		DisplayName string `json:"display_name"`
		Email       string `json:"email"`
		Password    string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	req.Handle = strings.TrimSpace(req.Handle)
	if req.Handle == "" {
		WriteError(w, http.StatusBadRequest, "handle is required")
		return
	}
	if len(req.Password) < 8 {
		WriteError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	ctx := r.Context()
	if existing, err := s.app.Storage.ProfileStore().GetByHandle(ctx, req.Handle); err == nil && existing != nil {
		WriteErrorWithCode(w, http.StatusConflict, "handle already taken", "handle_taken")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	now := time.Now()
	profile := &models.UserProfile{
		ID:           uuid.New().String(),
		Handle:       req.Handle,
		DisplayName:  req.DisplayName,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.app.Storage.ProfileStore().Save(ctx, profile); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save user profile")
		WriteError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	s.logger.Info().Str("user", profile.ID).Str("handle", profile.Handle).Msg("User registered")
	WriteJSON(w, http.StatusCreated, profile.Account())
}

// handleUserMe handles GET /api/users/me.
func (s *Server) handleUserMe(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	profile, err := s.app.Storage.ProfileStore().Get(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "user not found")
		return
	}
	WriteJSON(w, http.StatusOK, profile.Account())
}

// handleUserSummary handles GET /api/users/{id}. Returns the public summary
// only, so viewers can look up a sharer without seeing email or timestamps.
func (s *Server) handleUserSummary(w http.ResponseWriter, r *http.Request, userID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if _, ok := requireUser(w, r); !ok {
		return
	}

	profile, err := s.app.Storage.ProfileStore().Get(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "user not found")
		return
	}
	WriteJSON(w, http.StatusOK, profile.Summary())
}

// handleAuthLogin handles POST /api/auth/login.
func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Handle   string `json:"handle"`
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	profile, err := s.app.Storage.ProfileStore().GetByHandle(r.Context(), strings.TrimSpace(req.Handle))
	if err != nil || profile == nil {
		WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := s.signAccessToken(profile)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sign access token")
		WriteError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_at":   expiresAt,
		"user":         profile.Summary(),
	})
}

// signAccessToken creates a new HS256 JWT for the profile.
func (s *Server) signAccessToken(profile *models.UserProfile) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.app.Config.Auth.GetTokenExpiry())
	claims := jwt.MapClaims{
		"jti":    uuid.New().String(),
		"sub":    profile.ID,
		"handle": profile.Handle,
		"iss":    "coinfolio-server",
		"iat":    now.Unix(),
		"exp":    expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.app.Config.Auth.JWTSecret))
	return signed, expiresAt, err
}
