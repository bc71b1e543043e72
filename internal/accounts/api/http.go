// Package api exposes authentication and user administration over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tax-gov/arrears/internal/accounts/domain"
	"github.com/tax-gov/arrears/internal/shared/auth"
	"github.com/tax-gov/arrears/internal/shared/config"
	"github.com/tax-gov/arrears/internal/shared/errors"
)

// Handler provides HTTP handlers for accounts and authentication
type Handler struct {
	repo domain.Repository
	cfg  config.AuthConfig
}

// NewHandler creates a new accounts handler
func NewHandler(repo domain.Repository, cfg config.AuthConfig) *Handler {
	return &Handler{repo: repo, cfg: cfg}
}

// PublicRoutes registers the unauthenticated routes.
func (h *Handler) PublicRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	return r
}

// Routes registers the authenticated routes. User administration requires the
// admin role.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/me", h.Me)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/users", h.ListUsers)
		r.Post("/users", h.CreateUser)
		r.Put("/users/{userID}/active", h.SetUserActive)
	})

	return r
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type CreateUserRequest struct {
	Username string    `json:"username"`
	Password string    `json:"password"`
	UserType auth.Role `json:"user_type"`
}

type SetActiveRequest struct {
	IsActive bool `json:"is_active"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	u, err := h.repo.FindByUsername(r.Context(), req.Username)
	if err != nil || !u.IsActive || !u.CheckPassword(req.Password) {
		// Same answer for unknown user, bad password and disabled account.
		writeError(w, errors.Unauthorized("invalid credentials"))
		return
	}

	token, err := auth.NewToken(h.cfg, u.Actor())
	if err != nil {
		writeError(w, errors.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: u})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	u, err := h.repo.FindByID(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": users, "total": len(users)})
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	if req.Username == "" || len(req.Password) < 8 {
		writeError(w, errors.BadRequest("username and a password of at least 8 characters are required"))
		return
	}
	if !req.UserType.Valid() {
		writeError(w, errors.BadRequest("user_type must be admin or user"))
		return
	}

	u := &domain.User{
		ID:        uuid.NewString(),
		Username:  req.Username,
		UserType:  req.UserType,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := u.SetPassword(req.Password); err != nil {
		writeError(w, errors.Internal(err))
		return
	}

	if err := h.repo.Create(r.Context(), u); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *Handler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	id := chi.URLParam(r, "userID")
	if err := h.repo.SetActive(r.Context(), id, req.IsActive); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":  appErr.Message,
			"code":   appErr.Code,
			"fields": appErr.Fields,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
