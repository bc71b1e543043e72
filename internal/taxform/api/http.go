// Package api exposes the tax form module over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tax-gov/arrears/internal/shared/auth"
	"github.com/tax-gov/arrears/internal/shared/errors"
	"github.com/tax-gov/arrears/internal/taxform/domain"
	"github.com/tax-gov/arrears/internal/taxform/service"
)

// Handler provides HTTP handlers for the tax form module
type Handler struct {
	svc *service.Service
}

// NewHandler creates a new tax form handler
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes registers the tax form routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListForms)
	r.Post("/", h.CreateForm)

	r.Route("/{formID}", func(r chi.Router) {
		r.Get("/", h.GetForm)
		r.Put("/", h.UpdateForm)
		r.With(auth.RequireAdmin).Delete("/", h.DeleteForm)
	})

	return r
}

func (h *Handler) ListForms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ListFilter{
		Month:      q.Get("month"),
		Status:     q.Get("status"),
		CreditCode: q.Get("credit_code"),
		Search:     q.Get("search"),
		CreatedBy:  q.Get("created_by"),
		Limit:      50,
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, errors.BadRequest("invalid limit"))
			return
		}
		filter.Limit = n
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, errors.BadRequest("invalid offset"))
			return
		}
		filter.Offset = n
	}

	summaries, total, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  summaries,
		"total": total,
	})
}

func (h *Handler) CreateForm(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	var doc domain.FormDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	f, err := h.svc.Create(r.Context(), &doc, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, f)
}

func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseFormID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	f, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := parseFormID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var doc domain.FormDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	f, err := h.svc.Update(r.Context(), id, &doc, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseFormID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseFormID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "formID"), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.BadRequest("invalid form ID")
	}
	return id, nil
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
