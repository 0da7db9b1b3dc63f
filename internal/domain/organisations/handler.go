package organisations

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"rasd-api/internal/middleware"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/organisations", func(or chi.Router) {
		or.Get("/", listOrganisationsHandler(svc))
		or.Post("/", createOrganisationHandler(svc))
		or.Get("/{orgID}", getOrganisationHandler(svc))
		or.Patch("/{orgID}", updateOrganisationHandler(svc))
	})
}

type organisationResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	ABN   string    `json:"abn"`
	Email string    `json:"email"`
}

type listOrganisationsResponse struct {
	Count   int                    `json:"count"`
	Cursor  string                 `json:"cursor,omitempty"`
	Results []organisationResponse `json:"results"`
}

type createOrganisationRequest struct {
	Name  string `json:"name"`
	ABN   string `json:"abn"`
	Email string `json:"email"`
}

type updateOrganisationRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

func listOrganisationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		items, next, err := svc.List(r.Context(), cursor, limit)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := listOrganisationsResponse{Count: len(items), Cursor: next, Results: make([]organisationResponse, 0, len(items))}
		for _, org := range items {
			out.Results = append(out.Results, toOrganisationResponse(org))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func createOrganisationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !claims.IsAdmin() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req createOrganisationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		org, err := svc.Create(r.Context(), CreateInput{Name: req.Name, ABN: req.ABN, Email: req.Email})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrConflict):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toOrganisationResponse(org))
	}
}

func getOrganisationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "orgID"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		org, err := svc.Get(r.Context(), id)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toOrganisationResponse(org))
	}
}

func updateOrganisationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !claims.IsAdmin() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "orgID"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var req updateOrganisationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		org, err := svc.Update(r.Context(), id, UpdateInput{Name: req.Name, Email: req.Email})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toOrganisationResponse(org))
	}
}

func toOrganisationResponse(org Organisation) organisationResponse {
	return organisationResponse{ID: org.ID, Name: org.Name, ABN: org.ABN, Email: org.Email}
}

// writeJSON is duplicated across module handlers on purpose; a shared helper
// package is not worth it yet.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
