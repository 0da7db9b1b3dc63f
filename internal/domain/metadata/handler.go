package metadata

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
	r.Route("/metadata", func(mr chi.Router) {
		mr.Get("/", listMetadataHandler(svc))
		mr.Post("/", createMetadataHandler(svc))
		mr.Get("/{metadataID}", getMetadataHandler(svc))
		mr.Patch("/{metadataID}", updateMetadataHandler(svc))
	})
}

type metadataResponse struct {
	ID             uuid.UUID `json:"id"`
	OrganisationID uuid.UUID `json:"organisation_id"`
	Title          string    `json:"title"`
	Abstract       string    `json:"abstract,omitempty"`
	Keywords       []string  `json:"keywords,omitempty"`
	Custodian      string    `json:"custodian,omitempty"`
	DataSourceDOI  string    `json:"data_source_doi,omitempty"`
	DataSourceURL  string    `json:"data_source_url,omitempty"`
	ContactEmail   string    `json:"contact_email"`
}

type listMetadataResponse struct {
	Count   int                `json:"count"`
	Cursor  string             `json:"cursor,omitempty"`
	Results []metadataResponse `json:"results"`
}

type createMetadataRequest struct {
	OrganisationID string   `json:"organisation_id"`
	Title          string   `json:"title"`
	Abstract       string   `json:"abstract"`
	Keywords       []string `json:"keywords"`
	Custodian      string   `json:"custodian"`
	DataSourceDOI  string   `json:"data_source_doi"`
	DataSourceURL  string   `json:"data_source_url"`
	ContactEmail   string   `json:"contact_email"`
}

type updateMetadataRequest struct {
	Title         *string  `json:"title"`
	Abstract      *string  `json:"abstract"`
	Keywords      []string `json:"keywords"`
	DataSourceDOI *string  `json:"data_source_doi"`
	DataSourceURL *string  `json:"data_source_url"`
	ContactEmail  *string  `json:"contact_email"`
}

// Catalogue listing and search are open to any authenticated user.
func listMetadataHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		filter := ListFilter{Query: strings.TrimSpace(r.URL.Query().Get("q"))}
		if rawOrg := strings.TrimSpace(r.URL.Query().Get("organisation_id")); rawOrg != "" {
			orgID, err := uuid.Parse(rawOrg)
			if err != nil {
				http.Error(w, "invalid organisation_id", http.StatusBadRequest)
				return
			}
			filter.OrganisationID = orgID
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		items, next, err := svc.List(r.Context(), filter, cursor, limit)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := listMetadataResponse{Count: len(items), Cursor: next, Results: make([]metadataResponse, 0, len(items))}
		for _, rec := range items {
			out.Results = append(out.Results, toMetadataResponse(rec))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func createMetadataHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !claims.IsAdmin() && !claims.IsCustodian() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req createMetadataRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		// Custodians can only list datasets for their own organisation;
		// administrators may list for anyone.
		orgID := claims.OrganisationID
		if claims.IsAdmin() && strings.TrimSpace(req.OrganisationID) != "" {
			parsed, err := uuid.Parse(req.OrganisationID)
			if err != nil {
				http.Error(w, "invalid organisation_id", http.StatusBadRequest)
				return
			}
			orgID = parsed
		}

		rec, err := svc.Create(r.Context(), CreateInput{
			OrganisationID: orgID,
			Title:          req.Title,
			Abstract:       req.Abstract,
			Keywords:       req.Keywords,
			Custodian:      req.Custodian,
			DataSourceDOI:  req.DataSourceDOI,
			DataSourceURL:  req.DataSourceURL,
			ContactEmail:   req.ContactEmail,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toMetadataResponse(rec))
	}
}

func getMetadataHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "metadataID"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		rec, err := svc.Get(r.Context(), id)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toMetadataResponse(rec))
	}
}

func updateMetadataHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "metadataID"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		rec, err := svc.Get(r.Context(), id)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		// Only the owning custodian or an administrator may update a record.
		if !claims.IsAdmin() && !(claims.IsCustodian() && claims.OrganisationID == rec.OrganisationID) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var req updateMetadataRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		updated, err := svc.Update(r.Context(), id, UpdateInput{
			Title:         req.Title,
			Abstract:      req.Abstract,
			Keywords:      req.Keywords,
			DataSourceDOI: req.DataSourceDOI,
			DataSourceURL: req.DataSourceURL,
			ContactEmail:  req.ContactEmail,
		})
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

		writeJSON(w, http.StatusOK, toMetadataResponse(updated))
	}
}

func toMetadataResponse(rec Record) metadataResponse {
	return metadataResponse{
		ID:             rec.ID,
		OrganisationID: rec.OrganisationID,
		Title:          rec.Title,
		Abstract:       rec.Abstract,
		Keywords:       rec.Keywords,
		Custodian:      rec.Custodian,
		DataSourceDOI:  rec.DataSourceDOI,
		DataSourceURL:  rec.DataSourceURL,
		ContactEmail:   rec.ContactEmail,
	}
}

// writeJSON is duplicated across module handlers on purpose; a shared helper
// package is not worth it yet.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
