package registrations

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"rasd-api/internal/middleware"
	"rasd-api/internal/ports/auth"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/registrations", func(rr chi.Router) {
		// Creation is deliberately unauthenticated.
		rr.Post("/", createRegistrationHandler(svc))
		rr.Get("/", listRegistrationsHandler(svc))
		rr.Get("/{registrationID}", getRegistrationHandler(svc))
		rr.Post("/{registrationID}/approve", approveRegistrationHandler(svc))
		rr.Post("/{registrationID}/decline", declineRegistrationHandler(svc))
	})
}

type newOrganisationBody struct {
	Name  string `json:"name"`
	ABN   string `json:"abn"`
	Email string `json:"email"`
}

type createRegistrationBody struct {
	Username        string               `json:"username"`
	GivenName       string               `json:"given_name"`
	FamilyName      string               `json:"family_name"`
	Group           string               `json:"group"`
	OrganisationID  string               `json:"organisation_id"`
	NewOrganisation *newOrganisationBody `json:"new_organisation"`
	Agreements      []string             `json:"agreements"`
}

type approveRegistrationBody struct {
	OrganisationOverride string `json:"organisation_override"`
}

type declineRegistrationBody struct {
	Reason string `json:"reason"`
}

type listRegistrationsResponse struct {
	Count   int            `json:"count"`
	Cursor  string         `json:"cursor,omitempty"`
	Results []Registration `json:"results"`
}

func createRegistrationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createRegistrationBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		group := auth.ParseGroup(body.Group)
		if group == "" {
			http.Error(w, "invalid group", http.StatusBadRequest)
			return
		}

		in := CreateInput{
			Username:   body.Username,
			GivenName:  body.GivenName,
			FamilyName: body.FamilyName,
			Group:      group,
			Agreements: body.Agreements,
		}
		if raw := strings.TrimSpace(body.OrganisationID); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				http.Error(w, "invalid organisation_id", http.StatusBadRequest)
				return
			}
			in.OrganisationID = id
		}
		if body.NewOrganisation != nil {
			in.NewOrganisation = &NewOrganisation{
				Name:  body.NewOrganisation.Name,
				ABN:   body.NewOrganisation.ABN,
				Email: body.NewOrganisation.Email,
			}
		}

		reg, err := svc.Create(r.Context(), in)
		if err != nil {
			writeRegistrationError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, reg)
	}
}

func listRegistrationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		filter := ListFilter{Status: Status(strings.TrimSpace(r.URL.Query().Get("status")))}
		filter.ActiveOnly, _ = strconv.ParseBool(r.URL.Query().Get("active_only"))
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		items, next, err := svc.List(r.Context(), claims, filter, cursor, limit)
		if err != nil {
			writeRegistrationError(w, err)
			return
		}
		if items == nil {
			items = []Registration{}
		}
		writeJSON(w, http.StatusOK, listRegistrationsResponse{Count: len(items), Cursor: next, Results: items})
	}
}

func getRegistrationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "registrationID"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		reg, err := svc.Get(r.Context(), claims, id)
		if err != nil {
			writeRegistrationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reg)
	}
}

func approveRegistrationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "registrationID"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var body approveRegistrationBody
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		var override *uuid.UUID
		if raw := strings.TrimSpace(body.OrganisationOverride); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				http.Error(w, "invalid organisation_override", http.StatusBadRequest)
				return
			}
			override = &parsed
		}

		reg, err := svc.Approve(r.Context(), claims, id, override)
		if err != nil {
			writeRegistrationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reg)
	}
}

func declineRegistrationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "registrationID"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var body declineRegistrationBody
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		reg, err := svc.Decline(r.Context(), claims, id, body.Reason)
		if err != nil {
			writeRegistrationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reg)
	}
}

func writeRegistrationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidState):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON is duplicated across module handlers on purpose; a shared helper
// package is not worth it yet.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
