package accessrequests

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"rasd-api/internal/domain/rasdid"
	"rasd-api/internal/middleware"
	"rasd-api/internal/ports/auth"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/requests", func(rr chi.Router) {
		rr.Get("/", listRequestsHandler(svc))
		rr.Post("/", createRequestHandler(svc))
		rr.Get("/custodian", listCustodianRequestsHandler(svc))
		rr.Get("/requestor", listRequestorRequestsHandler(svc))

		rr.Route("/{requestID}", func(pr chi.Router) {
			pr.Get("/", getRequestHandler(svc))
			pr.Patch("/", updateRequestDOIHandler(svc))

			pr.Route("/dataset-requests/{datasetRequestID}", func(dr chi.Router) {
				dr.Get("/", getDatasetRequestHandler(svc))
				dr.Patch("/", updateDatasetRequestNotesHandler(svc))
				dr.Post("/acknowledge", transitionHandler(svc, (*Service).Acknowledge))
				dr.Post("/approve", transitionHandler(svc, (*Service).Approve))
				dr.Post("/decline", transitionHandler(svc, (*Service).Decline))
				dr.Post("/agreement-sent", transitionHandler(svc, (*Service).AgreementSent))
				dr.Post("/complete", transitionHandler(svc, (*Service).Complete))
			})
		})
	})
}

type createRequestBody struct {
	MetadataIDs []string `json:"metadata_ids"`

	RequestorOrganisationAddress        string `json:"requestor_organisation_address"`
	RequestorOrganisationIndigenousBody bool   `json:"requestor_organisation_indigenous_body"`
	RequestorORCID                      string `json:"requestor_orcid"`
	ProjectTitle                        string `json:"project_title"`
	ProjectPurpose                      string `json:"project_purpose"`
	ProjectResearch                     string `json:"project_research"`
	ProjectIndustry                     string `json:"project_industry"`
	ProjectCommercial                   bool   `json:"project_commercial"`
	ProjectPublicBenefitExplanation     string `json:"project_public_benefit_explanation"`
	DataRequested                       string `json:"data_requested"`
	DataRelevanceExplanation            string `json:"data_relevance_explanation"`
	DataFrequency                       string `json:"data_frequency"`
	DataRequiredFrom                    string `json:"data_required_from"`
	DataRequiredTo                      string `json:"data_required_to"`
	DataFrequencyExplanation            string `json:"data_frequency_explanation"`
	DataArea                            string `json:"data_area"`
	DataAreaExplanation                 string `json:"data_area_explanation"`
	DataSecurityExplanation             string `json:"data_security_explanation"`
	DataAccess                          string `json:"data_access"`
	DataAccessExplanation               string `json:"data_access_explanation"`
	DataDistributionExplanation         string `json:"data_distribution_explanation"`
	DataAcceptTransformed               bool   `json:"data_accept_transformed"`
}

type updateRequestBody struct {
	DOI string `json:"doi"`
}

type updateDatasetRequestBody struct {
	Notes string `json:"notes"`
}

func createRequestHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body createRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		metadataIDs := make([]uuid.UUID, 0, len(body.MetadataIDs))
		for _, raw := range body.MetadataIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				http.Error(w, "invalid metadata id", http.StatusBadRequest)
				return
			}
			metadataIDs = append(metadataIDs, id)
		}

		req, err := svc.Create(r.Context(), claims, CreateInput{
			MetadataIDs:                         metadataIDs,
			RequestorOrganisationAddress:        body.RequestorOrganisationAddress,
			RequestorOrganisationIndigenousBody: body.RequestorOrganisationIndigenousBody,
			RequestorORCID:                      body.RequestorORCID,
			ProjectTitle:                        body.ProjectTitle,
			ProjectPurpose:                      body.ProjectPurpose,
			ProjectResearch:                     body.ProjectResearch,
			ProjectIndustry:                     body.ProjectIndustry,
			ProjectCommercial:                   body.ProjectCommercial,
			ProjectPublicBenefitExplanation:     body.ProjectPublicBenefitExplanation,
			DataRequested:                       body.DataRequested,
			DataRelevanceExplanation:            body.DataRelevanceExplanation,
			DataFrequency:                       body.DataFrequency,
			DataRequiredFrom:                    body.DataRequiredFrom,
			DataRequiredTo:                      body.DataRequiredTo,
			DataFrequencyExplanation:            body.DataFrequencyExplanation,
			DataArea:                            body.DataArea,
			DataAreaExplanation:                 body.DataAreaExplanation,
			DataSecurityExplanation:             body.DataSecurityExplanation,
			DataAccess:                          body.DataAccess,
			DataAccessExplanation:               body.DataAccessExplanation,
			DataDistributionExplanation:         body.DataDistributionExplanation,
			DataAcceptTransformed:               body.DataAcceptTransformed,
		})
		if err != nil {
			writeRequestError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, req)
	}
}

func listRequestsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		activeOnly, cursor, limit := listParams(r)
		page, err := svc.List(r.Context(), claims, activeOnly, cursor, limit)
		if err != nil {
			writeRequestError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func listCustodianRequestsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		activeOnly, cursor, limit := listParams(r)
		page, err := svc.ListForCustodian(r.Context(), claims, activeOnly, cursor, limit)
		if err != nil {
			writeRequestError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func listRequestorRequestsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		activeOnly, cursor, limit := listParams(r)
		page, err := svc.ListForRequestor(r.Context(), claims, activeOnly, cursor, limit)
		if err != nil {
			writeRequestError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func getRequestHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id, err := rasdid.Parse(chi.URLParam(r, "requestID"))
		if err != nil || id.IsSub() {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		req, err := svc.Get(r.Context(), claims, id)
		if err != nil {
			writeRequestError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	}
}

func updateRequestDOIHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id, err := rasdid.Parse(chi.URLParam(r, "requestID"))
		if err != nil || id.IsSub() {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var body updateRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		req, err := svc.UpdateDOI(r.Context(), claims, id, body.DOI)
		if err != nil {
			writeRequestError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	}
}

func getDatasetRequestHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		pk, drpk, ok := datasetRequestIDs(r)
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		child, err := svc.GetDatasetRequest(r.Context(), claims, pk, drpk)
		if err != nil {
			writeRequestError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, child)
	}
}

func updateDatasetRequestNotesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		pk, drpk, ok := datasetRequestIDs(r)
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var body updateDatasetRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		child, err := svc.UpdateDatasetRequestNotes(r.Context(), claims, pk, drpk, body.Notes)
		if err != nil {
			writeRequestError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, child)
	}
}

// transitionHandler adapts any of the five transition methods; they share
// their request shape, authorization and error mapping.
func transitionHandler(svc *Service, op func(*Service, context.Context, auth.Claims, rasdid.ID, rasdid.ID) (DatasetRequest, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		pk, drpk, ok := datasetRequestIDs(r)
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		child, err := op(svc, r.Context(), claims, pk, drpk)
		if err != nil {
			writeRequestError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, child)
	}
}

// datasetRequestIDs extracts and validates the parent/child id pair from the
// URL. The child must be a sub-identifier of the parent in the path.
func datasetRequestIDs(r *http.Request) (rasdid.ID, rasdid.ID, bool) {
	pk, err := rasdid.Parse(chi.URLParam(r, "requestID"))
	if err != nil || pk.IsSub() {
		return "", "", false
	}
	drpk, err := rasdid.Parse(chi.URLParam(r, "datasetRequestID"))
	if err != nil || !drpk.IsSub() || drpk.Parent() != pk {
		return "", "", false
	}
	return pk, drpk, true
}

func listParams(r *http.Request) (activeOnly bool, cursor string, limit int) {
	activeOnly, _ = strconv.ParseBool(r.URL.Query().Get("active_only"))
	cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return activeOnly, cursor, limit
}

func writeRequestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrInvalidState):
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
