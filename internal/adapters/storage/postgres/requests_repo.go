package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"rasd-api/internal/domain/accessrequests"
	"rasd-api/internal/domain/rasdid"
)

// RequestsRepo stores each aggregate as one JSONB document, matching the
// domain's full-overwrite write model. The filter columns are derived from
// the document on every Put.
type RequestsRepo struct {
	db *sql.DB
}

func NewRequestsRepo(db *sql.DB) *RequestsRepo {
	return &RequestsRepo{db: db}
}

func (r *RequestsRepo) Get(ctx context.Context, id rasdid.ID) (accessrequests.AccessRequest, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT doc
		FROM access_requests
		WHERE id = $1
	`, string(id))

	var doc []byte
	if err := row.Scan(&doc); err != nil {
		if err == sql.ErrNoRows {
			return accessrequests.AccessRequest{}, ErrNotFound
		}
		return accessrequests.AccessRequest{}, err
	}

	var req accessrequests.AccessRequest
	if err := json.Unmarshal(doc, &req); err != nil {
		return accessrequests.AccessRequest{}, fmt.Errorf("decoding access request %s: %w", id, err)
	}
	return req, nil
}

func (r *RequestsRepo) Put(ctx context.Context, req accessrequests.AccessRequest) error {
	doc, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding access request %s: %w", req.ID, err)
	}

	custodians := make([]string, 0, len(req.CustodianIDs))
	for _, id := range req.CustodianIDs {
		custodians = append(custodians, id.String())
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO access_requests (id, active, requestor_id, custodian_ids, doc)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			active        = EXCLUDED.active,
			requestor_id  = EXCLUDED.requestor_id,
			custodian_ids = EXCLUDED.custodian_ids,
			doc           = EXCLUDED.doc
	`,
		string(req.ID),
		req.Active,
		req.RequestorID,
		custodians,
		doc,
	)
	return err
}

func (r *RequestsRepo) Scan(ctx context.Context, filter accessrequests.Filter, cursor string, limit int) (accessrequests.Page, error) {
	limit = clampLimit(limit)

	where := []string{"id > $1"}
	args := []any{cursor}

	if filter.ActiveOnly {
		where = append(where, "active = TRUE")
	}
	if filter.RequestorID != uuid.Nil {
		args = append(args, filter.RequestorID)
		where = append(where, fmt.Sprintf("requestor_id = $%d", len(args)))
	}
	if filter.CustodianID != uuid.Nil {
		args = append(args, filter.CustodianID.String())
		where = append(where, fmt.Sprintf("$%d = ANY(custodian_ids)", len(args)))
	}

	args = append(args, limit+1)
	query := fmt.Sprintf(`
		SELECT doc
		FROM access_requests
		WHERE %s
		ORDER BY id ASC
		LIMIT $%d
	`, strings.Join(where, " AND "), len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return accessrequests.Page{}, err
	}
	defer rows.Close()

	results := make([]accessrequests.AccessRequest, 0, limit)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return accessrequests.Page{}, err
		}
		var req accessrequests.AccessRequest
		if err := json.Unmarshal(doc, &req); err != nil {
			return accessrequests.Page{}, fmt.Errorf("decoding access request: %w", err)
		}
		results = append(results, req)
	}
	if err := rows.Err(); err != nil {
		return accessrequests.Page{}, err
	}

	page := accessrequests.Page{Results: results}
	// One extra row means there is another page behind this one.
	if len(results) > limit {
		page.Results = results[:limit]
		page.Cursor = string(page.Results[limit-1].ID)
	}
	page.Count = len(page.Results)
	return page, nil
}
