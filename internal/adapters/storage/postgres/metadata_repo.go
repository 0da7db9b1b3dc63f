package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"rasd-api/internal/domain/metadata"
)

type MetadataRepo struct {
	db *sql.DB
}

func NewMetadataRepo(db *sql.DB) *MetadataRepo {
	return &MetadataRepo{db: db}
}

func (r *MetadataRepo) Create(ctx context.Context, rec metadata.Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (
			id, organisation_id, title, abstract, keywords,
			custodian, data_source_doi, data_source_url, contact_email, active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		rec.ID,
		rec.OrganisationID,
		rec.Title,
		rec.Abstract,
		keywordsArray(rec.Keywords),
		rec.Custodian,
		rec.DataSourceDOI,
		rec.DataSourceURL,
		rec.ContactEmail,
		rec.Active,
	)
	return err
}

func (r *MetadataRepo) Update(ctx context.Context, rec metadata.Record) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE metadata
		SET
			title           = $2,
			abstract        = $3,
			keywords        = $4,
			data_source_doi = $5,
			data_source_url = $6,
			contact_email   = $7,
			active          = $8
		WHERE id = $1
	`,
		rec.ID,
		rec.Title,
		rec.Abstract,
		keywordsArray(rec.Keywords),
		rec.DataSourceDOI,
		rec.DataSourceURL,
		rec.ContactEmail,
		rec.Active,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MetadataRepo) GetByID(ctx context.Context, id uuid.UUID) (metadata.Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, organisation_id, title, abstract, keywords,
		       custodian, data_source_doi, data_source_url, contact_email, active
		FROM metadata
		WHERE id = $1
	`, id)

	return scanMetadata(row)
}

func (r *MetadataRepo) List(ctx context.Context, filter metadata.ListFilter, cursor string, limit int) ([]metadata.Record, string, error) {
	limit = clampLimit(limit)

	where := []string{"active = TRUE", "id::text > $1"}
	args := []any{cursor}

	if filter.OrganisationID != uuid.Nil {
		args = append(args, filter.OrganisationID)
		where = append(where, fmt.Sprintf("organisation_id = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR abstract ILIKE $%d)", len(args), len(args)))
	}

	args = append(args, limit+1)
	query := fmt.Sprintf(`
		SELECT id, organisation_id, title, abstract, keywords,
		       custodian, data_source_doi, data_source_url, contact_email, active
		FROM metadata
		WHERE %s
		ORDER BY id::text ASC
		LIMIT $%d
	`, strings.Join(where, " AND "), len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	out := make([]metadata.Record, 0, limit)
	for rows.Next() {
		rec, err := scanMetadata(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	next := ""
	if len(out) > limit {
		out = out[:limit]
		next = out[limit-1].ID.String()
	}
	return out, next, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetadata(row rowScanner) (metadata.Record, error) {
	var rec metadata.Record
	var keywords []string

	if err := row.Scan(
		&rec.ID,
		&rec.OrganisationID,
		&rec.Title,
		&rec.Abstract,
		&keywords,
		&rec.Custodian,
		&rec.DataSourceDOI,
		&rec.DataSourceURL,
		&rec.ContactEmail,
		&rec.Active,
	); err != nil {
		if err == sql.ErrNoRows {
			return metadata.Record{}, ErrNotFound
		}
		return metadata.Record{}, err
	}

	rec.Keywords = keywords
	return rec, nil
}

func keywordsArray(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	return in
}
