package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"rasd-api/internal/domain/organisations"
)

type OrganisationsRepo struct {
	db *sql.DB
}

func NewOrganisationsRepo(db *sql.DB) *OrganisationsRepo {
	return &OrganisationsRepo{db: db}
}

func (r *OrganisationsRepo) Create(ctx context.Context, org organisations.Organisation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organisations (id, name, abn, email, active)
		VALUES ($1, $2, $3, $4, $5)
	`,
		org.ID,
		org.Name,
		org.ABN,
		org.Email,
		org.Active,
	)
	return err
}

func (r *OrganisationsRepo) Update(ctx context.Context, org organisations.Organisation) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE organisations
		SET
			name   = $2,
			email  = $3,
			active = $4
		WHERE id = $1
	`,
		org.ID,
		org.Name,
		org.Email,
		org.Active,
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

func (r *OrganisationsRepo) GetByID(ctx context.Context, id uuid.UUID) (organisations.Organisation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, abn, email, active
		FROM organisations
		WHERE id = $1
	`, id)

	var org organisations.Organisation
	if err := row.Scan(&org.ID, &org.Name, &org.ABN, &org.Email, &org.Active); err != nil {
		if err == sql.ErrNoRows {
			return organisations.Organisation{}, ErrNotFound
		}
		return organisations.Organisation{}, err
	}
	return org, nil
}

func (r *OrganisationsRepo) List(ctx context.Context, cursor string, limit int) ([]organisations.Organisation, string, error) {
	limit = clampLimit(limit)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, abn, email, active
		FROM organisations
		WHERE active = TRUE
		  AND id::text > $1
		ORDER BY id::text ASC
		LIMIT $2
	`, cursor, limit+1)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	out := make([]organisations.Organisation, 0, limit)
	for rows.Next() {
		var org organisations.Organisation
		if err := rows.Scan(&org.ID, &org.Name, &org.ABN, &org.Email, &org.Active); err != nil {
			return nil, "", err
		}
		out = append(out, org)
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

func (r *OrganisationsRepo) FindMatch(ctx context.Context, name, abn, email string) (organisations.Organisation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, abn, email, active
		FROM organisations
		WHERE active = TRUE
		  AND (LOWER(name) = LOWER($1) OR abn = $2 OR LOWER(email) = LOWER($3))
		LIMIT 1
	`, name, abn, email)

	var org organisations.Organisation
	if err := row.Scan(&org.ID, &org.Name, &org.ABN, &org.Email, &org.Active); err != nil {
		if err == sql.ErrNoRows {
			return organisations.Organisation{}, ErrNotFound
		}
		return organisations.Organisation{}, err
	}
	return org, nil
}
