package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"rasd-api/internal/domain/registrations"
	"rasd-api/internal/ports/auth"
)

type RegistrationsRepo struct {
	db *sql.DB
}

func NewRegistrationsRepo(db *sql.DB) *RegistrationsRepo {
	return &RegistrationsRepo{db: db}
}

func (r *RegistrationsRepo) Create(ctx context.Context, reg registrations.Registration) error {
	newOrg, err := encodeNewOrganisation(reg.NewOrganisation)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO registrations (
			id, username, given_name, family_name, user_group,
			organisation_id, new_organisation, agreements,
			status, reason, organisation_override, actioned_by,
			created_at, active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		reg.ID,
		reg.Username,
		reg.GivenName,
		reg.FamilyName,
		string(reg.Group),
		nullUUID(reg.OrganisationID),
		newOrg,
		agreementsArray(reg.Agreements),
		string(reg.Status),
		reg.Reason,
		nullUUIDPtr(reg.OrganisationOverride),
		reg.ActionedBy,
		reg.CreatedAt,
		reg.Active,
	)
	return err
}

func (r *RegistrationsRepo) Update(ctx context.Context, reg registrations.Registration) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE registrations
		SET
			status                = $2,
			reason                = $3,
			organisation_override = $4,
			actioned_by           = $5,
			active                = $6
		WHERE id = $1
	`,
		reg.ID,
		string(reg.Status),
		reg.Reason,
		nullUUIDPtr(reg.OrganisationOverride),
		reg.ActionedBy,
		reg.Active,
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

func (r *RegistrationsRepo) GetByID(ctx context.Context, id uuid.UUID) (registrations.Registration, error) {
	row := r.db.QueryRowContext(ctx, registrationSelect+` WHERE id = $1`, id)
	return scanRegistration(row)
}

func (r *RegistrationsRepo) FindByUsername(ctx context.Context, username string) (registrations.Registration, error) {
	row := r.db.QueryRowContext(ctx, registrationSelect+` WHERE LOWER(username) = LOWER($1)`, username)
	return scanRegistration(row)
}

func (r *RegistrationsRepo) List(ctx context.Context, filter registrations.ListFilter, cursor string, limit int) ([]registrations.Registration, string, error) {
	limit = clampLimit(limit)

	where := []string{"id::text > $1"}
	args := []any{cursor}

	if filter.ActiveOnly {
		where = append(where, "active = TRUE")
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	args = append(args, limit+1)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY id::text ASC LIMIT $%d`,
		registrationSelect, strings.Join(where, " AND "), len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	out := make([]registrations.Registration, 0, limit)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, reg)
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

const registrationSelect = `
	SELECT id, username, given_name, family_name, user_group,
	       organisation_id, new_organisation, agreements,
	       status, reason, organisation_override, actioned_by,
	       created_at, active
	FROM registrations
`

func scanRegistration(row rowScanner) (registrations.Registration, error) {
	var reg registrations.Registration
	var group, status string
	var orgID, override uuid.NullUUID
	var newOrg []byte
	var agreements []string

	if err := row.Scan(
		&reg.ID,
		&reg.Username,
		&reg.GivenName,
		&reg.FamilyName,
		&group,
		&orgID,
		&newOrg,
		&agreements,
		&status,
		&reg.Reason,
		&override,
		&reg.ActionedBy,
		&reg.CreatedAt,
		&reg.Active,
	); err != nil {
		if err == sql.ErrNoRows {
			return registrations.Registration{}, ErrNotFound
		}
		return registrations.Registration{}, err
	}

	reg.Group = auth.Group(group)
	reg.Status = registrations.Status(status)
	reg.Agreements = agreements
	if orgID.Valid {
		reg.OrganisationID = orgID.UUID
	}
	if override.Valid {
		id := override.UUID
		reg.OrganisationOverride = &id
	}
	if len(newOrg) > 0 {
		var org registrations.NewOrganisation
		if err := json.Unmarshal(newOrg, &org); err != nil {
			return registrations.Registration{}, fmt.Errorf("decoding new organisation: %w", err)
		}
		reg.NewOrganisation = &org
	}
	return reg, nil
}

func encodeNewOrganisation(org *registrations.NewOrganisation) ([]byte, error) {
	if org == nil {
		return nil, nil
	}
	b, err := json.Marshal(org)
	if err != nil {
		return nil, fmt.Errorf("encoding new organisation: %w", err)
	}
	return b, nil
}

func nullUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}

func nullUUIDPtr(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func agreementsArray(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	return in
}
