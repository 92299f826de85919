package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
)

// Form represents a forms row
type Form struct {
	ID            string
	FormID        string
	FormKey       string
	Slug          string
	Name          string
	Description   string
	Status        string
	IsEditable    int
	IsTemplate    int
	IsLoggedIn    bool
	IsPollingForm int
	UserID        *string
	Fields        json.RawMessage
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const formColumns = `id, form_id, form_key, slug, form_name, form_description, status,
	is_editable, is_template, is_loggedin, is_pollingform, user_id, fields, created_at, updated_at`

func scanForm(row pgx.Row) (Form, error) {
	var f Form
	err := row.Scan(
		&f.ID, &f.FormID, &f.FormKey, &f.Slug, &f.Name, &f.Description, &f.Status,
		&f.IsEditable, &f.IsTemplate, &f.IsLoggedIn, &f.IsPollingForm, &f.UserID, &f.Fields,
		&f.CreatedAt, &f.UpdatedAt,
	)
	return f, err
}

func collectForms(rows pgx.Rows, err error) ([]Form, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	forms := make([]Form, 0)
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}

type CreateFormParams struct {
	ID            string
	FormID        string
	FormKey       string
	Slug          string
	Name          string
	Description   string
	Status        string
	IsPollingForm int
	UserID        *string
	Fields        json.RawMessage
}

func (q *Queries) CreateForm(ctx context.Context, p CreateFormParams) (Form, error) {
	return scanForm(q.Pool.QueryRow(ctx,
		`INSERT INTO forms (id, form_id, form_key, slug, form_name, form_description, status, is_pollingform, user_id, fields)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+formColumns,
		p.ID, p.FormID, p.FormKey, p.Slug, p.Name, p.Description, p.Status, p.IsPollingForm, p.UserID, p.Fields,
	))
}

func (q *Queries) GetFormBySlug(ctx context.Context, slug string) (Form, error) {
	return scanForm(q.Pool.QueryRow(ctx, "SELECT "+formColumns+" FROM forms WHERE slug = $1", slug))
}

func (q *Queries) GetFormByKey(ctx context.Context, key string) (Form, error) {
	return scanForm(q.Pool.QueryRow(ctx, "SELECT "+formColumns+" FROM forms WHERE form_key = $1", key))
}

func (q *Queries) GetFormByID(ctx context.Context, id string) (Form, error) {
	return scanForm(q.Pool.QueryRow(ctx, "SELECT "+formColumns+" FROM forms WHERE id = $1", id))
}

func (q *Queries) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := q.Pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM forms WHERE slug = $1)", slug).Scan(&exists)
	return exists, err
}

func (q *Queries) ListForms(ctx context.Context) ([]Form, error) {
	return collectForms(q.Pool.Query(ctx, "SELECT "+formColumns+" FROM forms ORDER BY created_at DESC"))
}

func (q *Queries) ListPollingForms(ctx context.Context) ([]Form, error) {
	return collectForms(q.Pool.Query(ctx,
		"SELECT "+formColumns+" FROM forms WHERE status = 'Active' AND is_pollingform = 1 ORDER BY created_at DESC"))
}

type UpdateFormParams struct {
	ID            string
	Name          string
	Description   string
	Status        string
	IsEditable    int
	IsTemplate    int
	IsLoggedIn    bool
	IsPollingForm int
	UserID        *string
	Fields        json.RawMessage
}

// UpdateForm overwrites every mutable column of one form
func (q *Queries) UpdateForm(ctx context.Context, p UpdateFormParams) (Form, error) {
	return scanForm(q.Pool.QueryRow(ctx,
		`UPDATE forms SET form_name = $2, form_description = $3, status = $4, is_editable = $5,
			is_template = $6, is_loggedin = $7, is_pollingform = $8, user_id = $9, fields = $10,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+formColumns,
		p.ID, p.Name, p.Description, p.Status, p.IsEditable, p.IsTemplate, p.IsLoggedIn, p.IsPollingForm, p.UserID, p.Fields,
	))
}

// DeleteForm removes one form; pgx.ErrNoRows when it does not exist
func (q *Queries) DeleteForm(ctx context.Context, id string) error {
	tag, err := q.Pool.Exec(ctx, "DELETE FROM forms WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
