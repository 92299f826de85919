package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
)

// Submission represents a submissions row
type Submission struct {
	ID            string
	SubmissionKey string
	ItemKey       string
	Name          string
	Description   string
	Value         json.RawMessage
	IP            string
	FormRef       string
	CreatedBy     *string
	CreatedAt     time.Time
}

const submissionColumns = `id, submission_key, item_key, submission_name, description,
	submission_value, ip, form_ref, created_by, created_at`

func scanSubmission(row pgx.Row) (Submission, error) {
	var s Submission
	err := row.Scan(
		&s.ID, &s.SubmissionKey, &s.ItemKey, &s.Name, &s.Description,
		&s.Value, &s.IP, &s.FormRef, &s.CreatedBy, &s.CreatedAt,
	)
	return s, err
}

type CreateSubmissionParams struct {
	ID            string
	SubmissionKey string
	ItemKey       string
	Name          string
	Description   string
	Value         json.RawMessage
	IP            string
	FormRef       string
	CreatedBy     *string
}

func (q *Queries) CreateSubmission(ctx context.Context, p CreateSubmissionParams) (Submission, error) {
	return scanSubmission(q.Pool.QueryRow(ctx,
		`INSERT INTO submissions (id, submission_key, item_key, submission_name, description, submission_value, ip, form_ref, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+submissionColumns,
		p.ID, p.SubmissionKey, p.ItemKey, p.Name, p.Description, p.Value, p.IP, p.FormRef, p.CreatedBy,
	))
}

// ListSubmissions returns the rows whose form_ref is one of refs, newest
// first, optionally restricted to one submitter.
func (q *Queries) ListSubmissions(ctx context.Context, refs []string, createdBy *string) ([]Submission, error) {
	rows, err := q.Pool.Query(ctx,
		`SELECT `+submissionColumns+` FROM submissions
		WHERE form_ref = ANY($1) AND ($2::text IS NULL OR created_by = $2)
		ORDER BY created_at DESC, id DESC`,
		refs, createdBy,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]Submission, 0)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (q *Queries) GetSubmission(ctx context.Context, id string) (Submission, error) {
	return scanSubmission(q.Pool.QueryRow(ctx, "SELECT "+submissionColumns+" FROM submissions WHERE id = $1", id))
}

// DeleteSubmission removes one row; pgx.ErrNoRows when it does not exist
func (q *Queries) DeleteSubmission(ctx context.Context, id string) error {
	tag, err := q.Pool.Exec(ctx, "DELETE FROM submissions WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
