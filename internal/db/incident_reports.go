package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// IncidentReport represents an incident_reports row
type IncidentReport struct {
	ID          string
	Key         string
	Name        string
	Gender      string
	Email       string
	Phone       string
	Description string
	Uploads     []string
	State       string
	LGA         string
	Ward        string
	PollingUnit string
	IP          string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const incidentReportColumns = `id, incident_report_key, name, gender, email, phone, description, uploads,
	state, lga, ward, polling_unit, ip, created_at, updated_at`

func scanIncidentReport(row pgx.Row) (IncidentReport, error) {
	var r IncidentReport
	err := row.Scan(&r.ID, &r.Key, &r.Name, &r.Gender, &r.Email, &r.Phone, &r.Description, &r.Uploads,
		&r.State, &r.LGA, &r.Ward, &r.PollingUnit, &r.IP, &r.CreatedAt, &r.UpdatedAt)
	if r.Uploads == nil {
		r.Uploads = []string{}
	}
	return r, err
}

type CreateIncidentReportParams struct {
	ID          string
	Key         string
	Name        string
	Gender      string
	Email       string
	Phone       string
	Description string
	Uploads     []string
	State       string
	LGA         string
	Ward        string
	PollingUnit string
	IP          string
}

func (q *Queries) CreateIncidentReport(ctx context.Context, p CreateIncidentReportParams) (IncidentReport, error) {
	uploads := p.Uploads
	if uploads == nil {
		uploads = []string{}
	}
	return scanIncidentReport(q.Pool.QueryRow(ctx,
		`INSERT INTO incident_reports
			(id, incident_report_key, name, gender, email, phone, description, uploads, state, lga, ward, polling_unit, ip)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+incidentReportColumns,
		p.ID, p.Key, p.Name, p.Gender, p.Email, p.Phone, p.Description, uploads,
		p.State, p.LGA, p.Ward, p.PollingUnit, p.IP,
	))
}

func (q *Queries) GetIncidentReport(ctx context.Context, id string) (IncidentReport, error) {
	return scanIncidentReport(q.Pool.QueryRow(ctx,
		"SELECT "+incidentReportColumns+" FROM incident_reports WHERE id = $1", id))
}

// UpdateIncidentReportParams replaces every editable column of one report
type UpdateIncidentReportParams struct {
	ID          string
	Name        string
	Gender      string
	Email       string
	Phone       string
	Description string
	Uploads     []string
	State       string
	LGA         string
	Ward        string
	PollingUnit string
}

func (q *Queries) UpdateIncidentReport(ctx context.Context, p UpdateIncidentReportParams) (IncidentReport, error) {
	uploads := p.Uploads
	if uploads == nil {
		uploads = []string{}
	}
	return scanIncidentReport(q.Pool.QueryRow(ctx,
		`UPDATE incident_reports SET
			name = $2, gender = $3, email = $4, phone = $5, description = $6, uploads = $7,
			state = $8, lga = $9, ward = $10, polling_unit = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING `+incidentReportColumns,
		p.ID, p.Name, p.Gender, p.Email, p.Phone, p.Description, uploads,
		p.State, p.LGA, p.Ward, p.PollingUnit,
	))
}

func (q *Queries) DeleteIncidentReport(ctx context.Context, id string) error {
	tag, err := q.Pool.Exec(ctx, "DELETE FROM incident_reports WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// IncidentReportFilter narrows a listing. Query matches name, email, phone,
// polling unit or description, case-insensitively.
type IncidentReportFilter struct {
	State  string
	LGA    string
	Ward   string
	Query  string
	Limit  int
	Offset int
}

// likePattern escapes s for use inside an ILIKE '%...%' pattern
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func (f IncidentReportFilter) where() (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("state", f.State)
	add("lga", f.LGA)
	add("ward", f.Ward)
	if f.Query != "" {
		args = append(args, likePattern(f.Query))
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(name ILIKE $%[1]d OR email ILIKE $%[1]d OR phone ILIKE $%[1]d OR polling_unit ILIKE $%[1]d OR description ILIKE $%[1]d)", n))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListIncidentReports returns one page of reports, newest first, plus the
// total match count
func (q *Queries) ListIncidentReports(ctx context.Context, f IncidentReportFilter) ([]IncidentReport, int, error) {
	where, args := f.where()

	var total int
	if err := q.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM incident_reports"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := q.Pool.Query(ctx,
		fmt.Sprintf("SELECT %s FROM incident_reports%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
			incidentReportColumns, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reports := make([]IncidentReport, 0)
	for rows.Next() {
		r, err := scanIncidentReport(rows)
		if err != nil {
			return nil, 0, err
		}
		reports = append(reports, r)
	}
	return reports, total, rows.Err()
}
