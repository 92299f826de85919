package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// PollingUnit represents a polling_units row
type PollingUnit struct {
	ID               string
	State            string
	LGA              string
	RegistrationArea string
	PollingUnit      string
	CreatedAt        time.Time
}

const pollingUnitColumns = "id, state, lga, registration_area, polling_unit, created_at"

func scanPollingUnit(row pgx.Row) (PollingUnit, error) {
	var u PollingUnit
	err := row.Scan(&u.ID, &u.State, &u.LGA, &u.RegistrationArea, &u.PollingUnit, &u.CreatedAt)
	return u, err
}

type CreatePollingUnitParams struct {
	ID               string
	State            string
	LGA              string
	RegistrationArea string
	PollingUnit      string
}

func (q *Queries) CreatePollingUnit(ctx context.Context, p CreatePollingUnitParams) (PollingUnit, error) {
	return scanPollingUnit(q.Pool.QueryRow(ctx,
		`INSERT INTO polling_units (id, state, lga, registration_area, polling_unit)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+pollingUnitColumns,
		p.ID, p.State, p.LGA, p.RegistrationArea, p.PollingUnit,
	))
}

func (q *Queries) GetPollingUnit(ctx context.Context, id string) (PollingUnit, error) {
	return scanPollingUnit(q.Pool.QueryRow(ctx, "SELECT "+pollingUnitColumns+" FROM polling_units WHERE id = $1", id))
}

type UpdatePollingUnitParams struct {
	ID               string
	State            string
	LGA              string
	RegistrationArea string
	PollingUnit      string
}

func (q *Queries) UpdatePollingUnit(ctx context.Context, p UpdatePollingUnitParams) (PollingUnit, error) {
	return scanPollingUnit(q.Pool.QueryRow(ctx,
		`UPDATE polling_units SET state = $2, lga = $3, registration_area = $4, polling_unit = $5
		WHERE id = $1
		RETURNING `+pollingUnitColumns,
		p.ID, p.State, p.LGA, p.RegistrationArea, p.PollingUnit,
	))
}

func (q *Queries) DeletePollingUnit(ctx context.Context, id string) error {
	tag, err := q.Pool.Exec(ctx, "DELETE FROM polling_units WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// PollingUnitFilter narrows a paginated listing; empty members match all
type PollingUnitFilter struct {
	State            string
	LGA              string
	RegistrationArea string
	Limit            int
	Offset           int
}

func (f PollingUnitFilter) where() (string, []interface{}) {
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
	add("registration_area", f.RegistrationArea)
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListPollingUnits returns one page of units plus the total match count
func (q *Queries) ListPollingUnits(ctx context.Context, f PollingUnitFilter) ([]PollingUnit, int, error) {
	where, args := f.where()

	var total int
	if err := q.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM polling_units"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := q.Pool.Query(ctx,
		fmt.Sprintf("SELECT %s FROM polling_units%s ORDER BY state, lga, registration_area, polling_unit LIMIT $%d OFFSET $%d",
			pollingUnitColumns, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	units := make([]PollingUnit, 0)
	for rows.Next() {
		u, err := scanPollingUnit(rows)
		if err != nil {
			return nil, 0, err
		}
		units = append(units, u)
	}
	return units, total, rows.Err()
}

// ListUnitsInWard returns every unit of a registration area, by name
func (q *Queries) ListUnitsInWard(ctx context.Context, ward string) ([]PollingUnit, error) {
	rows, err := q.Pool.Query(ctx,
		"SELECT "+pollingUnitColumns+" FROM polling_units WHERE registration_area = $1 ORDER BY polling_unit", ward)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units := make([]PollingUnit, 0)
	for rows.Next() {
		u, err := scanPollingUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

func (q *Queries) distinct(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := q.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (q *Queries) DistinctStates(ctx context.Context) ([]string, error) {
	return q.distinct(ctx, "SELECT DISTINCT state FROM polling_units WHERE state <> '' ORDER BY state")
}

// DistinctLGAs lists the LGAs of state
func (q *Queries) DistinctLGAs(ctx context.Context, state string) ([]string, error) {
	return q.distinct(ctx, "SELECT DISTINCT lga FROM polling_units WHERE state = $1 AND lga <> '' ORDER BY lga", state)
}

// DistinctWards lists registration areas. An empty state matches every
// state, which is how the legacy ?by=lga query behaves.
func (q *Queries) DistinctWards(ctx context.Context, state, lga string) ([]string, error) {
	return q.distinct(ctx,
		`SELECT DISTINCT registration_area FROM polling_units
		WHERE ($1 = '' OR state = $1) AND lga = $2 AND registration_area <> ''
		ORDER BY registration_area`, state, lga)
}

func (q *Queries) DistinctUnits(ctx context.Context, state, lga, ward string) ([]string, error) {
	return q.distinct(ctx,
		`SELECT DISTINCT polling_unit FROM polling_units
		WHERE state = $1 AND lga = $2 AND registration_area = $3 AND polling_unit <> ''
		ORDER BY polling_unit`, state, lga, ward)
}
