package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB connects to TEST_DATABASE_URL, migrates it and empties every
// table. Tests skip when no database is configured.
func setupTestDB(t *testing.T) *Pool {
	t.Helper()
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("Requires test database setup (TEST_DATABASE_URL)")
	}

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, databaseURL))

	pool, err := NewPool(ctx, databaseURL)
	if err != nil {
		t.Skipf("Skipping test: database not available: %v", err)
	}
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE users, forms, submissions, polling_units, incident_reports`)
	require.NoError(t, err)
	return pool
}

func TestForms(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	owner := "u1"
	f, err := pool.CreateForm(ctx, CreateFormParams{
		ID: "01HZX0000000000000000000AA", FormID: "fid", FormKey: "fkey", Slug: "incident-12345",
		Name: "Incident", Status: "Active", IsPollingForm: 1, UserID: &owner,
		Fields: json.RawMessage(`[]`),
	})
	require.NoError(t, err)
	assert.Equal(t, "incident-12345", f.Slug)

	for _, lookup := range []func(context.Context, string) (Form, error){
		pool.GetFormBySlug, pool.GetFormByKey, pool.GetFormByID,
	} {
		_, err := lookup(ctx, "nope")
		assert.True(t, errors.Is(err, pgx.ErrNoRows))
	}
	got, err := pool.GetFormByKey(ctx, "fkey")
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)

	exists, err := pool.SlugExists(ctx, "incident-12345")
	require.NoError(t, err)
	assert.True(t, exists)

	polling, err := pool.ListPollingForms(ctx)
	require.NoError(t, err)
	assert.Len(t, polling, 1)

	updated, err := pool.UpdateForm(ctx, UpdateFormParams{
		ID: f.ID, Name: "Incident v2", Status: "Inactive", UserID: &owner,
		Fields: json.RawMessage(`[{"field_id":"a"}]`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Incident v2", updated.Name)
	assert.JSONEq(t, `[{"field_id":"a"}]`, string(updated.Fields))

	polling, err = pool.ListPollingForms(ctx)
	require.NoError(t, err)
	assert.Empty(t, polling)

	require.NoError(t, pool.DeleteForm(ctx, f.ID))
	assert.True(t, errors.Is(pool.DeleteForm(ctx, f.ID), pgx.ErrNoRows))
}

func TestSubmissions(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	alice := "alice"
	for i, by := range []*string{&alice, nil} {
		_, err := pool.CreateSubmission(ctx, CreateSubmissionParams{
			ID: []string{"s1", "s2"}[i], SubmissionKey: "k", ItemKey: "i",
			Value: json.RawMessage(`[]`), FormRef: "incident-12345", CreatedBy: by,
		})
		require.NoError(t, err)
	}

	all, err := pool.ListSubmissions(ctx, []string{"incident-12345", "legacy-key"}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := pool.ListSubmissions(ctx, []string{"incident-12345"}, &alice)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "s1", mine[0].ID)

	require.NoError(t, pool.DeleteSubmission(ctx, "s1"))
	_, err = pool.GetSubmission(ctx, "s1")
	assert.True(t, errors.Is(err, pgx.ErrNoRows))
}

func TestPollingUnits(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	rows := []CreatePollingUnitParams{
		{ID: "p1", State: "Lagos", LGA: "Ikeja", RegistrationArea: "Alausa", PollingUnit: "PU 001"},
		{ID: "p2", State: "Lagos", LGA: "Ikeja", RegistrationArea: "Alausa", PollingUnit: "PU 002"},
		{ID: "p3", State: "Kano", LGA: "Ikeja", RegistrationArea: "Gama", PollingUnit: "PU 100"},
	}
	for _, p := range rows {
		_, err := pool.CreatePollingUnit(ctx, p)
		require.NoError(t, err)
	}

	states, err := pool.DistinctStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kano", "Lagos"}, states)

	wards, err := pool.DistinctWards(ctx, "", "Ikeja")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alausa", "Gama"}, wards)

	units, err := pool.DistinctUnits(ctx, "Lagos", "Ikeja", "Alausa")
	require.NoError(t, err)
	assert.Equal(t, []string{"PU 001", "PU 002"}, units)

	page, total, err := pool.ListPollingUnits(ctx, PollingUnitFilter{State: "Lagos", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, page, 1)

	require.NoError(t, pool.DeletePollingUnit(ctx, "p3"))
	assert.True(t, errors.Is(pool.DeletePollingUnit(ctx, "p3"), pgx.ErrNoRows))
}

func TestIncidentReports(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	base := CreateIncidentReportParams{
		Name: "Ada Obi", Gender: "Female", Email: "ada@example.com", Phone: "08030000000",
		Description: "Voters turned away", State: "Lagos", LGA: "Ikeja", Ward: "Alausa",
		PollingUnit: "PU 001", IP: "10.0.0.1",
	}
	for i, ward := range []string{"Alausa", "Opebi", "Alausa"} {
		p := base
		p.ID = fmt.Sprintf("i%d", i+1)
		p.Key = fmt.Sprintf("key-%d", i+1)
		p.Ward = ward
		if ward == "Opebi" {
			p.Description = "100% turnout_claimed"
		}
		r, err := pool.CreateIncidentReport(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, []string{}, r.Uploads)
	}

	_, err := pool.CreateIncidentReport(ctx, CreateIncidentReportParams{ID: "bad", Key: "key-bad", Gender: "Unknown"})
	assert.Error(t, err, "gender check")

	page, total, err := pool.ListIncidentReports(ctx, IncidentReportFilter{State: "Lagos", Ward: "Alausa", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, page, 1)
	assert.Equal(t, "i3", page[0].ID)

	page, total, err = pool.ListIncidentReports(ctx, IncidentReportFilter{Query: "100%", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, page, 1)
	assert.Equal(t, "i2", page[0].ID)

	_, total, err = pool.ListIncidentReports(ctx, IncidentReportFilter{Query: "1_0", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, total, "underscore is literal")

	updated, err := pool.UpdateIncidentReport(ctx, UpdateIncidentReportParams{
		ID: "i1", Name: "Ada", Gender: "Other", Email: base.Email, Phone: base.Phone,
		Description: base.Description, Uploads: []string{"http://files.test/a.jpg"},
		State: "Lagos", LGA: "Ikeja", Ward: "Alausa", PollingUnit: "PU 001",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://files.test/a.jpg"}, updated.Uploads)
	assert.Equal(t, "10.0.0.1", updated.IP)

	got, err := pool.GetIncidentReport(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, "Other", got.Gender)

	require.NoError(t, pool.DeleteIncidentReport(ctx, "i1"))
	assert.True(t, errors.Is(pool.DeleteIncidentReport(ctx, "i1"), pgx.ErrNoRows))
	_, err = pool.GetIncidentReport(ctx, "i1")
	assert.True(t, errors.Is(err, pgx.ErrNoRows))
}

func TestUsers(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	u, err := pool.UpsertUser(ctx, CreateUserParams{ID: "u1", Email: "Ada@Example.com", Role: "Staff", PasswordHash: "h1"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)

	u, err = pool.UpsertUser(ctx, CreateUserParams{ID: "u2", Email: "ada@example.com", Role: "Admin", PasswordHash: "h2"})
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "Admin", u.Role)

	got, err := pool.GetUserByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "h2", got.PasswordHash)
}
