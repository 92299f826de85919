package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"situationroom/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugBase(t *testing.T) {
	cases := map[string]string{
		"Election Day Incident":   "election-day-incident",
		"  Crème brûlée / Ärger ": "creme-brulee-arger",
		"!!!":                     "",
		"Über--Form__2024":        "uber-form-2024",
	}
	for in, want := range cases {
		assert.Equal(t, want, SlugBase(in), in)
	}

	long := SlugBase("a very long form name that keeps going and going and going past sixty characters")
	assert.LessOrEqual(t, len(long), 60)
}

func TestFormService_Create(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	form, err := fx.forms.Create(ctx, CreateFormInput{Name: "  Incident Report ", IsPollingForm: 1, OwnerID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, "Incident Report", form.Name)
	assert.Regexp(t, regexp.MustCompile(`^incident-report-\d{5}$`), form.Slug)
	assert.Equal(t, model.FormStatusActive, form.Status)
	assert.Equal(t, 1, form.IsPollingForm)
	assert.Equal(t, "u1", form.UserID)
	assert.NotEmpty(t, form.FormID)
	assert.NotEmpty(t, form.FormKey)
	assert.Empty(t, form.Fields)
	assert.Equal(t, []string{"form.created"}, fx.bus.Types())

	_, err = fx.forms.Create(ctx, CreateFormInput{Name: "   "})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestFormService_SlugFallback(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	fx.forms.suffix = func() string { return "00042" }
	fx.forms.now = func() time.Time { return time.UnixMilli(1700000012345) }

	first, err := fx.forms.Create(ctx, CreateFormInput{Name: "###"})
	require.NoError(t, err)
	assert.Equal(t, "form-00042", first.Slug)

	second, err := fx.forms.Create(ctx, CreateFormInput{Name: "???"})
	require.NoError(t, err)
	assert.Equal(t, "form-12345", second.Slug)
}

func TestFormService_ResolvePrecedence(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	a := fx.createForm(t, "Alpha", nil)
	b := fx.createForm(t, "Beta", nil)

	for _, ref := range []string{a.Slug, a.FormKey, a.ID} {
		got, err := fx.forms.Resolve(ctx, ref)
		require.NoError(t, err, ref)
		assert.Equal(t, a.ID, got.ID, ref)
	}

	// A slug equal to another form's key wins over the key.
	fx.store.SetSlug(b.ID, a.FormKey)
	got, err := fx.forms.Resolve(ctx, a.FormKey)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = fx.forms.Resolve(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFormService_Update(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	form := fx.createForm(t, "Incident", nil)

	fields, _ := json.Marshal([]model.Field{
		{ID: "b", Key: "kb", Name: "B", Type: "Text", Order: 7},
		{ID: "a", Key: "ka", Name: "A", Type: "Text", Order: 3},
	})
	patch := map[string]json.RawMessage{
		"form_name":      json.RawMessage(`"Renamed"`),
		"status":         json.RawMessage(`"Inactive"`),
		"is_pollingform": json.RawMessage(`true`),
		"is_loggedin":    json.RawMessage(`1`),
		"fields":         fields,
		"user_id":        json.RawMessage(`"thief"`),
		"slug":           json.RawMessage(`"hijack"`),
	}
	updated, err := fx.forms.Update(ctx, form.FormKey, patch, model.RoleStaff)
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, model.FormStatusInactive, updated.Status)
	assert.Equal(t, 1, updated.IsPollingForm)
	assert.True(t, updated.IsLoggedIn)
	assert.Equal(t, "owner", updated.UserID)
	assert.Equal(t, form.Slug, updated.Slug)
	require.Len(t, updated.Fields, 2)
	assert.Equal(t, "b", updated.Fields[0].ID)
	assert.Equal(t, 0, updated.Fields[0].Order)
	assert.Equal(t, 1, updated.Fields[1].Order)

	updated, err = fx.forms.Update(ctx, form.Slug, map[string]json.RawMessage{"user_id": json.RawMessage(`"new-owner"`)}, model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "new-owner", updated.UserID)
}

func TestFormService_UpdateRejects(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	form := fx.createForm(t, "Incident", nil)

	cases := map[string]map[string]json.RawMessage{
		"empty name":   {"form_name": json.RawMessage(`"  "`)},
		"bad status":   {"status": json.RawMessage(`"Archived"`)},
		"bad fields":   {"fields": json.RawMessage(`[{"field_name": 3}]`)},
		"fields shape": {"fields": json.RawMessage(`{"a": 1}`)},
	}
	for name, patch := range cases {
		_, err := fx.forms.Update(ctx, form.Slug, patch, model.RoleStaff)
		assert.ErrorIs(t, err, ErrInvalid, name)
	}

	_, err := fx.forms.Update(ctx, "nope", map[string]json.RawMessage{}, model.RoleStaff)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFormService_ListPolling(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	_, err := fx.forms.Create(ctx, CreateFormInput{Name: "Plain"})
	require.NoError(t, err)
	older, err := fx.forms.Create(ctx, CreateFormInput{Name: "Polling A", IsPollingForm: 1})
	require.NoError(t, err)
	newer, err := fx.forms.Create(ctx, CreateFormInput{Name: "Polling B", IsPollingForm: 1})
	require.NoError(t, err)
	inactive, err := fx.forms.Create(ctx, CreateFormInput{Name: "Polling C", IsPollingForm: 1})
	require.NoError(t, err)
	_, err = fx.forms.Update(ctx, inactive.Slug, map[string]json.RawMessage{"status": json.RawMessage(`"Inactive"`)}, model.RoleStaff)
	require.NoError(t, err)

	polling, err := fx.forms.ListPolling(ctx)
	require.NoError(t, err)
	require.Len(t, polling, 2)
	assert.Equal(t, newer.ID, polling[0].ID)
	assert.Equal(t, older.ID, polling[1].ID)

	all, err := fx.forms.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestFormService_DeleteKeepsSubmissions(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	form := fx.createForm(t, "Incident", incidentFields())

	_, err := fx.submissions.Create(ctx, form.Slug, CreateSubmissionInput{
		Values: []model.FieldValue{{FieldID: "f-title", Value: model.Scalar("x")}},
	})
	require.NoError(t, err)

	_, err = fx.forms.Delete(ctx, form.Slug)
	require.NoError(t, err)

	_, err = fx.forms.Resolve(ctx, form.Slug)
	assert.ErrorIs(t, err, ErrNotFound)
	rows, err := fx.store.ListSubmissions(ctx, []string{form.Slug}, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = fx.forms.Delete(ctx, form.Slug)
	assert.ErrorIs(t, err, ErrNotFound)
}
