package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"situationroom/internal/cache"
	"situationroom/internal/model"
	"situationroom/internal/schema"
	"situationroom/internal/service/servicetest"
	"situationroom/internal/storage"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	store       *servicetest.Store
	bus         *servicetest.Bus
	jobs        *servicetest.Jobs
	forms       *FormService
	submissions *SubmissionService
	reports     *ReportService
	units       *PollingUnitService
	incidents   *IncidentReportService
}

func newFixture(t *testing.T, st storage.Storage) *fixture {
	t.Helper()
	store := servicetest.NewStore()
	bus := &servicetest.Bus{}
	jobs := &servicetest.Jobs{}

	forms := NewFormService(store, schema.NewCompilerWithCache(16), bus)
	subs := NewSubmissionService(store, forms, st, bus)
	subs.SetJobClient(jobs)

	return &fixture{
		store:       store,
		bus:         bus,
		jobs:        jobs,
		forms:       forms,
		submissions: subs,
		reports:     NewReportService(forms, subs, cache.NewMemory(16, time.Minute), time.Minute),
		units:       NewPollingUnitService(store),
		incidents:   NewIncidentReportService(store, st),
	}
}

// createForm makes a form and gives it fields
func (fx *fixture) createForm(t *testing.T, name string, fields []model.Field) *model.Form {
	t.Helper()
	ctx := context.Background()
	form, err := fx.forms.Create(ctx, CreateFormInput{Name: name, OwnerID: "owner"})
	require.NoError(t, err)
	if fields == nil {
		return form
	}
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	form, err = fx.forms.Update(ctx, form.Slug, map[string]json.RawMessage{"fields": raw}, model.RoleStaff)
	require.NoError(t, err)
	return form
}

func incidentFields() []model.Field {
	return []model.Field{
		{ID: "f-title", Key: "k-title", Name: "Title", Type: "Text"},
		{ID: "f-kind", Key: "k-kind", Name: "Kind", Type: "Select",
			Attributes: []model.Choice{{Value: "Violence"}, {Value: "Delay"}}},
		{ID: "f-photo", Key: "k-photo", Name: "Photo", Type: "FileUpload", Accept: "image/*", MaxSizeMB: 1},
	}
}
