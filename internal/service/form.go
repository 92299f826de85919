package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"situationroom/internal/db"
	"situationroom/internal/model"
	"situationroom/internal/schema"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
)

type FormService struct {
	store      FormStore
	schemaComp *schema.Compiler
	bus        EventBus
	suffix     func() string
	now        func() time.Time
}

func NewFormService(store FormStore, schemaComp *schema.Compiler, bus EventBus) *FormService {
	return &FormService{
		store:      store,
		schemaComp: schemaComp,
		bus:        bus,
		suffix:     randomSuffix,
		now:        time.Now,
	}
}

type CreateFormInput struct {
	Name          string     `json:"form_name"`
	Description   string     `json:"form_description"`
	IsPollingForm model.Flag `json:"is_pollingform"`
	OwnerID       string     `json:"-"`
}

func (s *FormService) Create(ctx context.Context, input CreateFormInput) (*model.Form, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid("form_name is required")
	}

	slug, err := s.uniqueSlug(ctx, name)
	if err != nil {
		return nil, err
	}

	var owner *string
	if input.OwnerID != "" {
		owner = &input.OwnerID
	}

	f, err := s.store.CreateForm(ctx, db.CreateFormParams{
		ID:            ulid.Make().String(),
		FormID:        uuid.NewString(),
		FormKey:       uuid.NewString(),
		Slug:          slug,
		Name:          name,
		Description:   strings.TrimSpace(input.Description),
		Status:        string(model.FormStatusActive),
		IsPollingForm: int(input.IsPollingForm),
		UserID:        owner,
		Fields:        json.RawMessage("[]"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create form: %w", err)
	}

	form, err := dbFormToModel(f)
	if err != nil {
		return nil, err
	}
	s.publish(form, "form.created")
	return form, nil
}

// Resolve finds a form by slug, then legacy key, then internal id. The id is
// only tried when ref is a well-formed ULID.
func (s *FormService) Resolve(ctx context.Context, ref string) (*model.Form, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("form: %w", ErrNotFound)
	}

	lookups := []func(context.Context, string) (db.Form, error){
		s.store.GetFormBySlug,
		s.store.GetFormByKey,
	}
	if _, err := ulid.ParseStrict(ref); err == nil {
		lookups = append(lookups, s.store.GetFormByID)
	}

	for _, lookup := range lookups {
		f, err := lookup(ctx, ref)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve form: %w", err)
		}
		return dbFormToModel(f)
	}
	return nil, fmt.Errorf("form %q: %w", ref, ErrNotFound)
}

// List returns every form, newest first
func (s *FormService) List(ctx context.Context) ([]model.Form, error) {
	rows, err := s.store.ListForms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	forms := make([]model.Form, 0, len(rows))
	for _, row := range rows {
		f, err := dbFormToModel(row)
		if err != nil {
			return nil, err
		}
		forms = append(forms, *f)
	}
	return forms, nil
}

// ListPolling returns the active polling forms in their trimmed projection
func (s *FormService) ListPolling(ctx context.Context) ([]model.PollingForm, error) {
	rows, err := s.store.ListPollingForms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list polling forms: %w", err)
	}
	forms := make([]model.PollingForm, 0, len(rows))
	for _, f := range rows {
		forms = append(forms, model.PollingForm{
			ID:            f.ID,
			Slug:          f.Slug,
			FormKey:       f.FormKey,
			Name:          f.Name,
			Description:   f.Description,
			Status:        model.FormStatus(f.Status),
			IsPollingForm: f.IsPollingForm,
			CreatedAt:     timestamp(f.CreatedAt),
		})
	}
	return forms, nil
}

// Update applies the whitelisted members of patch. user_id is honoured only
// for Admin actors; anything else unknown is ignored.
func (s *FormService) Update(ctx context.Context, ref string, patch map[string]json.RawMessage, actorRole string) (*model.Form, error) {
	current, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	p := db.UpdateFormParams{
		ID:            current.ID,
		Name:          current.Name,
		Description:   current.Description,
		Status:        string(current.Status),
		IsEditable:    current.IsEditable,
		IsTemplate:    current.IsTemplate,
		IsLoggedIn:    current.IsLoggedIn,
		IsPollingForm: current.IsPollingForm,
	}
	if current.UserID != "" {
		owner := current.UserID
		p.UserID = &owner
	}
	fields := current.Fields

	if raw, ok := patch["form_name"]; ok {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil || strings.TrimSpace(name) == "" {
			return nil, invalid("form_name is required")
		}
		p.Name = strings.TrimSpace(name)
	}
	if raw, ok := patch["form_description"]; ok {
		var desc string
		if err := json.Unmarshal(raw, &desc); err != nil {
			return nil, invalid("form_description must be a string")
		}
		p.Description = desc
	}
	if raw, ok := patch["status"]; ok {
		var status model.FormStatus
		if err := json.Unmarshal(raw, &status); err != nil || !status.Valid() {
			return nil, invalid("status must be Active or Inactive")
		}
		p.Status = string(status)
	}
	for key, dst := range map[string]*int{
		"is_editable":    &p.IsEditable,
		"is_template":    &p.IsTemplate,
		"is_pollingform": &p.IsPollingForm,
	} {
		if raw, ok := patch[key]; ok {
			var flag model.Flag
			if err := json.Unmarshal(raw, &flag); err != nil {
				return nil, invalid("%s must be 0 or 1", key)
			}
			*dst = int(flag)
		}
	}
	if raw, ok := patch["is_loggedin"]; ok {
		var flag model.Flag
		if err := json.Unmarshal(raw, &flag); err != nil {
			return nil, invalid("is_loggedin must be a boolean")
		}
		p.IsLoggedIn = flag == 1
	}
	if raw, ok := patch["user_id"]; ok && actorRole == model.RoleAdmin {
		var owner *string
		if err := json.Unmarshal(raw, &owner); err != nil {
			return nil, invalid("user_id must be a string")
		}
		if owner != nil && *owner == "" {
			owner = nil
		}
		p.UserID = owner
	}
	if raw, ok := patch["fields"]; ok {
		fields, err = s.decodeFields(ctx, raw)
		if err != nil {
			return nil, err
		}
	}

	p.Fields, err = json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}

	f, err := s.store.UpdateForm(ctx, p)
	if err != nil {
		return nil, notFound("form", err)
	}
	form, err := dbFormToModel(f)
	if err != nil {
		return nil, err
	}
	s.publish(form, "form.updated")
	return form, nil
}

// decodeFields validates a fields array and renumbers it by position
func (s *FormService) decodeFields(ctx context.Context, raw json.RawMessage) ([]model.Field, error) {
	if s.schemaComp != nil {
		if err := s.schemaComp.ValidateFields(ctx, raw); err != nil {
			return nil, invalid("invalid fields: %v", err)
		}
	}
	var fields []model.Field
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, invalid("invalid fields: %v", err)
	}
	if fields == nil {
		fields = []model.Field{}
	}
	for i := range fields {
		fields[i].Order = i
	}
	return fields, nil
}

// Delete removes the definition only; its submissions and files stay
func (s *FormService) Delete(ctx context.Context, ref string) (*model.Form, error) {
	form, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteForm(ctx, form.ID); err != nil {
		return nil, notFound("form", err)
	}
	s.publish(form, "form.deleted")
	return form, nil
}

func (s *FormService) publish(form *model.Form, eventType string) {
	if s.bus == nil {
		return
	}
	_ = s.bus.PublishForm(form.Slug, map[string]interface{}{
		"type":   eventType,
		"formId": form.ID,
		"slug":   form.Slug,
	})
}
