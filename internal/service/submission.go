package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"situationroom/internal/auth"
	"situationroom/internal/db"
	"situationroom/internal/export"
	"situationroom/internal/fieldkind"
	"situationroom/internal/metrics"
	"situationroom/internal/model"
	"situationroom/internal/render"
	"situationroom/internal/storage"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Viewer is the caller a submission query runs for
type Viewer struct {
	ID   string
	Role string
}

type SubmissionService struct {
	store     SubmissionStore
	forms     *FormService
	storage   storage.Storage
	bus       EventBus
	jobClient JobClient
	reports   reportInvalidator
	log       *zap.Logger
}

// reportInvalidator drops the cached report of a form
type reportInvalidator interface {
	Invalidate(ctx context.Context, form *model.Form)
}

// NewSubmissionService wires the store. A nil storage means uploads are
// accepted but not stored.
func NewSubmissionService(store SubmissionStore, forms *FormService, st storage.Storage, bus EventBus) *SubmissionService {
	return &SubmissionService{
		store:   store,
		forms:   forms,
		storage: st,
		bus:     bus,
		log:     zap.NewNop(),
	}
}

// SetLogger sets the logger for failures that do not fail the request
func (s *SubmissionService) SetLogger(log *zap.Logger) {
	if log != nil {
		s.log = log
	}
}

// SetJobClient sets the job client for scheduling background jobs
func (s *SubmissionService) SetJobClient(client JobClient) {
	s.jobClient = client
}

// Upload is one file attached to a multipart submission
type Upload struct {
	FieldID     string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type CreateSubmissionInput struct {
	Name      string
	Values    []model.FieldValue
	Files     []Upload
	IP        string
	CreatedBy string
}

// refs lists the form_ref values a form's submissions may carry
func refs(form *model.Form) []string {
	if form.FormKey == "" || form.FormKey == form.Slug {
		return []string{form.Slug}
	}
	return []string{form.Slug, form.FormKey}
}

func (s *SubmissionService) query(ctx context.Context, form *model.Form, createdBy *string) ([]model.Submission, error) {
	rows, err := s.store.ListSubmissions(ctx, refs(form), createdBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	subs := make([]model.Submission, 0, len(rows))
	for _, row := range rows {
		sub, err := dbSubmissionToModel(row)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, nil
}

// List returns a form's submissions, newest first. An unknown form has none.
// Only Admins see everyone's; mine restricts Admins too.
func (s *SubmissionService) List(ctx context.Context, formRef string, viewer Viewer, mine bool) ([]model.Submission, error) {
	form, err := s.forms.Resolve(ctx, formRef)
	if errors.Is(err, ErrNotFound) {
		return []model.Submission{}, nil
	}
	if err != nil {
		return nil, err
	}

	var createdBy *string
	if mine || viewer.Role != model.RoleAdmin {
		id := viewer.ID
		createdBy = &id
	}
	return s.query(ctx, form, createdBy)
}

// owningField finds the FileUpload field a file belongs to: the field it was
// posted under, else the first unclaimed one whose submitted value names it.
func owningField(form *model.Form, values []model.FieldValue, file Upload, claimed map[string]bool) (model.Field, bool) {
	byID := make(map[string]model.Field, len(form.Fields))
	for _, f := range form.Fields {
		if fieldkind.Type(f.Type) == fieldkind.FileUpload && !claimed[f.ID] {
			byID[f.ID] = f
		}
	}
	if f, ok := byID[file.FieldID]; ok {
		return f, true
	}
	for _, v := range values {
		f, ok := byID[v.FieldID]
		if !ok {
			continue
		}
		if v.Value.Kind() == model.ValueScalar && v.Value.ScalarText() == file.FileName {
			return f, true
		}
	}
	return model.Field{}, false
}

// storedFiles maps stored uploads back to answers. Files tied to a field are
// keyed by field id; the rest by file name.
type storedFiles struct {
	byField map[string]string
	byName  map[string]string
}

func (f storedFiles) url(v model.FieldValue) (string, bool) {
	if url, ok := f.byField[v.FieldID]; ok {
		return url, true
	}
	if v.Value.Kind() != model.ValueScalar {
		return "", false
	}
	url, ok := f.byName[v.Value.ScalarText()]
	return url, ok
}

func (s *SubmissionService) upload(ctx context.Context, form *model.Form, values []model.FieldValue, files []Upload) (storedFiles, error) {
	stored := storedFiles{byField: map[string]string{}, byName: map[string]string{}}
	owners := make([]string, len(files))
	claimed := make(map[string]bool, len(files))
	for i, file := range files {
		var policy *storage.FilePolicy
		if f, ok := owningField(form, values, file, claimed); ok {
			policy = storage.PolicyForField(f)
			owners[i] = f.ID
			claimed[f.ID] = true
		}
		if err := policy.ValidateFile(file.FileName, file.ContentType, file.Size); err != nil {
			metrics.Uploads.WithLabelValues("rejected").Inc()
			return stored, invalid("%s", err.Error())
		}
	}

	if s.storage == nil {
		if len(files) > 0 {
			metrics.Uploads.WithLabelValues("skipped").Add(float64(len(files)))
		}
		return stored, nil
	}
	for i, file := range files {
		obj, err := s.storage.Put(ctx, storage.SubmissionKey(file.FileName), file.Body, file.Size, file.ContentType)
		if err != nil {
			metrics.Uploads.WithLabelValues("failed").Inc()
			return stored, fmt.Errorf("failed to store %s: %w", file.FileName, err)
		}
		metrics.Uploads.WithLabelValues("stored").Inc()
		if owners[i] != "" {
			stored.byField[owners[i]] = obj.URL
		} else if _, dup := stored.byName[file.FileName]; !dup {
			stored.byName[file.FileName] = obj.URL
		}
	}
	return stored, nil
}

// Create stores one submission for the form named by formRef. Uploaded
// files are checked against their field's policy, stored, and their names in
// the values replaced by the stored URLs.
func (s *SubmissionService) Create(ctx context.Context, formRef string, input CreateSubmissionInput) (*model.Submission, error) {
	form, err := s.forms.Resolve(ctx, formRef)
	if err != nil {
		return nil, err
	}

	stored, err := s.upload(ctx, form, input.Values, input.Files)
	if err != nil {
		return nil, err
	}

	values := make([]model.FieldValue, 0, len(input.Values))
	for _, v := range input.Values {
		if url, ok := stored.url(v); ok {
			v.Value = model.Scalar(url)
		}
		values = append(values, v)
	}

	values, firstText := render.Submission(*form, values)
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = firstText
	}

	payload, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode values: %w", err)
	}

	var createdBy *string
	if input.CreatedBy != "" {
		createdBy = &input.CreatedBy
	}

	row, err := s.store.CreateSubmission(ctx, db.CreateSubmissionParams{
		ID:            ulid.Make().String(),
		SubmissionKey: uuid.NewString(),
		ItemKey:       uuid.NewString(),
		Name:          name,
		Value:         payload,
		IP:            input.IP,
		FormRef:       form.Slug,
		CreatedBy:     createdBy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	sub, err := dbSubmissionToModel(row)
	if err != nil {
		return nil, err
	}
	metrics.Submissions.WithLabelValues(form.Slug).Inc()
	s.changed(ctx, form, "submission.created", sub.ID)
	return sub, nil
}

// visible reports whether viewer may read or delete sub
func visible(sub *model.Submission, viewer Viewer) bool {
	if viewer.Role == model.RoleAdmin || auth.HasPerm(viewer.Role, auth.PermViewForms) {
		return true
	}
	return sub.CreatedBy != nil && *sub.CreatedBy == viewer.ID
}

// Get returns one submission. Other people's submissions read as missing
// unless the viewer may see every form's data.
func (s *SubmissionService) Get(ctx context.Context, id string, viewer Viewer) (*model.Submission, error) {
	row, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		return nil, notFound("submission", err)
	}
	sub, err := dbSubmissionToModel(row)
	if err != nil {
		return nil, err
	}
	if !visible(sub, viewer) {
		return nil, fmt.Errorf("submission: %w", ErrNotFound)
	}
	return sub, nil
}

func (s *SubmissionService) Delete(ctx context.Context, id string, viewer Viewer) error {
	sub, err := s.Get(ctx, id, viewer)
	if err != nil {
		return err
	}
	if err := s.store.DeleteSubmission(ctx, id); err != nil {
		return notFound("submission", err)
	}

	form, err := s.forms.Resolve(ctx, sub.FormRef)
	if err != nil {
		// The form is gone, so there is no report or channel left to refresh.
		return nil
	}
	s.changed(ctx, form, "submission.deleted", sub.ID)
	return nil
}

// Export writes every submission of a form as CSV and returns the form
func (s *SubmissionService) Export(ctx context.Context, formRef string, w io.Writer) (*model.Form, error) {
	form, err := s.forms.Resolve(ctx, formRef)
	if err != nil {
		return nil, err
	}
	subs, err := s.query(ctx, form, nil)
	if err != nil {
		return nil, err
	}
	if err := export.WriteCSV(w, *form, subs); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return form, nil
}

// changed drops the cached report before anything else runs, so a read
// right after a write never sees the old tally even when the queue is down.
func (s *SubmissionService) changed(ctx context.Context, form *model.Form, eventType, submissionID string) {
	if s.reports != nil {
		s.reports.Invalidate(ctx, form)
	}
	if s.bus != nil {
		err := s.bus.PublishForm(form.Slug, map[string]interface{}{
			"type":         eventType,
			"slug":         form.Slug,
			"submissionId": submissionID,
		})
		if err != nil {
			s.log.Warn("Failed to publish submission event",
				zap.String("slug", form.Slug), zap.String("event", eventType), zap.Error(err))
		}
	}
	if s.jobClient != nil {
		if err := s.jobClient.EnqueueReportRebuild(form.Slug); err != nil {
			s.log.Warn("Failed to enqueue report rebuild", zap.String("slug", form.Slug), zap.Error(err))
		}
	}
}
