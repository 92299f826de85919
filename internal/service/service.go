package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"situationroom/internal/db"
	"situationroom/internal/model"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrNotFound is returned when a referenced document does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalid marks input rejected before anything is written
	ErrInvalid = errors.New("invalid input")
)

// ValidationError carries the message shown to the caller for rejected input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func notFound(what string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

// EventBus publishes live events for one form
type EventBus interface {
	PublishForm(slug string, event map[string]interface{}) error
}

// FormStore persists form definitions
type FormStore interface {
	CreateForm(ctx context.Context, p db.CreateFormParams) (db.Form, error)
	GetFormBySlug(ctx context.Context, slug string) (db.Form, error)
	GetFormByKey(ctx context.Context, key string) (db.Form, error)
	GetFormByID(ctx context.Context, id string) (db.Form, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListForms(ctx context.Context) ([]db.Form, error)
	ListPollingForms(ctx context.Context) ([]db.Form, error)
	UpdateForm(ctx context.Context, p db.UpdateFormParams) (db.Form, error)
	DeleteForm(ctx context.Context, id string) error
}

// SubmissionStore persists submissions
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, p db.CreateSubmissionParams) (db.Submission, error)
	ListSubmissions(ctx context.Context, refs []string, createdBy *string) ([]db.Submission, error)
	GetSubmission(ctx context.Context, id string) (db.Submission, error)
	DeleteSubmission(ctx context.Context, id string) error
}

// PollingUnitStore persists the polling-unit reference dataset
type PollingUnitStore interface {
	CreatePollingUnit(ctx context.Context, p db.CreatePollingUnitParams) (db.PollingUnit, error)
	GetPollingUnit(ctx context.Context, id string) (db.PollingUnit, error)
	UpdatePollingUnit(ctx context.Context, p db.UpdatePollingUnitParams) (db.PollingUnit, error)
	DeletePollingUnit(ctx context.Context, id string) error
	ListPollingUnits(ctx context.Context, f db.PollingUnitFilter) ([]db.PollingUnit, int, error)
	ListUnitsInWard(ctx context.Context, ward string) ([]db.PollingUnit, error)
	DistinctStates(ctx context.Context) ([]string, error)
	DistinctLGAs(ctx context.Context, state string) ([]string, error)
	DistinctWards(ctx context.Context, state, lga string) ([]string, error)
	DistinctUnits(ctx context.Context, state, lga, ward string) ([]string, error)
}

// IncidentReportStore persists incident reports
type IncidentReportStore interface {
	CreateIncidentReport(ctx context.Context, p db.CreateIncidentReportParams) (db.IncidentReport, error)
	GetIncidentReport(ctx context.Context, id string) (db.IncidentReport, error)
	UpdateIncidentReport(ctx context.Context, p db.UpdateIncidentReportParams) (db.IncidentReport, error)
	DeleteIncidentReport(ctx context.Context, id string) error
	ListIncidentReports(ctx context.Context, f db.IncidentReportFilter) ([]db.IncidentReport, int, error)
}

// UserStore persists accounts
type UserStore interface {
	UpsertUser(ctx context.Context, p db.CreateUserParams) (db.User, error)
	GetUserByEmail(ctx context.Context, email string) (db.User, error)
	GetUserByID(ctx context.Context, id string) (db.User, error)
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func dbFormToModel(f db.Form) (*model.Form, error) {
	fields := make([]model.Field, 0)
	if len(f.Fields) > 0 {
		if err := json.Unmarshal(f.Fields, &fields); err != nil {
			return nil, fmt.Errorf("corrupt fields of form %s: %w", f.ID, err)
		}
	}
	userID := ""
	if f.UserID != nil {
		userID = *f.UserID
	}
	return &model.Form{
		ID:            f.ID,
		FormID:        f.FormID,
		FormKey:       f.FormKey,
		Slug:          f.Slug,
		Name:          f.Name,
		Description:   f.Description,
		Status:        model.FormStatus(f.Status),
		IsEditable:    f.IsEditable,
		IsTemplate:    f.IsTemplate,
		IsLoggedIn:    f.IsLoggedIn,
		IsPollingForm: f.IsPollingForm,
		UserID:        userID,
		Fields:        fields,
		CreatedAt:     timestamp(f.CreatedAt),
		UpdatedAt:     timestamp(f.UpdatedAt),
	}, nil
}

func dbSubmissionToModel(s db.Submission) (*model.Submission, error) {
	values := make([]model.FieldValue, 0)
	if len(s.Value) > 0 {
		if err := json.Unmarshal(s.Value, &values); err != nil {
			return nil, fmt.Errorf("corrupt values of submission %s: %w", s.ID, err)
		}
	}
	return &model.Submission{
		ID:            s.ID,
		SubmissionKey: s.SubmissionKey,
		ItemKey:       s.ItemKey,
		Name:          s.Name,
		Description:   s.Description,
		Values:        values,
		IP:            s.IP,
		FormRef:       s.FormRef,
		CreatedBy:     s.CreatedBy,
		CreatedAt:     timestamp(s.CreatedAt),
	}, nil
}

func dbPollingUnitToModel(u db.PollingUnit) model.PollingUnit {
	return model.PollingUnit{
		ID:               u.ID,
		State:            u.State,
		LGA:              u.LGA,
		RegistrationArea: u.RegistrationArea,
		PollingUnit:      u.PollingUnit,
		CreatedAt:        timestamp(u.CreatedAt),
	}
}

func dbIncidentReportToModel(r db.IncidentReport) model.IncidentReport {
	uploads := r.Uploads
	if uploads == nil {
		uploads = []string{}
	}
	return model.IncidentReport{
		ID:          r.ID,
		Key:         r.Key,
		Name:        r.Name,
		Gender:      r.Gender,
		Email:       r.Email,
		Phone:       r.Phone,
		Description: r.Description,
		Uploads:     uploads,
		State:       r.State,
		LGA:         r.LGA,
		Ward:        r.Ward,
		PollingUnit: r.PollingUnit,
		IP:          r.IP,
		CreatedAt:   timestamp(r.CreatedAt),
		UpdatedAt:   timestamp(r.UpdatedAt),
	}
}

func dbUserToModel(u db.User) model.User {
	return model.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: timestamp(u.CreatedAt),
	}
}

func isInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}
