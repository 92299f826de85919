package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"situationroom/internal/db"
	"situationroom/internal/metrics"
	"situationroom/internal/model"
	"situationroom/internal/storage"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

type IncidentReportService struct {
	store   IncidentReportStore
	storage storage.Storage
}

// NewIncidentReportService wires the store. With a nil storage, attached
// files are checked but not kept.
func NewIncidentReportService(store IncidentReportStore, st storage.Storage) *IncidentReportService {
	return &IncidentReportService{store: store, storage: st}
}

// IncidentReportInput is one citizen report as posted
type IncidentReportInput struct {
	Name        string
	Gender      string
	Email       string
	Phone       string
	Description string
	State       string
	LGA         string
	Ward        string
	PollingUnit string
	IP          string
}

func (in IncidentReportInput) normalized() IncidentReportInput {
	return IncidentReportInput{
		Name:        strings.TrimSpace(in.Name),
		Gender:      strings.TrimSpace(in.Gender),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:       strings.TrimSpace(in.Phone),
		Description: in.Description,
		State:       strings.TrimSpace(in.State),
		LGA:         strings.TrimSpace(in.LGA),
		Ward:        strings.TrimSpace(in.Ward),
		PollingUnit: strings.TrimSpace(in.PollingUnit),
		IP:          in.IP,
	}
}

func (in IncidentReportInput) validate() error {
	for _, v := range []string{in.Name, in.Gender, in.Email, in.Phone, in.State, in.LGA, in.Ward, in.PollingUnit} {
		if v == "" {
			return invalid("All fields are required")
		}
	}
	if strings.TrimSpace(in.Description) == "" {
		return invalid("All fields are required")
	}
	switch in.Gender {
	case model.GenderMale, model.GenderFemale, model.GenderOther:
	default:
		return invalid("Gender must be Male, Female or Other")
	}
	if !emailPattern.MatchString(in.Email) {
		return invalid("Enter a valid email")
	}
	if !phonePattern.MatchString(in.Phone) {
		return invalid("Enter a valid phone number")
	}
	return nil
}

// upload stores every file and returns their URLs in posting order. Files
// are checked against the blocked-extension list before anything is written.
func (s *IncidentReportService) upload(ctx context.Context, files []Upload) ([]string, error) {
	var policy *storage.FilePolicy
	for _, file := range files {
		if err := policy.ValidateFile(file.FileName, file.ContentType, file.Size); err != nil {
			metrics.Uploads.WithLabelValues("rejected").Inc()
			return nil, invalid("%s", err.Error())
		}
	}

	urls := make([]string, 0, len(files))
	if s.storage == nil {
		if len(files) > 0 {
			metrics.Uploads.WithLabelValues("skipped").Add(float64(len(files)))
		}
		return urls, nil
	}
	for _, file := range files {
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		obj, err := s.storage.Put(ctx, storage.IncidentReportKey(file.FileName), file.Body, file.Size, contentType)
		if err != nil {
			metrics.Uploads.WithLabelValues("failed").Inc()
			return nil, fmt.Errorf("failed to store %s: %w", file.FileName, err)
		}
		metrics.Uploads.WithLabelValues("stored").Inc()
		urls = append(urls, obj.URL)
	}
	return urls, nil
}

// Create validates and stores one report with its attached files
func (s *IncidentReportService) Create(ctx context.Context, input IncidentReportInput, files []Upload) (*model.IncidentReport, error) {
	input = input.normalized()
	if err := input.validate(); err != nil {
		return nil, err
	}

	urls, err := s.upload(ctx, files)
	if err != nil {
		return nil, err
	}

	row, err := s.store.CreateIncidentReport(ctx, db.CreateIncidentReportParams{
		ID:          ulid.Make().String(),
		Key:         uuid.NewString(),
		Name:        input.Name,
		Gender:      input.Gender,
		Email:       input.Email,
		Phone:       input.Phone,
		Description: input.Description,
		Uploads:     urls,
		State:       input.State,
		LGA:         input.LGA,
		Ward:        input.Ward,
		PollingUnit: input.PollingUnit,
		IP:          input.IP,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create incident report: %w", err)
	}
	metrics.IncidentReports.WithLabelValues(row.State).Inc()
	r := dbIncidentReportToModel(row)
	return &r, nil
}

// IncidentReportQuery is a paginated listing request with raw page values
type IncidentReportQuery struct {
	State string
	LGA   string
	Ward  string
	Q     string
	Page  string
	Limit string
}

type IncidentReportPage struct {
	Data       []model.IncidentReport `json:"data"`
	Pagination Pagination             `json:"pagination"`
}

// List returns one page of reports, newest first
func (s *IncidentReportService) List(ctx context.Context, q IncidentReportQuery) (*IncidentReportPage, error) {
	page, limit := Paging(q.Page, q.Limit)
	rows, total, err := s.store.ListIncidentReports(ctx, db.IncidentReportFilter{
		State:  strings.TrimSpace(q.State),
		LGA:    strings.TrimSpace(q.LGA),
		Ward:   strings.TrimSpace(q.Ward),
		Query:  strings.TrimSpace(q.Q),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list incident reports: %w", err)
	}

	reports := make([]model.IncidentReport, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, dbIncidentReportToModel(row))
	}
	return &IncidentReportPage{
		Data: reports,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		},
	}, nil
}

func (s *IncidentReportService) Get(ctx context.Context, id string) (*model.IncidentReport, error) {
	row, err := s.store.GetIncidentReport(ctx, id)
	if err != nil {
		return nil, notFound("incident report", err)
	}
	r := dbIncidentReportToModel(row)
	return &r, nil
}

// IncidentReportPatch holds the members to change; nil members are kept
type IncidentReportPatch struct {
	Name        *string   `json:"name"`
	Gender      *string   `json:"gender"`
	Email       *string   `json:"email"`
	Phone       *string   `json:"phone"`
	Description *string   `json:"description"`
	State       *string   `json:"state"`
	LGA         *string   `json:"lga"`
	Ward        *string   `json:"ward"`
	PollingUnit *string   `json:"pollingunit"`
	Uploads     *[]string `json:"uploads"`
}

// Update applies patch and re-checks the whole report
func (s *IncidentReportService) Update(ctx context.Context, id string, patch IncidentReportPatch) (*model.IncidentReport, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := IncidentReportInput{
		Name:        current.Name,
		Gender:      current.Gender,
		Email:       current.Email,
		Phone:       current.Phone,
		Description: current.Description,
		State:       current.State,
		LGA:         current.LGA,
		Ward:        current.Ward,
		PollingUnit: current.PollingUnit,
	}
	for _, m := range []struct{ src, dst *string }{
		{patch.Name, &next.Name},
		{patch.Gender, &next.Gender},
		{patch.Email, &next.Email},
		{patch.Phone, &next.Phone},
		{patch.Description, &next.Description},
		{patch.State, &next.State},
		{patch.LGA, &next.LGA},
		{patch.Ward, &next.Ward},
		{patch.PollingUnit, &next.PollingUnit},
	} {
		if m.src != nil {
			*m.dst = *m.src
		}
	}
	next = next.normalized()
	if err := next.validate(); err != nil {
		return nil, err
	}
	uploads := current.Uploads
	if patch.Uploads != nil {
		uploads = *patch.Uploads
	}

	row, err := s.store.UpdateIncidentReport(ctx, db.UpdateIncidentReportParams{
		ID:          id,
		Name:        next.Name,
		Gender:      next.Gender,
		Email:       next.Email,
		Phone:       next.Phone,
		Description: next.Description,
		Uploads:     uploads,
		State:       next.State,
		LGA:         next.LGA,
		Ward:        next.Ward,
		PollingUnit: next.PollingUnit,
	})
	if err != nil {
		return nil, notFound("incident report", err)
	}
	r := dbIncidentReportToModel(row)
	return &r, nil
}

// Delete removes the report. Its stored files are kept.
func (s *IncidentReportService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteIncidentReport(ctx, id); err != nil {
		return notFound("incident report", err)
	}
	return nil
}
