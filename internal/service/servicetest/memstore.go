// Package servicetest provides in-memory stores for exercising the service
// layer and HTTP handlers without a database.
package servicetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"situationroom/internal/db"

	"github.com/jackc/pgx/v5"
)

// Store holds every table in memory. Missing rows are reported with
// pgx.ErrNoRows, like the real queries.
type Store struct {
	mu          sync.Mutex
	clock       time.Time
	forms       []db.Form
	submissions []db.Submission
	units       []db.PollingUnit
	users       []db.User
	incidents   []db.IncidentReport
}

func NewStore() *Store {
	return &Store{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// tick returns strictly increasing timestamps so newest-first order is stable
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Store) CreateForm(ctx context.Context, p db.CreateFormParams) (db.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	f := db.Form{
		ID:            p.ID,
		FormID:        p.FormID,
		FormKey:       p.FormKey,
		Slug:          p.Slug,
		Name:          p.Name,
		Description:   p.Description,
		Status:        p.Status,
		IsPollingForm: p.IsPollingForm,
		UserID:        p.UserID,
		Fields:        p.Fields,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.forms = append(s.forms, f)
	return f, nil
}

func (s *Store) findForm(match func(db.Form) bool) (db.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.forms {
		if match(f) {
			return f, nil
		}
	}
	return db.Form{}, pgx.ErrNoRows
}

func (s *Store) GetFormBySlug(ctx context.Context, slug string) (db.Form, error) {
	return s.findForm(func(f db.Form) bool { return f.Slug == slug })
}

func (s *Store) GetFormByKey(ctx context.Context, key string) (db.Form, error) {
	return s.findForm(func(f db.Form) bool { return f.FormKey == key })
}

func (s *Store) GetFormByID(ctx context.Context, id string) (db.Form, error) {
	return s.findForm(func(f db.Form) bool { return f.ID == id })
}

func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := s.GetFormBySlug(ctx, slug)
	return err == nil, nil
}

func (s *Store) listForms(match func(db.Form) bool) []db.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.Form, 0)
	for i := len(s.forms) - 1; i >= 0; i-- {
		if match(s.forms[i]) {
			out = append(out, s.forms[i])
		}
	}
	return out
}

func (s *Store) ListForms(ctx context.Context) ([]db.Form, error) {
	return s.listForms(func(db.Form) bool { return true }), nil
}

func (s *Store) ListPollingForms(ctx context.Context) ([]db.Form, error) {
	return s.listForms(func(f db.Form) bool { return f.Status == "Active" && f.IsPollingForm == 1 }), nil
}

func (s *Store) UpdateForm(ctx context.Context, p db.UpdateFormParams) (db.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.forms {
		if f.ID != p.ID {
			continue
		}
		f.Name = p.Name
		f.Description = p.Description
		f.Status = p.Status
		f.IsEditable = p.IsEditable
		f.IsTemplate = p.IsTemplate
		f.IsLoggedIn = p.IsLoggedIn
		f.IsPollingForm = p.IsPollingForm
		f.UserID = p.UserID
		f.Fields = p.Fields
		f.UpdatedAt = s.tick()
		s.forms[i] = f
		return f, nil
	}
	return db.Form{}, pgx.ErrNoRows
}

func (s *Store) DeleteForm(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.forms {
		if f.ID == id {
			s.forms = append(s.forms[:i], s.forms[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (s *Store) CreateSubmission(ctx context.Context, p db.CreateSubmissionParams) (db.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := db.Submission{
		ID:            p.ID,
		SubmissionKey: p.SubmissionKey,
		ItemKey:       p.ItemKey,
		Name:          p.Name,
		Description:   p.Description,
		Value:         p.Value,
		IP:            p.IP,
		FormRef:       p.FormRef,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     s.tick(),
	}
	s.submissions = append(s.submissions, sub)
	return sub, nil
}

// AddSubmission stores a row as is, for seeding legacy data in tests
func (s *Store) AddSubmission(sub db.Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.tick()
	}
	s.submissions = append(s.submissions, sub)
}

func (s *Store) ListSubmissions(ctx context.Context, refs []string, createdBy *string) ([]db.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[string]bool, len(refs))
	for _, r := range refs {
		want[r] = true
	}
	out := make([]db.Submission, 0)
	for _, sub := range s.submissions {
		if !want[sub.FormRef] {
			continue
		}
		if createdBy != nil && (sub.CreatedBy == nil || *sub.CreatedBy != *createdBy) {
			continue
		}
		out = append(out, sub)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetSubmission(ctx context.Context, id string) (db.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.submissions {
		if sub.ID == id {
			return sub, nil
		}
	}
	return db.Submission{}, pgx.ErrNoRows
}

func (s *Store) DeleteSubmission(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.submissions {
		if sub.ID == id {
			s.submissions = append(s.submissions[:i], s.submissions[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (s *Store) CreatePollingUnit(ctx context.Context, p db.CreatePollingUnitParams) (db.PollingUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := db.PollingUnit{
		ID:               p.ID,
		State:            p.State,
		LGA:              p.LGA,
		RegistrationArea: p.RegistrationArea,
		PollingUnit:      p.PollingUnit,
		CreatedAt:        s.tick(),
	}
	s.units = append(s.units, u)
	return u, nil
}

func (s *Store) GetPollingUnit(ctx context.Context, id string) (db.PollingUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.units {
		if u.ID == id {
			return u, nil
		}
	}
	return db.PollingUnit{}, pgx.ErrNoRows
}

func (s *Store) UpdatePollingUnit(ctx context.Context, p db.UpdatePollingUnitParams) (db.PollingUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.units {
		if u.ID == p.ID {
			u.State, u.LGA, u.RegistrationArea, u.PollingUnit = p.State, p.LGA, p.RegistrationArea, p.PollingUnit
			s.units[i] = u
			return u, nil
		}
	}
	return db.PollingUnit{}, pgx.ErrNoRows
}

func (s *Store) DeletePollingUnit(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.units {
		if u.ID == id {
			s.units = append(s.units[:i], s.units[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (s *Store) sortedUnits(match func(db.PollingUnit) bool) []db.PollingUnit {
	out := make([]db.PollingUnit, 0)
	for _, u := range s.units {
		if match(u) {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		return strings.Join([]string{a.State, a.LGA, a.RegistrationArea, a.PollingUnit}, "\x00") <
			strings.Join([]string{b.State, b.LGA, b.RegistrationArea, b.PollingUnit}, "\x00")
	})
	return out
}

func (s *Store) ListPollingUnits(ctx context.Context, f db.PollingUnitFilter) ([]db.PollingUnit, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.sortedUnits(func(u db.PollingUnit) bool {
		return (f.State == "" || u.State == f.State) &&
			(f.LGA == "" || u.LGA == f.LGA) &&
			(f.RegistrationArea == "" || u.RegistrationArea == f.RegistrationArea)
	})
	start := f.Offset
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (s *Store) ListUnitsInWard(ctx context.Context, ward string) ([]db.PollingUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	units := s.sortedUnits(func(u db.PollingUnit) bool { return u.RegistrationArea == ward })
	sort.SliceStable(units, func(i, j int) bool { return units[i].PollingUnit < units[j].PollingUnit })
	return units, nil
}

func (s *Store) distinct(match func(db.PollingUnit) bool, pick func(db.PollingUnit) string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, u := range s.units {
		v := pick(u)
		if v == "" || seen[v] || !match(u) {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (s *Store) DistinctStates(ctx context.Context) ([]string, error) {
	return s.distinct(func(db.PollingUnit) bool { return true },
		func(u db.PollingUnit) string { return u.State }), nil
}

func (s *Store) DistinctLGAs(ctx context.Context, state string) ([]string, error) {
	return s.distinct(func(u db.PollingUnit) bool { return u.State == state },
		func(u db.PollingUnit) string { return u.LGA }), nil
}

func (s *Store) DistinctWards(ctx context.Context, state, lga string) ([]string, error) {
	return s.distinct(func(u db.PollingUnit) bool { return (state == "" || u.State == state) && u.LGA == lga },
		func(u db.PollingUnit) string { return u.RegistrationArea }), nil
}

func (s *Store) DistinctUnits(ctx context.Context, state, lga, ward string) ([]string, error) {
	return s.distinct(func(u db.PollingUnit) bool {
		return u.State == state && u.LGA == lga && u.RegistrationArea == ward
	}, func(u db.PollingUnit) string { return u.PollingUnit }), nil
}

func (s *Store) UpsertUser(ctx context.Context, p db.CreateUserParams) (db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(p.Email)
	for i, u := range s.users {
		if u.Email == email {
			u.Name, u.Role, u.PasswordHash = p.Name, p.Role, p.PasswordHash
			s.users[i] = u
			return u, nil
		}
	}
	u := db.User{
		ID:           p.ID,
		Email:        email,
		Name:         p.Name,
		Role:         p.Role,
		PasswordHash: p.PasswordHash,
		CreatedAt:    s.tick(),
	}
	s.users = append(s.users, u)
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return db.User{}, pgx.ErrNoRows
}

func (s *Store) GetUserByID(ctx context.Context, id string) (db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return db.User{}, pgx.ErrNoRows
}

// SetSlug rewrites a form's slug, for exercising lookup precedence
func (s *Store) SetSlug(id, slug string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.forms {
		if s.forms[i].ID == id {
			s.forms[i].Slug = slug
		}
	}
}

func (s *Store) CreateIncidentReport(ctx context.Context, p db.CreateIncidentReportParams) (db.IncidentReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	uploads := append([]string{}, p.Uploads...)
	r := db.IncidentReport{
		ID:          p.ID,
		Key:         p.Key,
		Name:        p.Name,
		Gender:      p.Gender,
		Email:       p.Email,
		Phone:       p.Phone,
		Description: p.Description,
		Uploads:     uploads,
		State:       p.State,
		LGA:         p.LGA,
		Ward:        p.Ward,
		PollingUnit: p.PollingUnit,
		IP:          p.IP,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.incidents = append(s.incidents, r)
	return r, nil
}

func (s *Store) GetIncidentReport(ctx context.Context, id string) (db.IncidentReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.incidents {
		if r.ID == id {
			return r, nil
		}
	}
	return db.IncidentReport{}, pgx.ErrNoRows
}

func (s *Store) UpdateIncidentReport(ctx context.Context, p db.UpdateIncidentReportParams) (db.IncidentReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.incidents {
		if r.ID != p.ID {
			continue
		}
		r.Name, r.Gender, r.Email, r.Phone = p.Name, p.Gender, p.Email, p.Phone
		r.Description = p.Description
		r.Uploads = append([]string{}, p.Uploads...)
		r.State, r.LGA, r.Ward, r.PollingUnit = p.State, p.LGA, p.Ward, p.PollingUnit
		r.UpdatedAt = s.tick()
		s.incidents[i] = r
		return r, nil
	}
	return db.IncidentReport{}, pgx.ErrNoRows
}

func (s *Store) DeleteIncidentReport(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.incidents {
		if r.ID == id {
			s.incidents = append(s.incidents[:i], s.incidents[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (s *Store) ListIncidentReports(ctx context.Context, f db.IncidentReportFilter) ([]db.IncidentReport, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(f.Query)
	contains := func(vals ...string) bool {
		for _, v := range vals {
			if strings.Contains(strings.ToLower(v), q) {
				return true
			}
		}
		return false
	}
	all := make([]db.IncidentReport, 0)
	for _, r := range s.incidents {
		if (f.State == "" || r.State == f.State) &&
			(f.LGA == "" || r.LGA == f.LGA) &&
			(f.Ward == "" || r.Ward == f.Ward) &&
			(q == "" || contains(r.Name, r.Email, r.Phone, r.PollingUnit, r.Description)) {
			all = append(all, r)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	start := f.Offset
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}
