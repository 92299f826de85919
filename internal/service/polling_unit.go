package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"situationroom/internal/db"
	"situationroom/internal/location"
	"situationroom/internal/model"

	"github.com/oklog/ulid/v2"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

type PollingUnitService struct {
	store PollingUnitStore
}

func NewPollingUnitService(store PollingUnitStore) *PollingUnitService {
	return &PollingUnitService{store: store}
}

// PollingUnitQuery is a paginated listing request. Page and Limit are the
// raw query values; bad or missing ones fall back to the defaults.
type PollingUnitQuery struct {
	State            string
	LGA              string
	RegistrationArea string
	Page             string
	Limit            string
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type PollingUnitPage struct {
	Data       []model.PollingUnit `json:"data"`
	Pagination Pagination          `json:"pagination"`
}

// Paging turns raw page/limit values into a page >= 1 and 1 <= limit <= 200
func Paging(page, limit string) (int, int) {
	p, err := strconv.Atoi(strings.TrimSpace(page))
	if err != nil || p < 1 {
		p = 1
	}
	l, err := strconv.Atoi(strings.TrimSpace(limit))
	if err != nil {
		l = defaultPageLimit
	}
	if l < 1 {
		l = 1
	}
	if l > maxPageLimit {
		l = maxPageLimit
	}
	return p, l
}

func (s *PollingUnitService) List(ctx context.Context, q PollingUnitQuery) (*PollingUnitPage, error) {
	page, limit := Paging(q.Page, q.Limit)
	rows, total, err := s.store.ListPollingUnits(ctx, db.PollingUnitFilter{
		State:            q.State,
		LGA:              q.LGA,
		RegistrationArea: q.RegistrationArea,
		Limit:            limit,
		Offset:           (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list polling units: %w", err)
	}

	units := make([]model.PollingUnit, 0, len(rows))
	for _, row := range rows {
		units = append(units, dbPollingUnitToModel(row))
	}
	return &PollingUnitPage{
		Data: units,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		},
	}, nil
}

type PollingUnitInput struct {
	State            string `json:"state" yaml:"state"`
	LGA              string `json:"lga" yaml:"lga"`
	RegistrationArea string `json:"registration_area" yaml:"registration_area"`
	PollingUnit      string `json:"polling_unit" yaml:"polling_unit"`
}

func (in PollingUnitInput) trimmed() PollingUnitInput {
	return PollingUnitInput{
		State:            strings.TrimSpace(in.State),
		LGA:              strings.TrimSpace(in.LGA),
		RegistrationArea: strings.TrimSpace(in.RegistrationArea),
		PollingUnit:      strings.TrimSpace(in.PollingUnit),
	}
}

func (in PollingUnitInput) complete() bool {
	return in.State != "" && in.LGA != "" && in.RegistrationArea != "" && in.PollingUnit != ""
}

func (s *PollingUnitService) Create(ctx context.Context, input PollingUnitInput) (*model.PollingUnit, error) {
	input = input.trimmed()
	if !input.complete() {
		return nil, invalid("All fields are required")
	}
	row, err := s.store.CreatePollingUnit(ctx, db.CreatePollingUnitParams{
		ID:               ulid.Make().String(),
		State:            input.State,
		LGA:              input.LGA,
		RegistrationArea: input.RegistrationArea,
		PollingUnit:      input.PollingUnit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create polling unit: %w", err)
	}
	u := dbPollingUnitToModel(row)
	return &u, nil
}

func (s *PollingUnitService) Get(ctx context.Context, id string) (*model.PollingUnit, error) {
	row, err := s.store.GetPollingUnit(ctx, id)
	if err != nil {
		return nil, notFound("polling unit", err)
	}
	u := dbPollingUnitToModel(row)
	return &u, nil
}

// PollingUnitPatch holds the members to change; nil members are kept
type PollingUnitPatch struct {
	State            *string `json:"state"`
	LGA              *string `json:"lga"`
	RegistrationArea *string `json:"registration_area"`
	PollingUnit      *string `json:"polling_unit"`
}

func (s *PollingUnitService) Update(ctx context.Context, id string, patch PollingUnitPatch) (*model.PollingUnit, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := PollingUnitInput{
		State:            current.State,
		LGA:              current.LGA,
		RegistrationArea: current.RegistrationArea,
		PollingUnit:      current.PollingUnit,
	}
	for _, m := range []struct{ src, dst *string }{
		{patch.State, &next.State},
		{patch.LGA, &next.LGA},
		{patch.RegistrationArea, &next.RegistrationArea},
		{patch.PollingUnit, &next.PollingUnit},
	} {
		if m.src != nil {
			*m.dst = *m.src
		}
	}
	next = next.trimmed()
	if !next.complete() {
		return nil, invalid("All fields are required")
	}

	row, err := s.store.UpdatePollingUnit(ctx, db.UpdatePollingUnitParams{
		ID:               id,
		State:            next.State,
		LGA:              next.LGA,
		RegistrationArea: next.RegistrationArea,
		PollingUnit:      next.PollingUnit,
	})
	if err != nil {
		return nil, notFound("polling unit", err)
	}
	u := dbPollingUnitToModel(row)
	return &u, nil
}

func (s *PollingUnitService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeletePollingUnit(ctx, id); err != nil {
		return notFound("polling unit", err)
	}
	return nil
}

// UnitsInWard returns the unit rows of one registration area
func (s *PollingUnitService) UnitsInWard(ctx context.Context, ward string) ([]model.PollingUnit, error) {
	rows, err := s.store.ListUnitsInWard(ctx, ward)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	units := make([]model.PollingUnit, 0, len(rows))
	for _, row := range rows {
		units = append(units, dbPollingUnitToModel(row))
	}
	return units, nil
}

func (s *PollingUnitService) States(ctx context.Context) ([]string, error) {
	return s.store.DistinctStates(ctx)
}

func (s *PollingUnitService) LGAs(ctx context.Context, state string) ([]string, error) {
	return s.store.DistinctLGAs(ctx, state)
}

// Wards lists the registration areas of an LGA. An empty state matches the
// LGA in every state.
func (s *PollingUnitService) Wards(ctx context.Context, state, lga string) ([]string, error) {
	return s.store.DistinctWards(ctx, state, lga)
}

func (s *PollingUnitService) Units(ctx context.Context, state, lga, ward string) ([]string, error) {
	return s.store.DistinctUnits(ctx, state, lga, ward)
}

// Cascade rebuilds the picker for a partial selection
func (s *PollingUnitService) Cascade(ctx context.Context, sel model.Location) (location.View, error) {
	p, err := location.Restore(ctx, s, sel)
	if err != nil {
		return location.View{}, fmt.Errorf("failed to load locations: %w", err)
	}
	return p.View(), nil
}

// Seed inserts every complete row of units and returns how many were stored
func (s *PollingUnitService) Seed(ctx context.Context, units []PollingUnitInput) (int, error) {
	n := 0
	for _, in := range units {
		if _, err := s.Create(ctx, in); err != nil {
			if isInvalid(err) {
				continue
			}
			return n, err
		}
		n++
	}
	return n, nil
}
