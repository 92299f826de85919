package location

import (
	"context"
	"sort"

	"situationroom/internal/model"
)

// StaticSource serves the cascade from an in-memory list of units
type StaticSource struct {
	units []model.PollingUnit
}

func NewStaticSource(units []model.PollingUnit) *StaticSource {
	return &StaticSource{units: units}
}

func (s *StaticSource) distinct(match func(model.PollingUnit) bool, pick func(model.PollingUnit) string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, u := range s.units {
		if !match(u) {
			continue
		}
		v := pick(u)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (s *StaticSource) States(ctx context.Context) ([]string, error) {
	return s.distinct(func(model.PollingUnit) bool { return true },
		func(u model.PollingUnit) string { return u.State }), nil
}

func (s *StaticSource) LGAs(ctx context.Context, state string) ([]string, error) {
	return s.distinct(func(u model.PollingUnit) bool { return u.State == state },
		func(u model.PollingUnit) string { return u.LGA }), nil
}

func (s *StaticSource) Wards(ctx context.Context, state, lga string) ([]string, error) {
	return s.distinct(func(u model.PollingUnit) bool { return u.State == state && u.LGA == lga },
		func(u model.PollingUnit) string { return u.RegistrationArea }), nil
}

func (s *StaticSource) Units(ctx context.Context, state, lga, ward string) ([]string, error) {
	return s.distinct(func(u model.PollingUnit) bool {
		return u.State == state && u.LGA == lga && u.RegistrationArea == ward
	}, func(u model.PollingUnit) string { return u.PollingUnit }), nil
}
