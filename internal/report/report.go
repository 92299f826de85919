package report

import (
	"sort"
	"strings"

	"situationroom/internal/fieldkind"
	"situationroom/internal/model"
)

// Options tune the tally
type Options struct {
	// LegacyCommaSplit splits scalar answers on commas, matching rows written
	// before list answers were stored as arrays.
	LegacyCommaSplit bool `json:"split"`
}

// Bucket is the count of one distinct answer
type Bucket struct {
	Value   string  `json:"value"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// FieldReport is the distribution of answers to one field
type FieldReport struct {
	FieldID string         `json:"field_id"`
	Label   string         `json:"field_name"`
	Type    fieldkind.Type `json:"field_type"`
	Total   int            `json:"total"`
	Buckets []Bucket       `json:"buckets"`
}

// Report aggregates every candidate field of a form
type Report struct {
	FormID      string        `json:"form_id"`
	Slug        string        `json:"slug"`
	Name        string        `json:"form_name"`
	Submissions int           `json:"submissions"`
	Fields      []FieldReport `json:"fields"`
}

var candidates = map[fieldkind.Type]bool{
	fieldkind.Select:   true,
	fieldkind.Radio:    true,
	fieldkind.Checkbox: true,
	fieldkind.Text:     true,
}

// IsCandidate reports whether answers to t are tallied
func IsCandidate(t fieldkind.Type) bool {
	return candidates[t]
}

// Aggregate tallies submissions per candidate field. Percentages are taken
// over the tallied values of a field, not over submissions, so a multi-valued
// answer contributes once per value.
func Aggregate(def model.Form, subs []model.Submission, opts Options) Report {
	fields := make([]model.Field, len(def.Fields))
	copy(fields, def.Fields)
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Order < fields[j].Order })

	rep := Report{
		FormID:      def.FormID,
		Slug:        def.Slug,
		Name:        def.Name,
		Submissions: len(subs),
		Fields:      []FieldReport{},
	}

	for _, f := range fields {
		if !IsCandidate(fieldkind.Type(f.Type)) {
			continue
		}
		rep.Fields = append(rep.Fields, tally(f, subs, opts))
	}
	return rep
}

func tally(f model.Field, subs []model.Submission, opts Options) FieldReport {
	counts := map[string]int{}
	var seen []string
	total := 0

	for _, s := range subs {
		v, ok := s.ValueOf(f.ID)
		if !ok {
			continue
		}
		for _, item := range values(v, opts) {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if _, ok := counts[item]; !ok {
				seen = append(seen, item)
			}
			counts[item]++
			total++
		}
	}

	fr := FieldReport{
		FieldID: f.ID,
		Label:   f.Name,
		Type:    fieldkind.Type(f.Type),
		Total:   total,
		Buckets: make([]Bucket, 0, len(seen)),
	}
	for _, item := range seen {
		b := Bucket{Value: item, Count: counts[item]}
		if total > 0 {
			b.Percent = float64(b.Count) / float64(total) * 100
		}
		fr.Buckets = append(fr.Buckets, b)
	}
	return fr
}

func values(v model.Value, opts Options) []string {
	switch v.Kind() {
	case model.ValueMulti:
		return v.Items()
	case model.ValueLocation:
		return []string{v.Text()}
	default:
		if opts.LegacyCommaSplit {
			return strings.Split(v.ScalarText(), ",")
		}
		return []string{v.ScalarText()}
	}
}
