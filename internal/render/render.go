package render

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"situationroom/internal/fieldkind"
	"situationroom/internal/model"
)

// RequiredError lists the labels of required fields left empty
type RequiredError struct {
	Labels []string
}

func (e *RequiredError) Error() string {
	return fmt.Sprintf("required fields missing: %s", strings.Join(e.Labels, ", "))
}

func sorted(fields []model.Field) []model.Field {
	out := make([]model.Field, len(fields))
	copy(out, fields)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Controls returns the public runtime control of every field in order
func Controls(def model.Form) []fieldkind.Control {
	fields := sorted(def.Fields)
	out := make([]fieldkind.Control, 0, len(fields))
	for _, f := range fields {
		out = append(out, fieldkind.For(f).Runtime(f))
	}
	return out
}

// PreviewControls returns the builder preview of fields in order
func PreviewControls(fields []model.Field) []fieldkind.Control {
	fields = sorted(fields)
	out := make([]fieldkind.Control, 0, len(fields))
	for _, f := range fields {
		out = append(out, fieldkind.For(f).Preview(f))
	}
	return out
}

// Collect reads one value per field from in, in field order. Required fields
// left empty produce a *RequiredError and no values.
func Collect(def model.Form, in fieldkind.Input) ([]model.FieldValue, error) {
	fields := sorted(def.Fields)
	values := make([]model.FieldValue, 0, len(fields))
	var missing []string
	for _, f := range fields {
		v := fieldkind.For(f).Collect(f, in)
		if f.Required && v.IsEmpty() {
			missing = append(missing, f.Name)
			continue
		}
		values = append(values, model.FieldValue{FieldID: f.ID, Value: v})
	}
	if len(missing) > 0 {
		return nil, &RequiredError{Labels: missing}
	}
	return values, nil
}

// Submission orders values by the definition's field order and picks the
// display name, the text of the first value. Values for ids the definition
// does not know are kept after the known ones.
func Submission(def model.Form, values []model.FieldValue) ([]model.FieldValue, string) {
	byID := make(map[string]model.FieldValue, len(values))
	for _, v := range values {
		byID[v.FieldID] = v
	}

	out := make([]model.FieldValue, 0, len(values))
	used := make(map[string]bool, len(values))
	for _, f := range sorted(def.Fields) {
		if v, ok := byID[f.ID]; ok && !used[f.ID] {
			out = append(out, v)
			used[f.ID] = true
		}
	}
	for _, v := range values {
		if !used[v.FieldID] {
			out = append(out, v)
			used[v.FieldID] = true
		}
	}

	name := ""
	if len(out) > 0 {
		name = out[0].Value.Text()
	}
	return out, name
}

// RequestInput adapts a parsed form or multipart request to fieldkind.Input
type RequestInput struct {
	r *http.Request
}

// NewRequestInput wraps r. The caller must have parsed the form already.
func NewRequestInput(r *http.Request) RequestInput {
	return RequestInput{r: r}
}

func (in RequestInput) Get(key string) []string {
	if in.r.PostForm != nil {
		if v, ok := in.r.PostForm[key]; ok {
			return v
		}
	}
	if in.r.MultipartForm != nil {
		return in.r.MultipartForm.Value[key]
	}
	return nil
}

func (in RequestInput) FileName(key string) string {
	if in.r.MultipartForm == nil {
		return ""
	}
	files := in.r.MultipartForm.File[key]
	if len(files) == 0 {
		return ""
	}
	return files[0].Filename
}
