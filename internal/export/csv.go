package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"situationroom/internal/model"
)

// ExcludedFieldName marks a hidden marker field that never appears in exports
const ExcludedFieldName = "PollingForm"

// Columns returns the exported fields in definition order
func Columns(def model.Form) []model.Field {
	fields := make([]model.Field, 0, len(def.Fields))
	for _, f := range def.Fields {
		if f.Name == ExcludedFieldName {
			continue
		}
		fields = append(fields, f)
	}
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Order < fields[j].Order })
	return fields
}

// Cell renders one value as a CSV cell
func Cell(v model.Value) string {
	switch v.Kind() {
	case model.ValueMulti:
		return strings.Join(v.Items(), ";")
	case model.ValueLocation:
		return v.Location().String()
	default:
		return v.ScalarText()
	}
}

// WriteCSV writes a header of field names and one row per submission.
// Lines end in CRLF.
func WriteCSV(w io.Writer, def model.Form, subs []model.Submission) error {
	cols := Columns(def)
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	header := make([]string, len(cols))
	for i, f := range cols {
		header[i] = f.Name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(cols))
	for _, s := range subs {
		for i, f := range cols {
			row[i] = ""
			if v, ok := s.ValueOf(f.ID); ok {
				row[i] = Cell(v)
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %s: %w", s.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// FileName is the download name for a form's export
func FileName(def model.Form) string {
	name := strings.Join(strings.Fields(def.Name), "_")
	if name == "" {
		name = "form"
	}
	return name + "_entries.csv"
}
