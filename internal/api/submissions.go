package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"situationroom/internal/auth"
	"situationroom/internal/export"
	"situationroom/internal/model"
	"situationroom/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxUploadMemory = 32 << 20

// submittedValue is one element of field_values. File answers carry the
// uploaded file's name instead of a value.
type submittedValue struct {
	FieldID    string       `json:"field_id"`
	FieldValue *model.Value `json:"field_value"`
	FileName   string       `json:"fileName"`
}

type createSubmissionRequest struct {
	Name   string           `json:"submission_name"`
	Values []submittedValue `json:"field_values"`
}

func (req createSubmissionRequest) values() []model.FieldValue {
	out := make([]model.FieldValue, 0, len(req.Values))
	for _, v := range req.Values {
		fv := model.FieldValue{FieldID: v.FieldID}
		switch {
		case v.FileName != "":
			fv.Value = model.Scalar(v.FileName)
		case v.FieldValue != nil:
			fv.Value = *v.FieldValue
		default:
			fv.Value = model.Scalar("")
		}
		out = append(out, fv)
	}
	return out
}

func viewer(r *http.Request) service.Viewer {
	u, _ := auth.FromContext(r.Context())
	return service.Viewer{ID: u.ID, Role: u.Role}
}

// uploads opens every file posted under keys. The returned closer releases
// them all.
func uploads(mf *multipart.Form, keys ...string) ([]service.Upload, func(), error) {
	var files []service.Upload
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	if mf == nil {
		return nil, closeAll, nil
	}

	for _, key := range keys {
		for _, fh := range mf.File[key] {
			f, err := fh.Open()
			if err != nil {
				closeAll()
				return nil, func() {}, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
			}
			opened = append(opened, f)
			files = append(files, service.Upload{
				FieldID:     key,
				FileName:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Body:        f,
			})
		}
	}
	return files, closeAll, nil
}

func (d Dependencies) listSubmissions(w http.ResponseWriter, r *http.Request) {
	mine := r.URL.Query().Get("mine") == "1"
	subs, err := d.Submissions.List(r.Context(), chi.URLParam(r, "ref"), viewer(r), mine)
	if err != nil {
		d.serviceError(w, err, formNotFound)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (d Dependencies) createSubmission(w http.ResponseWriter, r *http.Request) {
	var req createSubmissionRequest
	var files []service.Upload

	switch {
	case isMultipart(r):
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			WriteError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid multipart body", d.Log)
			return
		}
		defer r.MultipartForm.RemoveAll()

		req.Name = r.FormValue("submission_name")
		if raw := r.FormValue("field_values"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Values); err != nil {
				WriteError(w, http.StatusBadRequest, CodeInvalidInput, "field_values must be a JSON array", d.Log)
				return
			}
		}

		var closeFiles func()
		var err error
		files, closeFiles, err = uploads(r.MultipartForm, "file", "files")
		if err != nil {
			WriteError(w, http.StatusBadRequest, CodeInvalidInput, err.Error(), d.Log)
			return
		}
		defer closeFiles()
	default:
		if !d.decodeJSON(w, r, &req) {
			return
		}
	}

	sub, err := d.Submissions.Create(r.Context(), chi.URLParam(r, "ref"), service.CreateSubmissionInput{
		Name:      req.Name,
		Values:    req.values(),
		Files:     files,
		IP:        ClientIP(r),
		CreatedBy: auth.GetUserID(r.Context()),
	})
	if err != nil {
		d.serviceError(w, err, formNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "Form Submitted", Data: sub})
}

// exportSubmissions buffers the CSV so a missing form can still answer 404
func (d Dependencies) exportSubmissions(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	form, err := d.Submissions.Export(r.Context(), chi.URLParam(r, "ref"), &buf)
	if err != nil {
		d.serviceError(w, err, formNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.FileName(*form)}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, &buf); err != nil {
		d.Log.Warn("Failed to write export", zap.String("form", form.Slug), zap.Error(err))
	}
}

func (d Dependencies) getSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := d.Submissions.Get(r.Context(), chi.URLParam(r, "id"), viewer(r))
	if err != nil {
		d.serviceError(w, err, "Submission not found")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (d Dependencies) deleteSubmission(w http.ResponseWriter, r *http.Request) {
	if err := d.Submissions.Delete(r.Context(), chi.URLParam(r, "id"), viewer(r)); err != nil {
		d.serviceError(w, err, "Submission not found")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Submission deleted successfully"})
}
