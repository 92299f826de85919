package api

import (
	"bytes"
	"errors"
	"net/http"

	"situationroom/internal/fieldkind"
	"situationroom/internal/model"
	"situationroom/internal/render"
	"situationroom/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// page renders into a buffer first so template failures still produce a
// clean 500.
func (d Dependencies) page(w http.ResponseWriter, status int, fill func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := fill(&buf); err != nil {
		d.Log.Error("Failed to render page", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (d Dependencies) pageForm(w http.ResponseWriter, r *http.Request) (*model.Form, bool) {
	form, err := d.Forms.Resolve(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, service.ErrNotFound) {
		http.Error(w, formNotFound, http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		d.Log.Error("Failed to load form", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}
	return form, true
}

func (d Dependencies) formPage(w http.ResponseWriter, r *http.Request) {
	form, ok := d.pageForm(w, r)
	if !ok {
		return
	}
	if form.Status != model.FormStatusActive {
		d.page(w, http.StatusOK, func(b *bytes.Buffer) error { return d.Pages.Unavailable(b, *form) })
		return
	}
	d.page(w, http.StatusOK, func(b *bytes.Buffer) error { return d.Pages.Form(b, *form, nil) })
}

func (d Dependencies) previewPage(w http.ResponseWriter, r *http.Request) {
	form, ok := d.pageForm(w, r)
	if !ok {
		return
	}
	d.page(w, http.StatusOK, func(b *bytes.Buffer) error { return d.Pages.Preview(b, *form) })
}

// fileFields lists the ids of a form's upload fields, which are also the
// multipart keys their files arrive under.
func fileFields(form *model.Form) []string {
	var ids []string
	for _, f := range form.Fields {
		if fieldkind.Type(f.Type) == fieldkind.FileUpload {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

func (d Dependencies) submitFormPage(w http.ResponseWriter, r *http.Request) {
	form, ok := d.pageForm(w, r)
	if !ok {
		return
	}
	if form.Status != model.FormStatusActive {
		d.page(w, http.StatusForbidden, func(b *bytes.Buffer) error { return d.Pages.Unavailable(b, *form) })
		return
	}

	var err error
	if isMultipart(r) {
		err = r.ParseMultipartForm(maxUploadMemory)
		if err == nil {
			defer r.MultipartForm.RemoveAll()
		}
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	values, err := render.Collect(*form, render.NewRequestInput(r))
	var required *render.RequiredError
	if errors.As(err, &required) {
		d.page(w, http.StatusUnprocessableEntity, func(b *bytes.Buffer) error {
			return d.Pages.Form(b, *form, required.Labels)
		})
		return
	}
	if err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	files, closeFiles, err := uploads(r.MultipartForm, fileFields(form)...)
	if err != nil {
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}
	defer closeFiles()

	_, err = d.Submissions.Create(r.Context(), form.Slug, service.CreateSubmissionInput{
		Values: values,
		Files:  files,
		IP:     ClientIP(r),
	})
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		http.Error(w, ve.Message, http.StatusBadRequest)
		return
	}
	if err != nil {
		d.Log.Error("Failed to store submission", zap.String("form", form.Slug), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	d.page(w, http.StatusOK, func(b *bytes.Buffer) error { return d.Pages.Thanks(b, *form) })
}
