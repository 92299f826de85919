package api

import (
	"mime"
	"net/http"

	"situationroom/internal/service"

	"github.com/go-chi/chi/v5"
)

const incidentReportNotFound = "Not found"

// createIncidentReport takes the public report form, multipart when files
// are attached or urlencoded otherwise.
func (d Dependencies) createIncidentReport(w http.ResponseWriter, r *http.Request) {
	var files []service.Upload

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case isMultipart(r):
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			WriteError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid multipart body", d.Log)
			return
		}
		defer r.MultipartForm.RemoveAll()

		var closeFiles func()
		var err error
		files, closeFiles, err = uploads(r.MultipartForm, "uploads", "upload")
		if err != nil {
			WriteError(w, http.StatusBadRequest, CodeInvalidInput, err.Error(), d.Log)
			return
		}
		defer closeFiles()
	case mediaType == "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			WriteError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid form body", d.Log)
			return
		}
	default:
		WriteError(w, http.StatusUnsupportedMediaType, CodeUnsupportedMedia, "Content-Type must be multipart/form-data", d.Log)
		return
	}

	pollingUnit := r.PostFormValue("pollingunit")
	if pollingUnit == "" {
		pollingUnit = r.PostFormValue("pollingUnit")
	}
	report, err := d.IncidentReports.Create(r.Context(), service.IncidentReportInput{
		Name:        r.PostFormValue("name"),
		Gender:      r.PostFormValue("gender"),
		Email:       r.PostFormValue("email"),
		Phone:       r.PostFormValue("phone"),
		Description: r.PostFormValue("description"),
		State:       r.PostFormValue("state"),
		LGA:         r.PostFormValue("lga"),
		Ward:        r.PostFormValue("ward"),
		PollingUnit: pollingUnit,
		IP:          ClientIP(r),
	}, files)
	if err != nil {
		d.serviceError(w, err, incidentReportNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "Report created successfully", Data: report})
}

func (d Dependencies) listIncidentReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := d.IncidentReports.List(r.Context(), service.IncidentReportQuery{
		State: q.Get("state"),
		LGA:   q.Get("lga"),
		Ward:  q.Get("ward"),
		Q:     q.Get("q"),
		Page:  q.Get("page"),
		Limit: q.Get("limit"),
	})
	if err != nil {
		d.serviceError(w, err, incidentReportNotFound)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (d Dependencies) getIncidentReport(w http.ResponseWriter, r *http.Request) {
	report, err := d.IncidentReports.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		d.serviceError(w, err, incidentReportNotFound)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: report})
}

func (d Dependencies) updateIncidentReport(w http.ResponseWriter, r *http.Request) {
	var patch service.IncidentReportPatch
	if !d.decodeJSON(w, r, &patch) {
		return
	}

	report, err := d.IncidentReports.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		d.serviceError(w, err, incidentReportNotFound)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: report})
}

func (d Dependencies) deleteIncidentReport(w http.ResponseWriter, r *http.Request) {
	if err := d.IncidentReports.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		d.serviceError(w, err, incidentReportNotFound)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Deleted"})
}
