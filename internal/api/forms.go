package api

import (
	"encoding/json"
	"net/http"

	"situationroom/internal/auth"
	"situationroom/internal/builder"
	"situationroom/internal/fieldkind"
	"situationroom/internal/model"
	"situationroom/internal/render"
	"situationroom/internal/report"
	"situationroom/internal/service"

	"github.com/go-chi/chi/v5"
)

const formNotFound = "Form not found"

type messageResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (d Dependencies) listForms(w http.ResponseWriter, r *http.Request) {
	forms, err := d.Forms.List(r.Context())
	if err != nil {
		d.serviceError(w, err, formNotFound)
		return
	}
	writeJSON(w, http.StatusOK, forms)
}

func (d Dependencies) listPollingForms(w http.ResponseWriter, r *http.Request) {
	forms, err := d.Forms.ListPolling(r.Context())
	if err != nil {
		d.serviceError(w, err, formNotFound)
		return
	}
	writeJSON(w, http.StatusOK, forms)
}

func (d Dependencies) createForm(w http.ResponseWriter, r *http.Request) {
	if !isJSON(r) {
		WriteError(w, http.StatusUnsupportedMediaType, CodeUnsupportedMedia, "Content-Type must be application/json", d.Log)
		return
	}

	var input service.CreateFormInput
	if !d.decodeJSON(w, r, &input) {
		return
	}
	input.OwnerID = auth.GetUserID(r.Context())

	form, err := d.Forms.Create(r.Context(), input)
	if err != nil {
		d.serviceError(w, err, formNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "Form Created", Data: form})
}

func (d Dependencies) getForm(w http.ResponseWriter, r *http.Request) {
	form, err := d.Forms.Resolve(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		d.serviceError(w, err, formNotFound)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (d Dependencies) updateForm(w http.ResponseWriter, r *http.Request) {
	var patch map[string]json.RawMessage
	if !d.decodeJSON(w, r, &patch) {
		return
	}

	u, _ := auth.FromContext(r.Context())
	form, err := d.Forms.Update(r.Context(), chi.URLParam(r, "ref"), patch, u.Role)
	if err != nil {
		d.serviceError(w, err, formNotFound)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Form Updated", Data: form})
}

func (d Dependencies) deleteForm(w http.ResponseWriter, r *http.Request) {
	if _, err := d.Forms.Delete(r.Context(), chi.URLParam(r, "ref")); err != nil {
		d.serviceError(w, err, formNotFound)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Form deleted successfully"})
}

func (d Dependencies) formReport(w http.ResponseWriter, r *http.Request) {
	opts := report.Options{LegacyCommaSplit: r.URL.Query().Get("split") == "1"}
	rep, err := d.Reports.Get(r.Context(), chi.URLParam(r, "ref"), opts)
	if err != nil {
		d.serviceError(w, err, formNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (d Dependencies) fieldKinds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"groups": fieldkind.Search(r.URL.Query().Get("q")),
	})
}

type applyBuilderRequest struct {
	Fields []model.Field `json:"fields"`
	Ops    []builder.Op  `json:"ops"`
}

type applyBuilderResponse struct {
	Fields   []model.Field       `json:"fields"`
	Selected string              `json:"selected"`
	Preview  []fieldkind.Control `json:"preview"`
}

// applyBuilder replays editing ops over a field list. Nothing is stored; the
// client saves the result with PATCH /api/forms/{ref}.
func (d Dependencies) applyBuilder(w http.ResponseWriter, r *http.Request) {
	var req applyBuilderRequest
	if !d.decodeJSON(w, r, &req) {
		return
	}

	b := builder.New(req.Fields)
	if err := b.Apply(req.Ops); err != nil {
		WriteError(w, http.StatusBadRequest, CodeInvalidInput, err.Error(), d.Log)
		return
	}

	fields := b.Fields()
	writeJSON(w, http.StatusOK, applyBuilderResponse{
		Fields:   fields,
		Selected: b.Selected(),
		Preview:  render.PreviewControls(fields),
	})
}
