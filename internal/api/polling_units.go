package api

import (
	"net/http"

	"situationroom/internal/model"
	"situationroom/internal/service"

	"github.com/go-chi/chi/v5"
)

const pollingUnitNotFound = "Not found"

type dataResponse struct {
	Data interface{} `json:"data"`
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// listPollingUnits answers the distinct lookups used by location pickers, or
// a filtered page of rows when no lookup is asked for.
func (d Dependencies) listPollingUnits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	var (
		data interface{}
		err  error
	)
	switch {
	case q.Get("distinct") == "state":
		var states []string
		states, err = d.PollingUnits.States(ctx)
		data = orEmpty(states)
	case q.Get("by") == "state":
		var lgas []string
		lgas, err = d.PollingUnits.LGAs(ctx, q.Get("value"))
		data = orEmpty(lgas)
	case q.Get("by") == "lga":
		var wards []string
		wards, err = d.PollingUnits.Wards(ctx, "", q.Get("value"))
		data = orEmpty(wards)
	case q.Get("by") == "registration_area", q.Get("by") == "ward":
		data, err = d.PollingUnits.UnitsInWard(ctx, q.Get("value"))
	default:
		page, perr := d.PollingUnits.List(ctx, service.PollingUnitQuery{
			State:            q.Get("state"),
			LGA:              q.Get("lga"),
			RegistrationArea: q.Get("registration_area"),
			Page:             q.Get("page"),
			Limit:            q.Get("limit"),
		})
		if perr != nil {
			d.serviceError(w, perr, pollingUnitNotFound)
			return
		}
		writeJSON(w, http.StatusOK, page)
		return
	}

	if err != nil {
		d.serviceError(w, err, pollingUnitNotFound)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: data})
}

func (d Dependencies) cascadePollingUnits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := d.PollingUnits.Cascade(r.Context(), model.Location{
		State:       q.Get("state"),
		LGA:         q.Get("lga"),
		Ward:        q.Get("ward"),
		PollingUnit: q.Get("polling_unit"),
	})
	if err != nil {
		d.serviceError(w, err, pollingUnitNotFound)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (d Dependencies) createPollingUnit(w http.ResponseWriter, r *http.Request) {
	var input service.PollingUnitInput
	if !d.decodeJSON(w, r, &input) {
		return
	}

	unit, err := d.PollingUnits.Create(r.Context(), input)
	if err != nil {
		d.serviceError(w, err, pollingUnitNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Data: unit})
}

func (d Dependencies) getPollingUnit(w http.ResponseWriter, r *http.Request) {
	unit, err := d.PollingUnits.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		d.serviceError(w, err, pollingUnitNotFound)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: unit})
}

func (d Dependencies) updatePollingUnit(w http.ResponseWriter, r *http.Request) {
	var patch service.PollingUnitPatch
	if !d.decodeJSON(w, r, &patch) {
		return
	}

	unit, err := d.PollingUnits.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		d.serviceError(w, err, pollingUnitNotFound)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: unit})
}

func (d Dependencies) deletePollingUnit(w http.ResponseWriter, r *http.Request) {
	if err := d.PollingUnits.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		d.serviceError(w, err, pollingUnitNotFound)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Polling unit deleted successfully"})
}
