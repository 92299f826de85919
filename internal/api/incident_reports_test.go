package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"situationroom/internal/model"
	"situationroom/internal/service"
	"situationroom/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func incidentValues() url.Values {
	return url.Values{
		"name":        {"Ada Obi"},
		"gender":      {"Female"},
		"email":       {"ada@example.com"},
		"phone":       {"08030000000"},
		"description": {"Voters turned away"},
		"state":       {"Lagos"},
		"lga":         {"Ikeja"},
		"ward":        {"Alausa"},
		"pollingunit": {"PU 001"},
	}
}

// postIncident sends values as multipart with the given files attached
func (s *testServer) postIncident(t *testing.T, values url.Values, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range values {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	for name, body := range files {
		fw, err := mw.CreateFormFile("uploads", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/incident-reports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Forwarded-For", "10.1.2.3")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestIncidentReports_Create(t *testing.T) {
	files, err := storage.NewLocalStorage(t.TempDir(), "http://files.test")
	require.NoError(t, err)
	s := newTestServer(t, files)

	rec := s.postIncident(t, incidentValues(), map[string]string{"scene.jpg": "jpeg"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Message string               `json:"message"`
		Data    model.IncidentReport `json:"data"`
	}
	decode(t, rec, &created)
	assert.Equal(t, "Report created successfully", created.Message)
	assert.Equal(t, "PU 001", created.Data.PollingUnit)
	assert.Equal(t, "10.1.2.3", created.Data.IP)
	require.Len(t, created.Data.Uploads, 1)
	link := created.Data.Uploads[0]
	assert.True(t, strings.HasPrefix(link, "http://files.test/files/incident-reports/"), link)

	u, err := url.Parse(link)
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, u.Path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpeg", rec.Body.String())
}

func TestIncidentReports_CreateWithoutStorage(t *testing.T) {
	s := newTestServer(t, nil)

	values := incidentValues()
	values.Del("pollingunit")
	values.Set("pollingUnit", "PU 009")
	rec := s.postIncident(t, values, map[string]string{"scene.jpg": "jpeg"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data model.IncidentReport `json:"data"`
	}
	decode(t, rec, &created)
	assert.Equal(t, "PU 009", created.Data.PollingUnit)
	assert.Empty(t, created.Data.Uploads)
}

func TestIncidentReports_CreateRejects(t *testing.T) {
	s := newTestServer(t, nil)

	values := incidentValues()
	values.Del("ward")
	rec := s.postIncident(t, values, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	decode(t, rec, &body)
	assert.Equal(t, "All fields are required", body.Message)

	req := httptest.NewRequest(http.MethodPost, "/api/incident-reports", strings.NewReader(incidentValues().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/incident-reports", "", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestIncidentReports_ListAndManage(t *testing.T) {
	s := newTestServer(t, nil)
	for _, ward := range []string{"Alausa", "Opebi", "Alausa"} {
		values := incidentValues()
		values.Set("ward", ward)
		require.Equal(t, http.StatusCreated, s.postIncident(t, values, nil).Code)
	}

	rec := s.do(t, http.MethodGet, "/api/incident-reports", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/incident-reports", model.RoleObservers, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/incident-reports?state=Lagos&ward=Alausa&limit=1", model.RoleStaff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page service.IncidentReportPage
	decode(t, rec, &page)
	assert.Equal(t, service.Pagination{Page: 1, Limit: 1, Total: 2, Pages: 2}, page.Pagination)
	require.Len(t, page.Data, 1)
	id := page.Data[0].ID

	rec = s.do(t, http.MethodGet, "/api/incident-reports?q=opebi", model.RoleStaff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &page)
	assert.Equal(t, 0, page.Pagination.Total, "ward is not searched")

	rec = s.do(t, http.MethodPatch, "/api/incident-reports/"+id, model.RoleStaff, map[string]string{"ward": "Opebi"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got struct {
		Data model.IncidentReport `json:"data"`
	}
	decode(t, rec, &got)
	assert.Equal(t, "Opebi", got.Data.Ward)

	rec = s.do(t, http.MethodPatch, "/api/incident-reports/"+id, model.RoleStaff, map[string]string{"gender": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/incident-reports/"+id, model.RoleStaff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/incident-reports/"+id, model.RoleStaff, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body ErrorResponse
	decode(t, rec, &body)
	assert.Equal(t, "Not found", body.Message)
}
