package render

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"situationroom/internal/fieldkind"
	"situationroom/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapInput map[string][]string

func (m mapInput) Get(key string) []string    { return m[key] }
func (m mapInput) FileName(key string) string { return "" }

func testForm() model.Form {
	return model.Form{
		Name: "Incident report",
		Slug: "incident-report-12345",
		Fields: []model.Field{
			{ID: "pick", Name: "Pick", Type: string(fieldkind.Select), Order: 1,
				Attributes: []model.Choice{{Value: "x"}, {Value: "y"}}},
			{ID: "name", Name: "Name", Type: string(fieldkind.Text), Order: 0, Required: true},
		},
	}
}

func TestControls_Ordered(t *testing.T) {
	controls := Controls(testForm())
	require.Len(t, controls, 2)
	assert.Equal(t, "Name", controls[0].Label)
	assert.Equal(t, "Pick", controls[1].Label)
	assert.False(t, controls[0].Disabled)

	preview := PreviewControls(testForm().Fields)
	assert.True(t, preview[0].Disabled)
}

func TestCollect_SelectScalarVersusMulti(t *testing.T) {
	def := testForm()
	in := mapInput{"name": {"Ada"}, "pick": {"x"}}

	values, err := Collect(def, in)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "name", values[0].FieldID)
	assert.Equal(t, model.ValueScalar, values[1].Value.Kind())
	assert.Equal(t, "x", values[1].Value.Text())

	def.Fields[0].Multiple = true
	values, err = Collect(def, in)
	require.NoError(t, err)
	assert.Equal(t, model.ValueMulti, values[1].Value.Kind())
	assert.Equal(t, []string{"x"}, values[1].Value.Items())
}

func TestCollect_RequiredRejects(t *testing.T) {
	values, err := Collect(testForm(), mapInput{"pick": {"y"}})
	assert.Nil(t, values)

	var reqErr *RequiredError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, []string{"Name"}, reqErr.Labels)
}

func TestSubmission_OrdersAndNames(t *testing.T) {
	ordered, name := Submission(testForm(), []model.FieldValue{
		{FieldID: "extra", Value: model.Scalar("kept")},
		{FieldID: "pick", Value: model.Scalar("y")},
		{FieldID: "name", Value: model.Scalar("Ada")},
	})
	require.Len(t, ordered, 3)
	assert.Equal(t, []string{"name", "pick", "extra"}, []string{ordered[0].FieldID, ordered[1].FieldID, ordered[2].FieldID})
	assert.Equal(t, "Ada", name)

	_, name = Submission(testForm(), nil)
	assert.Empty(t, name)
}

func TestRequestInput_Multipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("name", "Ada"))
	require.NoError(t, mw.WriteField("pick", "x"))
	require.NoError(t, mw.WriteField("pick", "y"))
	fw, err := mw.CreateFormFile("doc", "photo.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png"))
	require.NoError(t, mw.Close())

	r := httptest.NewRequest("POST", "/forms/x", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, r.ParseMultipartForm(1<<20))

	in := NewRequestInput(r)
	assert.Equal(t, []string{"Ada"}, in.Get("name"))
	assert.Equal(t, []string{"x", "y"}, in.Get("pick"))
	assert.Equal(t, "photo.png", in.FileName("doc"))
	assert.Empty(t, in.FileName("missing"))
}

func TestRequestInput_URLEncoded(t *testing.T) {
	form := url.Values{"name": {"Ada"}}
	r := httptest.NewRequest("POST", "/forms/x", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, r.ParseForm())

	in := NewRequestInput(r)
	assert.Equal(t, []string{"Ada"}, in.Get("name"))
	assert.Empty(t, in.FileName("doc"))
}

func TestPages(t *testing.T) {
	pages, err := NewPages()
	require.NoError(t, err)

	def := testForm()
	def.Fields = append(def.Fields, model.Field{ID: "loc", Name: "Where", Type: string(fieldkind.PollingUnit), Order: 2})

	var buf bytes.Buffer
	require.NoError(t, pages.Form(&buf, def, []string{"Name"}))
	html := buf.String()
	assert.Contains(t, html, "Incident report")
	assert.Contains(t, html, `action="/forms/incident-report-12345"`)
	assert.Contains(t, html, `name="loc.state"`)
	assert.Contains(t, html, "Please complete the required fields")
	assert.Contains(t, html, `<option value="x"`)

	buf.Reset()
	require.NoError(t, pages.Preview(&buf, def))
	assert.Contains(t, buf.String(), "Preview")
	assert.Contains(t, buf.String(), "disabled")

	buf.Reset()
	require.NoError(t, pages.Thanks(&buf, def))
	assert.Contains(t, buf.String(), "Thank you")
}

func TestPages_NativeRequired(t *testing.T) {
	pages, err := NewPages()
	require.NoError(t, err)

	def := model.Form{
		Name: "Turnout",
		Slug: "turnout-12345",
		Fields: []model.Field{
			{ID: "mood", Name: "Mood", Type: string(fieldkind.Radio), Order: 0, Required: true,
				Attributes: []model.Choice{{Value: "calm"}, {Value: "tense"}}},
			{ID: "where", Name: "Where", Type: string(fieldkind.PollingUnit), Order: 1, Required: true},
			{ID: "why", Name: "Why", Type: string(fieldkind.Radio), Order: 2,
				Attributes: []model.Choice{{Value: "a"}}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, pages.Form(&buf, def, nil))
	html := buf.String()

	for _, v := range []string{"calm", "tense"} {
		assert.Regexp(t, `<input type="radio" name="mood" value="`+v+`"[^>]*\brequired\b`, html)
	}
	for _, level := range []string{"state", "lga", "ward", "polling_unit"} {
		assert.Regexp(t, `<select name="where\.`+level+`"[^>]*\brequired\b`, html)
	}
	assert.NotRegexp(t, `<input type="radio" name="why"[^>]*\brequired\b`, html)
}
