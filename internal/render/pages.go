package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"situationroom/internal/fieldkind"
	"situationroom/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData is what every page template receives
type PageData struct {
	Form     model.Form
	Controls []fieldkind.Control
	Errors   []string
}

// Pages renders the server-side HTML views of a form
type Pages struct {
	form        *template.Template
	preview     *template.Template
	thanks      *template.Template
	unavailable *template.Template
}

// NewPages parses the embedded templates
func NewPages() (*Pages, error) {
	parse := func(page string) (*template.Template, error) {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/fields.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", page, err)
		}
		return t, nil
	}

	p := &Pages{}
	var err error
	if p.form, err = parse("form.html"); err != nil {
		return nil, err
	}
	if p.preview, err = parse("preview.html"); err != nil {
		return nil, err
	}
	if p.thanks, err = parse("thanks.html"); err != nil {
		return nil, err
	}
	if p.unavailable, err = parse("unavailable.html"); err != nil {
		return nil, err
	}
	return p, nil
}

// Form renders the public form, with the labels of missing required fields
// when a previous post was rejected.
func (p *Pages) Form(w io.Writer, def model.Form, missing []string) error {
	return p.form.ExecuteTemplate(w, "layout", PageData{Form: def, Controls: Controls(def), Errors: missing})
}

// Preview renders the disabled builder preview
func (p *Pages) Preview(w io.Writer, def model.Form) error {
	return p.preview.ExecuteTemplate(w, "layout", PageData{Form: def, Controls: PreviewControls(def.Fields)})
}

func (p *Pages) Thanks(w io.Writer, def model.Form) error {
	return p.thanks.ExecuteTemplate(w, "layout", PageData{Form: def})
}

func (p *Pages) Unavailable(w io.Writer, def model.Form) error {
	return p.unavailable.ExecuteTemplate(w, "layout", PageData{Form: def})
}
