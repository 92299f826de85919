package location

import (
	"context"
	"fmt"

	"situationroom/internal/model"
)

// Source lists the distinct, sorted values of each level of the reference
// dataset.
type Source interface {
	States(ctx context.Context) ([]string, error)
	LGAs(ctx context.Context, state string) ([]string, error)
	Wards(ctx context.Context, state, lga string) ([]string, error)
	Units(ctx context.Context, state, lga, ward string) ([]string, error)
}

// Level is one step of the cascade
type Level int

const (
	State Level = iota
	LGA
	Ward
	Unit
)

var levelNames = [...]string{"state", "lga", "ward", "polling_unit"}

func (l Level) String() string {
	if l < State || l > Unit {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// Options are the choices currently offered at each level
type Options struct {
	States []string `json:"states"`
	LGAs   []string `json:"lgas"`
	Wards  []string `json:"wards"`
	Units  []string `json:"units"`
}

// View is the serializable state of a picker
type View struct {
	Selection model.Location  `json:"selection"`
	Options   Options         `json:"options"`
	Disabled  map[string]bool `json:"disabled"`
}

// Picker walks State → LGA → Ward → Polling Unit. Setting a level clears
// every level below it.
type Picker struct {
	src  Source
	sel  model.Location
	opts Options
}

func NewPicker(src Source) *Picker {
	return &Picker{src: src, opts: emptyOptions()}
}

func emptyOptions() Options {
	return Options{States: []string{}, LGAs: []string{}, Wards: []string{}, Units: []string{}}
}

// Load fetches the state list
func (p *Picker) Load(ctx context.Context) error {
	states, err := p.src.States(ctx)
	if err != nil {
		return fmt.Errorf("failed to load states: %w", err)
	}
	p.opts.States = orEmpty(states)
	return nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// SelectState sets the state, clears LGA, ward and unit, and loads the
// LGAs of the new state. The returned location is the full selection.
func (p *Picker) SelectState(ctx context.Context, state string) (model.Location, error) {
	p.sel = model.Location{State: state}
	p.opts.LGAs, p.opts.Wards, p.opts.Units = []string{}, []string{}, []string{}
	if state != "" {
		lgas, err := p.src.LGAs(ctx, state)
		if err != nil {
			return p.sel, fmt.Errorf("failed to load LGAs: %w", err)
		}
		p.opts.LGAs = orEmpty(lgas)
	}
	return p.sel, nil
}

// SelectLGA sets the LGA, clears ward and unit, and loads wards
func (p *Picker) SelectLGA(ctx context.Context, lga string) (model.Location, error) {
	p.sel.LGA, p.sel.Ward, p.sel.PollingUnit = lga, "", ""
	p.opts.Wards, p.opts.Units = []string{}, []string{}
	if lga != "" {
		wards, err := p.src.Wards(ctx, p.sel.State, lga)
		if err != nil {
			return p.sel, fmt.Errorf("failed to load wards: %w", err)
		}
		p.opts.Wards = orEmpty(wards)
	}
	return p.sel, nil
}

// SelectWard sets the ward, clears the unit, and loads units
func (p *Picker) SelectWard(ctx context.Context, ward string) (model.Location, error) {
	p.sel.Ward, p.sel.PollingUnit = ward, ""
	p.opts.Units = []string{}
	if ward != "" {
		units, err := p.src.Units(ctx, p.sel.State, p.sel.LGA, ward)
		if err != nil {
			return p.sel, fmt.Errorf("failed to load polling units: %w", err)
		}
		p.opts.Units = orEmpty(units)
	}
	return p.sel, nil
}

// SelectUnit sets the polling unit
func (p *Picker) SelectUnit(unit string) model.Location {
	p.sel.PollingUnit = unit
	return p.sel
}

// Disabled reports whether level has no parent value yet
func (p *Picker) Disabled(level Level) bool {
	switch level {
	case LGA:
		return p.sel.State == ""
	case Ward:
		return p.sel.LGA == ""
	case Unit:
		return p.sel.Ward == ""
	default:
		return false
	}
}

func (p *Picker) Selection() model.Location { return p.sel }

func (p *Picker) Options() Options { return p.opts }

func (p *Picker) View() View {
	disabled := make(map[string]bool, len(levelNames))
	for l := State; l <= Unit; l++ {
		disabled[l.String()] = p.Disabled(l)
	}
	return View{Selection: p.sel, Options: p.opts, Disabled: disabled}
}

// Restore rebuilds a picker from a possibly partial selection. Levels after
// the first empty one are ignored.
func Restore(ctx context.Context, src Source, sel model.Location) (*Picker, error) {
	p := NewPicker(src)
	if err := p.Load(ctx); err != nil {
		return nil, err
	}
	if sel.State == "" {
		return p, nil
	}
	if _, err := p.SelectState(ctx, sel.State); err != nil {
		return nil, err
	}
	if sel.LGA == "" {
		return p, nil
	}
	if _, err := p.SelectLGA(ctx, sel.LGA); err != nil {
		return nil, err
	}
	if sel.Ward == "" {
		return p, nil
	}
	if _, err := p.SelectWard(ctx, sel.Ward); err != nil {
		return nil, err
	}
	p.SelectUnit(sel.PollingUnit)
	return p, nil
}
