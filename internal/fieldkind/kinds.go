package fieldkind

import (
	"strings"

	"situationroom/internal/model"
)

func baseControl(f model.Field, kind ControlKind) Control {
	return Control{
		FieldID:     f.ID,
		FieldKey:    f.Key,
		Type:        Type(f.Type),
		Kind:        kind,
		Label:       f.Name,
		Placeholder: f.Placeholder,
		HelpText:    f.HelpText,
		Default:     f.DefaultValue,
		Required:    f.Required,
		Shape:       model.ValueScalar,
	}
}

func preview(c Control) Control {
	c.Disabled = true
	c.ReadOnly = true
	return c
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func nonEmpty(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// textual covers single-line inputs and the unknown-type fallback
type textual struct {
	typ       Type
	inputType string
	label     string
}

func (k textual) Type() Type                        { return k.typ }
func (k textual) DefaultLabel() string              { return k.label }
func (k textual) DefaultAttributes() []model.Choice { return []model.Choice{} }

func (k textual) Runtime(f model.Field) Control {
	c := baseControl(f, ControlInput)
	c.InputType = k.inputType
	if k.typ == Number {
		c.Min = string(f.Min)
		c.Max = string(f.Max)
	}
	return c
}

func (k textual) Preview(f model.Field) Control { return preview(k.Runtime(f)) }

func (k textual) Collect(f model.Field, in Input) model.Value {
	return model.Scalar(first(in.Get(f.ID)))
}

type choice struct {
	typ     Type
	control ControlKind
}

func (k choice) Type() Type           { return k.typ }
func (k choice) DefaultLabel() string { return string(k.typ) }

func (k choice) DefaultAttributes() []model.Choice {
	return []model.Choice{{Value: "Option 1"}, {Value: "Option 2"}}
}

func (k choice) multi(f model.Field) bool {
	return k.typ == Checkbox || (k.typ == Select && f.Multiple)
}

func (k choice) Runtime(f model.Field) Control {
	c := baseControl(f, k.control)
	c.Options = f.Options()
	c.Multiple = k.multi(f)
	if c.Multiple {
		c.Shape = model.ValueMulti
	}
	return c
}

func (k choice) Preview(f model.Field) Control { return preview(k.Runtime(f)) }

func (k choice) Collect(f model.Field, in Input) model.Value {
	if k.multi(f) {
		return model.Multi(nonEmpty(in.Get(f.ID))...)
	}
	return model.Scalar(first(in.Get(f.ID)))
}

type upload struct{}

func (upload) Type() Type                        { return FileUpload }
func (upload) DefaultLabel() string              { return "File Upload" }
func (upload) DefaultAttributes() []model.Choice { return []model.Choice{} }

func (upload) Runtime(f model.Field) Control {
	c := baseControl(f, ControlFile)
	c.Accept = f.Accept
	c.MaxSizeMB = f.MaxSizeMB
	return c
}

func (k upload) Preview(f model.Field) Control { return preview(k.Runtime(f)) }

// Collect records the chosen file's name; the upload step later swaps it for
// the stored URL.
func (upload) Collect(f model.Field, in Input) model.Value {
	return model.Scalar(in.FileName(f.ID))
}

type location struct{}

func (location) Type() Type                        { return PollingUnit }
func (location) DefaultLabel() string              { return "Polling Unit" }
func (location) DefaultAttributes() []model.Choice { return []model.Choice{} }

func (location) Runtime(f model.Field) Control {
	c := baseControl(f, ControlCascader)
	c.Shape = model.ValueLocation
	return c
}

func (k location) Preview(f model.Field) Control { return preview(k.Runtime(f)) }

func (location) Collect(f model.Field, in Input) model.Value {
	return model.AtLocation(model.Location{
		State:       first(in.Get(LocationKey(f.ID, LevelState))),
		LGA:         first(in.Get(LocationKey(f.ID, LevelLGA))),
		Ward:        first(in.Get(LocationKey(f.ID, LevelWard))),
		PollingUnit: first(in.Get(LocationKey(f.ID, LevelPollingUnit))),
	})
}
