package fieldkind

import (
	"situationroom/internal/model"
)

// Type is the field_type tag stored on every field definition
type Type string

const (
	Text        Type = "Text"
	Number      Type = "Number"
	Password    Type = "Password"
	Date        Type = "Date"
	Select      Type = "Select"
	Radio       Type = "Radio"
	Checkbox    Type = "Checkbox"
	FileUpload  Type = "FileUpload"
	PollingUnit Type = "Polling-Unit"
)

// ControlKind names the widget a field renders as
type ControlKind string

const (
	ControlInput         ControlKind = "input"
	ControlSelect        ControlKind = "select"
	ControlRadioGroup    ControlKind = "radio-group"
	ControlCheckboxGroup ControlKind = "checkbox-group"
	ControlFile          ControlKind = "file"
	ControlCascader      ControlKind = "cascader"
)

// Control describes how a single field is presented, either in the builder
// preview or on the public form.
type Control struct {
	FieldID     string          `json:"field_id"`
	FieldKey    string          `json:"field_key"`
	Type        Type            `json:"field_type"`
	Kind        ControlKind     `json:"control"`
	InputType   string          `json:"input_type,omitempty"`
	Label       string          `json:"label"`
	Placeholder string          `json:"placeholder,omitempty"`
	HelpText    string          `json:"help_text,omitempty"`
	Default     string          `json:"default_value,omitempty"`
	Required    bool            `json:"required"`
	Multiple    bool            `json:"multiple"`
	Disabled    bool            `json:"disabled"`
	ReadOnly    bool            `json:"read_only"`
	Min         string          `json:"min,omitempty"`
	Max         string          `json:"max,omitempty"`
	Accept      string          `json:"accept,omitempty"`
	MaxSizeMB   float64         `json:"maxSizeMB,omitempty"`
	Options     []string        `json:"options,omitempty"`
	Shape       model.ValueKind `json:"shape"`
}

// Input is the submitted request data a kind reads its value from.
// Get returns every value posted under key, FileName the name of the file
// posted under key (empty when none).
type Input interface {
	Get(key string) []string
	FileName(key string) string
}

// Kind is the behaviour set of one field type
type Kind interface {
	Type() Type
	DefaultLabel() string
	DefaultAttributes() []model.Choice
	Preview(f model.Field) Control
	Runtime(f model.Field) Control
	Collect(f model.Field, in Input) model.Value
}

// Location input keys are suffixed per level
const (
	LevelState       = "state"
	LevelLGA         = "lga"
	LevelWard        = "ward"
	LevelPollingUnit = "polling_unit"
)

// LocationKey is the input key of one level of a Polling-Unit field
func LocationKey(fieldID, level string) string {
	return fieldID + "." + level
}

var registry = map[Type]Kind{
	Text:        textual{typ: Text, inputType: "text", label: "Text"},
	Number:      textual{typ: Number, inputType: "number", label: "Number"},
	Password:    textual{typ: Password, inputType: "password", label: "Password"},
	Date:        textual{typ: Date, inputType: "date", label: "Date"},
	Select:      choice{typ: Select, control: ControlSelect},
	Radio:       choice{typ: Radio, control: ControlRadioGroup},
	Checkbox:    choice{typ: Checkbox, control: ControlCheckboxGroup},
	FileUpload:  upload{},
	PollingUnit: location{},
}

var order = []Type{Text, Number, Password, Date, Select, Radio, Checkbox, FileUpload, PollingUnit}

// Lookup returns the kind registered for t. Unknown tags fall back to a
// plain text input labelled "Field".
func Lookup(t Type) Kind {
	if k, ok := registry[t]; ok {
		return k
	}
	return textual{typ: t, inputType: "text", label: "Field"}
}

// For is Lookup keyed by a field's stored type tag
func For(f model.Field) Kind {
	return Lookup(Type(f.Type))
}

// Known reports whether t is a registered type
func Known(t Type) bool {
	_, ok := registry[t]
	return ok
}

// Types lists the registered types in palette order
func Types() []Type {
	out := make([]Type, len(order))
	copy(out, order)
	return out
}

// IsChoice reports whether t carries an option list
func IsChoice(t Type) bool {
	_, ok := registry[t].(choice)
	return ok
}
