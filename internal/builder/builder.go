package builder

import (
	"errors"
	"fmt"
	"sort"

	"situationroom/internal/fieldkind"
	"situationroom/internal/model"

	"github.com/google/uuid"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrUnknownOp    = errors.New("unknown builder operation")
)

// DefaultMaxSizeMB is the upload limit given to new fields
const DefaultMaxSizeMB = 5

// NewOptionLabel is the text of an option appended by AddOption
const NewOptionLabel = "New option"

// Builder edits one ordered field list in memory. After every mutating call
// fields[i].Order == i.
type Builder struct {
	fields   []model.Field
	selected string
	newID    func() string
}

// New copies fields, sorts them by order index and renormalizes
func New(fields []model.Field) *Builder {
	b := &Builder{newID: uuid.NewString}
	b.fields = make([]model.Field, 0, len(fields))
	for _, f := range fields {
		b.fields = append(b.fields, cloneField(f))
	}
	sort.SliceStable(b.fields, func(i, j int) bool {
		return b.fields[i].Order < b.fields[j].Order
	})
	b.renormalize()
	return b
}

func cloneField(f model.Field) model.Field {
	attrs := make([]model.Choice, len(f.Attributes))
	copy(attrs, f.Attributes)
	f.Attributes = attrs
	return f
}

func (b *Builder) renormalize() {
	for i := range b.fields {
		b.fields[i].Order = i
	}
}

func (b *Builder) indexOf(key string) int {
	for i, f := range b.fields {
		if f.Key == key {
			return i
		}
	}
	return -1
}

func (b *Builder) field(key string) (*model.Field, error) {
	i := b.indexOf(key)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	return &b.fields[i], nil
}

// Fields returns a snapshot of the list
func (b *Builder) Fields() []model.Field {
	out := make([]model.Field, len(b.fields))
	for i, f := range b.fields {
		out[i] = cloneField(f)
	}
	return out
}

// Selected returns the key of the field being edited, empty when none
func (b *Builder) Selected() string {
	return b.selected
}

// Select marks key as the field being edited
func (b *Builder) Select(key string) error {
	if key != "" && b.indexOf(key) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	b.selected = key
	return nil
}

// AddField inserts a new field of type t at index at. A negative index
// appends; larger indices are clamped to the end. The new field becomes the
// selection and its key is returned.
func (b *Builder) AddField(t fieldkind.Type, at int) string {
	kind := fieldkind.Lookup(t)
	f := model.Field{
		ID:         b.newID(),
		Key:        b.newID(),
		Name:       kind.DefaultLabel(),
		Type:       string(t),
		Attributes: kind.DefaultAttributes(),
		MaxSizeMB:  DefaultMaxSizeMB,
	}

	if at < 0 || at > len(b.fields) {
		at = len(b.fields)
	}
	b.fields = append(b.fields, model.Field{})
	copy(b.fields[at+1:], b.fields[at:])
	b.fields[at] = f
	b.renormalize()
	b.selected = f.Key
	return f.Key
}

// InsertFromPalette is the drop of a palette item onto position at
func (b *Builder) InsertFromPalette(t fieldkind.Type, at int) string {
	return b.AddField(t, at)
}

// RemoveField deletes the field with key
func (b *Builder) RemoveField(key string) error {
	i := b.indexOf(key)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	b.fields = append(b.fields[:i], b.fields[i+1:]...)
	b.renormalize()
	if b.selected == key {
		b.selected = ""
	}
	return nil
}

// FieldPatch holds the members an UpdateField call may set. Nil members are
// left unchanged.
type FieldPatch struct {
	Name         *string         `json:"field_name,omitempty"`
	Type         *string         `json:"field_type,omitempty"`
	DefaultValue *string         `json:"default_value,omitempty"`
	Placeholder  *string         `json:"placeholder,omitempty"`
	HelpText     *string         `json:"help_text,omitempty"`
	Required     *bool           `json:"required,omitempty"`
	Attributes   *[]model.Choice `json:"attributes,omitempty"`
	Multiple     *bool           `json:"multiple,omitempty"`
	Accept       *string         `json:"accept,omitempty"`
	MaxSizeMB    *float64        `json:"maxSizeMB,omitempty"`
	Min          *model.Bound    `json:"min,omitempty"`
	Max          *model.Bound    `json:"max,omitempty"`
}

// UpdateField merges patch into the field with key. The order index is
// never touched.
func (b *Builder) UpdateField(key string, patch FieldPatch) error {
	f, err := b.field(key)
	if err != nil {
		return err
	}
	if patch.Name != nil {
		f.Name = *patch.Name
	}
	if patch.Type != nil {
		f.Type = *patch.Type
	}
	if patch.DefaultValue != nil {
		f.DefaultValue = *patch.DefaultValue
	}
	if patch.Placeholder != nil {
		f.Placeholder = *patch.Placeholder
	}
	if patch.HelpText != nil {
		f.HelpText = *patch.HelpText
	}
	if patch.Required != nil {
		f.Required = *patch.Required
	}
	if patch.Attributes != nil {
		attrs := make([]model.Choice, len(*patch.Attributes))
		copy(attrs, *patch.Attributes)
		f.Attributes = attrs
	}
	if patch.Multiple != nil {
		f.Multiple = *patch.Multiple
	}
	if patch.Accept != nil {
		f.Accept = *patch.Accept
	}
	if patch.MaxSizeMB != nil {
		f.MaxSizeMB = *patch.MaxSizeMB
	}
	if patch.Min != nil {
		f.Min = *patch.Min
	}
	if patch.Max != nil {
		f.Max = *patch.Max
	}
	return nil
}

// MoveField splices the field at from out and reinserts it at to. Equal or
// out-of-range indices are a no-op.
func (b *Builder) MoveField(from, to int) {
	n := len(b.fields)
	if from == to || from < 0 || to < 0 || from >= n || to >= n {
		return
	}
	moved := b.fields[from]
	b.fields = append(b.fields[:from], b.fields[from+1:]...)
	b.fields = append(b.fields, model.Field{})
	copy(b.fields[to+1:], b.fields[to:])
	b.fields[to] = moved
	b.renormalize()
}

// AddOption appends a "New option" choice
func (b *Builder) AddOption(key string) error {
	f, err := b.field(key)
	if err != nil {
		return err
	}
	f.Attributes = append(f.Attributes, model.Choice{Value: NewOptionLabel})
	return nil
}

// SetOption replaces the text of option i
func (b *Builder) SetOption(key string, i int, value string) error {
	f, err := b.field(key)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(f.Attributes) {
		return fmt.Errorf("option %d out of range", i)
	}
	f.Attributes[i].Value = value
	return nil
}

// RemoveOption deletes option i
func (b *Builder) RemoveOption(key string, i int) error {
	f, err := b.field(key)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(f.Attributes) {
		return fmt.Errorf("option %d out of range", i)
	}
	f.Attributes = append(f.Attributes[:i], f.Attributes[i+1:]...)
	return nil
}

// MoveOption swaps option i with its neighbour in direction dir (-1 up,
// +1 down). Moving past either edge is a no-op.
func (b *Builder) MoveOption(key string, i, dir int) error {
	f, err := b.field(key)
	if err != nil {
		return err
	}
	j := i + dir
	if i < 0 || i >= len(f.Attributes) || j < 0 || j >= len(f.Attributes) || i == j {
		return nil
	}
	f.Attributes[i], f.Attributes[j] = f.Attributes[j], f.Attributes[i]
	return nil
}
