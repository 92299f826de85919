package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind tags the shape carried by a Value
type ValueKind int

const (
	ValueScalar ValueKind = iota
	ValueMulti
	ValueLocation
)

// Location is the composite value of a Polling-Unit field
type Location struct {
	State       string `json:"state"`
	LGA         string `json:"lga"`
	Ward        string `json:"ward"`
	PollingUnit string `json:"polling_unit"`
}

// String renders the location as "state / lga / ward / polling_unit"
func (l Location) String() string {
	return strings.Join([]string{l.State, l.LGA, l.Ward, l.PollingUnit}, " / ")
}

// Empty reports whether no level is set
func (l Location) Empty() bool {
	return l == Location{}
}

// Value is a submitted field value: a scalar, a list (multi-select and
// checkbox) or a location. The zero Value is an empty scalar.
type Value struct {
	kind   ValueKind
	scalar string
	multi  []string
	loc    Location
}

// Scalar builds a single-valued answer
func Scalar(s string) Value {
	return Value{kind: ValueScalar, scalar: s}
}

// Multi builds a list answer. A nil list still encodes as [].
func Multi(items ...string) Value {
	list := make([]string, len(items))
	copy(list, items)
	return Value{kind: ValueMulti, multi: list}
}

// AtLocation builds a Polling-Unit answer
func AtLocation(l Location) Value {
	return Value{kind: ValueLocation, loc: l}
}

func (v Value) Kind() ValueKind { return v.kind }

// ScalarText returns the scalar text; empty for other kinds
func (v Value) ScalarText() string { return v.scalar }

// Items returns the list items; nil for other kinds
func (v Value) Items() []string {
	if v.kind != ValueMulti {
		return nil
	}
	out := make([]string, len(v.multi))
	copy(out, v.multi)
	return out
}

// Location returns the location; zero for other kinds
func (v Value) Location() Location { return v.loc }

// IsEmpty reports whether nothing was answered
func (v Value) IsEmpty() bool {
	switch v.kind {
	case ValueMulti:
		return len(v.multi) == 0
	case ValueLocation:
		return v.loc.Empty()
	default:
		return strings.TrimSpace(v.scalar) == ""
	}
}

// Text is the single-line rendering used for display names
func (v Value) Text() string {
	switch v.kind {
	case ValueMulti:
		return strings.Join(v.multi, ",")
	case ValueLocation:
		return v.loc.String()
	default:
		return v.scalar
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueMulti:
		if v.multi == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.multi)
	case ValueLocation:
		return json.Marshal(v.loc)
	default:
		return json.Marshal(v.scalar)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Scalar("")
		return nil
	}

	switch data[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			s, err := scalarText(r)
			if err != nil {
				return err
			}
			items = append(items, s)
		}
		*v = Multi(items...)
		return nil
	case '{':
		var loc Location
		if err := json.Unmarshal(data, &loc); err != nil {
			return err
		}
		*v = AtLocation(loc)
		return nil
	default:
		s, err := scalarText(data)
		if err != nil {
			return err
		}
		*v = Scalar(s)
		return nil
	}
}

func scalarText(data []byte) (string, error) {
	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return "", err
	}
	switch t := raw.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", fmt.Errorf("unsupported value %s", string(data))
	}
}

// FieldValue pairs a field id with its answer
type FieldValue struct {
	FieldID string `json:"field_id"`
	Value   Value  `json:"field_value"`
}
