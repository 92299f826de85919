package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FormStatus represents form lifecycle status
type FormStatus string

const (
	FormStatusActive   FormStatus = "Active"
	FormStatusInactive FormStatus = "Inactive"
)

// Valid reports whether s is a known lifecycle status
func (s FormStatus) Valid() bool {
	return s == FormStatusActive || s == FormStatusInactive
}

// Role names used by the permission table
const (
	RoleAdmin     = "Admin"
	RoleWebAdmin  = "WebAdmin"
	RoleStaff     = "Staff"
	RoleObservers = "Observers"
	RoleReporters = "Reporters"
	RoleGuest     = "Guest"
)

// Choice is one option of a Select, Radio or Checkbox field
type Choice struct {
	Value string `json:"value"`
}

// Bound is a numeric limit kept as entered. Clients send either a number or a
// string (possibly empty), so both decode.
type Bound string

func (b *Bound) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*b = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*b = Bound(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*b = Bound(n.String())
	return nil
}

// MarshalJSON writes numeric bounds back as numbers and anything else as a
// string
func (b Bound) MarshalJSON() ([]byte, error) {
	raw := []byte(b)
	if _, err := strconv.ParseFloat(string(b), 64); err == nil && json.Valid(raw) {
		return raw, nil
	}
	return json.Marshal(string(b))
}

// Float returns the bound as a number, ok=false when unset or not numeric
func (b Bound) Float() (float64, bool) {
	if b == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(string(b), 64)
	return f, err == nil
}

// Field is one field definition within a form
type Field struct {
	ID           string   `json:"field_id"`
	Key          string   `json:"field_key"`
	Name         string   `json:"field_name"`
	Type         string   `json:"field_type"`
	Order        int      `json:"field_order"`
	DefaultValue string   `json:"default_value"`
	Placeholder  string   `json:"placeholder"`
	HelpText     string   `json:"help_text"`
	Required     bool     `json:"required"`
	Attributes   []Choice `json:"attributes"`
	Multiple     bool     `json:"multiple"`
	Accept       string   `json:"accept"`
	MaxSizeMB    float64  `json:"maxSizeMB"`
	Min          Bound    `json:"min"`
	Max          Bound    `json:"max"`
}

// Options returns the choice values in display order
func (f Field) Options() []string {
	out := make([]string, 0, len(f.Attributes))
	for _, a := range f.Attributes {
		out = append(out, a.Value)
	}
	return out
}

// Form represents a persisted form definition
type Form struct {
	ID            string     `json:"_id"`
	FormID        string     `json:"form_id"`
	FormKey       string     `json:"form_key"`
	Slug          string     `json:"slug"`
	Name          string     `json:"form_name"`
	Description   string     `json:"form_description"`
	Status        FormStatus `json:"status"`
	IsEditable    int        `json:"is_editable"`
	IsTemplate    int        `json:"is_template"`
	IsLoggedIn    bool       `json:"is_loggedin"`
	IsPollingForm int        `json:"is_pollingform"`
	UserID        string     `json:"user_id"`
	Fields        []Field    `json:"fields"`
	CreatedAt     string     `json:"createdAt,omitempty"`
	UpdatedAt     string     `json:"updatedAt,omitempty"`
}

// PollingForm is the trimmed projection served to polling clients
type PollingForm struct {
	ID            string     `json:"_id"`
	Slug          string     `json:"slug"`
	FormKey       string     `json:"form_key"`
	Name          string     `json:"form_name"`
	Description   string     `json:"form_description"`
	Status        FormStatus `json:"status"`
	IsPollingForm int        `json:"is_pollingform"`
	CreatedAt     string     `json:"createdAt,omitempty"`
}

// Submission represents one end-user's answers to a form
type Submission struct {
	ID            string       `json:"_id"`
	SubmissionKey string       `json:"submission_key"`
	ItemKey       string       `json:"item_key"`
	Name          string       `json:"submission_name"`
	Description   string       `json:"description"`
	Values        []FieldValue `json:"submission_value"`
	IP            string       `json:"ip"`
	FormRef       string       `json:"form_id"`
	CreatedBy     *string      `json:"created_by"`
	CreatedAt     string       `json:"createdAt,omitempty"`
}

// ValueOf returns the value recorded for a field id
func (s Submission) ValueOf(fieldID string) (Value, bool) {
	for _, v := range s.Values {
		if v.FieldID == fieldID {
			return v.Value, true
		}
	}
	return Value{}, false
}

// PollingUnit is one row of the polling-unit reference dataset
type PollingUnit struct {
	ID               string `json:"_id"`
	State            string `json:"state"`
	LGA              string `json:"lga"`
	RegistrationArea string `json:"registration_area"`
	PollingUnit      string `json:"polling_unit"`
	CreatedAt        string `json:"createdAt,omitempty"`
}

// Gender values accepted on incident reports
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// IncidentReport is a citizen's report of an incident at a polling unit
type IncidentReport struct {
	ID          string   `json:"_id"`
	Key         string   `json:"incident_report_key"`
	Name        string   `json:"name"`
	Gender      string   `json:"gender"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Description string   `json:"description"`
	Uploads     []string `json:"uploads"`
	State       string   `json:"state"`
	LGA         string   `json:"lga"`
	Ward        string   `json:"ward"`
	PollingUnit string   `json:"pollingunit"`
	IP          string   `json:"ip,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

// User is the public view of an account
type User struct {
	ID        string `json:"_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Flag is a 0/1 integer column. Clients send booleans, numbers or strings.
type Flag int

func (f *Flag) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	switch strings.ToLower(s) {
	case "", "null", "false", "0":
		*f = 0
		return nil
	case "true":
		*f = 1
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid flag %q", s)
	}
	if n != 0 {
		*f = 1
	} else {
		*f = 0
	}
	return nil
}
