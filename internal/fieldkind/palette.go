package fieldkind

import "strings"

// PaletteItem is one draggable entry of the builder library
type PaletteItem struct {
	Type  Type   `json:"type"`
	Label string `json:"label"`
	Hint  string `json:"hint"`
}

// PaletteGroup groups related items under a heading
type PaletteGroup struct {
	Name  string        `json:"name"`
	Items []PaletteItem `json:"items"`
}

var groups = []struct {
	name  string
	items [][2]string
}{
	{"Basics", [][2]string{
		{string(Text), "Single line text"},
		{string(Number), "Numeric input"},
		{string(Password), "Hidden input"},
		{string(Date), "Date picker"},
		{string(FileUpload), "Attach files"},
	}},
	{"Choices", [][2]string{
		{string(Select), "Dropdown"},
		{string(Radio), "Single choice"},
		{string(Checkbox), "Multiple choice"},
	}},
	{"Location", [][2]string{
		{string(PollingUnit), "State → LGA → Ward → PU"},
	}},
}

// Palette returns the full grouped catalogue
func Palette() []PaletteGroup {
	return Search("")
}

// Search filters the catalogue by a case-insensitive substring of the type
// or of the hint. Groups left without items are dropped.
func Search(query string) []PaletteGroup {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]PaletteGroup, 0, len(groups))
	for _, g := range groups {
		items := make([]PaletteItem, 0, len(g.items))
		for _, it := range g.items {
			if q != "" && !matches(q, it[0], it[1]) {
				continue
			}
			t := Type(it[0])
			items = append(items, PaletteItem{Type: t, Label: Lookup(t).DefaultLabel(), Hint: it[1]})
		}
		if len(items) == 0 {
			continue
		}
		out = append(out, PaletteGroup{Name: g.name, Items: items})
	}
	return out
}

func matches(q string, texts ...string) bool {
	for _, s := range texts {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}
