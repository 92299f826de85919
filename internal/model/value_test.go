package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		in   string
		want Value
	}{
		{`"Delay"`, Scalar("Delay")},
		{`42`, Scalar("42")},
		{`1.50`, Scalar("1.50")},
		{`true`, Scalar("true")},
		{`null`, Scalar("")},
		{`["a", 2, null]`, Multi("a", "2", "")},
		{`[]`, Multi()},
		{`{"state":"Lagos","lga":"Ikeja","ward":"Alausa","polling_unit":"PU 001"}`,
			AtLocation(Location{State: "Lagos", LGA: "Ikeja", Ward: "Alausa", PollingUnit: "PU 001"})},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			var v Value
			require.NoError(t, json.Unmarshal([]byte(tc.in), &v))
			assert.Equal(t, tc.want, v)
		})
	}

	var v Value
	assert.Error(t, json.Unmarshal([]byte(`[{"nested":true}]`), &v))
}

func TestValue_MarshalJSON(t *testing.T) {
	raw, err := json.Marshal([]FieldValue{
		{FieldID: "a", Value: Scalar("x")},
		{FieldID: "b", Value: Multi()},
		{FieldID: "c", Value: Value{kind: ValueMulti}},
		{FieldID: "d", Value: AtLocation(Location{State: "Kano"})},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"field_id":"a","field_value":"x"},
		{"field_id":"b","field_value":[]},
		{"field_id":"c","field_value":[]},
		{"field_id":"d","field_value":{"state":"Kano","lga":"","ward":"","polling_unit":""}}
	]`, string(raw))
}

func TestValue_TextAndEmpty(t *testing.T) {
	assert.True(t, Scalar("  ").IsEmpty())
	assert.True(t, Multi().IsEmpty())
	assert.True(t, AtLocation(Location{}).IsEmpty())
	assert.False(t, Multi("a").IsEmpty())

	assert.Equal(t, "a,b", Multi("a", "b").Text())
	assert.Equal(t, "Lagos / Ikeja / Alausa / PU 001",
		AtLocation(Location{State: "Lagos", LGA: "Ikeja", Ward: "Alausa", PollingUnit: "PU 001"}).Text())
}

func TestFlag_UnmarshalJSON(t *testing.T) {
	for in, want := range map[string]Flag{
		`true`: 1, `false`: 0, `1`: 1, `0`: 0, `2`: 1, `"1"`: 1, `"true"`: 1, `""`: 0, `null`: 0,
	} {
		var f Flag
		require.NoError(t, json.Unmarshal([]byte(in), &f), in)
		assert.Equal(t, want, f, in)
	}

	var f Flag
	assert.Error(t, json.Unmarshal([]byte(`"yes please"`), &f))
}

func TestBound_JSON(t *testing.T) {
	var f struct {
		Min Bound `json:"min"`
		Max Bound `json:"max"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"min":1.5,"max":"120"}`), &f))
	assert.Equal(t, Bound("1.5"), f.Min)
	assert.Equal(t, Bound("120"), f.Max)

	raw, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"min":1.5,"max":120}`, string(raw))

	for in, want := range map[Bound]string{
		"":           `""`,
		"2024-01-01": `"2024-01-01"`,
		"Inf":        `"Inf"`,
		"+3":         `"+3"`,
		"-3":         `-3`,
	} {
		raw, err := json.Marshal(in)
		require.NoError(t, err)
		assert.Equal(t, want, string(raw), string(in))
	}
}
