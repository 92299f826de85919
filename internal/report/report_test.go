package report

import (
	"testing"

	"situationroom/internal/fieldkind"
	"situationroom/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sub(fieldID string, v model.Value) model.Submission {
	return model.Submission{Values: []model.FieldValue{{FieldID: fieldID, Value: v}}}
}

func TestAggregate_RadioPercentages(t *testing.T) {
	def := model.Form{Fields: []model.Field{{ID: "r", Name: "Turnout", Type: string(fieldkind.Radio)}}}
	subs := []model.Submission{
		sub("r", model.Scalar("x")),
		sub("r", model.Scalar("x")),
		sub("r", model.Scalar("y")),
	}

	rep := Aggregate(def, subs, Options{})
	require.Len(t, rep.Fields, 1)
	assert.Equal(t, 3, rep.Submissions)

	want := []Bucket{
		{Value: "x", Count: 2, Percent: 66.7},
		{Value: "y", Count: 1, Percent: 33.3},
	}
	diff := cmp.Diff(want, rep.Fields[0].Buckets, cmpopts.EquateApprox(0, 0.05))
	assert.Empty(t, diff)
}

func TestAggregate_MultiValuedPercentOfValues(t *testing.T) {
	def := model.Form{Fields: []model.Field{{ID: "c", Name: "Issues", Type: string(fieldkind.Checkbox)}}}
	subs := []model.Submission{
		sub("c", model.Multi("late", "violence")),
		sub("c", model.Multi("late")),
	}

	fr := Aggregate(def, subs, Options{}).Fields[0]
	assert.Equal(t, 3, fr.Total)
	require.Len(t, fr.Buckets, 2)
	assert.Equal(t, "late", fr.Buckets[0].Value)
	assert.Equal(t, 2, fr.Buckets[0].Count)
	assert.InDelta(t, 66.67, fr.Buckets[0].Percent, 0.01)
}

func TestAggregate_SkipsNonCandidatesAndEmpties(t *testing.T) {
	def := model.Form{Fields: []model.Field{
		{ID: "n", Name: "Count", Type: string(fieldkind.Number), Order: 0},
		{ID: "t", Name: "Note", Type: string(fieldkind.Text), Order: 1},
	}}
	subs := []model.Submission{
		{Values: []model.FieldValue{{FieldID: "n", Value: model.Scalar("4")}, {FieldID: "t", Value: model.Scalar("  ")}}},
		{Values: []model.FieldValue{{FieldID: "t", Value: model.Scalar(" calm ")}}},
		{},
	}

	rep := Aggregate(def, subs, Options{})
	require.Len(t, rep.Fields, 1)
	assert.Equal(t, "t", rep.Fields[0].FieldID)
	assert.Equal(t, []Bucket{{Value: "calm", Count: 1, Percent: 100}}, rep.Fields[0].Buckets)
}

func TestAggregate_LegacyCommaSplit(t *testing.T) {
	def := model.Form{Fields: []model.Field{{ID: "s", Name: "Parties", Type: string(fieldkind.Select)}}}
	subs := []model.Submission{sub("s", model.Scalar("APC, PDP"))}

	off := Aggregate(def, subs, Options{}).Fields[0]
	assert.Equal(t, []Bucket{{Value: "APC, PDP", Count: 1, Percent: 100}}, off.Buckets)

	on := Aggregate(def, subs, Options{LegacyCommaSplit: true}).Fields[0]
	assert.Equal(t, []Bucket{
		{Value: "APC", Count: 1, Percent: 50},
		{Value: "PDP", Count: 1, Percent: 50},
	}, on.Buckets)
}

func TestAggregate_NoSubmissions(t *testing.T) {
	def := model.Form{Fields: []model.Field{{ID: "r", Type: string(fieldkind.Radio)}}}
	rep := Aggregate(def, nil, Options{})
	require.Len(t, rep.Fields, 1)
	assert.Zero(t, rep.Fields[0].Total)
	assert.Empty(t, rep.Fields[0].Buckets)
}
