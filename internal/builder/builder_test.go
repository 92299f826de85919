package builder

import (
	"fmt"
	"math/rand"
	"testing"

	"situationroom/internal/fieldkind"
	"situationroom/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertNormalized(t *testing.T, fields []model.Field) {
	t.Helper()
	seen := map[string]bool{}
	for i, f := range fields {
		require.Equal(t, i, f.Order, "field %d has order %d", i, f.Order)
		require.False(t, seen[f.Key], "duplicate key %s", f.Key)
		seen[f.Key] = true
	}
}

func names(fields []model.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func TestNew_SortsAndRenormalizes(t *testing.T) {
	b := New([]model.Field{
		{Key: "c", Name: "c", Order: 9},
		{Key: "a", Name: "a", Order: 1},
		{Key: "b", Name: "b", Order: 4},
	})
	fields := b.Fields()
	assert.Equal(t, []string{"a", "b", "c"}, names(fields))
	assertNormalized(t, fields)
}

func TestAddField_Defaults(t *testing.T) {
	b := New(nil)
	key := b.AddField(fieldkind.Select, -1)
	fields := b.Fields()
	require.Len(t, fields, 1)

	f := fields[0]
	assert.Equal(t, key, f.Key)
	assert.Equal(t, key, b.Selected())
	assert.NotEmpty(t, f.ID)
	assert.NotEqual(t, f.ID, f.Key)
	assert.Equal(t, "Select", f.Name)
	assert.Equal(t, []model.Choice{{Value: "Option 1"}, {Value: "Option 2"}}, f.Attributes)
	assert.Equal(t, float64(DefaultMaxSizeMB), f.MaxSizeMB)
	assert.False(t, f.Required)
	assert.Equal(t, model.Bound(""), f.Min)

	b.AddField(fieldkind.FileUpload, -1)
	assert.Equal(t, "File Upload", b.Fields()[1].Name)
}

func TestAddField_InsertAtIndex(t *testing.T) {
	b := New(nil)
	b.AddField(fieldkind.Text, -1)
	b.AddField(fieldkind.Number, -1)
	b.AddField(fieldkind.Date, 1)
	b.AddField(fieldkind.Radio, 99)
	assert.Equal(t, []string{"Text", "Date", "Number", "Radio"}, names(b.Fields()))
	assertNormalized(t, b.Fields())
}

func TestRemoveField_ClearsSelection(t *testing.T) {
	b := New(nil)
	first := b.AddField(fieldkind.Text, -1)
	second := b.AddField(fieldkind.Text, -1)

	require.NoError(t, b.RemoveField(first))
	assert.Equal(t, second, b.Selected())

	require.NoError(t, b.RemoveField(second))
	assert.Empty(t, b.Selected())
	assert.Empty(t, b.Fields())

	assert.ErrorIs(t, b.RemoveField("missing"), ErrUnknownField)
}

func TestUpdateField_KeepsOrder(t *testing.T) {
	b := New(nil)
	b.AddField(fieldkind.Text, -1)
	key := b.AddField(fieldkind.Number, -1)

	name := "Age"
	req := true
	lower := model.Bound("18")
	require.NoError(t, b.UpdateField(key, FieldPatch{Name: &name, Required: &req, Min: &lower}))

	f := b.Fields()[1]
	assert.Equal(t, "Age", f.Name)
	assert.True(t, f.Required)
	assert.Equal(t, model.Bound("18"), f.Min)
	assert.Equal(t, 1, f.Order)
	assert.Equal(t, string(fieldkind.Number), f.Type)
}

func TestMoveField(t *testing.T) {
	b := New(nil)
	for _, typ := range []fieldkind.Type{fieldkind.Text, fieldkind.Number, fieldkind.Date} {
		b.AddField(typ, -1)
	}
	b.MoveField(0, 2)
	assert.Equal(t, []string{"Number", "Date", "Text"}, names(b.Fields()))

	b.MoveField(1, 1)
	b.MoveField(-1, 0)
	b.MoveField(0, 3)
	assert.Equal(t, []string{"Number", "Date", "Text"}, names(b.Fields()))
	assertNormalized(t, b.Fields())
}

func TestOptions(t *testing.T) {
	b := New(nil)
	key := b.AddField(fieldkind.Radio, -1)

	require.NoError(t, b.AddOption(key))
	require.NoError(t, b.SetOption(key, 0, "Yes"))
	require.NoError(t, b.MoveOption(key, 2, -1))
	require.NoError(t, b.MoveOption(key, 0, -1))
	require.NoError(t, b.RemoveOption(key, 2))

	assert.Equal(t, []string{"Yes", "New option"}, b.Fields()[0].Options())
	assert.Error(t, b.SetOption(key, 5, "x"))
}

func TestApply(t *testing.T) {
	b := New(nil)
	at := 0
	err := b.Apply([]Op{
		{Op: "add", Type: fieldkind.Text},
		{Op: "insert", Type: fieldkind.Checkbox, At: &at},
		{Op: "move", From: 0, To: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Text", "Checkbox"}, names(b.Fields()))

	err = b.Apply([]Op{{Op: "explode"}})
	assert.ErrorIs(t, err, ErrUnknownOp)

	err = b.Apply([]Op{{Op: "remove", Key: "nope"}})
	assert.ErrorIs(t, err, ErrUnknownField)
}

// Random edit sequences must keep order indices equal to positions.
func TestRandomEditsStayNormalized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	types := fieldkind.Types()

	for run := 0; run < 50; run++ {
		b := New(nil)
		for step := 0; step < 100; step++ {
			fields := b.Fields()
			switch rng.Intn(5) {
			case 0, 1:
				b.AddField(types[rng.Intn(len(types))], rng.Intn(len(fields)+2)-1)
			case 2:
				if len(fields) > 0 {
					require.NoError(t, b.RemoveField(fields[rng.Intn(len(fields))].Key))
				}
			case 3:
				b.MoveField(rng.Intn(len(fields)+1), rng.Intn(len(fields)+1))
			case 4:
				if len(fields) > 0 {
					name := fmt.Sprintf("f%d", step)
					require.NoError(t, b.UpdateField(fields[rng.Intn(len(fields))].Key, FieldPatch{Name: &name}))
				}
			}
			assertNormalized(t, b.Fields())
		}
	}
}
