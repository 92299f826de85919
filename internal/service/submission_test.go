package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"situationroom/internal/db"
	"situationroom/internal/model"
	"situationroom/internal/storage"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionService_CreateOrdersAndNames(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	form := fx.createForm(t, "Incident", incidentFields())

	sub, err := fx.submissions.Create(ctx, form.FormKey, CreateSubmissionInput{
		Values: []model.FieldValue{
			{FieldID: "f-kind", Value: model.Scalar("Delay")},
			{FieldID: "f-title", Value: model.Scalar("Late opening")},
		},
		IP:        "10.0.0.1",
		CreatedBy: "u1",
	})
	require.NoError(t, err)

	assert.Equal(t, form.Slug, sub.FormRef)
	assert.Equal(t, "Late opening", sub.Name)
	assert.Equal(t, "10.0.0.1", sub.IP)
	require.NotNil(t, sub.CreatedBy)
	assert.Equal(t, "u1", *sub.CreatedBy)

	ids := make([]string, 0, len(sub.Values))
	for _, v := range sub.Values {
		ids = append(ids, v.FieldID)
	}
	assert.Equal(t, []string{"f-title", "f-kind"}, ids)

	assert.Contains(t, fx.bus.Types(), "submission.created")
	assert.Equal(t, []string{form.Slug}, fx.jobs.Rebuilds)
}

func TestSubmissionService_CreateUnknownForm(t *testing.T) {
	fx := newFixture(t, nil)
	_, err := fx.submissions.Create(context.Background(), "nope", CreateSubmissionInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmissionService_Uploads(t *testing.T) {
	st, err := storage.NewLocalStorage(t.TempDir(), "http://files.test")
	require.NoError(t, err)
	fx := newFixture(t, st)
	ctx := context.Background()
	form := fx.createForm(t, "Incident", incidentFields())

	sub, err := fx.submissions.Create(ctx, form.Slug, CreateSubmissionInput{
		Name: "With photo",
		Values: []model.FieldValue{
			{FieldID: "f-title", Value: model.Scalar("Queue")},
			{FieldID: "f-photo", Value: model.Scalar("queue.png")},
		},
		Files: []Upload{{FileName: "queue.png", ContentType: "image/png", Size: 4, Body: strings.NewReader("\x89PNG")}},
	})
	require.NoError(t, err)

	assert.Equal(t, "With photo", sub.Name)
	photo, ok := sub.ValueOf("f-photo")
	require.True(t, ok)
	assert.Regexp(t, `^http://files\.test/files/submissions/[0-9a-f-]{36}-queue\.png$`, photo.ScalarText())
}

func TestSubmissionService_UploadsWithSameName(t *testing.T) {
	st, err := storage.NewLocalStorage(t.TempDir(), "http://files.test")
	require.NoError(t, err)
	fx := newFixture(t, st)
	ctx := context.Background()
	form := fx.createForm(t, "Result sheet", []model.Field{
		{ID: "front", Key: "k-front", Name: "Front", Type: "FileUpload"},
		{ID: "back", Key: "k-back", Name: "Back", Type: "FileUpload"},
		{ID: "extra", Key: "k-extra", Name: "Extra", Type: "FileUpload"},
	})

	sub, err := fx.submissions.Create(ctx, form.Slug, CreateSubmissionInput{
		Values: []model.FieldValue{
			{FieldID: "front", Value: model.Scalar("sheet.jpg")},
			{FieldID: "back", Value: model.Scalar("sheet.jpg")},
			{FieldID: "extra", Value: model.Scalar("sheet.jpg")},
		},
		Files: []Upload{
			{FileName: "sheet.jpg", ContentType: "image/jpeg", Size: 1, Body: strings.NewReader("1")},
			{FileName: "sheet.jpg", ContentType: "image/jpeg", Size: 1, Body: strings.NewReader("2")},
			{FieldID: "extra", FileName: "sheet.jpg", ContentType: "image/jpeg", Size: 1, Body: strings.NewReader("3")},
		},
	})
	require.NoError(t, err)

	seen := map[string]string{}
	for _, id := range []string{"front", "back", "extra"} {
		v, ok := sub.ValueOf(id)
		require.True(t, ok, id)
		assert.Regexp(t, `^http://files\.test/files/submissions/[0-9a-f-]{36}-sheet\.jpg$`, v.ScalarText(), id)
		prev, dup := seen[v.ScalarText()]
		assert.False(t, dup, "%s shares a URL with %s", id, prev)
		seen[v.ScalarText()] = id
	}
}

func TestSubmissionService_UploadRejected(t *testing.T) {
	st, err := storage.NewLocalStorage(t.TempDir(), "http://files.test")
	require.NoError(t, err)
	fx := newFixture(t, st)
	ctx := context.Background()
	form := fx.createForm(t, "Incident", incidentFields())

	cases := map[string]Upload{
		"wrong type": {FileName: "notes.pdf", ContentType: "application/pdf", Size: 10, Body: strings.NewReader("x")},
		"too large":  {FileName: "big.png", ContentType: "image/png", Size: 2 << 20, Body: strings.NewReader("x")},
		"executable": {FileName: "run.exe", ContentType: "image/png", Size: 10, Body: strings.NewReader("x")},
	}
	for name, file := range cases {
		_, err := fx.submissions.Create(ctx, form.Slug, CreateSubmissionInput{
			Values: []model.FieldValue{{FieldID: "f-photo", Value: model.Scalar(file.FileName)}},
			Files:  []Upload{file},
		})
		assert.ErrorIs(t, err, ErrInvalid, name)
	}

	// Files no field claims still hit the blocked list.
	_, err = fx.submissions.Create(ctx, form.Slug, CreateSubmissionInput{
		Files: []Upload{{FileName: "setup.msi", Size: 1, Body: strings.NewReader("x")}},
	})
	assert.ErrorIs(t, err, ErrInvalid)

	rows, err := fx.store.ListSubmissions(ctx, []string{form.Slug}, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSubmissionService_UploadsSkippedWithoutStorage(t *testing.T) {
	fx := newFixture(t, nil)
	form := fx.createForm(t, "Incident", incidentFields())

	sub, err := fx.submissions.Create(context.Background(), form.Slug, CreateSubmissionInput{
		Values: []model.FieldValue{{FieldID: "f-photo", Value: model.Scalar("queue.png")}},
		Files:  []Upload{{FileName: "queue.png", ContentType: "image/png", Size: 4, Body: strings.NewReader("x")}},
	})
	require.NoError(t, err)
	photo, _ := sub.ValueOf("f-photo")
	assert.Equal(t, "queue.png", photo.ScalarText())
}

func TestSubmissionService_ListRules(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	form := fx.createForm(t, "Incident", incidentFields())

	for _, by := range []string{"alice", "bob", "alice"} {
		_, err := fx.submissions.Create(ctx, form.Slug, CreateSubmissionInput{
			Values:    []model.FieldValue{{FieldID: "f-title", Value: model.Scalar(by)}},
			CreatedBy: by,
		})
		require.NoError(t, err)
	}
	legacy := "bob"
	fx.store.AddSubmission(db.Submission{ID: "legacy", FormRef: form.FormKey, CreatedBy: &legacy, Value: json.RawMessage(`[]`)})

	admin, err := fx.submissions.List(ctx, form.Slug, Viewer{ID: "root", Role: model.RoleAdmin}, false)
	require.NoError(t, err)
	assert.Len(t, admin, 4)
	assert.Equal(t, "legacy", admin[0].ID)

	mine, err := fx.submissions.List(ctx, form.Slug, Viewer{ID: "alice", Role: model.RoleAdmin}, true)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	staff, err := fx.submissions.List(ctx, form.FormKey, Viewer{ID: "bob", Role: model.RoleStaff}, false)
	require.NoError(t, err)
	assert.Len(t, staff, 2)
	for _, s := range staff {
		assert.Equal(t, "bob", *s.CreatedBy)
	}

	none, err := fx.submissions.List(ctx, "missing", Viewer{ID: "root", Role: model.RoleAdmin}, false)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSubmissionService_GetDelete(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	form := fx.createForm(t, "Incident", incidentFields())

	sub, err := fx.submissions.Create(ctx, form.Slug, CreateSubmissionInput{CreatedBy: "alice"})
	require.NoError(t, err)

	_, err = fx.submissions.Get(ctx, sub.ID, Viewer{ID: "mallory", Role: model.RoleObservers})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := fx.submissions.Get(ctx, sub.ID, Viewer{ID: "alice", Role: model.RoleObservers})
	require.NoError(t, err)
	assert.Equal(t, sub.ID, got.ID)

	require.NoError(t, fx.submissions.Delete(ctx, sub.ID, Viewer{ID: "staff", Role: model.RoleStaff}))
	assert.ErrorIs(t, fx.submissions.Delete(ctx, sub.ID, Viewer{ID: "staff", Role: model.RoleStaff}), ErrNotFound)
	assert.Contains(t, fx.bus.Types(), "submission.deleted")
}

func TestSubmissionService_Export(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	form := fx.createForm(t, "Incident", incidentFields())

	_, err := fx.submissions.Create(ctx, form.Slug, CreateSubmissionInput{
		Values: []model.FieldValue{
			{FieldID: "f-title", Value: model.Scalar("Late, again")},
			{FieldID: "f-kind", Value: model.Scalar("Delay")},
		},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	got, err := fx.submissions.Export(ctx, form.Slug, &buf)
	require.NoError(t, err)
	assert.Equal(t, form.ID, got.ID)

	want := "Title,Kind,Photo\r\n\"Late, again\",Delay,\r\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}
