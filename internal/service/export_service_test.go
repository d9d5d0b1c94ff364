package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusetu/tuition-admin-api/internal/models"
	appErrors "github.com/edusetu/tuition-admin-api/pkg/errors"
	"github.com/edusetu/tuition-admin-api/pkg/storage"
)

func newExportFixture(t *testing.T, classes *extraClassesMock) *ExportService {
	t.Helper()
	store, err := storage.NewExportStore(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("export-secret", time.Hour)
	return NewExportService(classes, store, signer, time.Hour, nil)
}

func exportViews(now time.Time) []models.ExtraClassView {
	topic := "Optics"
	return []models.ExtraClassView{
		{
			ExtraClass: models.ExtraClass{
				ID: "ec-1", ClassLabel: "Class 9", Subject: "Science",
				TeacherID: "u-9", Topic: &topic,
				StartsAt: now.Add(time.Hour), EndsAt: now.Add(2 * time.Hour),
			},
			TeacherName: "Science Prof",
		},
		{
			ExtraClass: models.ExtraClass{
				ID: "ec-2", ClassLabel: "Class 8", Subject: "Hindi",
				TeacherID: "u-8",
				StartsAt: now.Add(-2 * time.Hour), EndsAt: now.Add(-time.Hour),
			},
			TeacherName: "Hindi Prof",
		},
	}
}

func TestExportCSVRendersBucketStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	classes := newExtraClassesMock()
	classes.views = exportViews(now)
	svc := newExportFixture(t, classes)
	svc.now = func() time.Time { return now }

	result, err := svc.Export(context.Background(), FormatCSV, models.ExtraClassFilter{})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "extra-classes-20260310-120000.csv", result.Filename)

	body := string(result.Data)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Class,Subject,Teacher,Topic,Starts,Ends,Status", lines[0])
	assert.Contains(t, lines[1], "upcoming")
	assert.Contains(t, lines[1], "Science Prof")
	assert.Contains(t, lines[2], "past")
}

func TestExportPDFRenders(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	classes := newExtraClassesMock()
	classes.views = exportViews(now)
	svc := newExportFixture(t, classes)
	svc.now = func() time.Time { return now }

	result, err := svc.Export(context.Background(), FormatPDF, models.ExtraClassFilter{})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Data), "%PDF"), "rendered bytes carry the PDF magic")
}

func TestExportUnsupportedFormatRejected(t *testing.T) {
	svc := newExportFixture(t, newExtraClassesMock())

	_, err := svc.Export(context.Background(), "xlsx", models.ExtraClassFilter{})
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestExportDownloadRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	classes := newExtraClassesMock()
	classes.views = exportViews(now)
	svc := newExportFixture(t, classes)
	svc.now = func() time.Time { return now }

	result, err := svc.Export(context.Background(), FormatCSV, models.ExtraClassFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, result.DownloadToken)
	require.False(t, result.ExpiresAt.IsZero())

	file, name, err := svc.Download(result.DownloadToken)
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, result.Filename, name)
	stored, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, result.Data, stored)
}

func TestExportDownloadRejectsTamperedToken(t *testing.T) {
	classes := newExtraClassesMock()
	svc := newExportFixture(t, classes)

	result, err := svc.Export(context.Background(), FormatCSV, models.ExtraClassFilter{})
	require.NoError(t, err)

	_, _, err = svc.Download(result.DownloadToken + "x")
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
