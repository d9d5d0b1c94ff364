package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/edusetu/tuition-admin-api/internal/models"
	appErrors "github.com/edusetu/tuition-admin-api/pkg/errors"
	"github.com/edusetu/tuition-admin-api/pkg/export"
	"github.com/edusetu/tuition-admin-api/pkg/storage"
)

// Export formats supported for the extra-class roster.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

var exportHeaders = []string{"Class", "Subject", "Teacher", "Topic", "Starts", "Ends", "Status"}

// ExportResult carries a rendered roster plus its stored copy's download
// token.
type ExportResult struct {
	Filename      string    `json:"filename"`
	ContentType   string    `json:"content_type"`
	Data          []byte    `json:"-"`
	DownloadToken string    `json:"download_token,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
}

// ExportService renders the extra-class roster into downloadable documents
// and keeps a copy on disk behind signed tokens.
type ExportService struct {
	classes   extraClassRepository
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	store     *storage.ExportStore
	signer    *storage.SignedURLSigner
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService. Stored copies older than
// retention are swept on the next export.
func NewExportService(classes extraClassRepository, store *storage.ExportStore, signer *storage.SignedURLSigner, retention time.Duration, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &ExportService{
		classes:   classes,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		store:     store,
		signer:    signer,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Export renders the filtered roster in the requested format.
func (s *ExportService) Export(ctx context.Context, format string, filter models.ExtraClassFilter) (*ExportResult, error) {
	records, err := s.classes.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load extra classes for export")
	}

	now := s.now().UTC()
	dataset := s.buildDataset(records, now)

	var data []byte
	var contentType string
	switch format {
	case FormatCSV:
		data, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case FormatPDF:
		data, err = s.pdf.Render(dataset, "Extra Class Schedule")
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	result := &ExportResult{
		Filename:    fmt.Sprintf("extra-classes-%s.%s", now.Format("20060102-150405"), format),
		ContentType: contentType,
		Data:        data,
	}

	// Keeping the stored copy is best effort: the response already carries
	// the rendered bytes.
	if s.store != nil && s.signer != nil {
		if removed, err := s.store.CleanupOlderThan(s.retention); err != nil {
			s.logger.Warn("failed to sweep expired exports", zap.Error(err))
		} else if removed > 0 {
			s.logger.Info("swept expired exports", zap.Int("removed", removed))
		}
		if err := s.store.Save(result.Filename, data); err != nil {
			s.logger.Warn("failed to store export copy", zap.String("filename", result.Filename), zap.Error(err))
			return result, nil
		}
		// The export id must stay dot-free; the token format reserves dots
		// as separators and the filename carries an extension.
		token, expiresAt, err := s.signer.Generate(now.Format("20060102-150405"), result.Filename)
		if err != nil {
			s.logger.Warn("failed to sign export download", zap.String("filename", result.Filename), zap.Error(err))
			return result, nil
		}
		result.DownloadToken = token
		result.ExpiresAt = expiresAt
	}

	return result, nil
}

// Download resolves a signed token and streams the stored export copy.
func (s *ExportService) Download(token string) (io.ReadCloser, string, error) {
	if s.store == nil || s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export downloads are not enabled")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}
	return file, relPath, nil
}

func (s *ExportService) buildDataset(records []models.ExtraClassView, now time.Time) export.Dataset {
	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		topic := ""
		if rec.Topic != nil {
			topic = *rec.Topic
		}
		rows = append(rows, map[string]string{
			"Class":   rec.ClassLabel,
			"Subject": rec.Subject,
			"Teacher": rec.TeacherName,
			"Topic":   topic,
			"Starts":  rec.StartsAt.UTC().Format(time.RFC3339),
			"Ends":    rec.EndsAt.UTC().Format(time.RFC3339),
			"Status":  string(rec.ExtraClass.Bucket(now)),
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}
