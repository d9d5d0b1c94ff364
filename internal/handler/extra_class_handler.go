package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edusetu/tuition-admin-api/internal/middleware"
	"github.com/edusetu/tuition-admin-api/internal/models"
	"github.com/edusetu/tuition-admin-api/internal/service"
	appErrors "github.com/edusetu/tuition-admin-api/pkg/errors"
	"github.com/edusetu/tuition-admin-api/pkg/response"
)

type extraClassService interface {
	List(ctx context.Context, filter models.ExtraClassFilter) (*models.ExtraClassList, error)
	Get(ctx context.Context, id string) (*models.ExtraClassView, error)
	Create(ctx context.Context, actor *models.JWTClaims, req service.ExtraClassRequest) (*models.ExtraClassView, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req service.ExtraClassRequest) (*models.ExtraClassView, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
	SubjectOptions(classLabel string) ([]string, error)
	EligibleTeachers(ctx context.Context, classLabel, subject string) ([]models.TeacherWithUser, error)
}

type scheduleExporter interface {
	Export(ctx context.Context, format string, filter models.ExtraClassFilter) (*service.ExportResult, error)
	Download(token string) (io.ReadCloser, string, error)
}

// ExtraClassHandler exposes the extra-class scheduling endpoints.
type ExtraClassHandler struct {
	service  extraClassService
	exporter scheduleExporter
}

// NewExtraClassHandler creates a new handler.
func NewExtraClassHandler(svc extraClassService, exporter scheduleExporter) *ExtraClassHandler {
	return &ExtraClassHandler{service: svc, exporter: exporter}
}

// List returns the roster partitioned into current, upcoming and past.
func (h *ExtraClassHandler) List(c *gin.Context) {
	filter := models.ExtraClassFilter{
		ClassLabel: classLabelFromParam(c.Query("class_id")),
		Subject:    c.Query("subject"),
		TeacherID:  c.Query("teacher_id"),
	}
	if from := c.Query("from"); from != "" {
		if parsed, err := time.Parse(time.RFC3339, from); err == nil {
			filter.From = &parsed
		}
	}
	if to := c.Query("to"); to != "" {
		if parsed, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = &parsed
		}
	}

	list, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	// The roster screen shows attendance controls only to staff; the flag
	// saves the client from duplicating the role rules.
	middleware.AddMeta(c, "can_mark_attendance", models.CanMarkAttendance(claimsFromContext(c)))
	response.JSON(c, http.StatusOK, list, nil, middleware.ExtractMeta(c))
}

// Get fetches a single session with its bucket annotation.
func (h *ExtraClassHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Create schedules a new session.
func (h *ExtraClassHandler) Create(c *gin.Context) {
	var req service.ExtraClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid extra class payload"))
		return
	}

	view, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Update reschedules a session.
func (h *ExtraClassHandler) Update(c *gin.Context) {
	var req service.ExtraClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid extra class payload"))
		return
	}

	view, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Delete removes a session permanently.
func (h *ExtraClassHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Subjects returns the subject options derivable from the class selection.
func (h *ExtraClassHandler) Subjects(c *gin.Context) {
	classLabel := classLabelFromParam(c.Query("classId"))
	if classLabel == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "classId query parameter is required"))
		return
	}

	subjects, err := h.service.SubjectOptions(classLabel)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"class": classLabel, "subjects": subjects}, nil)
}

// EligibleTeachers lists teachers matching the class and subject selection.
func (h *ExtraClassHandler) EligibleTeachers(c *gin.Context) {
	classLabel := classLabelFromParam(c.Query("class_id"))
	subject := c.Query("subject")
	if classLabel == "" || subject == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "class_id and subject query parameters are required"))
		return
	}

	teachers, err := h.service.EligibleTeachers(c.Request.Context(), classLabel, subject)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}

// Export renders the roster as CSV or PDF.
func (h *ExtraClassHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", service.FormatCSV)
	filter := models.ExtraClassFilter{
		ClassLabel: classLabelFromParam(c.Query("class_id")),
		Subject:    c.Query("subject"),
		TeacherID:  c.Query("teacher_id"),
	}

	result, err := h.exporter.Export(c.Request.Context(), format, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.DownloadToken != "" {
		c.Header("X-Download-Token", result.DownloadToken)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// Download streams a previously exported file by signed token.
func (h *ExtraClassHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token query parameter is required"))
		return
	}

	file, name, err := h.exporter.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}

// classLabelFromParam accepts either a full "Class N" label or a bare class
// number and normalises to the label form.
func classLabelFromParam(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if _, ok := models.ParseClassLabel(raw); ok {
		return raw
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return fmt.Sprintf("Class %d", n)
	}
	return raw
}
