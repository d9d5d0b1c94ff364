package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edusetu/tuition-admin-api/internal/models"
	appErrors "github.com/edusetu/tuition-admin-api/pkg/errors"
)

type extraClassRepository interface {
	List(ctx context.Context, filter models.ExtraClassFilter) ([]models.ExtraClassView, error)
	FindByID(ctx context.Context, id string) (*models.ExtraClass, error)
	Create(ctx context.Context, record *models.ExtraClass) error
	Update(ctx context.Context, record *models.ExtraClass) error
	Delete(ctx context.Context, id string) error
}

type eligibleTeacherRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
	FindEligible(ctx context.Context, classLabel, subject string) ([]models.TeacherWithUser, error)
}

type extraClassAuditor interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ExtraClassRequest is the payload for scheduling or rescheduling a session.
type ExtraClassRequest struct {
	ClassLabel string    `json:"class_label" validate:"required"`
	Subject    string    `json:"subject" validate:"required"`
	TeacherID  string    `json:"teacher_id" validate:"required"`
	Topic      string    `json:"topic"`
	StartsAt   time.Time `json:"starts_at" validate:"required"`
	EndsAt     time.Time `json:"ends_at" validate:"required"`
}

// ExtraClassService schedules ad-hoc sessions and serves the creation
// cascade (class, then subject, then eligible teacher).
type ExtraClassService struct {
	classes   extraClassRepository
	teachers  eligibleTeacherRepository
	auditor   extraClassAuditor
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewExtraClassService constructs an ExtraClassService.
func NewExtraClassService(classes extraClassRepository, teachers eligibleTeacherRepository, auditor extraClassAuditor, validate *validator.Validate, logger *zap.Logger) *ExtraClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExtraClassService{
		classes:   classes,
		teachers:  teachers,
		auditor:   auditor,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns the filtered roster partitioned into current, upcoming and
// past buckets, computed against the moment of the call.
func (s *ExtraClassService) List(ctx context.Context, filter models.ExtraClassFilter) (*models.ExtraClassList, error) {
	records, err := s.classes.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list extra classes")
	}
	list := models.PartitionExtraClasses(records, s.now().UTC())
	return &list, nil
}

// Get fetches a single session annotated with its current bucket.
func (s *ExtraClassService) Get(ctx context.Context, id string) (*models.ExtraClassView, error) {
	record, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "extra class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch extra class")
	}
	return &models.ExtraClassView{
		ExtraClass: *record,
		Bucket:     record.Bucket(s.now().UTC()),
	}, nil
}

// Create schedules a new session. A teacher-actor is pinned to their own id
// and may only schedule for classes in their assigned list.
func (s *ExtraClassService) Create(ctx context.Context, actor *models.JWTClaims, req ExtraClassRequest) (*models.ExtraClassView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid extra class payload")
	}
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if actor.Role == models.RoleTeacher && req.TeacherID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "teachers can only schedule their own classes")
	}
	if err := s.validateSchedule(ctx, req); err != nil {
		return nil, err
	}

	record := &models.ExtraClass{
		ClassLabel: req.ClassLabel,
		Subject:    req.Subject,
		TeacherID:  req.TeacherID,
		CreatedBy:  actor.UserID,
		StartsAt:   req.StartsAt.UTC(),
		EndsAt:     req.EndsAt.UTC(),
	}
	if req.Topic != "" {
		record.Topic = &req.Topic
	}

	if err := s.classes.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create extra class")
	}

	s.audit(ctx, actor, models.AuditActionClassCreate, record.ID)

	return &models.ExtraClassView{
		ExtraClass: *record,
		Bucket:     record.Bucket(s.now().UTC()),
	}, nil
}

// Update reschedules a session. Admins and support staff may edit any
// record, a teacher only one they created.
func (s *ExtraClassService) Update(ctx context.Context, actor *models.JWTClaims, id string, req ExtraClassRequest) (*models.ExtraClassView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid extra class payload")
	}

	record, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "extra class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch extra class")
	}
	if !models.CanModifyExtraClass(actor, *record) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot modify this extra class")
	}
	if actor.Role == models.RoleTeacher && req.TeacherID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "teachers can only schedule their own classes")
	}
	if err := s.validateSchedule(ctx, req); err != nil {
		return nil, err
	}

	record.ClassLabel = req.ClassLabel
	record.Subject = req.Subject
	record.TeacherID = req.TeacherID
	record.StartsAt = req.StartsAt.UTC()
	record.EndsAt = req.EndsAt.UTC()
	record.Topic = nil
	if req.Topic != "" {
		record.Topic = &req.Topic
	}

	if err := s.classes.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update extra class")
	}

	s.audit(ctx, actor, models.AuditActionClassUpdate, record.ID)

	return &models.ExtraClassView{
		ExtraClass: *record,
		Bucket:     record.Bucket(s.now().UTC()),
	}, nil
}

// Delete removes a session permanently after the same ownership check as
// Update.
func (s *ExtraClassService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	record, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "extra class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch extra class")
	}
	if !models.CanModifyExtraClass(actor, *record) {
		return appErrors.Clone(appErrors.ErrForbidden, "you cannot delete this extra class")
	}

	if err := s.classes.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete extra class")
	}

	s.audit(ctx, actor, models.AuditActionClassDelete, id)
	return nil
}

// SubjectOptions returns the subject set derivable from the class label.
func (s *ExtraClassService) SubjectOptions(classLabel string) ([]string, error) {
	if _, ok := models.ParseClassLabel(classLabel); !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid class label %q", classLabel))
	}
	return models.SubjectsForClass(classLabel), nil
}

// EligibleTeachers lists active teachers whose subject and assigned classes
// match the cascade selection. Zero matches is a distinguished not-found
// condition rather than an empty list.
func (s *ExtraClassService) EligibleTeachers(ctx context.Context, classLabel, subject string) ([]models.TeacherWithUser, error) {
	if _, ok := models.ParseClassLabel(classLabel); !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid class label %q", classLabel))
	}
	if !models.ValidSubjectForClass(classLabel, subject) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %q is not offered for %s", subject, classLabel))
	}

	teachers, err := s.teachers.FindEligible(ctx, classLabel, subject)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to find eligible teachers")
	}
	if len(teachers) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no teachers found")
	}
	return teachers, nil
}

// validateSchedule checks the cascade fields and the chosen teacher before
// any write.
func (s *ExtraClassService) validateSchedule(ctx context.Context, req ExtraClassRequest) error {
	if _, ok := models.ParseClassLabel(req.ClassLabel); !ok {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid class label %q", req.ClassLabel))
	}
	if !models.ValidSubjectForClass(req.ClassLabel, req.Subject) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %q is not offered for %s", req.Subject, req.ClassLabel))
	}
	if req.EndsAt.Before(req.StartsAt) {
		return appErrors.Clone(appErrors.ErrValidation, "end time must not precede start time")
	}

	teacher, err := s.teachers.FindByUserID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "selected teacher has no teacher profile")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher profile")
	}
	if !teacher.TeachesSubject(req.Subject) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("selected teacher does not teach %s", req.Subject))
	}
	if !teacher.TeachesClass(req.ClassLabel) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("selected teacher is not assigned to %s", req.ClassLabel))
	}
	return nil
}

func (s *ExtraClassService) audit(ctx context.Context, actor *models.JWTClaims, action, resourceID string) {
	log := &models.AuditLog{
		Action:     action,
		Resource:   "extra_classes",
		ResourceID: &resourceID,
	}
	if actor != nil {
		log.UserID = &actor.UserID
	}
	if err := s.auditor.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
