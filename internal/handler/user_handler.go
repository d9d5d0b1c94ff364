package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusetu/tuition-admin-api/internal/middleware"
	"github.com/edusetu/tuition-admin-api/internal/service"
	appErrors "github.com/edusetu/tuition-admin-api/pkg/errors"
	"github.com/edusetu/tuition-admin-api/pkg/response"
)

// UserHandler exposes the user-management console endpoints.
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler creates a new handler.
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{service: svc}
}

// ListDemoUsers serves the demo-user collection.
func (h *UserHandler) ListDemoUsers(c *gin.Context) {
	users, hit, err := h.service.ListDemoUsers(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, users, nil, middleware.ExtractMeta(c))
}

// ListStudents serves the permanent-student collection.
func (h *UserHandler) ListStudents(c *gin.Context) {
	students, hit, err := h.service.ListStudents(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, students, nil, middleware.ExtractMeta(c))
}

// ListTeachers serves the teacher collection.
func (h *UserHandler) ListTeachers(c *gin.Context) {
	teachers, hit, err := h.service.ListTeachers(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, teachers, nil, middleware.ExtractMeta(c))
}

// ListAdminStaff serves the admin/support-staff collection.
func (h *UserHandler) ListAdminStaff(c *gin.Context) {
	staff, hit, err := h.service.ListAdminStaff(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, staff, nil, middleware.ExtractMeta(c))
}

// ListInactiveUsers serves the deactivated-account collection.
func (h *UserHandler) ListInactiveUsers(c *gin.Context) {
	users, hit, err := h.service.ListInactiveUsers(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, users, nil, middleware.ExtractMeta(c))
}

// GetProfile returns the edit projection for a user.
func (h *UserHandler) GetProfile(c *gin.Context) {
	editable, err := h.service.BuildEditable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, editable, nil)
}

// UpdateProfile applies an edit submission: base identity fields plus the
// role-matching payload.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}

	editable, err := h.service.UpdateProfile(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, editable, nil)
}

// Deactivate moves an account to the inactive collection.
func (h *UserHandler) Deactivate(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reactivate restores a deactivated account.
func (h *UserHandler) Reactivate(c *gin.Context) {
	if err := h.service.Reactivate(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Upgrade promotes a demo account to the permanent plan.
func (h *UserHandler) Upgrade(c *gin.Context) {
	if err := h.service.Upgrade(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
