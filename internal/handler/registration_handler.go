package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusetu/tuition-admin-api/internal/models"
	"github.com/edusetu/tuition-admin-api/internal/service"
	appErrors "github.com/edusetu/tuition-admin-api/pkg/errors"
	"github.com/edusetu/tuition-admin-api/pkg/response"
)

// RegistrationHandler exposes the signup wizard endpoints.
type RegistrationHandler struct {
	service *service.RegistrationService
}

// NewRegistrationHandler creates a new handler.
func NewRegistrationHandler(svc *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// BasicInfo submits the first wizard step and triggers OTP dispatch.
func (h *RegistrationHandler) BasicInfo(c *gin.Context) {
	var req service.BasicInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	state, err := h.service.SubmitBasicInfo(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, state, nil)
}

// GenerateOTP (re)issues a verification code for an in-flight draft.
func (h *RegistrationHandler) GenerateOTP(c *gin.Context) {
	var req models.GenerateOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid otp payload"))
		return
	}

	if err := h.service.ResendOTP(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"sent": true}, nil)
}

// VerifyOTP checks the code and advances the wizard past verification.
func (h *RegistrationHandler) VerifyOTP(c *gin.Context) {
	var req models.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid otp payload"))
		return
	}

	state, err := h.service.VerifyEmail(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, state, nil)
}

// Back moves the wizard one step backwards.
func (h *RegistrationHandler) Back(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "email is required"))
		return
	}

	state, err := h.service.Back(c.Request.Context(), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, state, nil)
}

// Complete submits the final wizard step and creates the account.
func (h *RegistrationHandler) Complete(c *gin.Context) {
	var req service.CompleteRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	user, err := h.service.Complete(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user)
}

// State reports the wizard's current progress for resuming. A logged-in
// caller resumes their own draft without passing the email query.
func (h *RegistrationHandler) State(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		if claims := claimsFromContext(c); claims != nil {
			email = claims.Email
		}
	}
	if email == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "email query parameter is required"))
		return
	}

	state, err := h.service.State(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, state, nil)
}
