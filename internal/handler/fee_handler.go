package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusetu/tuition-admin-api/internal/service"
	"github.com/edusetu/tuition-admin-api/pkg/response"
)

// FeeHandler exposes the fee structure catalogue.
type FeeHandler struct {
	service *service.FeeService
}

// NewFeeHandler creates a new handler.
func NewFeeHandler(svc *service.FeeService) *FeeHandler {
	return &FeeHandler{service: svc}
}

// ListStructures returns all active fee structures.
func (h *FeeHandler) ListStructures(c *gin.Context) {
	structures, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, structures, nil)
}

// GetStructure returns a single fee structure.
func (h *FeeHandler) GetStructure(c *gin.Context) {
	structure, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, structure, nil)
}
