package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/edusetu/tuition-admin-api/internal/models"
	appErrors "github.com/edusetu/tuition-admin-api/pkg/errors"
)

type feeStructureRepository interface {
	List(ctx context.Context) ([]models.FeeStructure, error)
	FindByID(ctx context.Context, id string) (*models.FeeStructure, error)
}

// FeeService serves the fee structure catalogue.
type FeeService struct {
	fees feeStructureRepository
}

// NewFeeService constructs a FeeService.
func NewFeeService(fees feeStructureRepository) *FeeService {
	return &FeeService{fees: fees}
}

// List returns the active fee structures ordered by name.
func (s *FeeService) List(ctx context.Context) ([]models.FeeStructure, error) {
	structures, err := s.fees.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee structures")
	}
	return structures, nil
}

// Get fetches a single fee structure.
func (s *FeeService) Get(ctx context.Context, id string) (*models.FeeStructure, error) {
	structure, err := s.fees.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee structure not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch fee structure")
	}
	return structure, nil
}
