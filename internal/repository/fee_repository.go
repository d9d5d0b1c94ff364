package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/edusetu/tuition-admin-api/internal/models"
)

// FeeRepository reads fee structure templates.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs a FeeRepository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// List returns all active fee structures ordered by name.
func (r *FeeRepository) List(ctx context.Context) ([]models.FeeStructure, error) {
	const query = `SELECT id, name, amount, billing_cycle, active, created_at, updated_at FROM fee_structures WHERE active = TRUE ORDER BY name ASC`
	var structures []models.FeeStructure
	if err := r.db.SelectContext(ctx, &structures, query); err != nil {
		return nil, fmt.Errorf("list fee structures: %w", err)
	}
	return structures, nil
}

// FindByID fetches a fee structure by identifier.
func (r *FeeRepository) FindByID(ctx context.Context, id string) (*models.FeeStructure, error) {
	const query = `SELECT id, name, amount, billing_cycle, active, created_at, updated_at FROM fee_structures WHERE id = $1 LIMIT 1`
	var structure models.FeeStructure
	if err := r.db.GetContext(ctx, &structure, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find fee structure: %w", err)
	}
	return &structure, nil
}
