package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"scene-service/internal/models"
)

// ErrNotFound is returned by Get when no record exists for the id.
var ErrNotFound = errors.New("placed model not found")

// PlacedModelRepository is the keyed document store holding one record per
// placed model.
type PlacedModelRepository interface {
	Get(ctx context.Context, id string) (*models.PlacedModel, error)
	// Set inserts or replaces the record stored under m.ID.
	Set(ctx context.Context, m *models.PlacedModel) error
	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]models.PlacedModel, error)
}

// PlacedModelRepositoryImpl stores placed models in PostgreSQL through GORM.
type PlacedModelRepositoryImpl struct {
	db *gorm.DB
}

// NewPlacedModelRepository creates a new PlacedModelRepositoryImpl with the provided GORM database connection.
func NewPlacedModelRepository(db *gorm.DB) *PlacedModelRepositoryImpl {
	return &PlacedModelRepositoryImpl{db: db}
}

// Get retrieves a PlacedModel by its ID from the database.
func (r *PlacedModelRepositoryImpl) Get(ctx context.Context, id string) (*models.PlacedModel, error) {
	var m models.PlacedModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading placed model %s failed", id)
	}
	return &m, nil
}

// Set upserts a PlacedModel: all columns are overwritten when the ID exists.
func (r *PlacedModelRepositoryImpl) Set(ctx context.Context, m *models.PlacedModel) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(m).Error
	return errors.Wrapf(err, "saving placed model %s failed", m.ID)
}

// Delete deletes a PlacedModel by its ID from the database.
func (r *PlacedModelRepositoryImpl) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Delete(&models.PlacedModel{}, "id = ?", id).Error
	return errors.Wrapf(err, "deleting placed model %s failed", id)
}

// ListAll retrieves all PlacedModels ordered by ID.
func (r *PlacedModelRepositoryImpl) ListAll(ctx context.Context) ([]models.PlacedModel, error) {
	var list []models.PlacedModel
	err := r.db.WithContext(ctx).Order("id").Find(&list).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing placed models failed")
	}
	return list, nil
}
