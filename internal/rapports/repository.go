package rapports

import (
	"context"
	"time"

	"chantier-rapports/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RapportRepository interface {
	Create(ctx context.Context, r *models.Rapport) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Rapport, error)
	FindByDate(ctx context.Context, date string) ([]*models.Rapport, error)
	List(ctx context.Context, filters RapportFilters) ([]*models.Rapport, int64, error)
	Update(ctx context.Context, r *models.Rapport) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	ListDeleted(ctx context.Context, olderThan time.Time) ([]*models.Rapport, error)
	HardDelete(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type RapportFilters struct {
	Chantier string
	Type     string
	Limit    int
	Offset   int
}

type rapportRepository struct {
	db *gorm.DB
}

func NewRapportRepository(db *gorm.DB) RapportRepository {
	return &rapportRepository{db: db}
}

// Create insère la fiche si aucun rapport actif ne dérive le même chemin.
// L'index unique partiel sur path_key tranche les créations concurrentes.
func (r *rapportRepository) Create(ctx context.Context, rapport *models.Rapport) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.Rapport{}).
			Where("path_key = ?", rapport.StoragePathKey()).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyExists
		}

		return translateError(tx.Create(rapport).Error)
	})
}

func (r *rapportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Rapport, error) {
	var rapport models.Rapport
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rapport).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &rapport, nil
}

// FindByDate retourne les rapports actifs d'une date YYYY-MM-DD
func (r *rapportRepository) FindByDate(ctx context.Context, date string) ([]*models.Rapport, error) {
	var rapports []*models.Rapport
	err := r.db.WithContext(ctx).Where("date = ?", date).Find(&rapports).Error
	return rapports, err
}

// List retourne une page de rapports et le nombre total correspondant aux filtres
func (r *rapportRepository) List(ctx context.Context, filters RapportFilters) ([]*models.Rapport, int64, error) {
	var rapports []*models.Rapport
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Rapport{})

	if filters.Chantier != "" {
		query = query.Where("chantier = ?", filters.Chantier)
	}

	if filters.Type != "" {
		query = query.Where("type = ?", filters.Type)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	err := query.Order("date DESC, created_at DESC").Find(&rapports).Error
	return rapports, total, err
}

func (r *rapportRepository) Update(ctx context.Context, rapport *models.Rapport) error {
	return translateError(r.db.WithContext(ctx).Save(rapport).Error)
}

func (r *rapportRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Rapport{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDeleted retourne les rapports supprimés avant olderThan
func (r *rapportRepository) ListDeleted(ctx context.Context, olderThan time.Time) ([]*models.Rapport, error) {
	var rapports []*models.Rapport
	err := r.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", olderThan).
		Find(&rapports).Error
	return rapports, err
}

// HardDelete supprime définitivement des rapports déjà supprimés logiquement
func (r *rapportRepository) HardDelete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).Unscoped().
		Where("id IN ? AND deleted_at IS NOT NULL", ids).
		Delete(&models.Rapport{})

	return result.RowsAffected, result.Error
}
