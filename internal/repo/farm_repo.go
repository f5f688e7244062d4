package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-farmstand/internal/domain"
)

// ListFarms returns all farms in insertion order, without their products.
func ListFarms(ctx context.Context, db *gorm.DB) ([]domain.Farm, error) {
	var out []domain.Farm
	err := db.WithContext(ctx).Order("created_at asc, id asc").Find(&out).Error
	return out, err
}

// GetFarm fetches a farm by id with its products populated.
func GetFarm(ctx context.Context, db *gorm.DB, id string) (*domain.Farm, error) {
	var f domain.Farm
	err := db.WithContext(ctx).
		Preload("Products", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at asc, id asc") }).
		Where("id = ?", id).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateFarm inserts f, assigning a fresh object id when f has none.
func CreateFarm(ctx context.Context, db *gorm.DB, f *domain.Farm) error {
	if f.ID == "" {
		f.ID = domain.NewID()
	}
	return db.WithContext(ctx).Omit(clause.Associations).Create(f).Error
}

// AttachProduct adds productID to the farm's product collection. In the
// relational schema the collection is the products.farm_id column, so this
// writes that column without running model hooks.
func AttachProduct(ctx context.Context, db *gorm.DB, farmID, productID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", productID).
		UpdateColumn("farm_id", farmID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFarm removes a farm and every product that belongs to it in one
// transaction. Deleting an absent id is not an error.
func DeleteFarm(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("farm_id = ?", id).Delete(&domain.Product{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Farm{}).Error
	})
}
