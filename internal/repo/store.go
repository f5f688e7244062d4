package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-farmstand/internal/domain"
)

// Store binds the repository functions to a single GORM handle so the
// services package can depend on method sets rather than on *gorm.DB.
type Store struct {
	DB *gorm.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB) *Store { return &Store{DB: db} }

// ListProducts proxies ListProducts.
func (s *Store) ListProducts(ctx context.Context, category string) ([]domain.Product, error) {
	return ListProducts(ctx, s.DB, category)
}

// GetProduct proxies GetProduct.
func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return GetProduct(ctx, s.DB, id)
}

// CreateProduct proxies CreateProduct.
func (s *Store) CreateProduct(ctx context.Context, p *domain.Product) error {
	return CreateProduct(ctx, s.DB, p)
}

// SaveProduct proxies SaveProduct.
func (s *Store) SaveProduct(ctx context.Context, p *domain.Product) error {
	return SaveProduct(ctx, s.DB, p)
}

// DeleteProduct proxies DeleteProduct.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return DeleteProduct(ctx, s.DB, id)
}

// ListFarms proxies ListFarms.
func (s *Store) ListFarms(ctx context.Context) ([]domain.Farm, error) {
	return ListFarms(ctx, s.DB)
}

// GetFarm proxies GetFarm.
func (s *Store) GetFarm(ctx context.Context, id string) (*domain.Farm, error) {
	return GetFarm(ctx, s.DB, id)
}

// CreateFarm proxies CreateFarm.
func (s *Store) CreateFarm(ctx context.Context, f *domain.Farm) error {
	return CreateFarm(ctx, s.DB, f)
}

// AttachProduct proxies AttachProduct.
func (s *Store) AttachProduct(ctx context.Context, farmID, productID string) error {
	return AttachProduct(ctx, s.DB, farmID, productID)
}

// DeleteFarm proxies DeleteFarm.
func (s *Store) DeleteFarm(ctx context.Context, id string) error {
	return DeleteFarm(ctx, s.DB, id)
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *Store) Close(context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Reset deletes every product and farm.
func (s *Store) Reset(ctx context.Context) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.Product{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.Farm{}).Error
	})
}
