// Package repo implements the relational storage backend for products and
// farms, backed by GORM. This file provides repository functions for the
// Product model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They keep
// to persistence and query composition; rules live in the services package.
//
// Error semantics:
//   - A missing product is reported as domain.ErrNotFound.
//   - Schema violations surface as *domain.ValidationError from the model's
//     BeforeSave hook, unchanged.
//   - Other DB errors are propagated raw.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-farmstand/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist. It aliases
// domain.ErrNotFound so callers need not know which backend is in use.
var ErrNotFound = domain.ErrNotFound

// ListProducts returns products in insertion order. An empty category matches
// every product; otherwise only products in that category are returned.
func ListProducts(ctx context.Context, db *gorm.DB, category string) ([]domain.Product, error) {
	q := db.WithContext(ctx).Order("created_at asc, id asc")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var out []domain.Product
	err := q.Find(&out).Error
	return out, err
}

// GetProduct fetches a product by id with its farm populated.
func GetProduct(ctx context.Context, db *gorm.DB, id string) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).
		Preload("Farm").
		Where("id = ?", id).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts p, assigning a fresh object id when p has none.
// Associations are never written through a product.
func CreateProduct(ctx context.Context, db *gorm.DB, p *domain.Product) error {
	if p.ID == "" {
		p.ID = domain.NewID()
	}
	return db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

// SaveProduct writes every column of an existing product. Validation re-runs
// on the full record before the write.
func SaveProduct(ctx context.Context, db *gorm.DB, p *domain.Product) error {
	return db.WithContext(ctx).Omit(clause.Associations).Save(p).Error
}

// DeleteProduct removes a product by id. Deleting an absent id is not an error.
func DeleteProduct(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{}).Error
}
