// Package store opens the catalog backend selected by configuration.
package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-farmstand/internal/config"
	"github.com/tbourn/go-farmstand/internal/domain"
	"github.com/tbourn/go-farmstand/internal/mongostore"
	"github.com/tbourn/go-farmstand/internal/repo"
)

// Catalog is the storage collaborator shared by every backend. Creates and
// saves validate the record and fail with *domain.ValidationError; reads of
// missing ids fail with domain.ErrNotFound.
type Catalog interface {
	ListProducts(ctx context.Context, category string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	SaveProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error

	ListFarms(ctx context.Context) ([]domain.Farm, error)
	GetFarm(ctx context.Context, id string) (*domain.Farm, error)
	CreateFarm(ctx context.Context, f *domain.Farm) error
	AttachProduct(ctx context.Context, farmID, productID string) error
	DeleteFarm(ctx context.Context, id string) error

	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	_ Catalog = (*repo.Store)(nil)
	_ Catalog = (*mongostore.Store)(nil)
)

// Open connects to the configured backend. Relational backends are migrated
// and instrumented before they are returned.
func Open(ctx context.Context, cfg config.StorageConfig) (Catalog, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		db, err := repo.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %q: %w", cfg.DBPath, err)
		}
		return prepare(db)
	case config.DriverPostgres:
		db, err := repo.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return prepare(db)
	case config.DriverMongo:
		s, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func prepare(db *gorm.DB) (Catalog, error) {
	s := repo.NewStore(db)
	if err := repo.AutoMigrate(db); err != nil {
		_ = s.Close(context.Background())
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := repo.Instrument(db); err != nil {
		_ = s.Close(context.Background())
		return nil, fmt.Errorf("instrument: %w", err)
	}
	return s, nil
}
