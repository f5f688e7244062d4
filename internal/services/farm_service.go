package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-farmstand/internal/domain"
)

// FarmRepo defines the storage contract required by FarmService.
type FarmRepo interface {
	ListFarms(ctx context.Context) ([]domain.Farm, error)
	GetFarm(ctx context.Context, id string) (*domain.Farm, error)
	CreateFarm(ctx context.Context, f *domain.Farm) error
	AttachProduct(ctx context.Context, farmID, productID string) error
	DeleteFarm(ctx context.Context, id string) error
	CreateProduct(ctx context.Context, p *domain.Product) error
}

// FarmService manages farms and the products they supply.
type FarmService struct {
	Repo FarmRepo
}

// NewFarmService constructs a FarmService over r.
func NewFarmService(r FarmRepo) *FarmService {
	return &FarmService{Repo: r}
}

// List returns every farm.
func (s *FarmService) List(ctx context.Context) ([]domain.Farm, error) {
	return s.Repo.ListFarms(ctx)
}

// Get fetches a farm with its products populated.
func (s *FarmService) Get(ctx context.Context, id string) (*domain.Farm, error) {
	f, err := s.Repo.GetFarm(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrFarmNotFound
	}
	return f, err
}

// Create stores a new farm built from in.
func (s *FarmService) Create(ctx context.Context, in domain.FarmInput) (*domain.Farm, error) {
	f := &domain.Farm{}
	in.Apply(f)
	if err := s.Repo.CreateFarm(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Delete removes a farm together with its products. Deleting an absent id
// succeeds.
func (s *FarmService) Delete(ctx context.Context, id string) error {
	return s.Repo.DeleteFarm(ctx, id)
}

// AddProduct creates a product owned by the farm and appends it to the farm's
// collection. These are two separate writes: if the second fails the product
// stays stored with its farm reference and the error is returned.
func (s *FarmService) AddProduct(ctx context.Context, farmID string, in domain.ProductInput) (_ *domain.Product, err error) {
	tr := otel.Tracer("services/FarmService")
	ctx, span := tr.Start(ctx, "AddProduct",
		trace.WithAttributes(attribute.String("farm.id", farmID)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	f, err := s.Get(ctx, farmID)
	if err != nil {
		return nil, err
	}
	p := &domain.Product{FarmID: &f.ID}
	if err := in.Apply(p); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("product.id", p.ID))

	if err := s.Repo.AttachProduct(ctx, f.ID, p.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrFarmNotFound
		}
		return nil, err
	}
	return p, nil
}
