package services

import (
	"context"
	"errors"
	"strings"

	"github.com/tbourn/go-farmstand/internal/domain"
)

// AllCategories is the listing label used when no category filter is given.
const AllCategories = "All"

// ProductRepo defines the storage contract required by ProductService.
type ProductRepo interface {
	ListProducts(ctx context.Context, category string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	SaveProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// ProductService provides catalog operations on products.
type ProductService struct {
	Repo ProductRepo
}

// NewProductService constructs a ProductService over r.
func NewProductService(r ProductRepo) *ProductService {
	return &ProductService{Repo: r}
}

// List returns the products in category, or every product when category is
// blank. The second result is the label the listing is shown under.
func (s *ProductService) List(ctx context.Context, category string) ([]domain.Product, string, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	label := category
	if category == "" {
		label = AllCategories
	}
	items, err := s.Repo.ListProducts(ctx, category)
	if err != nil {
		return nil, "", err
	}
	return items, label, nil
}

// Get fetches a product with its farm populated.
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// Create casts in into a new product and stores it.
func (s *ProductService) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	p := &domain.Product{}
	if err := in.Apply(p); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update merges in onto the stored product and saves the result. The merged
// record is validated again by the store.
func (s *ProductService) Update(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.Apply(p); err != nil {
		return nil, err
	}
	p.Farm = nil
	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// Delete removes a product. Deleting an absent id succeeds.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	return s.Repo.DeleteProduct(ctx, id)
}
