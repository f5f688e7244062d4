package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-farmstand/internal/domain"
	"github.com/tbourn/go-farmstand/internal/web"
)

// ProductService defines the product operations consumed by the handlers.
type ProductService interface {
	List(ctx context.Context, category string) ([]domain.Product, string, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

// FarmService defines the farm operations consumed by the handlers.
type FarmService interface {
	List(ctx context.Context) ([]domain.Farm, error)
	Get(ctx context.Context, id string) (*domain.Farm, error)
	Create(ctx context.Context, in domain.FarmInput) (*domain.Farm, error)
	Delete(ctx context.Context, id string) error
	AddProduct(ctx context.Context, farmID string, in domain.ProductInput) (*domain.Product, error)
}

// Handlers groups the product and farm pages.
type Handlers struct {
	products ProductService
	farms    FarmService
}

// New constructs Handlers bound to the given services.
func New(products ProductService, farms FarmService) *Handlers {
	return &Handlers{products: products, farms: farms}
}

// ListProducts handles GET /products?category=.
func (h *Handlers) ListProducts(c *gin.Context) error {
	items, label, err := h.products.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		return err
	}
	render(c, web.ProductsIndex, "Products", gin.H{"Products": items, "Category": label})
	return nil
}

// NewProduct handles GET /products/new.
func (h *Handlers) NewProduct(c *gin.Context) error {
	render(c, web.ProductsNew, "New Product", gin.H{
		"Product":    &domain.Product{},
		"Categories": domain.Categories,
	})
	return nil
}

// CreateProduct handles POST /products.
func (h *Handlers) CreateProduct(c *gin.Context) error {
	var in domain.ProductInput
	if err := bind(c, &in); err != nil {
		return err
	}
	p, err := h.products.Create(c.Request.Context(), in)
	if err != nil {
		return err
	}
	redirect(c, "/products/"+p.ID)
	return nil
}

// ShowProduct handles GET /products/:id.
func (h *Handlers) ShowProduct(c *gin.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		return toDomain(err)
	}
	render(c, web.ProductsShow, p.Name, gin.H{"Product": p})
	return nil
}

// EditProduct handles GET /products/:id/edit.
func (h *Handlers) EditProduct(c *gin.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		return toDomain(err)
	}
	render(c, web.ProductsEdit, "Edit "+p.Name, gin.H{
		"Product":    p,
		"Categories": domain.Categories,
	})
	return nil
}

// UpdateProduct handles PUT /products/:id.
func (h *Handlers) UpdateProduct(c *gin.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in domain.ProductInput
	if err := bind(c, &in); err != nil {
		return err
	}
	p, err := h.products.Update(c.Request.Context(), id, in)
	if err != nil {
		return toDomain(err)
	}
	redirect(c, "/products/"+p.ID)
	return nil
}

// DeleteProduct handles DELETE /products/:id. Deleting an absent product
// still redirects to the listing.
func (h *Handlers) DeleteProduct(c *gin.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		return err
	}
	redirect(c, "/products")
	return nil
}
