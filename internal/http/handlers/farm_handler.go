package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-farmstand/internal/domain"
	"github.com/tbourn/go-farmstand/internal/web"
)

// ListFarms handles GET /farms.
func (h *Handlers) ListFarms(c *gin.Context) error {
	farms, err := h.farms.List(c.Request.Context())
	if err != nil {
		return err
	}
	render(c, web.FarmsIndex, "Farms", gin.H{"Farms": farms})
	return nil
}

// NewFarm handles GET /farms/new.
func (h *Handlers) NewFarm(c *gin.Context) error {
	render(c, web.FarmsNew, "New Farm", nil)
	return nil
}

// CreateFarm handles POST /farms.
func (h *Handlers) CreateFarm(c *gin.Context) error {
	var in domain.FarmInput
	if err := bind(c, &in); err != nil {
		return err
	}
	f, err := h.farms.Create(c.Request.Context(), in)
	if err != nil {
		return err
	}
	redirect(c, "/farms/"+f.ID)
	return nil
}

// ShowFarm handles GET /farms/:id.
func (h *Handlers) ShowFarm(c *gin.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	f, err := h.farms.Get(c.Request.Context(), id)
	if err != nil {
		return toDomain(err)
	}
	render(c, web.FarmsShow, f.Name, gin.H{"Farm": f})
	return nil
}

// DeleteFarm handles DELETE /farms/:id and removes the farm's products too.
func (h *Handlers) DeleteFarm(c *gin.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.farms.Delete(c.Request.Context(), id); err != nil {
		return err
	}
	redirect(c, "/farms")
	return nil
}

// NewFarmProduct handles GET /farms/:id/products/new.
func (h *Handlers) NewFarmProduct(c *gin.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	f, err := h.farms.Get(c.Request.Context(), id)
	if err != nil {
		return toDomain(err)
	}
	render(c, web.FarmProductsNew, "New Product", gin.H{
		"Farm":       f,
		"Product":    &domain.Product{},
		"Categories": domain.Categories,
	})
	return nil
}

// CreateFarmProduct handles POST /farms/:id/products.
func (h *Handlers) CreateFarmProduct(c *gin.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in domain.ProductInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if _, err := h.farms.AddProduct(c.Request.Context(), id, in); err != nil {
		return toDomain(err)
	}
	redirect(c, "/farms/"+id)
	return nil
}
