// Package domain defines the catalog models (products and the farms that sell
// them), the application error type, and the schema rules both storage
// backends enforce before writing a record.
package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Categories lists the product categories accepted by the Product schema, in
// the order forms present them.
var Categories = []string{"fruit", "vegetable", "dairy"}

// Product is a catalog item. A product may belong to a farm; Farm is only
// populated on reads.
type Product struct {
	ID        string    `json:"id"                gorm:"type:char(24);primaryKey"`
	Name      string    `json:"name"              gorm:"type:varchar(255);not null"          validate:"required,max=255"`
	Price     float64   `json:"price"             gorm:"not null;default:0"                  validate:"gte=0"`
	Category  string    `json:"category"          gorm:"type:varchar(16);not null;index"     validate:"required,oneof=fruit vegetable dairy"`
	FarmID    *string   `json:"farm_id,omitempty" gorm:"type:char(24);index"`
	Farm      *Farm     `json:"farm,omitempty"    gorm:"foreignKey:FarmID;references:ID"     validate:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// Validate checks the Product schema constraints.
func (p *Product) Validate() error { return validateStruct("Product", p) }

// BeforeSave runs schema validation on every GORM create and save.
func (p *Product) BeforeSave(*gorm.DB) error { return p.Validate() }

// Farm is a producer that owns a collection of products. Deleting a farm
// deletes its products.
type Farm struct {
	ID        string    `json:"id"         gorm:"type:char(24);primaryKey"`
	Name      string    `json:"name"       gorm:"type:varchar(255);not null" validate:"required,max=255"`
	City      string    `json:"city"       gorm:"type:varchar(255)"          validate:"max=255"`
	Email     string    `json:"email"      gorm:"type:varchar(255);not null" validate:"required,email"`
	Products  []Product `json:"products"   gorm:"foreignKey:FarmID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" validate:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Farm.
func (Farm) TableName() string { return "farms" }

// Validate checks the Farm schema constraints.
func (f *Farm) Validate() error { return validateStruct("Farm", f) }

// BeforeSave runs schema validation on every GORM create and save.
func (f *Farm) BeforeSave(*gorm.DB) error { return f.Validate() }

// ProductInput is the raw form submission for creating or editing a product.
// Price accepts both JSON numbers and form strings.
type ProductInput struct {
	Name     string      `form:"name"     json:"name"`
	Price    json.Number `form:"price"    json:"price"`
	Category string      `form:"category" json:"category"`
}

// Apply casts the input onto p. A price that cannot be read as a number is
// reported as a ValidationError, the same failure kind as a schema violation.
func (in ProductInput) Apply(p *Product) error {
	raw := strings.TrimSpace(in.Price.String())
	if raw == "" {
		return &ValidationError{Entity: "Product", Fields: []FieldError{{Field: "price", Reason: "is required"}}}
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return &ValidationError{Entity: "Product", Fields: []FieldError{{Field: "price", Reason: "must be a number"}}}
	}
	p.Name = strings.TrimSpace(in.Name)
	p.Price = price
	p.Category = strings.ToLower(strings.TrimSpace(in.Category))
	return nil
}

// FarmInput is the raw form submission for creating a farm.
type FarmInput struct {
	Name  string `form:"name"  json:"name"`
	City  string `form:"city"  json:"city"`
	Email string `form:"email" json:"email"`
}

// Apply copies the trimmed input onto f.
func (in FarmInput) Apply(f *Farm) {
	f.Name = strings.TrimSpace(in.Name)
	f.City = strings.TrimSpace(in.City)
	f.Email = strings.TrimSpace(in.Email)
}
