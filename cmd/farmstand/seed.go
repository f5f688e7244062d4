package main

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tbourn/go-farmstand/internal/domain"
	"github.com/tbourn/go-farmstand/internal/services"
	"github.com/tbourn/go-farmstand/internal/store"
)

//go:embed seed.yaml
var defaultSeed []byte

// SeedData is the YAML document accepted by the seed command.
type SeedData struct {
	Farms    []SeedFarm    `yaml:"farms"`
	Products []SeedProduct `yaml:"products"`
}

// SeedFarm is a farm and the products it supplies.
type SeedFarm struct {
	Name     string        `yaml:"name"`
	City     string        `yaml:"city"`
	Email    string        `yaml:"email"`
	Products []SeedProduct `yaml:"products"`
}

// SeedProduct is a catalog product.
type SeedProduct struct {
	Name     string  `yaml:"name"`
	Price    float64 `yaml:"price"`
	Category string  `yaml:"category"`
}

func (p SeedProduct) input() domain.ProductInput {
	return domain.ProductInput{
		Name:     p.Name,
		Price:    json.Number(strconv.FormatFloat(p.Price, 'f', -1, 64)),
		Category: p.Category,
	}
}

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the catalog with the contents of a seed file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path, err := cmd.Flags().GetString("file")
			if err != nil {
				return fmt.Errorf("failed to get file flag: %w", err)
			}
			data, err := loadSeed(path)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			catalog, err := store.Open(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer func() { _ = catalog.Close(context.Background()) }()

			farms, products, err := applySeed(ctx, catalog, data)
			if err != nil {
				return err
			}
			log.Info().Int("farms", farms).Int("products", products).Str("driver", cfg.Storage.Driver).Msg("catalog seeded")
			return nil
		},
	}
	cmd.Flags().StringP("file", "f", "", "YAML seed file (built-in sample catalog when empty)")
	return cmd
}

// loadSeed reads and strictly decodes a seed file. An empty path selects the
// built-in catalog.
func loadSeed(path string) (*SeedData, error) {
	raw := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
		raw = b
	}
	return decodeSeed(bytes.NewReader(raw))
}

func decodeSeed(r io.Reader) (*SeedData, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var data SeedData
	if err := dec.Decode(&data); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &data, nil
}

// applySeed empties the catalog and recreates it from data through the
// services, so every record passes the same validation as a form post.
func applySeed(ctx context.Context, catalog store.Catalog, data *SeedData) (farms, products int, err error) {
	if err := catalog.Reset(ctx); err != nil {
		return 0, 0, fmt.Errorf("reset catalog: %w", err)
	}
	farmSvc := services.NewFarmService(catalog)
	productSvc := services.NewProductService(catalog)

	for _, sf := range data.Farms {
		f, err := farmSvc.Create(ctx, domain.FarmInput{Name: sf.Name, City: sf.City, Email: sf.Email})
		if err != nil {
			return farms, products, fmt.Errorf("farm %q: %w", sf.Name, err)
		}
		farms++
		for _, sp := range sf.Products {
			if _, err := farmSvc.AddProduct(ctx, f.ID, sp.input()); err != nil {
				return farms, products, fmt.Errorf("farm %q product %q: %w", sf.Name, sp.Name, err)
			}
			products++
		}
	}
	for _, sp := range data.Products {
		if _, err := productSvc.Create(ctx, sp.input()); err != nil {
			return farms, products, fmt.Errorf("product %q: %w", sp.Name, err)
		}
		products++
	}
	return farms, products, nil
}
