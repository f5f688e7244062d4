package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-farmstand/internal/config"
	"github.com/tbourn/go-farmstand/internal/domain"
	"github.com/tbourn/go-farmstand/internal/store"
)

func openTestCatalog(t *testing.T, path string) store.Catalog {
	t.Helper()
	catalog, err := store.Open(context.Background(), config.StorageConfig{
		Driver: config.DriverSQLite,
		DBPath: path,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = catalog.Close(context.Background()) })
	return catalog
}

func TestLoadSeed_BuiltIn(t *testing.T) {
	data, err := loadSeed("")
	require.NoError(t, err)
	require.Len(t, data.Farms, 1)
	assert.Len(t, data.Farms[0].Products, 2)
	assert.Len(t, data.Products, 3)
	for _, p := range data.Products {
		assert.Contains(t, domain.Categories, p.Category)
	}
}

func TestLoadSeed_FileAndStrictFields(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("products:\n  - name: Kale\n    price: 2.5\n    category: vegetable\n"), 0o600))
	data, err := loadSeed(good)
	require.NoError(t, err)
	require.Len(t, data.Products, 1)
	assert.Equal(t, "2.5", data.Products[0].input().Price.String())

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("products:\n  - name: Kale\n    colour: green\n"), 0o600))
	_, err = loadSeed(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse seed file")

	_, err = loadSeed(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDecodeSeed_EmptyDocument(t *testing.T) {
	data, err := decodeSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, data.Farms)
	assert.Empty(t, data.Products)
}

func TestApplySeed_ReplacesCatalog(t *testing.T) {
	ctx := context.Background()
	catalog := openTestCatalog(t, filepath.Join(t.TempDir(), "seed.db"))

	require.NoError(t, catalog.CreateProduct(ctx, &domain.Product{Name: "Stale", Price: 1, Category: "fruit"}))

	data, err := loadSeed("")
	require.NoError(t, err)
	farms, products, err := applySeed(ctx, catalog, data)
	require.NoError(t, err)
	assert.Equal(t, 1, farms)
	assert.Equal(t, 5, products)

	all, err := catalog.ListProducts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)
	for _, p := range all {
		assert.NotEqual(t, "Stale", p.Name)
	}

	fs, err := catalog.ListFarms(ctx)
	require.NoError(t, err)
	require.Len(t, fs, 1)
	farm, err := catalog.GetFarm(ctx, fs[0].ID)
	require.NoError(t, err)
	assert.Len(t, farm.Products, 2)
}

func TestApplySeed_InvalidRecordStops(t *testing.T) {
	ctx := context.Background()
	catalog := openTestCatalog(t, filepath.Join(t.TempDir(), "seed.db"))

	_, products, err := applySeed(ctx, catalog, &SeedData{Products: []SeedProduct{
		{Name: "Apple", Price: 1, Category: "fruit"},
		{Name: "Steak", Price: 9, Category: "meat"},
	}})
	require.Error(t, err)
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, 1, products)
}

func TestSeedCommand_UsesEnvironment(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cmd.db")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("DB_PATH", dbPath)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"seed", "--env-file", filepath.Join(t.TempDir(), "absent.env")})
	require.NoError(t, cmd.Execute())

	catalog := openTestCatalog(t, dbPath)
	all, err := catalog.ListProducts(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestSeedCommand_BadDriverFlag(t *testing.T) {
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "cmd.db"))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"seed", "--driver", "oracle"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
}
