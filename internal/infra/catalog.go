package infra

import (
	"fmt"
	"os"

	"dreamscape/internal/catalog"
)

// LoadCatalog returns the catalog referenced by CATALOG_PATH, or the built-in
// production catalog when no path is configured.
func LoadCatalog(cfg *Config) (*catalog.Catalog, error) {
	if cfg == nil || cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	f, err := os.Open(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	c, err := catalog.LoadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", cfg.CatalogPath, err)
	}
	return c, nil
}
