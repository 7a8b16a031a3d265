package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/couchcryptid/forecast-ensemble-etl/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the set of locations and forecast models a run covers.
type Catalog struct {
	Locations []domain.Location `yaml:"locations"`
	Models    []domain.Model    `yaml:"models"`
}

// LoadCatalog reads a YAML catalog from path, or the built-in catalog when
// path is empty.
func LoadCatalog(path string) (Catalog, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Catalog{}, fmt.Errorf("read catalog: %w", err)
		}
		data = b
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// Validate checks names, coordinates, and endpoints.
func (c Catalog) Validate() error {
	if len(c.Locations) == 0 {
		return errors.New("catalog: at least one location is required")
	}
	if len(c.Models) == 0 {
		return errors.New("catalog: at least one model is required")
	}

	seen := make(map[string]bool)
	for _, l := range c.Locations {
		if l.Name == "" {
			return errors.New("catalog: location name is required")
		}
		if seen[l.Name] {
			return fmt.Errorf("catalog: duplicate location %q", l.Name)
		}
		seen[l.Name] = true
		if l.Lat < -90 || l.Lat > 90 || l.Lon < -180 || l.Lon > 180 {
			return fmt.Errorf("catalog: location %q has invalid coordinates %.5f,%.5f", l.Name, l.Lat, l.Lon)
		}
	}

	seen = make(map[string]bool)
	for _, m := range c.Models {
		if m.Name == "" {
			return errors.New("catalog: model name is required")
		}
		if seen[m.Name] {
			return fmt.Errorf("catalog: duplicate model %q", m.Name)
		}
		seen[m.Name] = true
		if m.Endpoint == "" {
			return fmt.Errorf("catalog: model %q has no endpoint", m.Name)
		}
	}
	return nil
}
