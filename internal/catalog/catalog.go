// Package catalog holds the fixed set of purchasable products.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"voice-cart/internal/domain"
)

type Catalog struct {
	products []domain.Product
	index    map[string]*domain.Product
}

func New(products []domain.Product) *Catalog {
	c := &Catalog{
		products: make([]domain.Product, len(products)),
		index:    make(map[string]*domain.Product, len(products)),
	}
	copy(c.products, products)

	for i := range c.products {
		c.index[normalize(c.products[i].Name)] = &c.products[i]
	}

	return c
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return New(builtin)
}

type fileFormat struct {
	Products []domain.Product `yaml:"products"`
}

// LoadFile reads a YAML catalog. An empty path yields the built-in catalog.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	if len(f.Products) == 0 {
		return nil, fmt.Errorf("catalog %s has no products", path)
	}

	seen := make(map[string]bool, len(f.Products))
	for _, p := range f.Products {
		key := normalize(p.Name)
		if key == "" {
			return nil, fmt.Errorf("catalog %s: product %q has no name", path, p.ID)
		}
		if seen[key] {
			return nil, fmt.Errorf("catalog %s: duplicate product %q", path, p.Name)
		}
		if !p.PrimaryUnit.Valid() {
			return nil, fmt.Errorf("catalog %s: product %q has unknown unit %q", path, p.Name, p.PrimaryUnit)
		}
		seen[key] = true
	}

	return New(f.Products), nil
}

// Find looks a product up by display name, ignoring case and surrounding space.
func (c *Catalog) Find(name string) (domain.Product, bool) {
	p, ok := c.index[normalize(name)]
	if !ok {
		return domain.Product{}, false
	}
	return *p, true
}

func (c *Catalog) Products() []domain.Product {
	result := make([]domain.Product, len(c.products))
	copy(result, c.products)
	return result
}

func (c *Catalog) Names() []string {
	names := make([]string, len(c.products))
	for i, p := range c.products {
		names[i] = p.Name
	}
	return names
}

func (c *Catalog) Summary() string {
	var sb strings.Builder
	sb.WriteString("## Available products:\n")
	for _, p := range c.products {
		sb.WriteString(fmt.Sprintf("- %s (unit: %s, %v to %v)\n", p.Name, p.PrimaryUnit, p.MinQuantity, p.MaxQuantity))
	}
	return sb.String()
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
