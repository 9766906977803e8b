package catalog_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"voice-cart/internal/catalog"
	"voice-cart/internal/domain"
)

func TestDefault_Find(t *testing.T) {
	c := catalog.Default()

	tests := []struct {
		query  string
		want   string
		wantOK bool
	}{
		{"Potato", "Potato", true},
		{"potato ", "Potato", true},
		{"  ORANGE JUICE", "Orange juice", true},
		{"orange", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p, ok := c.Find(tt.query)
			if ok != tt.wantOK {
				t.Fatalf("Find(%q) ok: got %v, want %v", tt.query, ok, tt.wantOK)
			}
			if p.Name != tt.want {
				t.Errorf("Find(%q): got %q, want %q", tt.query, p.Name, tt.want)
			}
		})
	}
}

func TestDefault_Names(t *testing.T) {
	names := catalog.Default().Names()
	if len(names) != 6 {
		t.Fatalf("expected 6 products, got %d", len(names))
	}
	if names[0] != "Potato" || names[5] != "Orange juice" {
		t.Errorf("unexpected order: %v", names)
	}
}

func TestProducts_ReturnsCopy(t *testing.T) {
	c := catalog.Default()
	products := c.Products()
	products[0].Name = "Carrot"

	if _, ok := c.Find("Potato"); !ok {
		t.Error("mutating the returned slice changed the catalog")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	content := `products:
  - id: "7"
    name: Apple
    primary_unit: kg
    min_quantity: 1
    max_quantity: 3
    quantity_step: 0.5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing catalog: %v", err)
	}

	c, err := catalog.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}

	p, ok := c.Find("apple")
	if !ok {
		t.Fatal("Apple not found")
	}
	if p.PrimaryUnit != domain.UnitKilogram || p.QuantityStep != 0.5 {
		t.Errorf("unexpected product: %+v", p)
	}
	if _, ok := c.Find("Potato"); ok {
		t.Error("file catalog should replace the built-in list")
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"empty", "products: []\n"},
		{"bad unit", "products:\n  - name: Apple\n    primary_unit: bushel\n"},
		{"duplicate", "products:\n  - name: Apple\n    primary_unit: kg\n  - name: apple\n    primary_unit: kg\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("writing catalog: %v", err)
			}
			if _, err := catalog.LoadFile(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFile_EmptyPathUsesBuiltin(t *testing.T) {
	c, err := catalog.LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if _, ok := c.Find("Milk"); !ok {
		t.Error("expected built-in catalog")
	}
}

func TestProduct_CheckQuantity(t *testing.T) {
	potato, _ := catalog.Default().Find("Potato")

	tests := []struct {
		qty     float64
		wantErr error
	}{
		{0.5, nil},
		{2.75, nil},
		{5, nil},
		{0.25, domain.ErrQuantityOutOfRange},
		{6, domain.ErrQuantityOutOfRange},
		{1.1, domain.ErrQuantityStep},
	}

	for _, tt := range tests {
		err := potato.CheckQuantity(tt.qty)
		if tt.wantErr == nil && err != nil {
			t.Errorf("CheckQuantity(%v): unexpected error %v", tt.qty, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("CheckQuantity(%v): got %v, want %v", tt.qty, err, tt.wantErr)
		}
	}
}
