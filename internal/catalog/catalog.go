// Package catalog holds the storefront's products and their size-based prices.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jacksmith/verso/internal/model"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Roasts accepted in catalog entries and by Filter.
var Roasts = []string{"light", "medium", "dark"}

// FilterAll matches every roast.
const FilterAll = "all"

// NotFoundError indicates a product or size is not in the catalog.
type NotFoundError struct {
	Type string // "product" or "size"
	ID   string // the value that was not found
	Hint string // optional suggestion
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s %s not found", e.Type, e.ID)
	if e.Hint != "" {
		msg += "\n" + e.Hint
	}
	return msg
}

// Entry is one product in the catalog.
type Entry struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Roast       string            `yaml:"roast"`
	Image       string            `yaml:"image,omitempty"`
	Description string            `yaml:"description,omitempty"`
	Prices      map[string]string `yaml:"prices"`

	prices map[string]decimal.Decimal
}

// Catalog is the full product list plus the valid sizes and grinds.
type Catalog struct {
	Sizes    []string `yaml:"sizes"`
	Grinds   []string `yaml:"grinds"`
	Products []Entry  `yaml:"products"`

	byID map[string]int
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

// index validates the catalog and builds lookup tables.
func (c *Catalog) index() error {
	if len(c.Sizes) == 0 {
		return fmt.Errorf("catalog defines no sizes")
	}
	if len(c.Grinds) == 0 {
		return fmt.Errorf("catalog defines no grinds")
	}

	c.byID = make(map[string]int, len(c.Products))
	for i := range c.Products {
		e := &c.Products[i]
		if err := model.ValidateProduct(model.Product{ID: e.ID, Name: e.Name}); err != nil {
			return fmt.Errorf("catalog product %d: %w", i, err)
		}
		if _, dup := c.byID[strings.ToLower(e.ID)]; dup {
			return fmt.Errorf("catalog product %s is listed twice", e.ID)
		}
		if !contains(Roasts, e.Roast) {
			return fmt.Errorf("catalog product %s: unknown roast %q", e.ID, e.Roast)
		}
		if len(e.Prices) == 0 {
			return fmt.Errorf("catalog product %s has no prices", e.ID)
		}

		e.prices = make(map[string]decimal.Decimal, len(e.Prices))
		for size, raw := range e.Prices {
			if !contains(c.Sizes, size) {
				return fmt.Errorf("catalog product %s: unknown size %q", e.ID, size)
			}
			price, err := decimal.NewFromString(raw)
			if err != nil {
				return fmt.Errorf("catalog product %s: invalid %s price %q: %w", e.ID, size, raw, err)
			}
			if price.IsNegative() {
				return fmt.Errorf("catalog product %s: %s price must not be negative", e.ID, size)
			}
			e.prices[size] = price
		}
		c.byID[strings.ToLower(e.ID)] = i
	}
	return nil
}

// Lookup returns the product with the given id.
func (c *Catalog) Lookup(id string) (*Entry, error) {
	i, ok := c.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, &NotFoundError{Type: "product", ID: id, Hint: "Run `verso products` to see the catalog."}
	}
	return &c.Products[i], nil
}

// IDs returns every product id in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.Products))
	for i, e := range c.Products {
		ids[i] = e.ID
	}
	return ids
}

// Filter returns the entries with the given roast. An empty roast or "all"
// returns every entry.
func (c *Catalog) Filter(roast string) ([]Entry, error) {
	roast = strings.ToLower(strings.TrimSpace(roast))
	if roast == "" || roast == FilterAll {
		return append([]Entry(nil), c.Products...), nil
	}
	if !contains(Roasts, roast) {
		return nil, fmt.Errorf("unknown roast %q (expected %s or %s)", roast, strings.Join(Roasts, ", "), FilterAll)
	}

	var out []Entry
	for _, e := range c.Products {
		if e.Roast == roast {
			out = append(out, e)
		}
	}
	return out, nil
}

// Price returns the price of the entry in the given size.
func (e *Entry) Price(size string) (decimal.Decimal, bool) {
	p, ok := e.prices[size]
	return p, ok
}

// SizesIn returns the sizes the entry is sold in, ordered as in sizes.
func (e *Entry) SizesIn(sizes []string) []string {
	var out []string
	for _, s := range sizes {
		if _, ok := e.prices[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Product returns the product descriptor for the entry in the given size.
func (e *Entry) Product(size string) (model.Product, error) {
	price, ok := e.prices[size]
	if !ok {
		return model.Product{}, &NotFoundError{Type: "size", ID: size, Hint: fmt.Sprintf("%s is not sold in %s.", e.Name, size)}
	}

	attrs := map[string]any{"roast": e.Roast}
	if e.Image != "" {
		attrs["image"] = e.Image
	}
	return model.Product{ID: e.ID, Name: e.Name, Price: price, Attributes: attrs}, nil
}

// ParseDescriptor reads a product descriptor as attached to an "add to cart"
// control, e.g. {"id":"house-blend","name":"House Blend","price":18}.
func ParseDescriptor(data []byte) (model.Product, error) {
	var p model.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return model.Product{}, fmt.Errorf("invalid product descriptor: %w", err)
	}
	if err := model.ValidateProduct(p); err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
