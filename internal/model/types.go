// Package model defines the core data structures for the verso cart.
package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// DefaultSize is the bag size used when an add does not name one.
	DefaultSize = "12oz"
	// DefaultGrind is the grind used when an add does not name one.
	DefaultGrind = "whole-bean"
	// MaxQuantity is the largest quantity a single line item may hold.
	MaxQuantity = 999
)

// Product is a product descriptor supplied by the surrounding page,
// either from the catalog or from a data-product attribute.
type Product struct {
	ID         string
	Name       string
	Price      decimal.Decimal
	Attributes map[string]any // pass-through fields, e.g. "image"
}

// LineItem is one product/variant/quantity row in the cart.
type LineItem struct {
	ID         string
	Name       string
	Price      decimal.Decimal
	Quantity   int
	Size       string
	Grind      string
	Attributes map[string]any
}

// ItemKey identifies a line item for deduplication.
type ItemKey struct {
	ID    string
	Size  string
	Grind string
}

// String returns the key as "id/size/grind".
func (k ItemKey) String() string {
	return k.ID + "/" + k.Size + "/" + k.Grind
}

// Key returns the deduplication key of the item.
func (li *LineItem) Key() ItemKey {
	return ItemKey{ID: li.ID, Size: li.Size, Grind: li.Grind}
}

// Subtotal returns price * quantity.
func (li *LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Variant returns the "size • grind" label shown under the item name.
func (li *LineItem) Variant() string {
	return VariantLabel(li.Size, li.Grind)
}

// VariantLabel formats a size and grind as "size • grind". An empty grind
// reads as Whole Bean.
func VariantLabel(size, grind string) string {
	if grind == "" {
		grind = "Whole Bean"
	}
	return size + " • " + grind
}

// Clone returns a copy of the item that shares no maps with the original.
func (li LineItem) Clone() LineItem {
	li.Attributes = cloneAttributes(li.Attributes)
	return li
}

// NewLineItem combines a product with a quantity and variant.
func NewLineItem(p Product, quantity int, size, grind string) LineItem {
	return LineItem{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price,
		Quantity:   quantity,
		Size:       size,
		Grind:      grind,
		Attributes: cloneAttributes(p.Attributes),
	}
}

// ValidationError indicates a product or line item failed validation.
type ValidationError struct {
	Field   string // the field that failed validation
	Message string // what went wrong
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidateProduct checks the fields every product must carry.
func ValidateProduct(p Product) error {
	if strings.TrimSpace(p.ID) == "" {
		return &ValidationError{Field: "id", Message: "product id is required"}
	}
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Message: "product name is required"}
	}
	if p.Price.IsNegative() {
		return &ValidationError{Field: "price", Message: fmt.Sprintf("must not be negative, got %s", p.Price)}
	}
	return nil
}

// ValidateLineItem checks a stored line item, including its quantity.
func ValidateLineItem(li LineItem) error {
	if err := ValidateProduct(Product{ID: li.ID, Name: li.Name, Price: li.Price}); err != nil {
		return err
	}
	return ValidateQuantity(li.Quantity)
}

// ValidateQuantity checks that q is between 1 and MaxQuantity.
func ValidateQuantity(q int) error {
	if q < 1 {
		return &ValidationError{Field: "quantity", Message: fmt.Sprintf("must be at least 1, got %d", q)}
	}
	if q > MaxQuantity {
		return &ValidationError{Field: "quantity", Message: fmt.Sprintf("must be at most %d, got %d", MaxQuantity, q)}
	}
	return nil
}

func cloneAttributes(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
