package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// reservedKeys are the snapshot keys owned by LineItem fields.
// Any other key in a snapshot object is kept as a pass-through attribute.
var reservedKeys = map[string]bool{
	"id":       true,
	"name":     true,
	"price":    true,
	"quantity": true,
	"size":     true,
	"grind":    true,
}

// MarshalJSON writes the item as a flat object: the known fields plus every
// attribute at the top level. Price is written as a JSON number.
func (li LineItem) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(li.Attributes)+len(reservedKeys))
	for k, v := range li.Attributes {
		if reservedKeys[k] {
			continue
		}
		obj[k] = v
	}
	obj["id"] = li.ID
	obj["name"] = li.Name
	obj["price"] = json.Number(li.Price.String())
	obj["quantity"] = li.Quantity
	obj["size"] = li.Size
	obj["grind"] = li.Grind
	return json.Marshal(obj)
}

// UnmarshalJSON reads a flat snapshot object. Price may be a JSON number or a
// quoted decimal string.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out LineItem
	hasPrice := false
	for key, val := range raw {
		var err error
		switch key {
		case "id":
			err = json.Unmarshal(val, &out.ID)
		case "name":
			err = json.Unmarshal(val, &out.Name)
		case "price":
			if isNull(val) {
				continue
			}
			hasPrice = true
			err = out.Price.UnmarshalJSON(val)
		case "quantity":
			err = json.Unmarshal(val, &out.Quantity)
		case "size":
			err = json.Unmarshal(val, &out.Size)
		case "grind":
			err = json.Unmarshal(val, &out.Grind)
		default:
			var v any
			err = json.Unmarshal(val, &v)
			if err == nil {
				if out.Attributes == nil {
					out.Attributes = make(map[string]any)
				}
				out.Attributes[key] = v
			}
		}
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
	}
	if !hasPrice {
		return &ValidationError{Field: "price", Message: "is required"}
	}

	*li = out
	return nil
}

// UnmarshalJSON reads a product descriptor: id, name and price plus any
// pass-through attributes.
func (p *Product) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return &ValidationError{Message: "product descriptor is empty"}
	}

	var out Product
	hasPrice := false
	for key, val := range raw {
		var err error
		switch key {
		case "id":
			err = json.Unmarshal(val, &out.ID)
		case "name":
			err = json.Unmarshal(val, &out.Name)
		case "price":
			if isNull(val) {
				continue
			}
			hasPrice = true
			err = out.Price.UnmarshalJSON(val)
		default:
			var v any
			err = json.Unmarshal(val, &v)
			if err == nil {
				if out.Attributes == nil {
					out.Attributes = make(map[string]any)
				}
				out.Attributes[key] = v
			}
		}
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
	}
	if !hasPrice {
		return &ValidationError{Field: "price", Message: "is required"}
	}

	*p = out
	return nil
}

// isNull reports whether a raw field is a JSON null. decimal reads null as
// zero, so a null price counts as missing.
func isNull(val json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(val), []byte("null"))
}

// EncodeCart serializes the cart into its snapshot form, a JSON array.
// An empty or nil cart encodes as [].
func EncodeCart(items []LineItem) ([]byte, error) {
	if items == nil {
		items = []LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cart: %w", err)
	}
	return data, nil
}

// DecodeCart parses a snapshot and validates every item.
// A JSON null decodes as an empty cart.
func DecodeCart(data []byte) ([]LineItem, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("failed to parse cart snapshot: empty input")
	}

	var items []LineItem
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("failed to parse cart snapshot: %w", err)
	}
	for i, li := range items {
		if err := ValidateLineItem(li); err != nil {
			return nil, fmt.Errorf("cart snapshot item %d: %w", i, err)
		}
	}
	return items, nil
}

// CartTotal returns the sum of price * quantity over all items.
func CartTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		total = total.Add(items[i].Subtotal())
	}
	return total
}

// CartCount returns the sum of quantities over all items.
func CartCount(items []LineItem) int {
	count := 0
	for _, li := range items {
		count += li.Quantity
	}
	return count
}

// FormatPrice renders an amount with two decimal places, e.g. "$18.00".
func FormatPrice(symbol string, amount decimal.Decimal) string {
	return symbol + amount.StringFixed(2)
}

// MarshalCartYAML renders the cart as a human-readable YAML document.
// This is a one-way export; snapshots are always JSON.
func MarshalCartYAML(items []LineItem) ([]byte, error) {
	node, err := buildCartNode(items)
	if err != nil {
		return nil, fmt.Errorf("failed to build YAML: %w", err)
	}
	data, err := yaml.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cart: %w", err)
	}
	return data, nil
}

// buildCartNode creates a yaml.Node tree for the cart with a fixed key order.
func buildCartNode(items []LineItem) (*yaml.Node, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}

	itemsNode := &yaml.Node{Kind: yaml.SequenceNode}
	for i := range items {
		itemNode, err := buildLineItemNode(&items[i])
		if err != nil {
			return nil, err
		}
		itemsNode.Content = append(itemsNode.Content, itemNode)
	}
	doc.Content = append(doc.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "items"},
		itemsNode,
	)

	addIntField(doc, "item_count", CartCount(items))
	addDecimalField(doc, "total", CartTotal(items))
	return doc, nil
}

// buildLineItemNode creates a yaml.Node for a LineItem.
func buildLineItemNode(li *LineItem) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}

	addStringField(node, "id", li.ID)
	addStringField(node, "name", li.Name)
	addStringField(node, "size", li.Size)
	if li.Grind != "" {
		addStringField(node, "grind", li.Grind)
	}
	addDecimalField(node, "price", li.Price)
	addIntField(node, "quantity", li.Quantity)
	addDecimalField(node, "subtotal", li.Subtotal())

	if len(li.Attributes) > 0 {
		keys := make([]string, 0, len(li.Attributes))
		for k := range li.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		attrsNode := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range keys {
			valNode := &yaml.Node{}
			if err := valNode.Encode(li.Attributes[k]); err != nil {
				return nil, fmt.Errorf("failed to encode attribute %q: %w", k, err)
			}
			attrsNode.Content = append(attrsNode.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: k},
				valNode,
			)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "attributes"},
			attrsNode,
		)
	}

	return node, nil
}

// Helper functions for building yaml.Node

func addStringField(node *yaml.Node, key, value string) {
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: value},
	)
}

func addIntField(node *yaml.Node, key string, value int) {
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprintf("%d", value), Tag: "!!int"},
	)
}

// addDecimalField writes a money amount as a quoted two-place string.
func addDecimalField(node *yaml.Node, key string, value decimal.Decimal) {
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: value.StringFixed(2), Tag: "!!str", Style: yaml.DoubleQuotedStyle},
	)
}
