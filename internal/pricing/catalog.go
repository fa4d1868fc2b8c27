package pricing

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// Catalog is an immutable pair of price lists: menu item → base price and
// modifier → add-on price. Lookups are exact-match on the name.
type Catalog struct {
	items     map[string]decimal.Decimal
	modifiers map[string]decimal.Decimal
}

// NewCatalog copies the given price lists into a Catalog
func NewCatalog(items, modifiers map[string]decimal.Decimal) *Catalog {
	c := &Catalog{
		items:     make(map[string]decimal.Decimal, len(items)),
		modifiers: make(map[string]decimal.Decimal, len(modifiers)),
	}
	for k, v := range items {
		c.items[k] = v
	}
	for k, v := range modifiers {
		c.modifiers[k] = v
	}
	return c
}

// BasePrice returns the base price of a menu item and whether it is listed
func (c *Catalog) BasePrice(item string) (decimal.Decimal, bool) {
	p, ok := c.items[item]
	return p, ok
}

// ModifierPrice returns the add-on price of a modifier and whether it is
// listed
func (c *Catalog) ModifierPrice(modifier string) (decimal.Decimal, bool) {
	p, ok := c.modifiers[modifier]
	return p, ok
}

// Len returns the number of items and modifiers listed
func (c *Catalog) Len() (items, modifiers int) {
	return len(c.items), len(c.modifiers)
}

// catalogFile is the YAML layout accepted by LoadCatalog:
//
//	items:
//	  Mac and Cheese: "8.99"
//	modifiers:
//	  Cheddar Mac: "1.99"
type catalogFile struct {
	Items     map[string]string `yaml:"items"`
	Modifiers map[string]string `yaml:"modifiers"`
}

// LoadCatalog reads a YAML price file. It replaces the default catalog
// entirely rather than merging with it.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read price file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes the YAML price layout
func ParseCatalog(data []byte) (*Catalog, error) {
	var raw catalogFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse price file: %w", err)
	}

	items, err := parsePrices("item", raw.Items)
	if err != nil {
		return nil, err
	}
	modifiers, err := parsePrices("modifier", raw.Modifiers)
	if err != nil {
		return nil, err
	}

	return &Catalog{items: items, modifiers: modifiers}, nil
}

func parsePrices(kind string, raw map[string]string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(raw))
	for name, s := range raw {
		p, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("%s %q: invalid price %q: %w", kind, name, s, err)
		}
		if p.IsNegative() {
			return nil, fmt.Errorf("%s %q: price must not be negative, got %s", kind, name, s)
		}
		out[name] = p
	}
	return out, nil
}
