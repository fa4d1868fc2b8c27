package pricing

import (
	"github.com/shopspring/decimal"
)

var defaultItemPrices = map[string]string{
	"Mac and Cheese":          "8.99",
	"Grilled Cheese Sandwich": "8.99",
}

var defaultModifierPrices = map[string]string{
	"Regular":                              "0",
	"No Drink":                             "0",
	"Water Bottle":                         "1.49",
	"Apple Juice":                          "2.49",
	"Coke":                                 "1.99",
	"Dr. Pepper":                           "1.99",
	"Sprite":                               "1.99",
	"Diet Coke":                            "1.99",
	"Powerade (Blue Mountain Berry Blast)": "1.99",
	"Minute Maid Lemonade":                 "1.99",
	"No Side":                              "0",
	"Garlic Bread":                         "1.99",
	"Cheesy Garlic Bread":                  "1.99",
	"Large Chocolate Chunk Cookie":         "4.99",
	"Cheesecake":                           "4.99",
	"Doritos":                              "1.99",
	"Cheetos":                              "1.99",
	"Lays Barbecue":                        "1.99",
	"Lays Classic":                         "1.99",
	"Cheddar Mac":                          "1.99",
	"Pepper Jack Mac":                      "1.99",
	"Alfredo Mac":                          "1.99",
	"No Meat":                              "0",
	"Grilled Chicken (Contains Gluten)":    "1.99",
	"Pulled Pork":                          "1.99",
	"Brisket":                              "1.99",
	"Bacon":                                "1.99",
	"Ham":                                  "1.99",
}

// DefaultCatalog returns the built-in menu prices
func DefaultCatalog() *Catalog {
	return &Catalog{
		items:     mustParse(defaultItemPrices),
		modifiers: mustParse(defaultModifierPrices),
	}
}

func mustParse(raw map[string]string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(raw))
	for name, s := range raw {
		out[name] = decimal.RequireFromString(s)
	}
	return out
}
