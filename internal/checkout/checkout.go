// internal/checkout/checkout.go
package checkout

import (
	"math"

	"funnelgate/internal/payment"
)

// CartItem is one row of a client-submitted cart. Price is in major
// currency units; Quantity of zero means "unspecified".
type CartItem struct {
	ItemName string  `json:"item_name"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity,omitempty"`
}

// BuildLineItems projects cart items into provider line items: a fixed
// currency, unit amounts in minor units, and quantity defaulting to 1.
// N cart items always produce exactly N line items.
func BuildLineItems(items []CartItem, currency string) []payment.LineItem {
	out := make([]payment.LineItem, 0, len(items))
	for _, item := range items {
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		out = append(out, payment.LineItem{
			Name:       item.ItemName,
			UnitAmount: int64(math.Round(item.Price * 100)),
			Quantity:   quantity,
			Currency:   currency,
		})
	}
	return out
}
