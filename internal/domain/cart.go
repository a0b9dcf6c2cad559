package domain

// CartItem is one line of the cart a discount check runs against.
// Prices are unit prices in kuruş.
type CartItem struct {
	ProductID  string `json:"productId"`
	CategoryID string `json:"categoryId"`
	Price      int64  `json:"price"`
	SalePrice  *int64 `json:"salePrice,omitempty"`
	Quantity   int    `json:"quantity"`
}

/// UnitPrice returns the effective unit price: the sale price when one is
// set, otherwise the list price.
func (i CartItem) UnitPrice() int64 {
	if i.SalePrice != nil {
		return *i.SalePrice
	}
	return i.Price
}

// LineTotal returns the item's effective price times its quantity.
func (i CartItem) LineTotal() int64 {
	return i.UnitPrice() * int64(i.Quantity)
}

// CartTotal sums the line totals of all items.
func CartTotal(items []CartItem) int64 {
	var total int64
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}
