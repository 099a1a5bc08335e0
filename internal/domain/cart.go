package domain

// CartItem identifies one purchasable unit in the cart. Price and Title are
// denormalized snapshots taken at add time; the backend catalog may change
// underneath without affecting an already-built cart.
type CartItem struct {
	ListingID    string `json:"listing_id"`
	RestaurantID string `json:"restaurant_id"`
	Title        string `json:"title"`
	// Price is denominated in currency minor units.
	Price int64 `json:"price"`
	Count int   `json:"count"`
}

// Subtotal returns the line total in minor units.
func (i CartItem) Subtotal() int64 {
	return i.Price * int64(i.Count)
}

// CartSubtotal sums line totals for a set of items.
func CartSubtotal(items []CartItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}
