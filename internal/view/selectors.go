// Package view holds pure, memoized projections over store snapshots.
// Selectors never fail and never perform I/O; a selector called twice with
// the same snapshot returns the identical result without recomputing.
package view

import (
	"sync"

	"github.com/ecakir/sofra-cli/internal/domain"
	"github.com/ecakir/sofra-cli/internal/store"
)

// Mode names for the pickup/delivery switch.
const (
	ModePickup   = "pickup"
	ModeDelivery = "delivery"
)

// CartView is the display-ready cart aggregate. All amounts are currency
// minor units.
type CartView struct {
	Items       []domain.CartItem
	Restaurant  *domain.Restaurant
	IsPickup    bool
	Mode        string
	Subtotal    int64
	DeliveryFee int64
	Total       int64
	Currency    string
}

// CartSelector memoizes the cart projection per snapshot.
type CartSelector struct {
	mu     sync.Mutex
	last   *store.State
	view   CartView
	builds int
}

// View returns the cart aggregate for the snapshot.
func (sel *CartSelector) View(s *store.State) CartView {
	sel.mu.Lock()
	defer sel.mu.Unlock()
	if s != nil && s == sel.last {
		return sel.view
	}
	sel.last = s
	sel.view = buildCartView(s)
	sel.builds++
	return sel.view
}

func buildCartView(s *store.State) CartView {
	if s == nil {
		return CartView{Mode: ModeDelivery}
	}
	view := CartView{
		Items:      s.Cart.Items,
		Restaurant: s.Restaurant.Selected,
		IsPickup:   s.Cart.IsPickup,
		Mode:       ModeDelivery,
		Subtotal:   domain.CartSubtotal(s.Cart.Items),
	}
	if view.IsPickup {
		view.Mode = ModePickup
	}
	if view.Restaurant != nil {
		view.Currency = view.Restaurant.Currency
		if !view.IsPickup {
			view.DeliveryFee = view.Restaurant.DeliveryFee
		}
	}
	view.Total = view.Subtotal + view.DeliveryFee
	return view
}

// CheckoutSession is the ephemeral checkout aggregate: recomputed from the
// cart, restaurant, and address slices on every read, never persisted.
type CheckoutSession struct {
	CartView
	Address *domain.Address
}

// CheckoutSelector memoizes the checkout projection per snapshot.
type CheckoutSelector struct {
	mu     sync.Mutex
	cart   CartSelector
	last   *store.State
	view   CheckoutSession
	builds int
}

// View returns the checkout aggregate for the snapshot.
func (sel *CheckoutSelector) View(s *store.State) CheckoutSession {
	sel.mu.Lock()
	defer sel.mu.Unlock()
	if s != nil && s == sel.last {
		return sel.view
	}
	sel.last = s
	sel.view = CheckoutSession{
		CartView: sel.cart.View(s),
		Address:  selectedAddress(s),
	}
	sel.builds++
	return sel.view
}

func selectedAddress(s *store.State) *domain.Address {
	if s == nil || s.Address.SelectedID == "" {
		return nil
	}
	for i := range s.Address.Addresses {
		if s.Address.Addresses[i].ID == s.Address.SelectedID {
			addr := s.Address.Addresses[i]
			return &addr
		}
	}
	return nil
}
