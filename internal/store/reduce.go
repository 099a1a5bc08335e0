package store

import "github.com/ecakir/sofra-cli/internal/domain"

// reduceState is the pure root reducer: it never fails, never performs
// I/O, and matches the closed message set exhaustively. A stale fulfilled
// or rejected transition settles the lifecycle bookkeeping but its payload
// or error is discarded.
func reduceState(s State, msg Message, stale bool) State {
	switch m := msg.(type) {
	case OpBegun:
		return withStatus(s, m.Op, AsyncStatus.begin)
	case OpFailed:
		if stale {
			return withStatus(s, m.Op, AsyncStatus.settle)
		}
		return withStatus(s, m.Op, func(st AsyncStatus) AsyncStatus {
			return st.fail(m.Reason)
		})

	case Logout:
		s.Cart = s.Cart.reset()
		s.Search = s.Search.reset()
		return s

	case SetPickup:
		s.Cart.IsPickup = m.IsPickup
		return s
	case SetCartRestaurantID:
		s.Cart.RestaurantID = m.ID
		return s
	case SelectAddress:
		for _, addr := range s.Address.Addresses {
			if addr.ID == m.ID {
				s.Address.SelectedID = m.ID
				break
			}
		}
		return s

	case CartFetched:
		s.Cart.Status = s.Cart.Status.settle()
		if !stale {
			s.Cart = mergeCartItems(s.Cart, m.Items)
		}
		return s
	case CartItemAdded:
		s.Cart.Status = s.Cart.Status.settle()
		if !stale {
			s.Cart = mergeCartItems(s.Cart, m.Items)
		}
		return s
	case CartItemRemoved:
		s.Cart.Status = s.Cart.Status.settle()
		if !stale {
			s.Cart = mergeCartItems(s.Cart, m.Items)
		}
		return s
	case CartCleared:
		s.Cart.Status = s.Cart.Status.settle()
		if !stale {
			s.Cart.Items = nil
			s.Cart.RestaurantID = ""
		}
		return s

	case RestaurantsFetched:
		s.Restaurant.Status = s.Restaurant.Status.settle()
		if !stale {
			s.Restaurant.Nearby = m.Restaurants
		}
		return s
	case RestaurantSelected:
		s.Restaurant.Status = s.Restaurant.Status.settle()
		if !stale {
			selected := m.Restaurant
			s.Restaurant.Selected = &selected
			s.Restaurant.Listings = domain.ListingPage{}
		}
		return s
	case ListingsFetched:
		s.Restaurant.Status = s.Restaurant.Status.settle()
		if !stale {
			s.Restaurant.Listings = m.Page
		}
		return s

	case SearchResolved:
		s.Search.Status = s.Search.Status.settle()
		if !stale {
			s.Search.Query = m.Query
			s.Search.Results = m.Results
		}
		return s

	case AddressesFetched:
		s.Address.Status = s.Address.Status.settle()
		if !stale {
			s.Address.Addresses = m.Addresses
			if !addressPresent(m.Addresses, s.Address.SelectedID) {
				s.Address.SelectedID = ""
			}
		}
		return s
	case AddressCreated:
		s.Address.Status = s.Address.Status.settle()
		if !stale {
			addresses := make([]domain.Address, 0, len(s.Address.Addresses)+1)
			addresses = append(addresses, s.Address.Addresses...)
			addresses = append(addresses, m.Address)
			s.Address.Addresses = addresses
		}
		return s
	case AddressDeleted:
		s.Address.Status = s.Address.Status.settle()
		if !stale {
			addresses := make([]domain.Address, 0, len(s.Address.Addresses))
			for _, addr := range s.Address.Addresses {
				if addr.ID == m.AddressID {
					continue
				}
				addresses = append(addresses, addr)
			}
			s.Address.Addresses = addresses
			if s.Address.SelectedID == m.AddressID {
				s.Address.SelectedID = ""
			}
		}
		return s

	case RecommendationsFetched:
		s.Recommendation.Status = s.Recommendation.Status.settle()
		if !stale {
			s.Recommendation.Restaurants = m.Restaurants
		}
		return s

	case ReportAccepted:
		s.Report.Status = s.Report.Status.settle()
		if !stale {
			report := m.Report
			s.Report.LastReport = &report
		}
		return s

	case PushTokenRegistered:
		s.Notification.Status = s.Notification.Status.settle()
		if !stale {
			s.Notification.PushToken = m.Token
			s.Notification.Registered = true
		}
		return s

	case Resolution:
		// bare Resolution carries no payload; settle only
		s = withStatus(s, m.Op, AsyncStatus.settle)
		return s
	}
	return s
}

// mergeCartItems replaces the cart contents with the server payload and
// keeps the owning-restaurant pin in sync with the item set.
func mergeCartItems(cart CartState, items []domain.CartItem) CartState {
	cart.Items = items
	if len(items) == 0 {
		cart.RestaurantID = ""
		return cart
	}
	cart.RestaurantID = items[0].RestaurantID
	return cart
}

func addressPresent(addresses []domain.Address, id string) bool {
	if id == "" {
		return false
	}
	for _, addr := range addresses {
		if addr.ID == id {
			return true
		}
	}
	return false
}

// withStatus applies a lifecycle change to the slice owning the operation.
func withStatus(s State, op Op, apply func(AsyncStatus) AsyncStatus) State {
	switch op {
	case OpFetchCart, OpAddCartItem, OpRemoveCartItem, OpClearCart:
		s.Cart.Status = apply(s.Cart.Status)
	case OpFetchRestaurants, OpFetchRestaurant, OpFetchListings:
		s.Restaurant.Status = apply(s.Restaurant.Status)
	case OpSearch:
		s.Search.Status = apply(s.Search.Status)
	case OpFetchAddresses, OpCreateAddress, OpDeleteAddress:
		s.Address.Status = apply(s.Address.Status)
	case OpFetchRecommendations:
		s.Recommendation.Status = apply(s.Recommendation.Status)
	case OpSubmitReport:
		s.Report.Status = apply(s.Report.Status)
	case OpRegisterPushToken:
		s.Notification.Status = apply(s.Notification.Status)
	}
	return s
}
