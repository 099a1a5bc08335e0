package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ecakir/sofra-cli/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	t.Cleanup(s.Close)
	return s
}

func snapshot(s *Store) State {
	s.Flush()
	return *s.Snapshot()
}

func TestPendingSetsLoadingAndClearsError(t *testing.T) {
	s := newTestStore(t)

	first := s.Begin(OpFetchCart)
	s.Dispatch(first.Failure("boom"))
	state := snapshot(s)
	require.False(t, state.Cart.Status.Loading)
	require.Equal(t, "boom", state.Cart.Status.Err)

	s.Begin(OpFetchCart)
	state = snapshot(s)
	require.True(t, state.Cart.Status.Loading)
	require.Empty(t, state.Cart.Status.Err, "pending must clear the previous error")
}

func TestFulfilledMergesPayload(t *testing.T) {
	s := newTestStore(t)

	ticket := s.Begin(OpFetchCart)
	items := []domain.CartItem{{ListingID: "l1", RestaurantID: "r1", Title: "Adana", Price: 1000, Count: 2}}
	s.Dispatch(CartFetched{Resolution: ticket.Resolution(), Items: items})

	state := snapshot(s)
	require.False(t, state.Cart.Status.Loading)
	require.Equal(t, items, state.Cart.Items)
	require.Equal(t, "r1", state.Cart.RestaurantID)
}

func TestStaleResolutionIsDiscarded(t *testing.T) {
	s := newTestStore(t)

	older := s.Begin(OpSearch)
	newer := s.Begin(OpSearch)

	s.Dispatch(SearchResolved{Resolution: newer.Resolution(), Query: "kebab", Results: []domain.Restaurant{{ID: "r2"}}})
	s.Dispatch(SearchResolved{Resolution: older.Resolution(), Query: "pide", Results: []domain.Restaurant{{ID: "r1"}}})

	state := snapshot(s)
	require.Equal(t, "kebab", state.Search.Query, "slow stale response must not overwrite the newer one")
	require.Equal(t, "r2", state.Search.Results[0].ID)
	require.False(t, state.Search.Status.Loading, "loading clears once every attempt settles")
}

func TestStaleRejectionDoesNotSetError(t *testing.T) {
	s := newTestStore(t)

	older := s.Begin(OpFetchCart)
	newer := s.Begin(OpFetchCart)

	s.Dispatch(CartFetched{Resolution: newer.Resolution(), Items: nil})
	s.Dispatch(older.Failure("timeout"))

	state := snapshot(s)
	require.Empty(t, state.Cart.Status.Err, "stale rejection must not surface an error")
	require.False(t, state.Cart.Status.Loading)
}

func TestLoadingFalseAfterAllAttemptsResolveInAnyOrder(t *testing.T) {
	s := newTestStore(t)

	fetch := s.Begin(OpFetchCart)
	add := s.Begin(OpAddCartItem)
	remove := s.Begin(OpRemoveCartItem)

	s.Dispatch(CartItemRemoved{Resolution: remove.Resolution()})
	state := snapshot(s)
	require.True(t, state.Cart.Status.Loading, "two attempts still in flight")

	s.Dispatch(fetch.Failure("network down"))
	s.Dispatch(CartItemAdded{Resolution: add.Resolution(), Items: []domain.CartItem{{ListingID: "l1", RestaurantID: "r1", Count: 1}}})

	state = snapshot(s)
	require.False(t, state.Cart.Status.Loading)
	require.Zero(t, state.Cart.Status.Inflight)
}

func TestLogoutResetsVolatileSlices(t *testing.T) {
	s := newTestStore(t)

	cart := s.Begin(OpFetchCart)
	s.Dispatch(CartFetched{Resolution: cart.Resolution(), Items: []domain.CartItem{{ListingID: "l1", RestaurantID: "r1", Count: 1}}})
	search := s.Begin(OpSearch)
	s.Dispatch(SearchResolved{Resolution: search.Resolution(), Query: "soup", Results: []domain.Restaurant{{ID: "r9"}}})
	addresses := s.Begin(OpFetchAddresses)
	s.Dispatch(AddressesFetched{Resolution: addresses.Resolution(), Addresses: []domain.Address{{ID: "a1", Line: "Home"}}})
	s.Dispatch(SetPickup{IsPickup: true})

	s.Dispatch(Logout{})
	state := snapshot(s)

	require.Equal(t, initialCartState(), state.Cart, "cart resets to its declared initial shape")
	require.Equal(t, initialSearchState(), state.Search, "search resets to its declared initial shape")
	require.Len(t, state.Address.Addresses, 1, "address slice is not volatile")
}

func TestAddThenRemoveRoundTripsCartState(t *testing.T) {
	s := newTestStore(t)

	base := []domain.CartItem{
		{ListingID: "l1", RestaurantID: "r1", Title: "Adana", Price: 1000, Count: 1},
		{ListingID: "l2", RestaurantID: "r1", Title: "Ayran", Price: 250, Count: 2},
	}
	fetch := s.Begin(OpFetchCart)
	s.Dispatch(CartFetched{Resolution: fetch.Resolution(), Items: base})
	before := snapshot(s).Cart

	added := append(append([]domain.CartItem{}, base...), domain.CartItem{ListingID: "l3", RestaurantID: "r1", Title: "Baklava", Price: 700, Count: 1})
	add := s.Begin(OpAddCartItem)
	s.Dispatch(CartItemAdded{Resolution: add.Resolution(), Items: added})
	remove := s.Begin(OpRemoveCartItem)
	s.Dispatch(CartItemRemoved{Resolution: remove.Resolution(), Items: base})

	after := snapshot(s).Cart
	require.Equal(t, before.Items, after.Items, "same item set, same order")
	require.Equal(t, before.RestaurantID, after.RestaurantID)
}

func TestDeletingSelectedAddressClearsSelection(t *testing.T) {
	s := newTestStore(t)

	fetch := s.Begin(OpFetchAddresses)
	s.Dispatch(AddressesFetched{Resolution: fetch.Resolution(), Addresses: []domain.Address{
		{ID: "a1", Line: "Home"},
		{ID: "a2", Line: "Work"},
	}})
	s.Dispatch(SelectAddress{ID: "a2"})
	require.Equal(t, "a2", snapshot(s).Address.SelectedID)

	del := s.Begin(OpDeleteAddress)
	s.Dispatch(AddressDeleted{Resolution: del.Resolution(), AddressID: "a2"})

	state := snapshot(s)
	require.Empty(t, state.Address.SelectedID, "selection must be cleared with its address")
	require.Len(t, state.Address.Addresses, 1)
	require.Equal(t, "a1", state.Address.Addresses[0].ID)
}

func TestDeletingOtherAddressKeepsSelection(t *testing.T) {
	s := newTestStore(t)

	fetch := s.Begin(OpFetchAddresses)
	s.Dispatch(AddressesFetched{Resolution: fetch.Resolution(), Addresses: []domain.Address{
		{ID: "a1", Line: "Home"},
		{ID: "a2", Line: "Work"},
	}})
	s.Dispatch(SelectAddress{ID: "a1"})

	del := s.Begin(OpDeleteAddress)
	s.Dispatch(AddressDeleted{Resolution: del.Resolution(), AddressID: "a2"})

	require.Equal(t, "a1", snapshot(s).Address.SelectedID)
}

func TestSelectingUnknownAddressIsNoOp(t *testing.T) {
	s := newTestStore(t)

	s.Dispatch(SelectAddress{ID: "ghost"})
	require.Empty(t, snapshot(s).Address.SelectedID)
}

func TestClearedCartDropsRestaurantPin(t *testing.T) {
	s := newTestStore(t)

	fetch := s.Begin(OpFetchCart)
	s.Dispatch(CartFetched{Resolution: fetch.Resolution(), Items: []domain.CartItem{{ListingID: "l1", RestaurantID: "r1", Count: 1}}})
	clear := s.Begin(OpClearCart)
	s.Dispatch(CartCleared{Resolution: clear.Resolution()})

	state := snapshot(s)
	require.Empty(t, state.Cart.Items)
	require.Empty(t, state.Cart.RestaurantID)
}

func TestSubscribeObservesLatestSnapshot(t *testing.T) {
	s := newTestStore(t)
	updates, cancel := s.Subscribe()
	defer cancel()

	s.Dispatch(SetPickup{IsPickup: true})
	s.Flush()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-updates:
			if snap.Cart.IsPickup {
				return
			}
		case <-deadline:
			t.Fatal("subscriber never observed the pickup transition")
		}
	}
}

func TestUnrelatedSlicesOperateIndependently(t *testing.T) {
	s := newTestStore(t)

	search := s.Begin(OpSearch)
	s.Dispatch(search.Failure("upstream 500"))
	cart := s.Begin(OpFetchCart)
	s.Dispatch(CartFetched{Resolution: cart.Resolution(), Items: nil})

	state := snapshot(s)
	require.Equal(t, "upstream 500", state.Search.Status.Err)
	require.Empty(t, state.Cart.Status.Err, "search failure must not block the cart slice")
}
