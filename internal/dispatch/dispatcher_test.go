package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ecakir/sofra-cli/internal/domain"
	"github.com/ecakir/sofra-cli/internal/gateway/sofra"
	"github.com/ecakir/sofra-cli/internal/store"
)

type staticTokens struct {
	token string
}

func (s staticTokens) Token(context.Context) (string, error) {
	return s.token, nil
}

type fakeAPI struct {
	sofra.API

	cartItems   []domain.CartItem
	cartErr     error
	cartCalls   int
	addCalls    int
	addInput    sofra.CartItemInput
	addErr      error
	searchErr   error
	searchHits  []domain.Restaurant
	deleteCalls int
}

func (f *fakeAPI) Cart(context.Context, sofra.AuthContext) ([]domain.CartItem, error) {
	f.cartCalls++
	return f.cartItems, f.cartErr
}

func (f *fakeAPI) CartAdd(_ context.Context, item sofra.CartItemInput, _ sofra.AuthContext) ([]domain.CartItem, error) {
	f.addCalls++
	f.addInput = item
	if f.addErr != nil {
		return nil, f.addErr
	}
	return append(f.cartItems, domain.CartItem{
		ListingID:    item.ListingID,
		RestaurantID: item.RestaurantID,
		Title:        item.Title,
		Price:        item.Price,
		Count:        item.Count,
	}), nil
}

func (f *fakeAPI) Search(context.Context, domain.Location, string) ([]domain.Restaurant, error) {
	return f.searchHits, f.searchErr
}

func (f *fakeAPI) AddressDelete(context.Context, string, sofra.AuthContext) error {
	f.deleteCalls++
	return nil
}

func newFixture(t *testing.T, api *fakeAPI, token string) (*Dispatcher, *store.Store) {
	t.Helper()
	st := store.New()
	t.Cleanup(st.Close)
	return New(api, st, staticTokens{token: token}), st
}

func TestFetchCartWithoutCredentialShortCircuits(t *testing.T) {
	api := &fakeAPI{}
	d, st := newFixture(t, api, "")

	err := d.FetchCart(context.Background())
	require.ErrorIs(t, err, ErrNoCredential)
	require.Zero(t, api.cartCalls, "no network call before the credential precondition")

	st.Flush()
	state := st.Snapshot()
	require.False(t, state.Cart.Status.Loading)
	require.Empty(t, state.Cart.Status.Err, "precondition failures are not async rejections")
}

func TestFetchCartFulfilledMergesItems(t *testing.T) {
	api := &fakeAPI{cartItems: []domain.CartItem{{ListingID: "l1", RestaurantID: "r1", Price: 1000, Count: 2}}}
	d, st := newFixture(t, api, "jwt")

	require.NoError(t, d.FetchCart(context.Background()))
	st.Flush()
	state := st.Snapshot()
	require.Equal(t, api.cartItems, state.Cart.Items)
	require.Equal(t, "r1", state.Cart.RestaurantID)
	require.False(t, state.Cart.Status.Loading)
}

func TestFetchCartUpstreamFailureTerminatesInState(t *testing.T) {
	api := &fakeAPI{cartErr: &sofra.UpstreamRequestError{StatusCode: 502}}
	d, st := newFixture(t, api, "jwt")

	require.NoError(t, d.FetchCart(context.Background()), "transport failures must not propagate past the dispatcher")
	st.Flush()
	state := st.Snapshot()
	require.False(t, state.Cart.Status.Loading)
	require.Contains(t, state.Cart.Status.Err, "status=502")
}

func TestTimeoutFailureIsClassifiedInReason(t *testing.T) {
	api := &fakeAPI{cartErr: &sofra.UpstreamRequestError{Timeout: true, Cause: context.DeadlineExceeded}}
	d, st := newFixture(t, api, "jwt")

	require.NoError(t, d.FetchCart(context.Background()))
	st.Flush()
	require.Equal(t, "request timed out", st.Snapshot().Cart.Status.Err)
}

func TestAddCartItemRejectsDifferentRestaurant(t *testing.T) {
	api := &fakeAPI{cartItems: []domain.CartItem{{ListingID: "l1", RestaurantID: "r1", Count: 1}}}
	d, st := newFixture(t, api, "jwt")
	require.NoError(t, d.FetchCart(context.Background()))
	st.Flush()
	before := *st.Snapshot()

	err := d.AddCartItem(context.Background(), sofra.CartItemInput{ListingID: "l9", RestaurantID: "r2", Count: 1})
	require.ErrorIs(t, err, ErrDifferentRestaurant)
	require.Zero(t, api.addCalls, "rejected adds must not reach the backend")

	st.Flush()
	require.Equal(t, before.Cart, st.Snapshot().Cart, "rejected add leaves the cart untouched")
}

func TestAddCartItemSameRestaurantPassesSnapshotThrough(t *testing.T) {
	api := &fakeAPI{cartItems: []domain.CartItem{{ListingID: "l1", RestaurantID: "r1", Count: 1}}}
	d, st := newFixture(t, api, "jwt")
	require.NoError(t, d.FetchCart(context.Background()))

	input := sofra.CartItemInput{ListingID: "l2", RestaurantID: "r1", Title: "Ayran", Price: 250, Count: 3}
	require.NoError(t, d.AddCartItem(context.Background(), input))
	require.Equal(t, input, api.addInput, "payload passes through unchanged")

	st.Flush()
	state := st.Snapshot()
	require.Len(t, state.Cart.Items, 2)
	require.Equal(t, "r1", state.Cart.RestaurantID)
}

func TestSearchDoesNotRequireCredential(t *testing.T) {
	api := &fakeAPI{searchHits: []domain.Restaurant{{ID: "r3", Name: "Lokanta"}}}
	d, st := newFixture(t, api, "")

	d.SearchRestaurants(context.Background(), domain.Location{Lat: 41, Lon: 29}, "lokanta")
	st.Flush()
	state := st.Snapshot()
	require.Equal(t, "lokanta", state.Search.Query)
	require.Len(t, state.Search.Results, 1)
}

func TestTokenSourceErrorPropagates(t *testing.T) {
	api := &fakeAPI{}
	st := store.New()
	t.Cleanup(st.Close)
	wantErr := errors.New("keychain locked")
	d := New(api, st, failingTokens{err: wantErr})

	require.ErrorIs(t, d.FetchCart(context.Background()), wantErr)
	require.Zero(t, api.cartCalls)
}

type failingTokens struct {
	err error
}

func (f failingTokens) Token(context.Context) (string, error) {
	return "", f.err
}

func TestLogoutDispatchesReset(t *testing.T) {
	api := &fakeAPI{cartItems: []domain.CartItem{{ListingID: "l1", RestaurantID: "r1", Count: 1}}}
	d, st := newFixture(t, api, "jwt")
	require.NoError(t, d.FetchCart(context.Background()))

	d.Logout()
	st.Flush()
	require.Empty(t, st.Snapshot().Cart.Items)
}
