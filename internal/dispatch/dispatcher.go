// Package dispatch orchestrates single units of upstream work and
// translates their outcome into the pending/fulfilled/rejected transition
// protocol the store consumes. Dispatchers carry no state of their own:
// transport failures terminate in slice state, never as returned errors.
package dispatch

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ecakir/sofra-cli/internal/domain"
	"github.com/ecakir/sofra-cli/internal/gateway/sofra"
	"github.com/ecakir/sofra-cli/internal/store"
)

var (
	// ErrNoCredential indicates an authenticated operation was requested
	// without a bearer credential. Detected locally, before any I/O.
	ErrNoCredential = errors.New("no credential available for authenticated operation")
	// ErrDifferentRestaurant rejects adding an item from a restaurant
	// other than the one the cart already belongs to. The cart must be
	// cleared first.
	ErrDifferentRestaurant = errors.New("cart already belongs to a different restaurant")
)

// TokenSource supplies the current bearer credential on demand.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Dispatcher issues upstream operations against the store. It performs no
// retries and no deduplication of concurrent invocations.
type Dispatcher struct {
	api    sofra.API
	store  *store.Store
	tokens TokenSource
	log    zerolog.Logger
}

// Option applies Dispatcher options.
type Option func(*Dispatcher)

// WithLogger routes dispatch outcome events to the given logger.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.log = log
	}
}

// New creates a dispatcher bound to one store.
func New(api sofra.API, st *store.Store, tokens TokenSource, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		api:    api,
		store:  st,
		tokens: tokens,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// auth resolves the credential precondition for authenticated operations.
func (d *Dispatcher) auth(ctx context.Context) (sofra.AuthContext, error) {
	if d.tokens == nil {
		return sofra.AuthContext{}, ErrNoCredential
	}
	token, err := d.tokens.Token(ctx)
	if err != nil {
		return sofra.AuthContext{}, err
	}
	if strings.TrimSpace(token) == "" {
		return sofra.AuthContext{}, ErrNoCredential
	}
	return sofra.AuthContext{Token: token}, nil
}

func (d *Dispatcher) resolve(ticket store.Ticket, err error, fulfilled store.Message) {
	if err != nil {
		reason := failureReason(err)
		d.log.Debug().Str("op", string(ticket.Op)).Str("reason", reason).Msg("operation rejected")
		d.store.Dispatch(ticket.Failure(reason))
		return
	}
	d.log.Debug().Str("op", string(ticket.Op)).Msg("operation fulfilled")
	d.store.Dispatch(fulfilled)
}

// failureReason normalizes a transport or backend failure into the string
// carried by the slice's error field.
func failureReason(err error) string {
	if sofra.IsTimeout(err) {
		return "request timed out"
	}
	return err.Error()
}

// FetchRestaurants loads venues near the location into the restaurant slice.
func (d *Dispatcher) FetchRestaurants(ctx context.Context, location domain.Location, page sofra.Page) {
	ticket := d.store.Begin(store.OpFetchRestaurants)
	restaurants, err := d.api.Restaurants(ctx, location, page)
	d.resolve(ticket, err, store.RestaurantsFetched{Resolution: ticket.Resolution(), Restaurants: restaurants})
}

// SelectRestaurant loads one venue in detail and makes it the active
// ordering restaurant.
func (d *Dispatcher) SelectRestaurant(ctx context.Context, restaurantID string) {
	ticket := d.store.Begin(store.OpFetchRestaurant)
	restaurant, err := d.api.RestaurantByID(ctx, restaurantID)
	if err != nil {
		d.resolve(ticket, err, nil)
		return
	}
	d.resolve(ticket, nil, store.RestaurantSelected{Resolution: ticket.Resolution(), Restaurant: *restaurant})
}

// FetchListings loads one catalog page of the active restaurant.
func (d *Dispatcher) FetchListings(ctx context.Context, restaurantID string, page sofra.Page) {
	ticket := d.store.Begin(store.OpFetchListings)
	listings, err := d.api.Listings(ctx, restaurantID, page)
	d.resolve(ticket, err, store.ListingsFetched{Resolution: ticket.Resolution(), Page: listings})
}

// SearchRestaurants resolves a free-text venue search.
func (d *Dispatcher) SearchRestaurants(ctx context.Context, location domain.Location, query string) {
	ticket := d.store.Begin(store.OpSearch)
	results, err := d.api.Search(ctx, location, query)
	d.resolve(ticket, err, store.SearchResolved{Resolution: ticket.Resolution(), Query: query, Results: results})
}

// FetchRecommendations loads flash-deal venues recommended for the account.
func (d *Dispatcher) FetchRecommendations(ctx context.Context, location domain.Location) error {
	auth, err := d.auth(ctx)
	if err != nil {
		return err
	}
	ticket := d.store.Begin(store.OpFetchRecommendations)
	restaurants, upstreamErr := d.api.Recommendations(ctx, location, auth)
	d.resolve(ticket, upstreamErr, store.RecommendationsFetched{Resolution: ticket.Resolution(), Restaurants: restaurants})
	return nil
}

// FetchCart synchronizes the cart slice with the server cart.
func (d *Dispatcher) FetchCart(ctx context.Context) error {
	auth, err := d.auth(ctx)
	if err != nil {
		return err
	}
	ticket := d.store.Begin(store.OpFetchCart)
	items, upstreamErr := d.api.Cart(ctx, auth)
	d.resolve(ticket, upstreamErr, store.CartFetched{Resolution: ticket.Resolution(), Items: items})
	return nil
}

// AddCartItem adds one listing snapshot to the cart. Adding an item from a
// restaurant other than the cart's current one is rejected before any I/O.
func (d *Dispatcher) AddCartItem(ctx context.Context, item sofra.CartItemInput) error {
	auth, err := d.auth(ctx)
	if err != nil {
		return err
	}
	cart := d.store.Snapshot().Cart
	if len(cart.Items) > 0 && cart.RestaurantID != "" && cart.RestaurantID != item.RestaurantID {
		return ErrDifferentRestaurant
	}
	ticket := d.store.Begin(store.OpAddCartItem)
	items, upstreamErr := d.api.CartAdd(ctx, item, auth)
	d.resolve(ticket, upstreamErr, store.CartItemAdded{Resolution: ticket.Resolution(), Items: items})
	return nil
}

// RemoveCartItem removes one listing from the cart.
func (d *Dispatcher) RemoveCartItem(ctx context.Context, listingID string) error {
	auth, err := d.auth(ctx)
	if err != nil {
		return err
	}
	ticket := d.store.Begin(store.OpRemoveCartItem)
	items, upstreamErr := d.api.CartRemove(ctx, listingID, auth)
	d.resolve(ticket, upstreamErr, store.CartItemRemoved{Resolution: ticket.Resolution(), Items: items})
	return nil
}

// ClearCart empties the server cart and the cart slice.
func (d *Dispatcher) ClearCart(ctx context.Context) error {
	auth, err := d.auth(ctx)
	if err != nil {
		return err
	}
	ticket := d.store.Begin(store.OpClearCart)
	upstreamErr := d.api.CartClear(ctx, auth)
	d.resolve(ticket, upstreamErr, store.CartCleared{Resolution: ticket.Resolution()})
	return nil
}

// FetchAddresses loads the saved address set.
func (d *Dispatcher) FetchAddresses(ctx context.Context) error {
	auth, err := d.auth(ctx)
	if err != nil {
		return err
	}
	ticket := d.store.Begin(store.OpFetchAddresses)
	addresses, upstreamErr := d.api.Addresses(ctx, auth)
	d.resolve(ticket, upstreamErr, store.AddressesFetched{Resolution: ticket.Resolution(), Addresses: addresses})
	return nil
}

// CreateAddress saves one new delivery address.
func (d *Dispatcher) CreateAddress(ctx context.Context, input sofra.AddressInput) error {
	auth, err := d.auth(ctx)
	if err != nil {
		return err
	}
	ticket := d.store.Begin(store.OpCreateAddress)
	address, upstreamErr := d.api.AddressCreate(ctx, input, auth)
	if upstreamErr != nil {
		d.resolve(ticket, upstreamErr, nil)
		return nil
	}
	d.resolve(ticket, nil, store.AddressCreated{Resolution: ticket.Resolution(), Address: *address})
	return nil
}

// DeleteAddress removes one saved delivery address.
func (d *Dispatcher) DeleteAddress(ctx context.Context, addressID string) error {
	auth, err := d.auth(ctx)
	if err != nil {
		return err
	}
	ticket := d.store.Begin(store.OpDeleteAddress)
	upstreamErr := d.api.AddressDelete(ctx, addressID, auth)
	d.resolve(ticket, upstreamErr, store.AddressDeleted{Resolution: ticket.Resolution(), AddressID: addressID})
	return nil
}

// SubmitReport uploads one user report.
func (d *Dispatcher) SubmitReport(ctx context.Context, input sofra.ReportInput) error {
	auth, err := d.auth(ctx)
	if err != nil {
		return err
	}
	ticket := d.store.Begin(store.OpSubmitReport)
	report, upstreamErr := d.api.SubmitReport(ctx, input, auth)
	if upstreamErr != nil {
		d.resolve(ticket, upstreamErr, nil)
		return nil
	}
	d.resolve(ticket, nil, store.ReportAccepted{Resolution: ticket.Resolution(), Report: *report})
	return nil
}

// RegisterPushToken registers the device token for push notifications.
func (d *Dispatcher) RegisterPushToken(ctx context.Context, token string) error {
	auth, err := d.auth(ctx)
	if err != nil {
		return err
	}
	ticket := d.store.Begin(store.OpRegisterPushToken)
	upstreamErr := d.api.RegisterPushToken(ctx, token, auth)
	d.resolve(ticket, upstreamErr, store.PushTokenRegistered{Resolution: ticket.Resolution(), Token: token})
	return nil
}

// Logout resets every volatile slice. Local only, no upstream call.
func (d *Dispatcher) Logout() {
	d.store.Dispatch(store.Logout{})
}
