package cli

import (
	"context"

	"github.com/ecakir/sofra-cli/internal/config"
	"github.com/ecakir/sofra-cli/internal/domain"
	sofragateway "github.com/ecakir/sofra-cli/internal/gateway/sofra"
)

// fakeSofraAPI embeds the interface so each test overrides only the calls
// it expects; any other call panics and fails the test loudly.
type fakeSofraAPI struct {
	sofragateway.API

	restaurants     func(ctx context.Context, location domain.Location, page sofragateway.Page) ([]domain.Restaurant, error)
	restaurantByID  func(ctx context.Context, restaurantID string) (*domain.Restaurant, error)
	listings        func(ctx context.Context, restaurantID string, page sofragateway.Page) (domain.ListingPage, error)
	search          func(ctx context.Context, location domain.Location, query string) ([]domain.Restaurant, error)
	cart            func(ctx context.Context, auth sofragateway.AuthContext) ([]domain.CartItem, error)
	cartAdd         func(ctx context.Context, item sofragateway.CartItemInput, auth sofragateway.AuthContext) ([]domain.CartItem, error)
	cartRemove      func(ctx context.Context, listingID string, auth sofragateway.AuthContext) ([]domain.CartItem, error)
	cartClear       func(ctx context.Context, auth sofragateway.AuthContext) error
	addresses       func(ctx context.Context, auth sofragateway.AuthContext) ([]domain.Address, error)
	addressCreate   func(ctx context.Context, input sofragateway.AddressInput, auth sofragateway.AuthContext) (*domain.Address, error)
	addressDelete   func(ctx context.Context, addressID string, auth sofragateway.AuthContext) error
	submitReport    func(ctx context.Context, input sofragateway.ReportInput, auth sofragateway.AuthContext) (*domain.Report, error)
	registerPush    func(ctx context.Context, token string, auth sofragateway.AuthContext) error
	submitPurchase  func(ctx context.Context, input sofragateway.PurchaseInput, auth sofragateway.AuthContext) (*sofragateway.PurchaseResult, error)
	recommendations func(ctx context.Context, location domain.Location, auth sofragateway.AuthContext) ([]domain.Restaurant, error)
}

func (f *fakeSofraAPI) Restaurants(ctx context.Context, location domain.Location, page sofragateway.Page) ([]domain.Restaurant, error) {
	return f.restaurants(ctx, location, page)
}

func (f *fakeSofraAPI) RestaurantByID(ctx context.Context, restaurantID string) (*domain.Restaurant, error) {
	return f.restaurantByID(ctx, restaurantID)
}

func (f *fakeSofraAPI) Listings(ctx context.Context, restaurantID string, page sofragateway.Page) (domain.ListingPage, error) {
	return f.listings(ctx, restaurantID, page)
}

func (f *fakeSofraAPI) Search(ctx context.Context, location domain.Location, query string) ([]domain.Restaurant, error) {
	return f.search(ctx, location, query)
}

func (f *fakeSofraAPI) Recommendations(ctx context.Context, location domain.Location, auth sofragateway.AuthContext) ([]domain.Restaurant, error) {
	return f.recommendations(ctx, location, auth)
}

func (f *fakeSofraAPI) Cart(ctx context.Context, auth sofragateway.AuthContext) ([]domain.CartItem, error) {
	return f.cart(ctx, auth)
}

func (f *fakeSofraAPI) CartAdd(ctx context.Context, item sofragateway.CartItemInput, auth sofragateway.AuthContext) ([]domain.CartItem, error) {
	return f.cartAdd(ctx, item, auth)
}

func (f *fakeSofraAPI) CartRemove(ctx context.Context, listingID string, auth sofragateway.AuthContext) ([]domain.CartItem, error) {
	return f.cartRemove(ctx, listingID, auth)
}

func (f *fakeSofraAPI) CartClear(ctx context.Context, auth sofragateway.AuthContext) error {
	return f.cartClear(ctx, auth)
}

func (f *fakeSofraAPI) Addresses(ctx context.Context, auth sofragateway.AuthContext) ([]domain.Address, error) {
	return f.addresses(ctx, auth)
}

func (f *fakeSofraAPI) AddressCreate(ctx context.Context, input sofragateway.AddressInput, auth sofragateway.AuthContext) (*domain.Address, error) {
	return f.addressCreate(ctx, input, auth)
}

func (f *fakeSofraAPI) AddressDelete(ctx context.Context, addressID string, auth sofragateway.AuthContext) error {
	return f.addressDelete(ctx, addressID, auth)
}

func (f *fakeSofraAPI) SubmitReport(ctx context.Context, input sofragateway.ReportInput, auth sofragateway.AuthContext) (*domain.Report, error) {
	return f.submitReport(ctx, input, auth)
}

func (f *fakeSofraAPI) RegisterPushToken(ctx context.Context, token string, auth sofragateway.AuthContext) error {
	return f.registerPush(ctx, token, auth)
}

func (f *fakeSofraAPI) SubmitPurchase(ctx context.Context, input sofragateway.PurchaseInput, auth sofragateway.AuthContext) (*sofragateway.PurchaseResult, error) {
	return f.submitPurchase(ctx, input, auth)
}

type staticProfiles struct {
	profile domain.Profile
	err     error
}

func (s staticProfiles) Find(_ context.Context, _ string) (domain.Profile, error) {
	return s.profile, s.err
}

type staticLocation struct {
	location domain.Location
	err      error
}

func (s staticLocation) Get(_ context.Context, _ string) (domain.Location, error) {
	return s.location, s.err
}

// memConfig is an in-memory ConfigManager so configure/address tests never
// touch the real home directory.
type memConfig struct {
	cfg    domain.Config
	exists bool
	saves  int
}

func (m *memConfig) Path() string {
	return "/tmp/sofra-test/config.json"
}

func (m *memConfig) Load(_ context.Context) (domain.Config, error) {
	if !m.exists {
		return domain.Config{}, config.ErrConfigNotFound
	}
	return m.cfg, nil
}

func (m *memConfig) Save(_ context.Context, cfg domain.Config) error {
	m.cfg = cfg
	m.exists = true
	m.saves++
	return nil
}

func alwaysOpenRestaurant(id string) domain.Restaurant {
	return domain.Restaurant{
		ID:                id,
		Name:              "Kebapci Halil",
		Currency:          "TRY",
		DeliveryFee:       1000,
		MinOrderAmount:    500,
		Delivers:          true,
		Rating:            4.6,
		WorkingHoursStart: "00:00",
		WorkingHoursEnd:   "00:00",
		WorkingDays: []string{
			"monday", "tuesday", "wednesday", "thursday",
			"friday", "saturday", "sunday",
		},
	}
}
