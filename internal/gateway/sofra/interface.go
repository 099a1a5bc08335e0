package sofra

import (
	"context"
	"strings"

	"github.com/ecakir/sofra-cli/internal/domain"
)

// AuthContext stores the bearer credential for authenticated upstream calls.
type AuthContext struct {
	Token string
}

// HasCredentials reports whether a bearer credential is present.
func (a AuthContext) HasCredentials() bool {
	return strings.TrimSpace(a.Token) != ""
}

// Page controls catalog pagination.
type Page struct {
	Page  int
	Limit int
}

// CartItemInput carries the denormalized add-to-cart snapshot.
type CartItemInput struct {
	ListingID    string `json:"listing_id"`
	RestaurantID string `json:"restaurant_id"`
	Title        string `json:"title"`
	Price        int64  `json:"price"`
	Count        int    `json:"count"`
}

// AddressInput carries a new delivery address.
type AddressInput struct {
	Line     string          `json:"line"`
	Location domain.Location `json:"location"`
}

// ReportInput carries a user report with an optional file attachment.
type ReportInput struct {
	Subject        string
	Body           string
	AttachmentName string
	Attachment     []byte
}

// PurchaseLine is one order row sent at purchase time.
type PurchaseLine struct {
	ListingID string `json:"listing_id"`
	Count     int    `json:"count"`
	Price     int64  `json:"price"`
}

// PurchaseInput is the purchase submission payload.
type PurchaseInput struct {
	RestaurantID   string         `json:"restaurant_id"`
	AddressID      string         `json:"address_id,omitempty"`
	DeliveryMethod string         `json:"delivery_method"`
	IdempotencyKey string         `json:"idempotency_key"`
	Items          []PurchaseLine `json:"items"`
	ExpectedTotal  int64          `json:"expected_total"`
}

// PurchaseResult is the accepted purchase confirmation.
type PurchaseResult struct {
	OrderID string `json:"order_id"`
	Total   int64  `json:"total"`
}

// API describes all Sofra upstream operations used by the client.
type API interface {
	Restaurants(ctx context.Context, location domain.Location, page Page) ([]domain.Restaurant, error)
	RestaurantByID(ctx context.Context, restaurantID string) (*domain.Restaurant, error)
	Listings(ctx context.Context, restaurantID string, page Page) (domain.ListingPage, error)
	Search(ctx context.Context, location domain.Location, query string) ([]domain.Restaurant, error)
	Recommendations(ctx context.Context, location domain.Location, auth AuthContext) ([]domain.Restaurant, error)
	Cart(ctx context.Context, auth AuthContext) ([]domain.CartItem, error)
	CartAdd(ctx context.Context, item CartItemInput, auth AuthContext) ([]domain.CartItem, error)
	CartRemove(ctx context.Context, listingID string, auth AuthContext) ([]domain.CartItem, error)
	CartClear(ctx context.Context, auth AuthContext) error
	Addresses(ctx context.Context, auth AuthContext) ([]domain.Address, error)
	AddressCreate(ctx context.Context, input AddressInput, auth AuthContext) (*domain.Address, error)
	AddressDelete(ctx context.Context, addressID string, auth AuthContext) error
	SubmitReport(ctx context.Context, input ReportInput, auth AuthContext) (*domain.Report, error)
	RegisterPushToken(ctx context.Context, token string, auth AuthContext) error
	SubmitPurchase(ctx context.Context, input PurchaseInput, auth AuthContext) (*PurchaseResult, error)
}
