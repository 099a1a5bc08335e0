package store

import "github.com/ecakir/sofra-cli/internal/domain"

// Op names one logical asynchronous operation. Generation tokens are
// tracked per Op, so a re-dispatched operation supersedes its own kind
// without affecting unrelated operations on the same slice.
type Op string

const (
	OpFetchCart            Op = "cart/fetch"
	OpAddCartItem          Op = "cart/add-item"
	OpRemoveCartItem       Op = "cart/remove-item"
	OpClearCart            Op = "cart/clear"
	OpFetchRestaurants     Op = "restaurant/fetch-nearby"
	OpFetchRestaurant      Op = "restaurant/fetch-one"
	OpFetchListings        Op = "restaurant/fetch-listings"
	OpSearch               Op = "search/restaurants"
	OpFetchAddresses       Op = "address/fetch"
	OpCreateAddress        Op = "address/create"
	OpDeleteAddress        Op = "address/delete"
	OpFetchRecommendations Op = "recommendation/fetch"
	OpSubmitReport         Op = "report/submit"
	OpRegisterPushToken    Op = "notification/register-token"
)

// Message is one typed state transition. The set is closed: every variant
// lives in this package and the reducer matches them exhaustively.
type Message interface {
	isMessage()
}

// Ticket identifies one dispatched asynchronous attempt.
type Ticket struct {
	Op  Op
	Gen uint64
}

// Resolution carries the attempt identity on every fulfilled payload.
func (t Ticket) Resolution() Resolution {
	return Resolution{Op: t.Op, Gen: t.Gen}
}

// Failure builds the rejected transition for this attempt.
func (t Ticket) Failure(reason string) OpFailed {
	return OpFailed{Op: t.Op, Gen: t.Gen, Reason: reason}
}

// Resolution is embedded by every fulfilled message variant.
type Resolution struct {
	Op  Op
	Gen uint64
}

func (Resolution) isMessage() {}

func (r Resolution) opGen() (Op, uint64) {
	return r.Op, r.Gen
}

// resolutionMarker is implemented by fulfilled and rejected transitions so
// the store can apply the staleness guard uniformly.
type resolutionMarker interface {
	opGen() (Op, uint64)
}

// OpBegun is the pending transition for one attempt.
type OpBegun struct {
	Op  Op
	Gen uint64
}

func (OpBegun) isMessage() {}

// OpFailed is the rejected transition for one attempt.
type OpFailed struct {
	Op     Op
	Gen    uint64
	Reason string
}

func (OpFailed) isMessage() {}

func (f OpFailed) opGen() (Op, uint64) {
	return f.Op, f.Gen
}

// Logout resets every volatile slice to its initial shape.
type Logout struct{}

func (Logout) isMessage() {}

// SetPickup switches the order between pickup and delivery mode.
type SetPickup struct {
	IsPickup bool
}

func (SetPickup) isMessage() {}

// SetCartRestaurantID pins the restaurant the cart belongs to.
type SetCartRestaurantID struct {
	ID string
}

func (SetCartRestaurantID) isMessage() {}

// SelectAddress marks one saved address as the delivery target. Selecting
// an id absent from the address set is a no-op.
type SelectAddress struct {
	ID string
}

func (SelectAddress) isMessage() {}

// CartFetched merges the server cart contents.
type CartFetched struct {
	Resolution
	Items []domain.CartItem
}

// CartItemAdded merges the cart returned after an add.
type CartItemAdded struct {
	Resolution
	Items []domain.CartItem
}

// CartItemRemoved merges the cart returned after a removal.
type CartItemRemoved struct {
	Resolution
	Items []domain.CartItem
}

// CartCleared empties the cart.
type CartCleared struct {
	Resolution
}

// RestaurantsFetched merges the nearby venue list.
type RestaurantsFetched struct {
	Resolution
	Restaurants []domain.Restaurant
}

// RestaurantSelected merges the detailed venue payload and makes it the
// active ordering restaurant.
type RestaurantSelected struct {
	Resolution
	Restaurant domain.Restaurant
}

// ListingsFetched merges one catalog page of the selected restaurant.
type ListingsFetched struct {
	Resolution
	Page domain.ListingPage
}

// SearchResolved merges search results for a query.
type SearchResolved struct {
	Resolution
	Query   string
	Results []domain.Restaurant
}

// AddressesFetched merges the saved address set.
type AddressesFetched struct {
	Resolution
	Addresses []domain.Address
}

// AddressCreated appends one saved address.
type AddressCreated struct {
	Resolution
	Address domain.Address
}

// AddressDeleted removes one saved address. Deleting the selected address
// clears the selection.
type AddressDeleted struct {
	Resolution
	AddressID string
}

// RecommendationsFetched merges recommended flash-deal venues.
type RecommendationsFetched struct {
	Resolution
	Restaurants []domain.Restaurant
}

// ReportAccepted records the accepted report submission.
type ReportAccepted struct {
	Resolution
	Report domain.Report
}

// PushTokenRegistered records a successful device token registration.
type PushTokenRegistered struct {
	Resolution
	Token string
}
