package store

import "github.com/ecakir/sofra-cli/internal/domain"

// AsyncStatus is the universal remote-operation lifecycle every slice
// tracks. Inflight counts unresolved attempts so that overlapping
// operations on the same slice cannot leave Loading stuck.
type AsyncStatus struct {
	Loading  bool
	Err      string
	Inflight int
}

func (st AsyncStatus) begin() AsyncStatus {
	st.Inflight++
	st.Loading = true
	st.Err = ""
	return st
}

// settle marks one attempt finished without touching the error. Stale
// resolutions settle too; only their payload is discarded.
func (st AsyncStatus) settle() AsyncStatus {
	if st.Inflight > 0 {
		st.Inflight--
	}
	st.Loading = st.Inflight > 0
	return st
}

func (st AsyncStatus) fail(reason string) AsyncStatus {
	st = st.settle()
	st.Err = reason
	return st
}

// CartState holds the local cart projection of the server cart.
type CartState struct {
	Items        []domain.CartItem
	RestaurantID string
	IsPickup     bool
	Status       AsyncStatus
}

func initialCartState() CartState {
	return CartState{}
}

func (CartState) reset() CartState {
	return initialCartState()
}

// RestaurantState holds the active restaurant and browsing context.
type RestaurantState struct {
	Nearby   []domain.Restaurant
	Selected *domain.Restaurant
	Listings domain.ListingPage
	Status   AsyncStatus
}

func initialRestaurantState() RestaurantState {
	return RestaurantState{}
}

// AddressState holds saved addresses and the delivery selection.
type AddressState struct {
	Addresses  []domain.Address
	SelectedID string
	Status     AsyncStatus
}

func initialAddressState() AddressState {
	return AddressState{}
}

// SearchState holds the last search query and its results.
type SearchState struct {
	Query   string
	Results []domain.Restaurant
	Status  AsyncStatus
}

func initialSearchState() SearchState {
	return SearchState{}
}

func (SearchState) reset() SearchState {
	return initialSearchState()
}

// ReportState holds the last accepted report submission.
type ReportState struct {
	LastReport *domain.Report
	Status     AsyncStatus
}

func initialReportState() ReportState {
	return ReportState{}
}

// RecommendationState holds recommended flash-deal venues.
type RecommendationState struct {
	Restaurants []domain.Restaurant
	Status      AsyncStatus
}

func initialRecommendationState() RecommendationState {
	return RecommendationState{}
}

// NotificationState holds the registered device push token.
type NotificationState struct {
	PushToken  string
	Registered bool
	Status     AsyncStatus
}

func initialNotificationState() NotificationState {
	return NotificationState{}
}

// State is one immutable snapshot of every slice. Reducers produce new
// values and never mutate a published snapshot.
type State struct {
	Cart           CartState
	Restaurant     RestaurantState
	Address        AddressState
	Search         SearchState
	Report         ReportState
	Recommendation RecommendationState
	Notification   NotificationState
}

// InitialState is the declared initial shape of every slice.
func InitialState() State {
	return State{
		Cart:           initialCartState(),
		Restaurant:     initialRestaurantState(),
		Address:        initialAddressState(),
		Search:         initialSearchState(),
		Report:         initialReportState(),
		Recommendation: initialRecommendationState(),
		Notification:   initialNotificationState(),
	}
}
