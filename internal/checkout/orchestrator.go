// Package checkout drives the linear purchase state machine. Eligibility
// problems are reported as blocking reasons on the machine state, never as
// errors; only phase misuse and missing credentials surface as errors.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ecakir/sofra-cli/internal/dispatch"
	"github.com/ecakir/sofra-cli/internal/gateway/sofra"
	"github.com/ecakir/sofra-cli/internal/store"
	"github.com/ecakir/sofra-cli/internal/view"
)

// Phase is one node of the checkout state machine.
type Phase string

const (
	PhaseIdle                 Phase = "IDLE"
	PhaseReviewingCart        Phase = "REVIEWING_CART"
	PhaseValidating           Phase = "VALIDATING_ELIGIBILITY"
	PhaseAwaitingConfirmation Phase = "AWAITING_PAYMENT_CONFIRMATION"
	PhaseSubmitting           Phase = "SUBMITTING"
	PhaseSucceeded            Phase = "SUCCEEDED"
	PhaseFailed               Phase = "FAILED"
)

// IsTerminal reports whether the phase ends the current attempt.
func (p Phase) IsTerminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

// validTransitions is the authoritative machine definition.
var validTransitions = map[Phase][]Phase{
	PhaseIdle:                 {PhaseReviewingCart},
	PhaseReviewingCart:        {PhaseValidating, PhaseReviewingCart},
	PhaseValidating:           {PhaseAwaitingConfirmation, PhaseReviewingCart},
	PhaseAwaitingConfirmation: {PhaseSubmitting, PhaseValidating, PhaseReviewingCart},
	PhaseSubmitting:           {PhaseSucceeded, PhaseFailed},
	PhaseFailed:               {PhaseReviewingCart},
}

func canTransition(from, to Phase) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// BlockReason is one user-facing eligibility problem.
type BlockReason string

const (
	ReasonEmptyCart           BlockReason = "cart is empty"
	ReasonNoRestaurant        BlockReason = "no restaurant selected"
	ReasonRestaurantClosed    BlockReason = "restaurant closed"
	ReasonForeignItems        BlockReason = "cart items belong to another restaurant"
	ReasonAddressRequired     BlockReason = "address required"
	ReasonDeliveryUnavailable BlockReason = "restaurant does not deliver"
	ReasonBelowMinimum        BlockReason = "order below restaurant minimum"
)

// ErrInvalidPhase reports a stepped-on transition.
var ErrInvalidPhase = errors.New("checkout phase does not allow this action")

// ErrBlocked reports that eligibility problems prevent submission.
var ErrBlocked = errors.New("checkout is blocked by eligibility problems")

// Orchestrator coordinates one checkout attempt over the store.
type Orchestrator struct {
	submitter sofra.API
	store     *store.Store
	tokens    dispatch.TokenSource
	sel       view.CheckoutSelector
	now       func() time.Time
	newKey    func() string
	log       zerolog.Logger

	mu      sync.Mutex
	phase   Phase
	blocks  []BlockReason
	failure string
	result  *sofra.PurchaseResult
}

// Option applies Orchestrator options.
type Option func(*Orchestrator)

// WithClock replaces the wall clock used for working-hours checks.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithIdempotencyKeys replaces the purchase key generator.
func WithIdempotencyKeys(newKey func() string) Option {
	return func(o *Orchestrator) {
		o.newKey = newKey
	}
}

// WithLogger routes phase-change events to the given logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.log = log
	}
}

// New creates an idle orchestrator.
func New(submitter sofra.API, st *store.Store, tokens dispatch.TokenSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		submitter: submitter,
		store:     st,
		tokens:    tokens,
		now:       time.Now,
		newKey:    uuid.NewString,
		log:       zerolog.Nop(),
		phase:     PhaseIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Phase returns the current machine phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Blocks returns the eligibility problems recorded by the last validation.
func (o *Orchestrator) Blocks() []BlockReason {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]BlockReason(nil), o.blocks...)
}

// FailureReason returns the submission failure, if any.
func (o *Orchestrator) FailureReason() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.failure
}

// Result returns the purchase confirmation after success.
func (o *Orchestrator) Result() *sofra.PurchaseResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// Session recomputes the checkout aggregate from the current snapshot.
func (o *Orchestrator) Session() view.CheckoutSession {
	return o.sel.View(o.store.Snapshot())
}

func (o *Orchestrator) transition(to Phase) error {
	if !canTransition(o.phase, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidPhase, o.phase, to)
	}
	o.log.Debug().Str("from", string(o.phase)).Str("to", string(to)).Msg("checkout phase change")
	o.phase = to
	return nil
}

// Review enters cart review, reading the current cart, restaurant, and
// address snapshot.
func (o *Orchestrator) Review() (view.CheckoutSession, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.transition(PhaseReviewingCart); err != nil {
		return view.CheckoutSession{}, err
	}
	o.blocks = nil
	o.failure = ""
	return o.sel.View(o.store.Snapshot()), nil
}

// Validate evaluates the business preconditions. With no problems the
// machine advances to the payment confirmation gate; otherwise it stays
// validating and annotates the blocking reasons.
func (o *Orchestrator) Validate() ([]BlockReason, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.transition(PhaseValidating); err != nil {
		return nil, err
	}
	o.blocks = evaluateEligibility(o.sel.View(o.store.Snapshot()), o.now())
	if len(o.blocks) == 0 {
		if err := o.transition(PhaseAwaitingConfirmation); err != nil {
			return nil, err
		}
	}
	return append([]BlockReason(nil), o.blocks...), nil
}

// Confirm is the commit-to-pay gate: the second button press. It re-checks
// eligibility, submits the purchase, and settles into Succeeded or Failed.
// Success clears the cart.
func (o *Orchestrator) Confirm(ctx context.Context) (*sofra.PurchaseResult, error) {
	o.mu.Lock()
	if o.phase != PhaseAwaitingConfirmation {
		phase := o.phase
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: confirm requires %s, machine is %s", ErrInvalidPhase, PhaseAwaitingConfirmation, phase)
	}

	session := o.sel.View(o.store.Snapshot())
	if blocks := evaluateEligibility(session, o.now()); len(blocks) > 0 {
		o.blocks = blocks
		_ = o.transition(PhaseValidating)
		o.mu.Unlock()
		return nil, ErrBlocked
	}

	auth, err := o.credential(ctx)
	if err != nil {
		o.mu.Unlock()
		return nil, err
	}

	if err := o.transition(PhaseSubmitting); err != nil {
		o.mu.Unlock()
		return nil, err
	}
	input := buildPurchase(session, o.newKey())
	o.mu.Unlock()

	result, submitErr := o.submitter.SubmitPurchase(ctx, input, auth)

	o.mu.Lock()
	defer o.mu.Unlock()
	if submitErr != nil {
		o.failure = submitErr.Error()
		_ = o.transition(PhaseFailed)
		return nil, submitErr
	}
	o.result = result
	_ = o.transition(PhaseSucceeded)
	o.clearCart()
	return result, nil
}

// Reset returns a failed attempt to cart review.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseFailed {
		return fmt.Errorf("%w: reset requires %s, machine is %s", ErrInvalidPhase, PhaseFailed, o.phase)
	}
	o.failure = ""
	o.blocks = nil
	return o.transition(PhaseReviewingCart)
}

func (o *Orchestrator) credential(ctx context.Context) (sofra.AuthContext, error) {
	if o.tokens == nil {
		return sofra.AuthContext{}, dispatch.ErrNoCredential
	}
	token, err := o.tokens.Token(ctx)
	if err != nil {
		return sofra.AuthContext{}, err
	}
	if strings.TrimSpace(token) == "" {
		return sofra.AuthContext{}, dispatch.ErrNoCredential
	}
	return sofra.AuthContext{Token: token}, nil
}

// clearCart empties the local cart slice after a confirmed purchase. The
// backend invalidates the server cart as part of order acceptance.
func (o *Orchestrator) clearCart() {
	ticket := o.store.Begin(store.OpClearCart)
	o.store.Dispatch(store.CartCleared{Resolution: ticket.Resolution()})
}

// evaluateEligibility is the pure precondition check over one session.
func evaluateEligibility(session view.CheckoutSession, now time.Time) []BlockReason {
	var blocks []BlockReason
	if len(session.Items) == 0 {
		blocks = append(blocks, ReasonEmptyCart)
	}
	restaurant := session.Restaurant
	if restaurant == nil {
		blocks = append(blocks, ReasonNoRestaurant)
		return blocks
	}
	if !restaurant.OpenAt(now) {
		blocks = append(blocks, ReasonRestaurantClosed)
	}
	for _, item := range session.Items {
		if item.RestaurantID != restaurant.ID {
			blocks = append(blocks, ReasonForeignItems)
			break
		}
	}
	if !session.IsPickup {
		if !restaurant.Delivers {
			blocks = append(blocks, ReasonDeliveryUnavailable)
		}
		if session.Address == nil {
			blocks = append(blocks, ReasonAddressRequired)
		}
	}
	if restaurant.MinOrderAmount > 0 && session.Subtotal < restaurant.MinOrderAmount {
		blocks = append(blocks, ReasonBelowMinimum)
	}
	return blocks
}

func buildPurchase(session view.CheckoutSession, idempotencyKey string) sofra.PurchaseInput {
	input := sofra.PurchaseInput{
		DeliveryMethod: session.Mode,
		IdempotencyKey: idempotencyKey,
		ExpectedTotal:  session.Total,
	}
	if session.Restaurant != nil {
		input.RestaurantID = session.Restaurant.ID
	}
	if !session.IsPickup && session.Address != nil {
		input.AddressID = session.Address.ID
	}
	for _, item := range session.Items {
		input.Items = append(input.Items, sofra.PurchaseLine{
			ListingID: item.ListingID,
			Count:     item.Count,
			Price:     item.Price,
		})
	}
	return input
}
