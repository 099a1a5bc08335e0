package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecakir/sofra-cli/internal/checkout"
	"github.com/ecakir/sofra-cli/internal/dispatch"
	"github.com/ecakir/sofra-cli/internal/service/output"
	"github.com/ecakir/sofra-cli/internal/store"
	"github.com/ecakir/sofra-cli/internal/view"
)

func newCheckoutCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var confirm bool
	var pickup bool
	var addressID string

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Review order eligibility and place the order.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			sess := newSession(cmd.Context(), deps, flags)
			defer sess.close()

			if thunkErr := sess.actions.FetchCart(cmd.Context()); thunkErr != nil {
				return emitThunkError(cmd, format, sess.label, flags.Output, thunkErr)
			}
			snapshot := sess.snapshot()
			if reason := sliceError(snapshot.Cart.Status); reason != "" {
				return emitUpstreamError(cmd, format, sess.label, flags.Output, flags.Verbose, reason)
			}
			if restaurantID := snapshot.Cart.RestaurantID; restaurantID != "" {
				sess.actions.SelectRestaurant(cmd.Context(), restaurantID)
			}
			if !pickup {
				if thunkErr := sess.actions.FetchAddresses(cmd.Context()); thunkErr != nil {
					return emitThunkError(cmd, format, sess.label, flags.Output, thunkErr)
				}
			}
			sess.store.Dispatch(store.SetPickup{IsPickup: pickup})
			selected := strings.TrimSpace(addressID)
			if selected == "" {
				selected = sess.profile.SelectedAddressID
			}
			if selected != "" {
				sess.store.Dispatch(store.SelectAddress{ID: selected})
			}
			sess.store.Flush()

			orchestrator := checkout.New(deps.Sofra, sess.store, sess.tokens, checkout.WithLogger(deps.Logger))
			preview, err := orchestrator.Review()
			if err != nil {
				return emitError(cmd, format, sess.label, flags.Output, "SOFRA_CHECKOUT_ERROR", err.Error())
			}
			blocks, err := orchestrator.Validate()
			if err != nil {
				return emitError(cmd, format, sess.label, flags.Output, "SOFRA_CHECKOUT_ERROR", err.Error())
			}
			if len(blocks) > 0 {
				return renderBlockedCheckout(cmd, format, sess.label, flags.Output, preview, blocks)
			}
			if !confirm {
				return renderCheckoutPreview(cmd, format, sess.label, flags.Output, preview)
			}

			result, err := orchestrator.Confirm(cmd.Context())
			if err != nil {
				switch {
				case errors.Is(err, checkout.ErrBlocked):
					return renderBlockedCheckout(cmd, format, sess.label, flags.Output, orchestrator.Session(), orchestrator.Blocks())
				case errors.Is(err, dispatch.ErrNoCredential):
					return emitThunkError(cmd, format, sess.label, flags.Output, err)
				default:
					reason := orchestrator.FailureReason()
					if reason == "" {
						reason = err.Error()
					}
					return emitUpstreamError(cmd, format, sess.label, flags.Output, flags.Verbose, reason)
				}
			}
			return renderPlacedOrder(cmd, format, sess.label, flags.Output, preview, result.OrderID, result.Total)
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Place the order. Without this flag checkout stops after the eligibility review.")
	cmd.Flags().BoolVar(&pickup, "pickup", false, "Order for pickup instead of delivery. No address is required.")
	cmd.Flags().StringVar(&addressID, "address-id", "", "Deliver to this saved address instead of the profile selection.")
	addGlobalFlags(cmd, &flags)
	return cmd
}

func checkoutSummaryRows(session view.CheckoutSession) [][]string {
	restaurantName := "-"
	if session.Restaurant != nil {
		restaurantName = session.Restaurant.Name
	}
	addressLine := "-"
	if session.Address != nil {
		addressLine = session.Address.Line
	}
	return [][]string{
		{"Restaurant", restaurantName},
		{"Mode", session.Mode},
		{"Address", addressLine},
		{"Items", formatCount(len(session.Items))},
		{"Subtotal", output.FormatMinorUnits(session.Subtotal, session.Currency)},
		{"Delivery fee", output.FormatMinorUnits(session.DeliveryFee, session.Currency)},
		{"Total", output.FormatMinorUnits(session.Total, session.Currency)},
	}
}

func renderCheckoutPreview(
	cmd *cobra.Command,
	format output.Format,
	profileLabel string,
	outputPath string,
	session view.CheckoutSession,
) error {
	if format != output.FormatTable {
		env := output.BuildEnvelope(profileLabel, map[string]any{
			"eligible": true,
			"session":  session,
		}, []string{"order not placed; pass --confirm to place it"}, nil)
		return writeMachinePayload(cmd, env, format, outputPath)
	}
	summary := output.RenderTable("Checkout preview", []string{"Field", "Value"}, checkoutSummaryRows(session))
	return writeTable(cmd, summary+"\n\nEligible. Pass --confirm to place the order.", outputPath)
}

func renderBlockedCheckout(
	cmd *cobra.Command,
	format output.Format,
	profileLabel string,
	outputPath string,
	session view.CheckoutSession,
	blocks []checkout.BlockReason,
) error {
	reasons := make([]string, 0, len(blocks))
	for _, block := range blocks {
		reasons = append(reasons, string(block))
	}
	if format != output.FormatTable {
		env := output.BuildEnvelope(profileLabel, map[string]any{
			"eligible": false,
			"blocks":   reasons,
			"session":  session,
		}, nil, nil)
		if err := writeMachinePayload(cmd, env, format, outputPath); err != nil {
			return err
		}
		return &exitError{code: 1}
	}
	summary := output.RenderTable("Checkout blocked", []string{"Reason"}, toSingleColumn(reasons))
	if err := writeTable(cmd, summary, outputPath); err != nil {
		return err
	}
	return &exitError{code: 1}
}

func renderPlacedOrder(
	cmd *cobra.Command,
	format output.Format,
	profileLabel string,
	outputPath string,
	session view.CheckoutSession,
	orderID string,
	total int64,
) error {
	if format != output.FormatTable {
		env := output.BuildEnvelope(profileLabel, map[string]any{
			"order_id": orderID,
			"total":    total,
			"currency": session.Currency,
		}, nil, nil)
		return writeMachinePayload(cmd, env, format, outputPath)
	}
	rows := [][]string{
		{"Order", orderID},
		{"Total", output.FormatMinorUnits(total, session.Currency)},
	}
	return writeTable(cmd, output.RenderTable("Order placed", []string{"Field", "Value"}, rows), outputPath)
}

func toSingleColumn(values []string) [][]string {
	rows := make([][]string, 0, len(values))
	for _, value := range values {
		rows = append(rows, []string{value})
	}
	if len(rows) == 0 {
		rows = append(rows, []string{"-"})
	}
	return rows
}
