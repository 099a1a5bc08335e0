package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecakir/sofra-cli/internal/domain"
	sofragateway "github.com/ecakir/sofra-cli/internal/gateway/sofra"
	"github.com/ecakir/sofra-cli/internal/service/output"
	"github.com/ecakir/sofra-cli/internal/store"
	"github.com/ecakir/sofra-cli/internal/view"
)

func newCartCommand(deps Dependencies) *cobra.Command {
	cart := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and update cart contents.",
	}
	cart.AddCommand(newCartShowCommand(deps))
	cart.AddCommand(newCartAddCommand(deps))
	cart.AddCommand(newCartRemoveCommand(deps))
	cart.AddCommand(newCartClearCommand(deps))
	return cart
}

func newCartShowCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var pickup bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show cart items and totals.",
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
			if pickup {
				sess.store.Dispatch(store.SetPickup{IsPickup: true})
			}
			snapshot = sess.snapshot()

			var selector view.CartSelector
			cart := selector.View(snapshot)
			return renderCart(cmd, format, sess.label, flags.Output, cart)
		},
	}

	cmd.Flags().BoolVar(&pickup, "pickup", false, "Preview totals without the delivery fee.")
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newCartAddCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var count int
	var titleOverride string
	var priceOverride int64

	cmd := &cobra.Command{
		Use:   "add <restaurant-id> <listing-id>",
		Short: "Add a listing to the cart.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			if count <= 0 {
				return fmt.Errorf("%s", requiredArg("--count must be greater than 0"))
			}
			restaurantID := strings.TrimSpace(args[0])
			listingID := strings.TrimSpace(args[1])
			if restaurantID == "" || listingID == "" {
				return fmt.Errorf("restaurant-id and listing-id are required")
			}
			sess := newSession(cmd.Context(), deps, flags)
			defer sess.close()

			if thunkErr := sess.actions.FetchCart(cmd.Context()); thunkErr != nil {
				return emitThunkError(cmd, format, sess.label, flags.Output, thunkErr)
			}
			if reason := sliceError(sess.snapshot().Cart.Status); reason != "" {
				return emitUpstreamError(cmd, format, sess.label, flags.Output, flags.Verbose, reason)
			}

			title := strings.TrimSpace(titleOverride)
			price := priceOverride
			if title == "" || price <= 0 {
				listing, lookupErr := findListing(cmd.Context(), deps.Sofra, restaurantID, listingID)
				if lookupErr != nil {
					return emitError(
						cmd,
						format,
						sess.label,
						flags.Output,
						"SOFRA_LISTING_NOT_FOUND",
						fmt.Sprintf("Unable to resolve listing %q: %v. Provide --title and --price to add it anyway.", listingID, lookupErr),
					)
				}
				if title == "" {
					title = listing.Title
				}
				if price <= 0 {
					price = listing.Price
				}
			}

			input := sofragateway.CartItemInput{
				ListingID:    listingID,
				RestaurantID: restaurantID,
				Title:        title,
				Price:        price,
				Count:        count,
			}
			if thunkErr := sess.actions.AddCartItem(cmd.Context(), input); thunkErr != nil {
				return emitThunkError(cmd, format, sess.label, flags.Output, thunkErr)
			}
			snapshot := sess.snapshot()
			if reason := sliceError(snapshot.Cart.Status); reason != "" {
				return emitUpstreamError(cmd, format, sess.label, flags.Output, flags.Verbose, reason)
			}
			sess.actions.SelectRestaurant(cmd.Context(), restaurantID)
			snapshot = sess.snapshot()

			var selector view.CartSelector
			return renderCart(cmd, format, sess.label, flags.Output, selector.View(snapshot))
		},
	}

	cmd.Flags().IntVar(&count, "count", 1, "Quantity to add.")
	cmd.Flags().StringVar(&titleOverride, "title", "", "Override listing display title.")
	cmd.Flags().Int64Var(&priceOverride, "price", 0, "Override listing price in minor units.")
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newCartRemoveCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "remove <listing-id>",
		Short: "Remove a listing from the cart.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			sess := newSession(cmd.Context(), deps, flags)
			defer sess.close()

			if thunkErr := sess.actions.RemoveCartItem(cmd.Context(), strings.TrimSpace(args[0])); thunkErr != nil {
				return emitThunkError(cmd, format, sess.label, flags.Output, thunkErr)
			}
			snapshot := sess.snapshot()
			if reason := sliceError(snapshot.Cart.Status); reason != "" {
				return emitUpstreamError(cmd, format, sess.label, flags.Output, flags.Verbose, reason)
			}
			if restaurantID := snapshot.Cart.RestaurantID; restaurantID != "" {
				sess.actions.SelectRestaurant(cmd.Context(), restaurantID)
				snapshot = sess.snapshot()
			}

			var selector view.CartSelector
			return renderCart(cmd, format, sess.label, flags.Output, selector.View(snapshot))
		},
	}

	addGlobalFlags(cmd, &flags)
	return cmd
}

func newCartClearCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every item from the cart.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			sess := newSession(cmd.Context(), deps, flags)
			defer sess.close()

			if thunkErr := sess.actions.ClearCart(cmd.Context()); thunkErr != nil {
				return emitThunkError(cmd, format, sess.label, flags.Output, thunkErr)
			}
			snapshot := sess.snapshot()
			if reason := sliceError(snapshot.Cart.Status); reason != "" {
				return emitUpstreamError(cmd, format, sess.label, flags.Output, flags.Verbose, reason)
			}
			if format != output.FormatTable {
				env := output.BuildEnvelope(sess.label, map[string]any{"cleared": true}, nil, nil)
				return writeMachinePayload(cmd, env, format, flags.Output)
			}
			return writeTable(cmd, "Cart cleared.", flags.Output)
		},
	}

	addGlobalFlags(cmd, &flags)
	return cmd
}

// findListing scans catalog pages until the listing shows up. Bounded so a
// malformed paginator cannot loop forever.
func findListing(ctx context.Context, api sofragateway.API, restaurantID string, listingID string) (domain.Listing, error) {
	const pageLimit = 100
	const maxPages = 10
	for page := 1; page <= maxPages; page++ {
		listings, err := api.Listings(ctx, restaurantID, sofragateway.Page{Page: page, Limit: pageLimit})
		if err != nil {
			return domain.Listing{}, err
		}
		for _, listing := range listings.Items {
			if listing.ID == listingID {
				return listing, nil
			}
		}
		if len(listings.Items) < pageLimit || page*pageLimit >= listings.Total {
			break
		}
	}
	return domain.Listing{}, fmt.Errorf("listing %s not found in restaurant %s catalog", listingID, restaurantID)
}

func renderCart(
	cmd *cobra.Command,
	format output.Format,
	profileLabel string,
	outputPath string,
	cart view.CartView,
) error {
	if format != output.FormatTable {
		env := output.BuildEnvelope(profileLabel, map[string]any{"cart": cart}, nil, nil)
		return writeMachinePayload(cmd, env, format, outputPath)
	}

	headers := []string{"Listing", "Title", "Count", "Price", "Line total"}
	rows := make([][]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		rows = append(rows, []string{
			item.ListingID,
			item.Title,
			formatCount(item.Count),
			output.FormatMinorUnits(item.Price, cart.Currency),
			output.FormatMinorUnits(item.Subtotal(), cart.Currency),
		})
	}
	if len(rows) == 0 {
		rows = append(rows, []string{"-", "cart is empty", "0", "-", "-"})
	}
	items := output.RenderTable("Cart items", headers, rows)

	restaurantName := "-"
	if cart.Restaurant != nil {
		restaurantName = cart.Restaurant.Name
	}
	summaryRows := [][]string{
		{"Restaurant", restaurantName},
		{"Mode", cart.Mode},
		{"Subtotal", output.FormatMinorUnits(cart.Subtotal, cart.Currency)},
		{"Delivery fee", output.FormatMinorUnits(cart.DeliveryFee, cart.Currency)},
		{"Total", output.FormatMinorUnits(cart.Total, cart.Currency)},
	}
	summary := output.RenderTable("Cart summary", []string{"Field", "Value"}, summaryRows)
	return writeTable(cmd, items+"\n\n"+summary, outputPath)
}
