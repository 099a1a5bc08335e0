package cli

import (
	"strings"

	"github.com/spf13/cobra"

	sofragateway "github.com/ecakir/sofra-cli/internal/gateway/sofra"
	"github.com/ecakir/sofra-cli/internal/service/output"
)

func newRestaurantCommand(deps Dependencies) *cobra.Command {
	restaurant := &cobra.Command{
		Use:   "restaurant",
		Short: "Inspect one restaurant and its menu.",
	}
	restaurant.AddCommand(newRestaurantShowCommand(deps))
	restaurant.AddCommand(newRestaurantMenuCommand(deps))
	return restaurant
}

func newRestaurantShowCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "show <restaurant-id>",
		Short: "Show restaurant details.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			sess := newSession(cmd.Context(), deps, flags)
			defer sess.close()

			sess.actions.SelectRestaurant(cmd.Context(), strings.TrimSpace(args[0]))
			snapshot := sess.snapshot()
			if reason := sliceError(snapshot.Restaurant.Status); reason != "" {
				return emitUpstreamError(cmd, format, sess.label, flags.Output, flags.Verbose, reason)
			}
			selected := snapshot.Restaurant.Selected
			if selected == nil {
				return emitError(cmd, format, sess.label, flags.Output, "SOFRA_NOT_FOUND", "Restaurant not found.")
			}

			if format != output.FormatTable {
				env := output.BuildEnvelope(sess.label, map[string]any{"restaurant": selected}, nil, nil)
				return writeMachinePayload(cmd, env, format, flags.Output)
			}
			rows := [][]string{
				{"ID", selected.ID},
				{"Name", selected.Name},
				{"Address", fallbackString(selected.Address, "-")},
				{"Working hours", workingHoursLabel(*selected)},
				{"Working days", fallbackString(strings.Join(selected.WorkingDays, ", "), "-")},
				{"Min order", output.FormatMinorUnits(selected.MinOrderAmount, selected.Currency)},
				{"Delivery fee", output.FormatMinorUnits(selected.DeliveryFee, selected.Currency)},
				{"Delivers", yesNo(selected.Delivers)},
				{"Flash deal", yesNo(selected.FlashDeal)},
			}
			return writeTable(cmd, output.RenderTable("Restaurant", []string{"Field", "Value"}, rows), flags.Output)
		},
	}

	addGlobalFlags(cmd, &flags)
	return cmd
}

func newRestaurantMenuCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var page int
	var limit int

	cmd := &cobra.Command{
		Use:   "menu <restaurant-id>",
		Short: "List one catalog page of a restaurant menu.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			sess := newSession(cmd.Context(), deps, flags)
			defer sess.close()

			restaurantID := strings.TrimSpace(args[0])
			sess.actions.SelectRestaurant(cmd.Context(), restaurantID)
			sess.actions.FetchListings(cmd.Context(), restaurantID, sofragateway.Page{Page: page, Limit: limit})
			snapshot := sess.snapshot()
			if reason := sliceError(snapshot.Restaurant.Status); reason != "" {
				return emitUpstreamError(cmd, format, sess.label, flags.Output, flags.Verbose, reason)
			}

			listings := snapshot.Restaurant.Listings
			currency := ""
			if snapshot.Restaurant.Selected != nil {
				currency = snapshot.Restaurant.Selected.Currency
			}

			if format != output.FormatTable {
				env := output.BuildEnvelope(sess.label, map[string]any{"listings": listings}, nil, nil)
				return writeMachinePayload(cmd, env, format, flags.Output)
			}
			headers := []string{"ID", "Title", "Price", "Available"}
			rows := make([][]string, 0, len(listings.Items))
			for _, listing := range listings.Items {
				rows = append(rows, []string{
					listing.ID,
					listing.Title,
					output.FormatMinorUnits(listing.Price, currency),
					yesNo(listing.Available),
				})
			}
			if len(rows) == 0 {
				rows = append(rows, []string{"-", "menu page is empty", "-", "-"})
			}
			title := "Menu page " + formatCount(listings.Page) + " of " + formatCount(pageCount(listings.Total, listings.Limit))
			return writeTable(cmd, output.RenderTable(title, headers, rows), flags.Output)
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Catalog page to load.")
	cmd.Flags().IntVar(&limit, "limit", 50, "Listings per page.")
	addGlobalFlags(cmd, &flags)
	return cmd
}

func pageCount(total int, limit int) int {
	if limit <= 0 {
		return 1
	}
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	if pages < 1 {
		pages = 1
	}
	return pages
}
