package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecakir/sofra-cli/internal/domain"
	sofragateway "github.com/ecakir/sofra-cli/internal/gateway/sofra"
	"github.com/ecakir/sofra-cli/internal/service/output"
)

func newDiscoverCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var page int
	var limit int
	var recommended bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List restaurants near your location.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			sess := newSession(cmd.Context(), deps, flags)
			defer sess.close()

			location, err := resolveLocation(cmd.Context(), deps, flags.Address, sess.profile, format, sess.label, flags.Output, cmd)
			if err != nil {
				return err
			}

			if recommended {
				if thunkErr := sess.actions.FetchRecommendations(cmd.Context(), location); thunkErr != nil {
					return emitThunkError(cmd, format, sess.label, flags.Output, thunkErr)
				}
				snapshot := sess.snapshot()
				if reason := sliceError(snapshot.Recommendation.Status); reason != "" {
					return emitUpstreamError(cmd, format, sess.label, flags.Output, flags.Verbose, reason)
				}
				return renderRestaurants(cmd, format, sess.label, flags.Output, "Recommended restaurants", snapshot.Recommendation.Restaurants)
			}

			sess.actions.FetchRestaurants(cmd.Context(), location, sofragateway.Page{Page: page, Limit: limit})
			snapshot := sess.snapshot()
			if reason := sliceError(snapshot.Restaurant.Status); reason != "" {
				return emitUpstreamError(cmd, format, sess.label, flags.Output, flags.Verbose, reason)
			}
			return renderRestaurants(cmd, format, sess.label, flags.Output, "Nearby restaurants", snapshot.Restaurant.Nearby)
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Result page to load.")
	cmd.Flags().IntVar(&limit, "limit", 20, "Result count per page.")
	cmd.Flags().BoolVar(&recommended, "recommended", false, "Show account flash-deal recommendations instead of the full nearby list.")
	addGlobalFlags(cmd, &flags)
	return cmd
}

func renderRestaurants(
	cmd *cobra.Command,
	format output.Format,
	profileLabel string,
	outputPath string,
	title string,
	restaurants []domain.Restaurant,
) error {
	if format != output.FormatTable {
		env := output.BuildEnvelope(profileLabel, map[string]any{"restaurants": restaurants}, nil, nil)
		return writeMachinePayload(cmd, env, format, outputPath)
	}
	headers := []string{"ID", "Name", "Rating", "Min order", "Delivery fee", "Delivers", "Flash deal"}
	rows := make([][]string, 0, len(restaurants))
	for _, restaurant := range restaurants {
		rows = append(rows, []string{
			restaurant.ID,
			restaurant.Name,
			fmt.Sprintf("%.1f", restaurant.Rating),
			output.FormatMinorUnits(restaurant.MinOrderAmount, restaurant.Currency),
			output.FormatMinorUnits(restaurant.DeliveryFee, restaurant.Currency),
			yesNo(restaurant.Delivers),
			yesNo(restaurant.FlashDeal),
		})
	}
	if len(rows) == 0 {
		rows = append(rows, []string{"-", "no restaurants found", "-", "-", "-", "-", "-"})
	}
	return writeTable(cmd, output.RenderTable(title, headers, rows), outputPath)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func workingHoursLabel(restaurant domain.Restaurant) string {
	if strings.TrimSpace(restaurant.WorkingHoursStart) == "" {
		return "-"
	}
	return restaurant.WorkingHoursStart + "-" + restaurant.WorkingHoursEnd
}
