package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecakir/sofra-cli/internal/domain"
	sofragateway "github.com/ecakir/sofra-cli/internal/gateway/sofra"
	"github.com/ecakir/sofra-cli/internal/service/output"
)

func newAddressCommand(deps Dependencies) *cobra.Command {
	address := &cobra.Command{
		Use:   "address",
		Short: "Manage saved delivery addresses.",
	}
	address.AddCommand(newAddressListCommand(deps))
	address.AddCommand(newAddressAddCommand(deps))
	address.AddCommand(newAddressRemoveCommand(deps))
	address.AddCommand(newAddressSelectCommand(deps))
	return address
}

func newAddressListCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved delivery addresses.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			sess := newSession(cmd.Context(), deps, flags)
			defer sess.close()

			if thunkErr := sess.actions.FetchAddresses(cmd.Context()); thunkErr != nil {
				return emitThunkError(cmd, format, sess.label, flags.Output, thunkErr)
			}
			snapshot := sess.snapshot()
			if reason := sliceError(snapshot.Address.Status); reason != "" {
				return emitUpstreamError(cmd, format, sess.label, flags.Output, flags.Verbose, reason)
			}
			return renderAddresses(cmd, format, sess.label, flags.Output, snapshot.Address.Addresses, sess.profile.SelectedAddressID)
		},
	}

	addGlobalFlags(cmd, &flags)
	return cmd
}

func newAddressAddCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var line string
	var lat float64
	var lon float64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a new delivery address.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			trimmedLine := strings.TrimSpace(line)
			if trimmedLine == "" {
				return fmt.Errorf("%s", requiredArg("--line"))
			}
			sess := newSession(cmd.Context(), deps, flags)
			defer sess.close()

			location := domain.Location{Lat: lat, Lon: lon}
			if location.IsZero() {
				resolved, locErr := resolveLocation(cmd.Context(), deps, trimmedLine, sess.profile, format, sess.label, flags.Output, cmd)
				if locErr != nil {
					return locErr
				}
				location = resolved
			}

			input := sofragateway.AddressInput{Line: trimmedLine, Location: location}
			if thunkErr := sess.actions.CreateAddress(cmd.Context(), input); thunkErr != nil {
				return emitThunkError(cmd, format, sess.label, flags.Output, thunkErr)
			}
			snapshot := sess.snapshot()
			if reason := sliceError(snapshot.Address.Status); reason != "" {
				return emitUpstreamError(cmd, format, sess.label, flags.Output, flags.Verbose, reason)
			}
			return renderAddresses(cmd, format, sess.label, flags.Output, snapshot.Address.Addresses, snapshot.Address.SelectedID)
		},
	}

	cmd.Flags().StringVar(&line, "line", "", "Street address line (geocoded when --lat/--lon are absent).")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude of the address. Provide together with --lon.")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude of the address. Provide together with --lat.")
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newAddressRemoveCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "remove <address-id>",
		Short: "Delete a saved delivery address.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			sess := newSession(cmd.Context(), deps, flags)
			defer sess.close()

			addressID := strings.TrimSpace(args[0])
			if thunkErr := sess.actions.DeleteAddress(cmd.Context(), addressID); thunkErr != nil {
				return emitThunkError(cmd, format, sess.label, flags.Output, thunkErr)
			}
			snapshot := sess.snapshot()
			if reason := sliceError(snapshot.Address.Status); reason != "" {
				return emitUpstreamError(cmd, format, sess.label, flags.Output, flags.Verbose, reason)
			}

			// Deleting the profile-selected address also clears the
			// persisted selection.
			if deps.Config != nil && sess.profile.SelectedAddressID == addressID {
				if clearErr := persistSelectedAddress(cmd, deps, flags.Profile, ""); clearErr != nil {
					return clearErr
				}
			}
			return renderAddresses(cmd, format, sess.label, flags.Output, snapshot.Address.Addresses, snapshot.Address.SelectedID)
		},
	}

	addGlobalFlags(cmd, &flags)
	return cmd
}

func newAddressSelectCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "select <address-id>",
		Short: "Mark a saved address as the delivery target.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			sess := newSession(cmd.Context(), deps, flags)
			defer sess.close()

			if thunkErr := sess.actions.FetchAddresses(cmd.Context()); thunkErr != nil {
				return emitThunkError(cmd, format, sess.label, flags.Output, thunkErr)
			}
			snapshot := sess.snapshot()
			if reason := sliceError(snapshot.Address.Status); reason != "" {
				return emitUpstreamError(cmd, format, sess.label, flags.Output, flags.Verbose, reason)
			}

			addressID := strings.TrimSpace(args[0])
			found := false
			for _, addr := range snapshot.Address.Addresses {
				if addr.ID == addressID {
					found = true
					break
				}
			}
			if !found {
				return emitError(
					cmd,
					format,
					sess.label,
					flags.Output,
					"SOFRA_ADDRESS_NOT_FOUND",
					fmt.Sprintf("Address %q is not saved on this account.", addressID),
				)
			}

			if err := persistSelectedAddress(cmd, deps, flags.Profile, addressID); err != nil {
				return err
			}
			return renderAddresses(cmd, format, sess.label, flags.Output, snapshot.Address.Addresses, addressID)
		},
	}

	addGlobalFlags(cmd, &flags)
	return cmd
}

func persistSelectedAddress(cmd *cobra.Command, deps Dependencies, profileName string, addressID string) error {
	if deps.Config == nil {
		return fmt.Errorf("config store is not available")
	}
	cfg, err := deps.Config.Load(cmd.Context())
	if err != nil {
		return err
	}
	index := findProfileIndex(cfg, profileName)
	if index < 0 {
		return fmt.Errorf("profile %q not found in config", resolveProfileLabel(profileName))
	}
	cfg.Profiles[index].SelectedAddressID = addressID
	return deps.Config.Save(cmd.Context(), cfg)
}

func findProfileIndex(cfg domain.Config, profileName string) int {
	trimmed := strings.TrimSpace(profileName)
	if trimmed != "" {
		for i, profile := range cfg.Profiles {
			if strings.EqualFold(strings.TrimSpace(profile.Name), trimmed) {
				return i
			}
		}
		return -1
	}
	for i, profile := range cfg.Profiles {
		if profile.IsDefault {
			return i
		}
	}
	if len(cfg.Profiles) == 1 {
		return 0
	}
	return -1
}

func renderAddresses(
	cmd *cobra.Command,
	format output.Format,
	profileLabel string,
	outputPath string,
	addresses []domain.Address,
	selectedID string,
) error {
	if format != output.FormatTable {
		env := output.BuildEnvelope(profileLabel, map[string]any{
			"addresses":   addresses,
			"selected_id": selectedID,
		}, nil, nil)
		return writeMachinePayload(cmd, env, format, outputPath)
	}
	headers := []string{"ID", "Line", "Lat", "Lon", "Selected"}
	rows := make([][]string, 0, len(addresses))
	for _, addr := range addresses {
		rows = append(rows, []string{
			addr.ID,
			addr.Line,
			fmt.Sprintf("%.6f", addr.Location.Lat),
			fmt.Sprintf("%.6f", addr.Location.Lon),
			yesNo(addr.ID == selectedID && selectedID != ""),
		})
	}
	if len(rows) == 0 {
		rows = append(rows, []string{"-", "no saved addresses", "-", "-", "-"})
	}
	return writeTable(cmd, output.RenderTable("Addresses", headers, rows), outputPath)
}
