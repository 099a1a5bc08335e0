package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecakir/sofra-cli/internal/dispatch"
	"github.com/ecakir/sofra-cli/internal/domain"
	sofragateway "github.com/ecakir/sofra-cli/internal/gateway/sofra"
	"github.com/ecakir/sofra-cli/internal/service/output"
	"github.com/ecakir/sofra-cli/internal/service/profile"
	"github.com/ecakir/sofra-cli/internal/store"
)

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return ""
}

type globalFlags struct {
	Format  string
	Profile string
	Address string
	Output  string
	Token   string
	Verbose bool
}

const sharedGlobalFlagAnnotation = "sofra_cli_shared_global"

func addGlobalFlags(cmd *cobra.Command, flags *globalFlags) {
	addSharedGlobalFlag(cmd, "format", func() {
		cmd.Flags().StringVar(&flags.Format, "format", "table", "Output format: table, json, or yaml.")
	})
	addSharedGlobalFlag(cmd, "profile", func() {
		cmd.Flags().StringVar(&flags.Profile, "profile", "", "Profile name for saved local defaults.")
	})
	addSharedGlobalFlag(cmd, "address", func() {
		cmd.Flags().StringVar(&flags.Address, "address", "", "Temporary address override for this command. Geocoded to coordinates.")
	})
	addSharedGlobalFlag(cmd, "output", func() {
		cmd.Flags().StringVar(&flags.Output, "output", "", "Write rendered output to a file as well as stdout.")
	})
	addSharedGlobalFlag(cmd, "token", func() {
		cmd.Flags().StringVar(&flags.Token, "token", "", "Bearer token override for authenticated endpoints.")
	})
	addSharedGlobalFlag(cmd, "verbose", func() {
		cmd.Flags().BoolVar(&flags.Verbose, "verbose", false, "Enable verbose output with detailed error diagnostics.")
	})
}

func addSharedGlobalFlag(cmd *cobra.Command, name string, register func()) {
	if cmd.Flags().Lookup(name) != nil {
		return
	}
	register()
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		return
	}
	if flag.Annotations == nil {
		flag.Annotations = map[string][]string{}
	}
	flag.Annotations[sharedGlobalFlagAnnotation] = []string{"true"}
}

func resolveProfileLabel(profileName string) string {
	trimmed := strings.TrimSpace(profileName)
	if trimmed == "" {
		return "default"
	}
	return trimmed
}

func parseOutputFormat(format string) (output.Format, error) {
	return output.ParseFormat(format)
}

func writeTable(cmd *cobra.Command, text string, outputPath string) error {
	return output.WriteOutput(cmd.OutOrStdout(), text, outputPath)
}

func writeMachinePayload(cmd *cobra.Command, env output.Envelope, format output.Format, outputPath string) error {
	rendered, err := output.RenderPayload(env, format)
	if err != nil {
		return err
	}
	return output.WriteOutput(cmd.OutOrStdout(), rendered, outputPath)
}

func emitError(
	cmd *cobra.Command,
	format output.Format,
	profileLabel string,
	outputPath string,
	code string,
	message string,
) error {
	if format == output.FormatTable {
		if err := output.WriteOutput(cmd.OutOrStdout(), message, outputPath); err != nil {
			return err
		}
		return &exitError{code: 1}
	}
	env := output.BuildEnvelope(profileLabel, nil, nil, &output.ErrorPayload{
		Code:    code,
		Message: message,
	})
	if err := writeMachinePayload(cmd, env, format, outputPath); err != nil {
		return err
	}
	return &exitError{code: 1}
}

func emitUpstreamError(
	cmd *cobra.Command,
	format output.Format,
	profileLabel string,
	outputPath string,
	verbose bool,
	message string,
) error {
	if !verbose {
		message = sofragateway.ErrUpstream.Error() + " (use --verbose for details)"
	}
	return emitError(cmd, format, profileLabel, outputPath, "SOFRA_UPSTREAM_ERROR", message)
}

// session ties together the per-command state container, the thunk
// dispatcher, and the resolved profile.
type session struct {
	store   *store.Store
	actions *dispatch.Dispatcher
	tokens  dispatch.TokenSource
	profile domain.Profile
	label   string
}

func newSession(ctx context.Context, deps Dependencies, flags globalFlags) *session {
	resolved := domain.Profile{Name: resolveProfileLabel(flags.Profile)}
	if deps.Profiles != nil {
		if found, err := deps.Profiles.Find(ctx, flags.Profile); err == nil {
			resolved = found
		}
	}
	tokens := profile.NewTokens(deps.Profiles, flags.Profile, flags.Token)

	st := store.New(store.WithLogger(deps.Logger))
	actions := dispatch.New(deps.Sofra, st, tokens, dispatch.WithLogger(deps.Logger))
	return &session{
		store:   st,
		actions: actions,
		tokens:  tokens,
		profile: resolved,
		label:   resolveProfileLabel(flags.Profile),
	}
}

func (s *session) close() {
	s.store.Close()
}

// snapshot flushes pending messages and returns the settled state.
func (s *session) snapshot() *store.State {
	s.store.Flush()
	return s.store.Snapshot()
}

// sliceError surfaces a failed remote operation recorded in slice state.
func sliceError(status store.AsyncStatus) string {
	return strings.TrimSpace(status.Err)
}

func emitThunkError(
	cmd *cobra.Command,
	format output.Format,
	profileLabel string,
	outputPath string,
	err error,
) error {
	switch {
	case errors.Is(err, dispatch.ErrNoCredential):
		return emitError(
			cmd,
			format,
			profileLabel,
			outputPath,
			"SOFRA_AUTH_REQUIRED",
			"Authentication is required. Provide --token or configure a profile token.",
		)
	case errors.Is(err, dispatch.ErrDifferentRestaurant):
		return emitError(
			cmd,
			format,
			profileLabel,
			outputPath,
			"SOFRA_DIFFERENT_RESTAURANT",
			"Cart already holds items from another restaurant. Clear the cart first.",
		)
	default:
		return emitError(cmd, format, profileLabel, outputPath, "SOFRA_PROFILE_ERROR", err.Error())
	}
}

func resolveLocation(
	ctx context.Context,
	deps Dependencies,
	address string,
	resolved domain.Profile,
	format output.Format,
	profileLabel string,
	outputPath string,
	cmd *cobra.Command,
) (domain.Location, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed != "" {
		if deps.Location == nil {
			return domain.Location{}, emitError(
				cmd,
				format,
				profileLabel,
				outputPath,
				"SOFRA_LOCATION_RESOLVE_ERROR",
				"Location resolver is not available.",
			)
		}
		location, err := deps.Location.Get(ctx, trimmed)
		if err != nil {
			return domain.Location{}, emitError(
				cmd,
				format,
				profileLabel,
				outputPath,
				"SOFRA_LOCATION_RESOLVE_ERROR",
				err.Error(),
			)
		}
		return location, nil
	}

	if resolved.Location.IsZero() {
		return domain.Location{}, emitError(
			cmd,
			format,
			profileLabel,
			outputPath,
			"SOFRA_LOCATION_RESOLVE_ERROR",
			"No location on the selected profile. Pass --address or configure a profile location.",
		)
	}
	return resolved.Location, nil
}

func requiredArg(name string) string {
	return fmt.Sprintf("%s is required", name)
}

func fallbackString(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func formatCount(n int) string {
	return fmt.Sprintf("%d", n)
}
