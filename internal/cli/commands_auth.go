package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ecakir/sofra-cli/internal/config"
	"github.com/ecakir/sofra-cli/internal/service/output"
)

func newLogoutCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Drop the stored credential and reset account state.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			sess := newSession(cmd.Context(), deps, flags)
			defer sess.close()

			sess.actions.Logout()
			sess.store.Flush()

			cleared := false
			if deps.Config != nil {
				cfg, loadErr := deps.Config.Load(cmd.Context())
				switch {
				case errors.Is(loadErr, config.ErrConfigNotFound):
					// nothing stored, nothing to clear
				case loadErr != nil:
					return loadErr
				default:
					if index := findProfileIndex(cfg, flags.Profile); index >= 0 && cfg.Profiles[index].Token != "" {
						cfg.Profiles[index].Token = ""
						if saveErr := deps.Config.Save(cmd.Context(), cfg); saveErr != nil {
							return saveErr
						}
						cleared = true
					}
				}
			}

			if format != output.FormatTable {
				env := output.BuildEnvelope(sess.label, map[string]any{"token_cleared": cleared}, nil, nil)
				return writeMachinePayload(cmd, env, format, flags.Output)
			}
			if cleared {
				return writeTable(cmd, "Logged out. Stored token removed from the profile.", flags.Output)
			}
			return writeTable(cmd, "Logged out.", flags.Output)
		},
	}

	addGlobalFlags(cmd, &flags)
	return cmd
}
