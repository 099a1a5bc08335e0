package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecakir/sofra-cli/internal/service/output"
)

func newNotifyCommand(deps Dependencies) *cobra.Command {
	notify := &cobra.Command{
		Use:   "notify",
		Short: "Manage push notification registration.",
	}
	notify.AddCommand(newNotifyRegisterCommand(deps))
	return notify
}

func newNotifyRegisterCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "register <device-token>",
		Short: "Register a device push token for order updates.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			token := strings.TrimSpace(args[0])
			if token == "" {
				return fmt.Errorf("%s", requiredArg("device-token"))
			}
			sess := newSession(cmd.Context(), deps, flags)
			defer sess.close()

			if thunkErr := sess.actions.RegisterPushToken(cmd.Context(), token); thunkErr != nil {
				return emitThunkError(cmd, format, sess.label, flags.Output, thunkErr)
			}
			snapshot := sess.snapshot()
			if reason := sliceError(snapshot.Notification.Status); reason != "" {
				return emitUpstreamError(cmd, format, sess.label, flags.Output, flags.Verbose, reason)
			}

			if format != output.FormatTable {
				env := output.BuildEnvelope(sess.label, map[string]any{
					"registered": snapshot.Notification.Registered,
					"push_token": snapshot.Notification.PushToken,
				}, nil, nil)
				return writeMachinePayload(cmd, env, format, flags.Output)
			}
			return writeTable(cmd, "Push token registered.", flags.Output)
		},
	}

	addGlobalFlags(cmd, &flags)
	return cmd
}
