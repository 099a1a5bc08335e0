package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search restaurants by free text.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			query := strings.TrimSpace(args[0])
			if query == "" {
				return fmt.Errorf("%s", requiredArg("query"))
			}
			sess := newSession(cmd.Context(), deps, flags)
			defer sess.close()

			location, err := resolveLocation(cmd.Context(), deps, flags.Address, sess.profile, format, sess.label, flags.Output, cmd)
			if err != nil {
				return err
			}

			sess.actions.SearchRestaurants(cmd.Context(), location, query)
			snapshot := sess.snapshot()
			if reason := sliceError(snapshot.Search.Status); reason != "" {
				return emitUpstreamError(cmd, format, sess.label, flags.Output, flags.Verbose, reason)
			}
			title := fmt.Sprintf("Search results for %q", snapshot.Search.Query)
			return renderRestaurants(cmd, format, sess.label, flags.Output, title, snapshot.Search.Results)
		},
	}

	addGlobalFlags(cmd, &flags)
	return cmd
}
