package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	sofragateway "github.com/ecakir/sofra-cli/internal/gateway/sofra"
	"github.com/ecakir/sofra-cli/internal/service/output"
)

func newReportCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var subject string
	var body string
	var attachmentPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Send a support report, optionally with a file attachment.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			if strings.TrimSpace(subject) == "" {
				return fmt.Errorf("%s", requiredArg("--subject"))
			}
			if strings.TrimSpace(body) == "" {
				return fmt.Errorf("%s", requiredArg("--body"))
			}

			input := sofragateway.ReportInput{
				Subject: strings.TrimSpace(subject),
				Body:    strings.TrimSpace(body),
			}
			if trimmedPath := strings.TrimSpace(attachmentPath); trimmedPath != "" {
				content, readErr := os.ReadFile(trimmedPath)
				if readErr != nil {
					return fmt.Errorf("read attachment: %w", readErr)
				}
				input.Attachment = content
				input.AttachmentName = filepath.Base(trimmedPath)
			}

			sess := newSession(cmd.Context(), deps, flags)
			defer sess.close()

			if thunkErr := sess.actions.SubmitReport(cmd.Context(), input); thunkErr != nil {
				return emitThunkError(cmd, format, sess.label, flags.Output, thunkErr)
			}
			snapshot := sess.snapshot()
			if reason := sliceError(snapshot.Report.Status); reason != "" {
				return emitUpstreamError(cmd, format, sess.label, flags.Output, flags.Verbose, reason)
			}
			accepted := snapshot.Report.LastReport
			if accepted == nil {
				return emitUpstreamError(cmd, format, sess.label, flags.Output, flags.Verbose, "report was not acknowledged")
			}

			if format != output.FormatTable {
				env := output.BuildEnvelope(sess.label, map[string]any{"report": accepted}, nil, nil)
				return writeMachinePayload(cmd, env, format, flags.Output)
			}
			rows := [][]string{
				{"ID", accepted.ID},
				{"Subject", accepted.Subject},
				{"Attachment", fallbackString(accepted.AttachmentName, "-")},
			}
			return writeTable(cmd, output.RenderTable("Report accepted", []string{"Field", "Value"}, rows), flags.Output)
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Report subject line.")
	cmd.Flags().StringVar(&body, "body", "", "Report body text.")
	cmd.Flags().StringVar(&attachmentPath, "attachment", "", "Path of a file to attach.")
	addGlobalFlags(cmd, &flags)
	return cmd
}
