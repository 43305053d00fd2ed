package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nlasala/campus-meet-cli/internal/application"
)

type statusOutput struct {
	State             string `json:"state"`
	Username          string `json:"username,omitempty"`
	ConferencingEmail string `json:"conferencing_email,omitempty"`
}

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessions := app.sessionService(app.site)

			session, ok, err := sessions.Restore(cmd.Context())
			if err != nil {
				return err
			}

			out := statusOutput{State: string(application.StateLoggedOut)}
			if ok {
				out.State = string(application.StateLoggedIn)
				out.Username = session.Username

				// A missing conferencing record just means nothing linked.
				if email, err := app.store.Get(cmd.Context(), application.KeyZoomUserEmail); err == nil {
					out.ConferencingEmail = email
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			if !ok {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", out.Username)
			if out.ConferencingEmail != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Conferencing identity: %s\n", out.ConferencingEmail)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}
