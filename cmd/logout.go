package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear stored credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessions := app.sessionService(app.site)
			bridge := app.bridgeService(app.site)

			if err := sessions.Logout(cmd.Context()); err != nil {
				return err
			}
			if err := bridge.Reset(cmd.Context()); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
