package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nlasala/campus-meet-cli/internal/domain"
)

func newLoginCmd(app *app) *cobra.Command {
	var (
		username  string
		password  string
		profileID string
		linkZoom  bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the campus LMS",
		RunE: func(cmd *cobra.Command, _ []string) error {
			site, err := app.resolveSite(cmd.Context(), profileID)
			if err != nil {
				return err
			}

			if username == "" || password == "" {
				if err := promptCredentials(&username, &password); err != nil {
					return fmt.Errorf("read credentials: %w", err)
				}
			}

			sessions := app.sessionService(site)
			session, err := sessions.Login(cmd.Context(), domain.Credentials{
				Username: username,
				Password: password,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", session.Username)

			if !linkZoom {
				return nil
			}

			bridge := app.bridgeService(site)
			identity, err := bridge.AutoLink(session.Username)
			if err != nil {
				return fmt.Errorf("link conferencing identity: %w", err)
			}
			if err := sessions.SetConferencingIdentity(identity); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Linked conferencing identity %s (unverified)\n", identity.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "LMS username (prompts when omitted)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "LMS password (prompts when omitted)")
	cmd.Flags().StringVar(&profileID, "profile", "", "Site profile ID to log in against")
	cmd.Flags().BoolVar(&linkZoom, "link-zoom", false, "Derive and attach the conferencing identity after login")

	return cmd
}

func promptCredentials(username, password *string) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(username).
				Validate(requireValue("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(password).
				Validate(requireValue("password")),
		),
	)

	return form.Run()
}

func requireValue(field string) func(string) error {
	return func(value string) error {
		if value == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
