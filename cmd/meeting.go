package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nlasala/campus-meet-cli/internal/application"
	"github.com/nlasala/campus-meet-cli/internal/ports"
)

func newMeetingCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meeting",
		Short: "Join or start conferencing meetings",
	}

	cmd.AddCommand(newMeetingJoinCmd(app), newMeetingStartCmd(app))

	return cmd
}

func newMeetingJoinCmd(app *app) *cobra.Command {
	var (
		number   string
		password string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join a meeting as a participant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			displayName, err := resolveDisplayName(cmd, app, name)
			if err != nil {
				return err
			}

			if err := app.launcher.Join(cmd.Context(), ports.JoinRequest{
				UserName:      displayName,
				MeetingNumber: number,
				Password:      password,
			}); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Handed meeting %s to the conferencing client\n", number)
			return nil
		},
	}

	cmd.Flags().StringVar(&number, "number", "", "Meeting number")
	cmd.Flags().StringVar(&password, "password", "", "Meeting passcode")
	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the linked identity)")
	_ = cmd.MarkFlagRequired("number")

	return cmd
}

func newMeetingStartCmd(app *app) *cobra.Command {
	var (
		number string
		zak    string
		name   string
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a meeting as host",
		RunE: func(cmd *cobra.Command, _ []string) error {
			displayName, err := resolveDisplayName(cmd, app, name)
			if err != nil {
				return err
			}

			if err := app.launcher.Start(cmd.Context(), ports.StartRequest{
				UserName:      displayName,
				MeetingNumber: number,
				AccessToken:   zak,
			}); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Handed meeting %s to the conferencing client\n", number)
			return nil
		},
	}

	cmd.Flags().StringVar(&number, "number", "", "Meeting number")
	cmd.Flags().StringVar(&zak, "zak", "", "Host access token (ZAK)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the linked identity)")
	_ = cmd.MarkFlagRequired("number")
	_ = cmd.MarkFlagRequired("zak")

	return cmd
}

func resolveDisplayName(cmd *cobra.Command, app *app, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	if email, err := app.store.Get(cmd.Context(), application.KeyZoomUserEmail); err == nil && email != "" {
		return email, nil
	}
	if username, err := app.store.Get(cmd.Context(), application.KeyLMSUsername); err == nil && username != "" {
		return username, nil
	}

	return "Guest", nil
}
