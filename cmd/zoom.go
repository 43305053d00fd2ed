package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	zoomadapter "github.com/nlasala/campus-meet-cli/internal/adapters/zoom"
	"github.com/nlasala/campus-meet-cli/internal/application"
	"github.com/nlasala/campus-meet-cli/internal/domain"
)

func newZoomCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zoom",
		Short: "Manage the conferencing identity link",
	}

	cmd.AddCommand(newZoomLinkCmd(app), newZoomTokenCmd(app))

	return cmd
}

func newZoomLinkCmd(app *app) *cobra.Command {
	var (
		email     string
		server    bool
		profileID string
	)

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Link a conferencing identity to the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			site, err := app.resolveSite(cmd.Context(), profileID)
			if err != nil {
				return err
			}

			sessions := app.sessionService(site)
			session, ok, err := sessions.Restore(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrNotLoggedIn
			}

			bridge := app.bridgeService(site)

			var identity domain.ConferencingIdentity
			switch {
			case server:
				identity, err = bridge.ServerLink(cmd.Context())
			case email != "":
				identity, err = bridge.ManualLink(email)
			default:
				identity, err = bridge.AutoLink(session.Username)
			}
			if err != nil {
				return err
			}

			if err := sessions.SetConferencingIdentity(identity); err != nil {
				return err
			}

			label := "verified"
			if identity.Synthetic {
				label = "unverified"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Linked conferencing identity %s (%s)\n", identity.Email, label)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Conferencing email on the institutional domain")
	cmd.Flags().BoolVar(&server, "server", false, "Resolve the identity via Server-to-Server OAuth")
	cmd.Flags().StringVar(&profileID, "profile", "", "Site profile ID")

	return cmd
}

func newZoomTokenCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Show the stored conferencing token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			accessToken, err := app.store.Get(cmd.Context(), application.KeyZoomAccessToken)
			if err != nil {
				return fmt.Errorf("no conferencing token stored: %w", err)
			}

			bundle := zoomadapter.TokenBundle{AccessToken: accessToken}
			if raw, err := app.store.Get(cmd.Context(), application.KeyZoomRefreshToken); err == nil {
				bundle.RefreshToken = raw
			}
			if raw, err := app.store.Get(cmd.Context(), application.KeyZoomExpiresAt); err == nil {
				if unix, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil {
					bundle.ExpiresAt = unix
				}
			}

			encoded, err := zoomadapter.EncodeTokenBundle(bundle)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), encoded)

			if bundle.ExpiringSoon(app.now(), 5*time.Minute) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Token is expired or expiring soon; relink with: cm zoom link --server")
			}
			return nil
		},
	}
}
