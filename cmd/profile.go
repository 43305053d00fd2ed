package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nlasala/campus-meet-cli/internal/domain"
)

func newProfileCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage stored LMS site profiles",
	}

	cmd.AddCommand(newProfileAddCmd(app), newProfileListCmd(app))

	return cmd
}

func newProfileAddCmd(app *app) *cobra.Command {
	var (
		id          string
		name        string
		siteURL     string
		service     string
		emailDomain string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or update a site profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile := domain.SiteProfile{
				ID:          domain.ProfileID(id),
				Name:        name,
				SiteURL:     siteURL,
				Service:     service,
				EmailDomain: emailDomain,
			}

			if err := app.profiles.Save(cmd.Context(), profile); err != nil {
				return fmt.Errorf("save profile %q: %w", id, err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Profile ID")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&siteURL, "url", "", "LMS site URL")
	cmd.Flags().StringVar(&service, "service", "", "Web-service shortname")
	cmd.Flags().StringVar(&emailDomain, "email-domain", "", "Institutional email domain suffix, e.g. @school.edu")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func newProfileListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored site profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles, err := app.profiles.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(profiles) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No profiles stored")
				return err
			}

			for _, profile := range profiles {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", profile.ID, profile.Name, profile.SiteURL)
			}
			return nil
		},
	}
}
