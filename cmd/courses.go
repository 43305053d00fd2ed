package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	coursesadapter "github.com/nlasala/campus-meet-cli/internal/adapters/render/courses"
	"github.com/nlasala/campus-meet-cli/internal/domain"
)

type meetingOutput struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type courseOutput struct {
	ID       int64           `json:"id"`
	FullName string          `json:"full_name"`
	Short    string          `json:"short_name,omitempty"`
	Meetings []meetingOutput `json:"meetings"`
	Error    string          `json:"error,omitempty"`
}

func newCoursesCmd(app *app) *cobra.Command {
	var (
		asJSON    bool
		showURLs  bool
		profileID string
	)

	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List enrolled courses and their meeting links",
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

			// The stored session carries no user ID; resolve it from the
			// site info endpoint on demand.
			gateway := app.lmsGateway(site)
			userID := session.UserID
			if userID == "" {
				identity, err := gateway.FetchIdentity(cmd.Context(), session.Token)
				if err != nil {
					return fmt.Errorf("resolve user id: %w", err)
				}
				userID = identity.ID
			}

			rows, err := app.courseService(site).ListCoursesWithMeetings(cmd.Context(), session.Token, userID)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(coursesToOutput(rows))
			}

			rendered, err := app.coursesRenderer(rows, coursesadapter.RenderOptions{ShowURLs: showURLs})
			if err != nil {
				return fmt.Errorf("render courses: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&showURLs, "urls", false, "Show resolvable meeting URLs")
	cmd.Flags().StringVar(&profileID, "profile", "", "Site profile ID to query")

	return cmd
}

func coursesToOutput(rows []domain.CourseMeetings) []courseOutput {
	out := make([]courseOutput, 0, len(rows))
	for _, row := range rows {
		entry := courseOutput{
			ID:       row.Course.ID,
			FullName: row.Course.FullName,
			Short:    row.Course.ShortName,
			Meetings: make([]meetingOutput, 0, len(row.Meetings)),
		}
		if row.Err != nil {
			entry.Error = row.Err.Error()
		}
		for _, meeting := range row.Meetings {
			entry.Meetings = append(entry.Meetings, meetingOutput{
				ID:   meeting.ID,
				Name: meeting.Name,
				URL:  meeting.DirectURL(),
			})
		}
		out = append(out, entry)
	}
	return out
}
