package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cm",
		Short:         "Campus Meet CLI (cm): campus LMS sessions and course meetings",
		Long:          "cm (Campus Meet CLI) logs in to a campus LMS, links your conferencing identity, lists course meeting links, and hands meetings off to the conferencing client from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newLogoutCmd(app),
		newStatusCmd(app),
		newCoursesCmd(app),
		newZoomCmd(app),
		newMeetingCmd(app),
		newProfileCmd(app),
	)

	return rootCmd
}
