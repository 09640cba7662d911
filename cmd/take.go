package cmd

import (
	"github.com/abhisek/diagz/internal/screen"
	"github.com/abhisek/diagz/internal/screens"
	sessionscreen "github.com/abhisek/diagz/internal/screens/session"
	"github.com/spf13/cobra"
)

var takeCmd = &cobra.Command{
	Use:   "take <paper-id>",
	Short: "Take a question paper",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("paper", args[0])
		if err != nil {
			return err
		}
		return runApp(cmd, func(deps screens.Deps) screen.Screen {
			return sessionscreen.New(deps, id)
		})
	},
}
