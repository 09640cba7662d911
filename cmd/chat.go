package cmd

import (
	"github.com/abhisek/diagz/internal/screen"
	"github.com/abhisek/diagz/internal/screens"
	chatscreen "github.com/abhisek/diagz/internal/screens/chat"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the tutor agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, func(deps screens.Deps) screen.Screen {
			return chatscreen.New(deps.Agent, deps.AgentErr)
		})
	},
}
