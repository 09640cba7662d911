package cmd

import (
	"fmt"
	"strconv"

	"github.com/abhisek/diagz/internal/config"
	"github.com/abhisek/diagz/internal/screens"
	"github.com/abhisek/diagz/internal/screens/home"
	"github.com/abhisek/diagz/internal/screen"
	"github.com/abhisek/diagz/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "diagz",
	Short: "Terminal client for diagnostic tests",
	Long: "Diagz takes diagnostic tests from the assessment platform in your terminal, " +
		"records how you move through each paper, and shows scored results and advice.",
	SilenceUsage:      true,
	PersistentPreRunE: loadEnvFile,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, func(deps screens.Deps) screen.Screen { return home.New(deps) })
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides DIAGZ_DB env var)")
	rootCmd.PersistentFlags().String("env-file", "", "Path to a .env file (default: ./.env if present)")

	rootCmd.AddCommand(takeCmd)
	rootCmd.AddCommand(testsCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(requestsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadEnvFile preloads variables from --env-file before any command reads
// the environment. Variables already set win.
func loadEnvFile(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("env-file")
	return config.LoadEnvFile(path)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then DIAGZ_DB, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	p, _ := cmd.Flags().GetString("db")
	if p == "" {
		p = config.ConfigFromEnv().DBPath
	}
	if p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openStore opens the local event store.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// parseID parses a positive numeric id argument.
func parseID(kind, arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q: must be a positive number", kind, arg)
	}
	return id, nil
}
