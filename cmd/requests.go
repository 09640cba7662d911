package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/diagz/internal/store"
	"github.com/spf13/cobra"
)

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Inspect logged backend requests",
}

var requestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent backend requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		failed, _ := cmd.Flags().GetBool("failed")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryRequestEvents(context.Background(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No requests recorded yet.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-19s  %-6s  %-24s  %-6s  %-3s  %-7s  %s\n",
			"ID", "Timestamp", "Method", "Endpoint", "Status", "Try", "Ms", "OK")
		fmt.Fprintln(out, strings.Repeat("─", 90))

		for _, e := range events {
			if failed && e.Success {
				continue
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-6s  %-24s  %-6d  %-3d  %-7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Method,
				truncate(e.Endpoint, 24),
				e.StatusCode,
				e.Attempt,
				e.LatencyMs,
				mark(e.Success),
			)
			if e.ErrorMessage != "" {
				fmt.Fprintf(out, "       %s\n", truncate(e.ErrorMessage, 80))
			}
		}
		return nil
	},
}

var requestsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show request counts and latency per endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		usage, err := s.EventRepo().RequestUsageByEndpoint(context.Background())
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(usage) == 0 {
			fmt.Fprintln(out, "No requests recorded yet.")
			return nil
		}

		fmt.Fprintf(out, "%-24s  %6s  %8s  %8s\n", "Endpoint", "Calls", "Failures", "Avg Ms")
		fmt.Fprintln(out, strings.Repeat("─", 52))

		var calls, failures int
		for _, u := range usage {
			fmt.Fprintf(out, "%-24s  %6d  %8d  %8d\n",
				truncate(u.Endpoint, 24), u.Calls, u.Failures, u.AvgLatencyMs)
			calls += u.Calls
			failures += u.Failures
		}

		fmt.Fprintln(out, strings.Repeat("─", 52))
		fmt.Fprintf(out, "%-24s  %6d  %8d\n", "TOTAL", calls, failures)
		return nil
	},
}

func init() {
	requestsListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	requestsListCmd.Flags().Bool("failed", false, "Only show failed requests")

	requestsCmd.AddCommand(requestsListCmd)
	requestsCmd.AddCommand(requestsStatsCmd)
}
