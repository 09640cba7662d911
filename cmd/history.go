package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/diagz/internal/store"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect local submission attempts",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent submission attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		subs, err := s.EventRepo().QuerySubmissions(context.Background(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query submissions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(subs) == 0 {
			fmt.Fprintln(out, "No submissions recorded yet.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-19s  %-28s  %-9s  %-8s  %s\n",
			"ID", "Timestamp", "Paper", "Answered", "Response", "OK")
		fmt.Fprintln(out, strings.Repeat("─", 84))

		for _, sub := range subs {
			resp := "-"
			if sub.Success {
				resp = fmt.Sprintf("%d", sub.ResponseID)
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-28s  %-9s  %-8s  %s\n",
				sub.ID,
				sub.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(sub.PaperTitle, 28),
				fmt.Sprintf("%d/%d", sub.Answered, sub.TotalQuestions),
				resp,
				mark(sub.Success),
			)
		}
		return nil
	},
}

var historyViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View one submission attempt with its payload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("submission", args[0])
		if err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		sub, err := s.EventRepo().GetSubmission(context.Background(), id)
		if err != nil {
			return fmt.Errorf("get submission: %w", err)
		}
		if sub == nil {
			return fmt.Errorf("submission %d not found", id)
		}

		out := cmd.OutOrStdout()
		sep := strings.Repeat("─", 60)

		fmt.Fprintf(out, "ID:        %d\n", sub.ID)
		fmt.Fprintf(out, "Time:      %s\n", sub.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Paper:     %s (#%d)\n", sub.PaperTitle, sub.PaperID)
		fmt.Fprintf(out, "Attempt:   %s\n", sub.AttemptID)
		fmt.Fprintf(out, "Session:   %s\n", sub.SessionID)
		fmt.Fprintf(out, "Answered:  %d/%d\n", sub.Answered, sub.TotalQuestions)
		fmt.Fprintf(out, "Duration:  %ds\n", sub.DurationSecs)
		fmt.Fprintf(out, "Success:   %v\n", sub.Success)
		if sub.Success {
			fmt.Fprintf(out, "Response:  %d\n", sub.ResponseID)
		}
		if sub.ErrorMessage != "" {
			fmt.Fprintf(out, "Error:     %s\n", sub.ErrorMessage)
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, sep)
		fmt.Fprintln(out, "PAYLOAD")
		fmt.Fprintln(out, sep)
		fmt.Fprintln(out, prettyJSON(sub.Payload))
		return nil
	},
}

// prettyJSON indents raw JSON, returning it unchanged if it doesn't parse.
func prettyJSON(raw []byte) string {
	if len(raw) == 0 {
		return "(not captured)"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func init() {
	historyListCmd.Flags().IntP("limit", "n", 20, "Number of attempts to show")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyViewCmd)
}
