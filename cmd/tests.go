package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var testsCmd = &cobra.Command{
	Use:   "tests",
	Short: "List available question papers",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := connect(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		papers, err := s.api.ListPapers(context.Background())
		if err != nil {
			return fmt.Errorf("list papers: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(papers) == 0 {
			fmt.Fprintln(out, "No tests available.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-40s  %s\n", "ID", "Title", "Questions")
		fmt.Fprintln(out, strings.Repeat("─", 60))
		for _, p := range papers {
			fmt.Fprintf(out, "%-5d  %-40s  %d\n", p.ID, truncate(p.Title, 40), p.Len())
		}
		return nil
	},
}
