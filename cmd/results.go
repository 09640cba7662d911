package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/abhisek/diagz/internal/backend"
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results <response-id>",
	Short: "Print the scored results of an attempt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("response", args[0])
		if err != nil {
			return err
		}

		s, err := connect(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		resp, err := s.api.GetResponse(context.Background(), id)
		if err != nil {
			return fmt.Errorf("get response: %w", err)
		}
		printResponse(cmd.OutOrStdout(), resp)
		return nil
	},
}

func printResponse(out io.Writer, r *backend.Response) {
	sep := strings.Repeat("─", 60)

	title := r.QuestionPaper.Title
	if title == "" {
		title = fmt.Sprintf("Response #%d", r.ID)
	}
	fmt.Fprintln(out, title)
	fmt.Fprintf(out, "Taken:     %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "Score:     %s\n", r.ScoreLine())
	fmt.Fprintf(out, "Weighted:  %.1f\n", r.WeightedScore)

	printScores(out, "Topics", r.TopicWiseScore)
	printScores(out, "Difficulty", r.DifficultyWiseScore)

	fmt.Fprintln(out)
	fmt.Fprintln(out, sep)
	for i, a := range r.Answers {
		answer := a.Answer
		if answer == "" {
			answer = "(no answer)"
		}
		fmt.Fprintf(out, "%s %d. %s\n", mark(a.Correct()), i+1, a.Question.Description)
		fmt.Fprintf(out, "     Your answer:    %s\n", answer)
		if !a.Correct() {
			fmt.Fprintf(out, "     Correct answer: %s\n", a.Question.CorrectAnswer)
		}
	}

	if r.PreparationAdvice != "" {
		fmt.Fprintln(out, sep)
		fmt.Fprintln(out, "Preparation advice")
		fmt.Fprintln(out, r.PreparationAdvice)
	}
}

func printScores(out io.Writer, label string, scores []map[string]string) {
	merged := make(map[string]string)
	for _, m := range scores {
		for k, v := range m {
			merged[k] = v
		}
	}
	if len(merged) == 0 {
		return
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + merged[k]
	}
	fmt.Fprintf(out, "%-11s%s\n", label+":", strings.Join(parts, ", "))
}
