package results

import (
	"fmt"
	"sort"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/diagz/internal/backend"
	"github.com/abhisek/diagz/internal/ui/components"
	"github.com/abhisek/diagz/internal/ui/theme"
)

func (s *ResultsScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Error).
			Render(fmt.Sprintf("\n\n\n  Could not load results: %s\n\n  Press R to retry.", s.errMsg))
	}
	if !s.loaded || s.resp == nil {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\n\n\n  Loading results...")
	}

	lines := strings.Split(s.renderBody(components.ContentWidth(width)), "\n")

	s.visible = max(height, 1)
	maxOffset := max(len(lines)-s.visible, 0)
	if s.offset > maxOffset {
		s.offset = maxOffset
	}
	end := min(s.offset+s.visible, len(lines))

	return lipgloss.PlaceHorizontal(width, lipgloss.Center, strings.Join(lines[s.offset:end], "\n"))
}

func (s *ResultsScreen) renderBody(cw int) string {
	r := s.resp
	var b strings.Builder

	if s.submitted {
		b.WriteString(theme.Correct.Render("Your answers were submitted."))
		b.WriteString("\n\n")
	}

	title := r.QuestionPaper.Title
	if title == "" {
		title = fmt.Sprintf("Response #%d", r.ID)
	}
	b.WriteString(theme.Selected.Render(title))
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render(r.CreatedAt.Local().Format("Jan 02, 2006 15:04")))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Score: %s    Correct: %d    Incorrect: %d    Weighted: %.1f\n\n",
		r.ScoreLine(), r.TotalCorrectAnswers, r.TotalIncorrectAnswers, r.WeightedScore))

	if t := renderScores("Topics", r.TopicWiseScore); t != "" {
		b.WriteString(t + "\n")
	}
	if t := renderScores("Difficulty", r.DifficultyWiseScore); t != "" {
		b.WriteString(t + "\n")
	}

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", cw))
	b.WriteString(divider + "\n\n")

	wrap := lipgloss.NewStyle().Width(cw)
	for i, a := range r.Answers {
		b.WriteString(renderAnswer(i, a, wrap))
		b.WriteString("\n")
	}

	if r.PreparationAdvice != "" {
		b.WriteString(divider + "\n\n")
		b.WriteString(theme.Selected.Render("Preparation advice"))
		b.WriteString("\n")
		b.WriteString(wrap.Render(r.PreparationAdvice))
		b.WriteString("\n")
	}

	if mats := resources(r.Resources); len(mats) > 0 {
		b.WriteString("\n")
		b.WriteString(theme.Selected.Render("Resources"))
		b.WriteString("\n")
		for _, m := range mats {
			line := "  " + m.URL
			if m.Description != "" {
				line += "  " + theme.Hint.Render(m.Description)
			}
			b.WriteString(line + "\n")
		}
	}

	return b.String()
}

func renderAnswer(i int, a backend.AnswerResult, wrap lipgloss.Style) string {
	var b strings.Builder

	mark := theme.Incorrect.Render("✗")
	if a.Correct() {
		mark = theme.Correct.Render("✓")
	}
	b.WriteString(wrap.Render(fmt.Sprintf("%s Q%d. %s", mark, i+1, a.Question.Description)))
	b.WriteString("\n")

	answer := a.Answer
	if answer == "" {
		answer = "(not answered)"
	}
	b.WriteString("   Your answer: " + answer + "\n")
	if !a.Correct() && a.Question.CorrectAnswer != "" {
		b.WriteString("   Correct answer: " + theme.Correct.Render(a.Question.CorrectAnswer) + "\n")
	}
	if a.Question.Explanation != "" {
		b.WriteString(theme.Hint.Render(wrap.Render("   " + a.Question.Explanation)))
		b.WriteString("\n")
	}
	return b.String()
}

// renderScores flattens the backend's list of single-entry maps into one
// sorted line per key.
func renderScores(label string, scores []map[string]string) string {
	merged := make(map[string]string)
	for _, m := range scores {
		for k, v := range m {
			merged[k] = v
		}
	}
	if len(merged) == 0 {
		return ""
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(theme.Selected.Render(label))
	b.WriteString("\n")
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("  %-24s %s\n", k, merged[k]))
	}
	return b.String()
}
