package session

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/diagz/internal/backend"
	sess "github.com/abhisek/diagz/internal/session"
	"github.com/abhisek/diagz/internal/ui/components"
	"github.com/abhisek/diagz/internal/ui/theme"
)

// renderQuestionView renders the active question display.
func (s *SessionScreen) renderQuestionView(width, height int) string {
	state := s.state
	q := state.CurrentQuestion()
	cw := components.ContentWidth(width)

	var b strings.Builder

	// Position and progress line.
	infoLeft := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render(fmt.Sprintf("Question %d of %d", state.CurrentIndex+1, state.Len()))
	progress := components.NewAnswerProgress(state.AnsweredCount(), state.Len(), cw/2).View()

	infoLine := infoLeft
	if pad := cw - lipgloss.Width(infoLeft) - lipgloss.Width(progress); pad > 0 {
		infoLine += strings.Repeat(" ", pad) + progress
	}
	b.WriteString(infoLine)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", cw)))
	b.WriteString("\n\n")

	// Question text.
	b.WriteString(lipgloss.NewStyle().
		Width(cw).
		Foreground(theme.Text).
		Bold(true).
		Render(q.Description))
	b.WriteString("\n\n")

	// Input area.
	if s.mc {
		b.WriteString(s.choices.View())
	} else {
		b.WriteString("Answer: " + s.input.View())
		b.WriteString("\n")
	}
	if q.Hint != "" {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render("Hint: " + q.Hint))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	// Question grid.
	grid := components.QuestionGrid(state.Len(), s.gridHighlight(), state.IsAnswered, cw)
	if s.gridActive {
		b.WriteString(theme.Hint.Render("Jump to question:"))
		b.WriteString("\n")
	}
	b.WriteString(grid)
	b.WriteString("\n\n")

	// Submit control and inline status.
	b.WriteString(s.submit.View())
	switch {
	case state.Phase == sess.PhaseSubmitting:
	case state.SubmitErr != nil:
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Width(cw).Render(
			theme.ErrorText.Render("Submission failed: "+state.SubmitErr.Error()) +
				"\n" + theme.Hint.Render("Your answers are kept. Press Ctrl+S to try again.")))
	case state.AnsweredCount() < state.Len():
		b.WriteString("  ")
		b.WriteString(theme.Hint.Render(fmt.Sprintf("%d unanswered", state.Len()-state.AnsweredCount())))
	}

	return lipgloss.PlaceHorizontal(width, lipgloss.Center, b.String())
}

// gridHighlight is the cell drawn as current: the grid cursor while the
// grid is open, the question on screen otherwise.
func (s *SessionScreen) gridHighlight() int {
	if s.gridActive {
		return s.gridCursor
	}
	return s.state.CurrentIndex
}

// renderPayment renders the purchase call-to-action for a paid paper.
func (s *SessionScreen) renderPayment(width, height int) string {
	pr := s.payment
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString(theme.Notice.Render("This test needs to be purchased"))
	b.WriteString("\n\n")

	name := pr.ProductName
	if name == "" {
		name = fmt.Sprintf("Product #%d", pr.ProductID)
	}
	b.WriteString(theme.Body.Render(name))
	b.WriteString("\n")
	b.WriteString(theme.Selected.Render(pr.Price()))
	b.WriteString("\n\n")

	switch {
	case s.checkoutBusy:
		b.WriteString(theme.Hint.Render("Creating payment session..."))
	case s.checkout != nil:
		b.WriteString(renderCheckout(s.checkout))
	default:
		b.WriteString(components.NewButton("Buy now", true, nil).View())
	}

	if s.checkoutErr != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.ErrorText.Render("Could not start payment: " + s.checkoutErr))
	}

	card := components.Card(b.String(), cw)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}

func renderCheckout(ps *backend.PaymentSession) string {
	var b strings.Builder
	b.WriteString(theme.Correct.Render("Payment session created"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Session: %s\n", ps.PaymentSessionID))
	if ps.OrderID != "" {
		b.WriteString(fmt.Sprintf("Order:   %s\n", ps.OrderID))
	}
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render("Complete the payment in your browser, then press R to reload the test."))
	return b.String()
}

// renderLeaveConfirm renders the leave confirmation dialog.
func renderLeaveConfirm(width, height int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render("Leave this test?"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("Answers that were not submitted will be lost."))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render("[Y] Yes, leave"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Render("[N] No, keep going"))

	return b.String()
}

// renderLoading renders the loading state.
func renderLoading(width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\n\n\n  Loading question paper...")
}

// renderError renders a load failure.
func renderError(width, height int, errMsg string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render(fmt.Sprintf("\n\n\n  Error: %s\n\n  Press R to retry or Esc to go back.", errMsg))
}
