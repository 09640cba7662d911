package components

import (
	"fmt"
	"strings"

	"github.com/abhisek/diagz/internal/ui/theme"
)

// QuestionGrid renders numbered cells for every question, wrapping to fit
// width. answered reports whether question i has an answer.
func QuestionGrid(n, current int, answered func(i int) bool, width int) string {
	const cellWidth = 5
	perRow := max(width/cellWidth, 1)

	var b strings.Builder
	for i := range n {
		cell := fmt.Sprintf(" %2d ", i+1)
		switch {
		case i == current:
			cell = theme.GridCurrent.Render(cell)
		case answered(i):
			cell = theme.GridAnswered.Render(cell)
		default:
			cell = theme.GridEmpty.Render(cell)
		}
		b.WriteString(cell + " ")
		if (i+1)%perRow == 0 && i != n-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
