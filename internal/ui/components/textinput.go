package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// maxAnswerLen bounds a free-text answer.
const maxAnswerLen = 2000

// AnswerInput wraps bubbles/textinput for free-text answers.
type AnswerInput struct {
	Model textinput.Model
}

// NewAnswerInput creates a focused input holding the current answer.
func NewAnswerInput(placeholder, value string) AnswerInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.CharLimit = maxAnswerLen
	ti.SetValue(value)
	ti.Focus()

	return AnswerInput{Model: ti}
}

// Init returns the initial command.
func (t AnswerInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update forwards the message to the input. The second result is true when
// the text changed.
func (t AnswerInput) Update(msg tea.Msg) (AnswerInput, tea.Cmd, bool) {
	before := t.Model.Value()

	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd, t.Model.Value() != before
}

// View renders the text input.
func (t AnswerInput) View() string {
	return t.Model.View()
}

// Value returns the current input value.
func (t AnswerInput) Value() string {
	return t.Model.Value()
}

// Blur stops the input from taking keys, e.g. while submitting.
func (t *AnswerInput) Blur() {
	t.Model.Blur()
}

// Focus resumes taking keys.
func (t *AnswerInput) Focus() tea.Cmd {
	return t.Model.Focus()
}
