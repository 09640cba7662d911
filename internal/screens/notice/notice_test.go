package notice

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func TestNoticeShowsMessageAndQuits(t *testing.T) {
	s := New("Setup", "config: DIAGZ_ID_TOKEN is required")

	if !strings.Contains(s.View(100, 30), "DIAGZ_ID_TOKEN is required") {
		t.Error("expected message in view")
	}

	_, cmd := s.Update(tea.KeyPressMsg{Code: 'x', Text: "x"})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected QuitMsg")
	}
}
