package chat

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

// transcriptModel returns a model whose transcript is taller than the viewport.
func transcriptModel(t *testing.T) *model {
	t.Helper()

	m := newModel(context.Background(), nil, modeInteractive, "", RuntimeInfo{Assistant: "メイドちゃん"})
	m.viewport.Width = 40
	m.viewport.Height = 5
	m.viewport.SetContent(strings.Repeat("おはよう\n", 40))
	return m
}

func TestHandleViewportMouse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		fromBottom  int
		follow      bool
		msg         tea.MouseMsg
		wantHandled bool
		wantFollow  bool
		wantBottom  bool
		wantOffset  int
	}{
		{
			name:        "wheel up leaves the tail",
			follow:      true,
			msg:         tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp},
			wantHandled: true,
			wantOffset:  -mouseWheelLines,
		},
		{
			name:        "wheel down onto the tail resumes following",
			fromBottom:  1,
			msg:         tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown},
			wantHandled: true,
			wantFollow:  true,
			wantBottom:  true,
			wantOffset:  1,
		},
		{
			name:        "wheel down short of the tail keeps position",
			fromBottom:  10,
			msg:         tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown},
			wantHandled: true,
			wantOffset:  mouseWheelLines,
		},
		{
			name:       "left click is ignored",
			follow:     true,
			msg:        tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft},
			wantFollow: true,
			wantBottom: true,
		},
		{
			name:       "wheel release is ignored",
			follow:     true,
			msg:        tea.MouseMsg{Action: tea.MouseActionRelease, Button: tea.MouseButtonWheelUp},
			wantFollow: true,
			wantBottom: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := transcriptModel(t)
			m.viewport.GotoBottom()
			m.viewport.SetYOffset(m.viewport.YOffset - tt.fromBottom)
			m.followLog = tt.follow
			before := m.viewport.YOffset

			if got := m.handleViewportMouse(tt.msg); got != tt.wantHandled {
				t.Fatalf("handled = %v, want %v", got, tt.wantHandled)
			}
			if m.followLog != tt.wantFollow {
				t.Fatalf("followLog = %v, want %v", m.followLog, tt.wantFollow)
			}
			if m.viewport.AtBottom() != tt.wantBottom {
				t.Fatalf("AtBottom = %v, want %v (YOffset=%d)", m.viewport.AtBottom(), tt.wantBottom, m.viewport.YOffset)
			}
			if got := m.viewport.YOffset - before; got != tt.wantOffset {
				t.Fatalf("YOffset moved by %d, want %d", got, tt.wantOffset)
			}
		})
	}
}

func TestHandleViewportMouseClampsAtTop(t *testing.T) {
	t.Parallel()

	m := transcriptModel(t)
	m.viewport.GotoTop()

	if !m.handleViewportMouse(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp}) {
		t.Fatal("wheel up was not handled")
	}
	if m.viewport.YOffset != 0 {
		t.Fatalf("YOffset = %d, want 0", m.viewport.YOffset)
	}
}
