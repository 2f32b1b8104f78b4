package chat

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Reply is what the playground shows for one message. An empty Text means
// the assistant stayed silent; Rule is set when a rule matched anyway.
type Reply struct {
	Text  string
	Rule  string
	Scope string
}

type ReplyFunc func(ctx context.Context, text string) (Reply, error)

// RuntimeInfo describes the session shown in the playground header.
type RuntimeInfo struct {
	Assistant string
	Chat      string
	User      string
	Scopes    []string
	Rules     int
}

func RunInteractive(ctx context.Context, replyFn ReplyFunc, info RuntimeInfo) error {
	model := newModel(ctx, replyFn, modeInteractive, "", info)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return err
	}

	fmt.Println(renderGoodbyeBanner(info.Assistant))
	return nil
}

func RunOneShot(ctx context.Context, replyFn ReplyFunc, text string, info RuntimeInfo) error {
	model := newModel(ctx, replyFn, modeOneShot, text, info)
	program := tea.NewProgram(model)
	_, err := program.Run()
	return err
}

func renderGoodbyeBanner(name string) string {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("231")).
		Background(lipgloss.Color("162")).
		Padding(1, 2)

	return style.Render(fmt.Sprintf("(｡･ω･｡)ﾉ %s: またね！", displayOrNA(name)))
}
