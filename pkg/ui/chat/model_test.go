package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestIsExitCommand(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"exit", " /exit ", "QUIT", ":q"} {
		if !IsExitCommand(input) {
			t.Fatalf("IsExitCommand(%q) = false", input)
		}
	}
	for _, input := range []string{"", "おはよう", "exit now"} {
		if IsExitCommand(input) {
			t.Fatalf("IsExitCommand(%q) = true", input)
		}
	}
}

func TestReplyMessagesUpdateTranscript(t *testing.T) {
	t.Parallel()

	info := RuntimeInfo{Assistant: "メイドちゃん", User: "U1", Chat: "cli", Rules: 11}
	m := newModel(context.Background(), nil, modeInteractive, "", info)
	m.booting = false

	m.Update(replyMsg{reply: Reply{Text: "おはようございます", Rule: "morning", Scope: "restricted"}})
	m.Update(replyMsg{reply: Reply{}})
	m.Update(replyMsg{reply: Reply{Rule: "quiet", Scope: "restricted"}})
	m.Update(replyMsg{err: errors.New("boom")})

	if len(m.messages) != 4 {
		t.Fatalf("messages = %d, want 4", len(m.messages))
	}
	if m.replies != 1 {
		t.Fatalf("replies = %d, want 1", m.replies)
	}
	if m.lastErr != "boom" {
		t.Fatalf("lastErr = %q, want boom", m.lastErr)
	}

	view := m.View()
	for _, want := range []string{"morning@restricted", "no rule matched", "matched without reply: quiet@restricted", "rules:11"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestEnterSendsMessage(t *testing.T) {
	t.Parallel()

	var got string
	replyFn := func(_ context.Context, text string) (Reply, error) {
		got = text
		return Reply{Text: "ok"}, nil
	}

	m := newModel(context.Background(), replyFn, modeInteractive, "", RuntimeInfo{})
	m.booting = false
	m.input.SetValue("  ただいま  ")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected command after enter")
	}
	if !m.isLoading {
		t.Fatal("expected loading state after enter")
	}
	if m.input.Value() != "" {
		t.Fatalf("input = %q, want cleared", m.input.Value())
	}

	msg := sendMessageCmd(context.Background(), replyFn, "ただいま")()
	if got != "ただいま" {
		t.Fatalf("replyFn received %q", got)
	}
	if reply, ok := msg.(replyMsg); !ok || reply.reply.Text != "ok" {
		t.Fatalf("msg = %#v", msg)
	}
}

func TestOneShotQuitsAfterReply(t *testing.T) {
	t.Parallel()

	m := newModel(context.Background(), nil, modeOneShot, "おはよう", RuntimeInfo{Assistant: "メイドちゃん"})
	m.messages = append(m.messages, chatMessage{role: "user", content: "おはよう"})

	_, cmd := m.Update(replyMsg{reply: Reply{Text: "おはようございます", Rule: "morning"}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
	if !strings.Contains(m.View(), "おはようございます") {
		t.Fatal("expected reply in one-shot view")
	}
}
