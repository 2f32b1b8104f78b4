package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"maidchan/pkg/bus"
	"maidchan/pkg/config"
	"maidchan/pkg/rule"
)

func keyword(name, word, reply string) *rule.Func {
	return &rule.Func{
		ID:    name,
		About: name,
		Match: func(text string, _ rule.Message) bool { return strings.Contains(text, word) },
		Act: func(context.Context, string, rule.Message) (string, error) {
			return reply, nil
		},
	}
}

func testRegistry(t *testing.T) *rule.Registry {
	t.Helper()

	b := rule.NewBuilder()
	require.NoError(t, b.Register(rule.ScopeRestricted, keyword("morning", "おはよう", "おはようございます")))
	require.NoError(t, b.Register(rule.ScopeRestricted, keyword("quiet", "しーっ", "")))
	require.NoError(t, b.Register(rule.ScopeRestricted, &rule.Func{
		ID:    "broken",
		About: "broken",
		Match: func(text string, _ rule.Message) bool { return strings.Contains(text, "壊れて") },
		Act: func(context.Context, string, rule.Message) (string, error) {
			return "", errors.New("boom")
		},
	}))
	require.NoError(t, b.Register(rule.ScopeAll, keyword("weather", "天気", "晴れです")))
	require.NoError(t, b.Register(rule.ScopeAll, keyword("greeting", "おはよう", "all-channel greeting")))

	return b.Build()
}

func collect(t *testing.T, events <-chan bus.Event, n int) []bus.Event {
	t.Helper()

	got := make([]bus.Event, 0, n)
	for len(got) < n {
		select {
		case event := <-events:
			got = append(got, event)
		case <-time.After(time.Second):
			t.Fatalf("received %d events, want %d", len(got), n)
		}
	}

	return got
}

func TestRespondRestrictedChatPrefersRestrictedRules(t *testing.T) {
	a := New(testRegistry(t), config.AssistantConfig{RestrictedChats: []string{"lobby"}}, nil, nil)

	reply, ok := a.Respond(context.Background(), bus.InboundMessage{ChatID: "lobby", SenderID: "U1", Content: "おはよう"})
	require.True(t, ok)
	require.Equal(t, "おはようございます", reply.Text)
	require.Equal(t, "morning", reply.Rule)
	require.Equal(t, rule.ScopeRestricted, reply.Scope)
	require.NotEmpty(t, reply.RequestID)
}

func TestRespondOtherChatsOnlySeeAllChannelRules(t *testing.T) {
	a := New(testRegistry(t), config.AssistantConfig{RestrictedChats: []string{"lobby"}}, nil, nil)

	reply, ok := a.Respond(context.Background(), bus.InboundMessage{ChatID: "dev", Content: "おはよう"})
	require.True(t, ok)
	require.Equal(t, "greeting", reply.Rule)
	require.Equal(t, rule.ScopeAll, reply.Scope)
}

func TestRespondFallsThroughToAllChannelRules(t *testing.T) {
	a := New(testRegistry(t), config.AssistantConfig{RestrictedChats: []string{config.AllChats}}, nil, nil)

	reply, ok := a.Respond(context.Background(), bus.InboundMessage{ChatID: "anywhere", Content: "天気は？"})
	require.True(t, ok)
	require.Equal(t, "晴れです", reply.Text)
	require.Equal(t, rule.ScopeAll, reply.Scope)
}

func TestRespondSilentMatchStopsDispatch(t *testing.T) {
	a := New(testRegistry(t), config.AssistantConfig{RestrictedChats: []string{config.AllChats}}, nil, nil)

	reply, ok := a.Respond(context.Background(), bus.InboundMessage{Content: "しーっ 天気"})
	require.False(t, ok)
	require.Equal(t, "quiet", reply.Rule)
	require.Empty(t, reply.Text)
}

func TestRespondEvents(t *testing.T) {
	events := bus.NewMessageBus()
	t.Cleanup(events.Close)
	sub, unsubscribe := events.Subscribe(context.Background(), 10)
	defer unsubscribe()

	a := New(testRegistry(t), config.AssistantConfig{RestrictedChats: []string{config.AllChats}}, events, nil)

	inbound := bus.InboundMessage{
		Channel:  "telegram",
		ChatID:   "42",
		SenderID: "U1",
		Content:  "おはよう",
		Metadata: map[string]string{MetadataRequestID: "req-1"},
	}
	reply, ok := a.Respond(context.Background(), inbound)
	require.True(t, ok)
	require.Equal(t, "req-1", reply.RequestID)

	got := collect(t, sub, 2)
	require.Equal(t, bus.EventMessageReceived, got[0].Type)
	require.Equal(t, bus.EventReplySent, got[1].Type)
	require.Equal(t, "morning", got[1].Rule)
	require.Equal(t, "restricted", got[1].Scope)
	require.Equal(t, "req-1", got[1].RequestID)
	require.Equal(t, "42", got[1].ChatID)

	_, ok = a.Respond(context.Background(), bus.InboundMessage{Content: "こんにちは"})
	require.False(t, ok)
	got = collect(t, sub, 2)
	require.Equal(t, bus.EventNoReply, got[1].Type)
	require.Empty(t, got[1].Rule)
}

func TestRespondRuleFailureBecomesNoReply(t *testing.T) {
	events := bus.NewMessageBus()
	t.Cleanup(events.Close)
	sub, unsubscribe := events.Subscribe(context.Background(), 10)
	defer unsubscribe()

	a := New(testRegistry(t), config.AssistantConfig{RestrictedChats: []string{config.AllChats}}, events, nil)

	reply, ok := a.Respond(context.Background(), bus.InboundMessage{Content: "壊れてる？ 天気"})
	require.False(t, ok)
	require.Empty(t, reply.Text)
	require.Equal(t, "broken", reply.Rule)

	got := collect(t, sub, 2)
	require.Equal(t, bus.EventRuleFailed, got[1].Type)
	require.Equal(t, "broken", got[1].Rule)
	require.Equal(t, "restricted", got[1].Scope)
	require.Contains(t, got[1].Error, "boom")
}

func TestScopesAndName(t *testing.T) {
	a := New(testRegistry(t), config.AssistantConfig{Name: "  ", RestrictedChats: []string{"lobby"}}, nil, nil)

	require.Equal(t, config.DefaultAssistantName, a.Name())
	require.Equal(t, []rule.Scope{rule.ScopeRestricted, rule.ScopeAll}, a.Scopes("lobby"))
	require.Equal(t, []rule.Scope{rule.ScopeAll}, a.Scopes("dev"))
}
