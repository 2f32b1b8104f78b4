package assistant

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"maidchan/pkg/bus"
	"maidchan/pkg/config"
	"maidchan/pkg/rule"
)

// MetadataRequestID carries the per-message request id through replies and events.
const MetadataRequestID = "request_id"

// Reply is what the assistant decided to say for one inbound message.
type Reply struct {
	Text      string
	Rule      string
	Scope     rule.Scope
	RequestID string
}

// Assistant decides which rule scopes apply to a chat and turns dispatch
// results into replies.
type Assistant struct {
	registry   *rule.Registry
	name       string
	restricted []string
	events     *bus.MessageBus
	log        *slog.Logger
}

func New(registry *rule.Registry, cfg config.AssistantConfig, events *bus.MessageBus, log *slog.Logger) *Assistant {
	if log == nil {
		log = slog.Default()
	}

	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = config.DefaultAssistantName
	}

	return &Assistant{
		registry:   registry,
		name:       name,
		restricted: slices.Clone(cfg.RestrictedChats),
		events:     events,
		log:        log.With("component", "assistant"),
	}
}

func (a *Assistant) Name() string {
	return a.name
}

func (a *Assistant) Registry() *rule.Registry {
	return a.registry
}

// Scopes returns the scopes dispatched for chatID, in order.
func (a *Assistant) Scopes(chatID string) []rule.Scope {
	if a.isRestricted(chatID) {
		return []rule.Scope{rule.ScopeRestricted, rule.ScopeAll}
	}

	return []rule.Scope{rule.ScopeAll}
}

func (a *Assistant) isRestricted(chatID string) bool {
	for _, id := range a.restricted {
		if id == config.AllChats || id == chatID {
			return true
		}
	}

	return false
}

// Respond runs the rules that apply to inbound and reports whether anything
// should be sent back. Failing rules are logged and produce no reply.
func (a *Assistant) Respond(ctx context.Context, inbound bus.InboundMessage) (Reply, bool) {
	requestID := inbound.Metadata[MetadataRequestID]
	if requestID == "" {
		requestID = uuid.NewString()
	}

	event := bus.Event{
		Channel:   inbound.Channel,
		ChatID:    inbound.ChatID,
		SenderID:  inbound.SenderID,
		RequestID: requestID,
	}
	a.publish(ctx, event, bus.EventMessageReceived)

	msg := rule.Message{
		Text:     inbound.Content,
		UserID:   inbound.SenderID,
		ChatID:   inbound.ChatID,
		Channel:  inbound.Channel,
		Metadata: inbound.Metadata,
	}

	for _, scope := range a.Scopes(inbound.ChatID) {
		result, err := a.registry.Dispatch(ctx, scope, msg)
		if err != nil {
			return a.fail(ctx, event, err), false
		}
		if !result.Matched {
			continue
		}

		event.Scope = result.Scope.String()
		event.Rule = result.Rule
		if result.Reply == "" {
			a.log.Debug("Rule matched without reply", "rule", result.Rule, "scope", result.Scope, "request_id", requestID)
			a.publish(ctx, event, bus.EventNoReply)
			return Reply{Rule: result.Rule, Scope: result.Scope, RequestID: requestID}, false
		}

		a.log.Info("Rule replied", "rule", result.Rule, "scope", result.Scope, "chat_id", inbound.ChatID, "request_id", requestID)
		a.publish(ctx, event, bus.EventReplySent)
		return Reply{
			Text:      result.Reply,
			Rule:      result.Rule,
			Scope:     result.Scope,
			RequestID: requestID,
		}, true
	}

	a.publish(ctx, event, bus.EventNoReply)
	return Reply{RequestID: requestID}, false
}

func (a *Assistant) fail(ctx context.Context, event bus.Event, err error) Reply {
	reply := Reply{RequestID: event.RequestID}

	var execErr *rule.ExecutionError
	if errors.As(err, &execErr) {
		reply.Rule = execErr.Rule
		reply.Scope = execErr.Scope
		event.Rule = execErr.Rule
		event.Scope = execErr.Scope.String()
	}
	event.Error = err.Error()

	a.log.Error("Rule failed", "rule", event.Rule, "scope", event.Scope, "request_id", event.RequestID, "error", err)
	a.publish(ctx, event, bus.EventRuleFailed)
	return reply
}

func (a *Assistant) publish(ctx context.Context, event bus.Event, eventType bus.EventType) {
	if a.events == nil {
		return
	}

	event.Type = eventType
	a.events.Publish(ctx, event)
}
