package bus

import "time"

type EventType string

const (
	EventMessageReceived EventType = "message_received"
	EventReplySent       EventType = "reply_sent"
	EventNoReply         EventType = "no_reply"
	EventRuleFailed      EventType = "rule_failed"
	EventRateLimited     EventType = "rate_limited"
)

// Event describes one step of handling an inbound message.
type Event struct {
	Type      EventType         `json:"type"`
	At        time.Time         `json:"at"`
	Channel   string            `json:"channel,omitempty"`
	ChatID    string            `json:"chat_id,omitempty"`
	SenderID  string            `json:"sender_id,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Scope     string            `json:"scope,omitempty"`
	Rule      string            `json:"rule,omitempty"`
	Payload   map[string]string `json:"payload,omitempty"`
	Error     string            `json:"error,omitempty"`
}
