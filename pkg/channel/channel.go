package channel

import (
	"context"

	"maidchan/pkg/bus"
)

// Handler processes one inbound chat message. An outbound message with empty
// Content means nothing should be sent back.
type Handler func(context.Context, bus.InboundMessage) (bus.OutboundMessage, error)

// Adapter bridges one external chat transport (for example Telegram) into the assistant.
type Adapter interface {
	Name() string
	Run(context.Context, Handler) error
}
