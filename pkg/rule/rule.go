package rule

import (
	"context"
	"fmt"
)

// Scope selects one of the two independent rule namespaces.
type Scope string

const (
	// ScopeRestricted holds rules that only react in the chit-chat channel.
	ScopeRestricted Scope = "restricted"
	// ScopeAll holds rules that react in every channel.
	ScopeAll Scope = "all"
)

// Scopes lists the known scopes in dispatch-listing order.
var Scopes = []Scope{ScopeRestricted, ScopeAll}

func (s Scope) valid() bool {
	return s == ScopeRestricted || s == ScopeAll
}

func (s Scope) String() string {
	return string(s)
}

// ParseScope converts a config or flag value into a Scope.
func ParseScope(value string) (Scope, error) {
	scope := Scope(value)
	if !scope.valid() {
		return "", fmt.Errorf("unknown scope %q", value)
	}

	return scope, nil
}

// Message is the immutable context every rule receives.
type Message struct {
	Text     string
	UserID   string
	ChatID   string
	Channel  string
	Metadata map[string]string
}

// Rule is one predicate/action pair reacting to a category of messages.
type Rule interface {
	Name() string
	Description() string
	IsTarget(text string, msg Message) bool
	Perform(ctx context.Context, text string, msg Message) (string, error)
}

// Func adapts plain functions into a Rule.
type Func struct {
	ID    string
	About string
	Match func(text string, msg Message) bool
	Act   func(ctx context.Context, text string, msg Message) (string, error)
}

func (f *Func) Name() string {
	return f.ID
}

func (f *Func) Description() string {
	return f.About
}

func (f *Func) IsTarget(text string, msg Message) bool {
	return f.Match(text, msg)
}

func (f *Func) Perform(ctx context.Context, text string, msg Message) (string, error) {
	return f.Act(ctx, text, msg)
}

// Result is the outcome of one dispatch.
type Result struct {
	Reply   string
	Rule    string
	Scope   Scope
	Matched bool
}
