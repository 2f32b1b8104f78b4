package rule

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func keywordRule(name string, keyword string, reply string) *Func {
	return &Func{
		ID:    name,
		About: name + " rule",
		Match: func(text string, _ Message) bool { return strings.Contains(text, keyword) },
		Act: func(context.Context, string, Message) (string, error) {
			return reply, nil
		},
	}
}

type countingRule struct {
	calls int
}

func (r *countingRule) Name() string        { return "counting" }
func (r *countingRule) Description() string { return "" }
func (r *countingRule) IsTarget(string, Message) bool {
	r.calls++
	return true
}
func (r *countingRule) Perform(context.Context, string, Message) (string, error) {
	return "counted", nil
}

func TestDispatchEarliestRegisteredRuleWins(t *testing.T) {
	b := NewBuilder()
	b.MustRegister(ScopeRestricted, keywordRule("first", "hello", "one"))
	b.MustRegister(ScopeRestricted, keywordRule("second", "hello", "two"))
	later := &countingRule{}
	b.MustRegister(ScopeRestricted, later)
	registry := b.Build()

	result, err := registry.Dispatch(context.Background(), ScopeRestricted, Message{Text: "hello there"})
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if !result.Matched || result.Reply != "one" || result.Rule != "first" {
		t.Fatalf("result = %+v, want first rule reply", result)
	}
	if later.calls != 0 {
		t.Fatalf("later predicate evaluated %d times, want 0", later.calls)
	}
}

func TestDispatchMatchedSilentRuleSuppressesLaterRules(t *testing.T) {
	b := NewBuilder()
	b.MustRegister(ScopeAll, keywordRule("silent", "x", ""))
	b.MustRegister(ScopeAll, keywordRule("loud", "x", "loud"))
	registry := b.Build()

	result, err := registry.Dispatch(context.Background(), ScopeAll, Message{Text: "x"})
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if !result.Matched || result.Rule != "silent" || result.Reply != "" {
		t.Fatalf("result = %+v, want silent match", result)
	}
}

func TestDispatchNoMatchReturnsAbsent(t *testing.T) {
	b := NewBuilder()
	b.MustRegister(ScopeRestricted, keywordRule("first", "hello", "one"))
	registry := b.Build()

	tests := []struct {
		scope Scope
		text  string
	}{
		{scope: ScopeRestricted, text: "goodbye"},
		{scope: ScopeAll, text: "hello"},
		{scope: ScopeRestricted, text: ""},
	}

	for _, tt := range tests {
		result, err := registry.Dispatch(context.Background(), tt.scope, Message{Text: tt.text})
		if err != nil {
			t.Fatalf("Dispatch(%s, %q) error: %v", tt.scope, tt.text, err)
		}
		if result.Matched || result.Reply != "" {
			t.Fatalf("Dispatch(%s, %q) = %+v, want no match", tt.scope, tt.text, result)
		}
	}
}

func TestDispatchScopesAreDisjoint(t *testing.T) {
	b := NewBuilder()
	b.MustRegister(ScopeRestricted, keywordRule("cafe", "hi", "cafe"))
	b.MustRegister(ScopeAll, keywordRule("house", "hi", "house"))
	registry := b.Build()

	result, _ := registry.Dispatch(context.Background(), ScopeAll, Message{Text: "hi"})
	if result.Reply != "house" {
		t.Fatalf("all scope reply = %q, want house", result.Reply)
	}
	result, _ = registry.Dispatch(context.Background(), ScopeRestricted, Message{Text: "hi"})
	if result.Reply != "cafe" {
		t.Fatalf("restricted scope reply = %q, want cafe", result.Reply)
	}
}

func TestDispatchIsIdempotentWithoutRandomness(t *testing.T) {
	b := NewBuilder()
	b.MustRegister(ScopeAll, keywordRule("echo", "ping", "pong"))
	registry := b.Build()

	msg := Message{Text: "ping", UserID: "U1"}
	first, _ := registry.Dispatch(context.Background(), ScopeAll, msg)
	for i := 0; i < 5; i++ {
		again, _ := registry.Dispatch(context.Background(), ScopeAll, msg)
		if again != first {
			t.Fatalf("dispatch %d = %+v, want %+v", i, again, first)
		}
	}
}

func TestDispatchWrapsRuleErrors(t *testing.T) {
	boom := errors.New("boom")
	b := NewBuilder()
	b.MustRegister(ScopeAll, &Func{
		ID:    "broken",
		Match: func(string, Message) bool { return true },
		Act: func(context.Context, string, Message) (string, error) {
			return "partial", boom
		},
	})
	registry := b.Build()

	result, err := registry.Dispatch(context.Background(), ScopeAll, Message{Text: "anything"})
	if !errors.Is(err, ErrExecution) {
		t.Fatalf("error = %v, want ErrExecution", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped boom", err)
	}
	var execErr *ExecutionError
	if !errors.As(err, &execErr) || execErr.Rule != "broken" || execErr.Scope != ScopeAll {
		t.Fatalf("execution error = %#v", execErr)
	}
	if result.Reply != "" {
		t.Fatalf("reply = %q, want empty on failure", result.Reply)
	}
}

func TestDispatchRecoversPanics(t *testing.T) {
	b := NewBuilder()
	b.MustRegister(ScopeAll, &Func{
		ID:    "panicky",
		Match: func(string, Message) bool { return true },
		Act: func(context.Context, string, Message) (string, error) {
			var choices []string
			return choices[3], nil
		},
	})
	registry := b.Build()

	_, err := registry.Dispatch(context.Background(), ScopeAll, Message{Text: "x"})
	if !errors.Is(err, ErrExecution) {
		t.Fatalf("error = %v, want ErrExecution", err)
	}
}

func TestRegisterRejectsIncompleteRules(t *testing.T) {
	var nilFunc *Func
	tests := []struct {
		name string
		rule Rule
	}{
		{name: "nil interface", rule: nil},
		{name: "typed nil", rule: nilFunc},
		{name: "missing predicate", rule: &Func{ID: "a", Act: func(context.Context, string, Message) (string, error) { return "", nil }}},
		{name: "missing action", rule: &Func{ID: "b", Match: func(string, Message) bool { return true }}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewBuilder().Register(ScopeAll, tt.rule)
			if !errors.Is(err, ErrInterface) {
				t.Fatalf("Register error = %v, want ErrInterface", err)
			}
		})
	}
}

func TestRegisterRejectsUnknownScopeAndSealedBuilder(t *testing.T) {
	b := NewBuilder()
	if err := b.Register(Scope("dm"), keywordRule("x", "x", "x")); err == nil {
		t.Fatal("expected unknown scope error")
	}

	registry := b.Build()
	if err := b.Register(ScopeAll, keywordRule("late", "x", "x")); !errors.Is(err, ErrSealed) {
		t.Fatalf("late Register error = %v, want ErrSealed", err)
	}
	if registry.Len() != 0 {
		t.Fatalf("registry len = %d, want 0", registry.Len())
	}
}

func TestRegistryRulesReturnsCopy(t *testing.T) {
	b := NewBuilder()
	b.MustRegister(ScopeRestricted, keywordRule("a", "a", "a"))
	b.MustRegister(ScopeAll, keywordRule("b", "b", "b"))
	registry := b.Build()

	rules := registry.Rules(ScopeRestricted)
	rules[0] = keywordRule("mutated", "a", "mutated")

	result, _ := registry.Dispatch(context.Background(), ScopeRestricted, Message{Text: "a"})
	if result.Rule != "a" {
		t.Fatalf("rule = %q, want registry unaffected by caller mutation", result.Rule)
	}

	all := registry.All()
	if len(all) != 2 || all[0].Name() != "a" || all[1].Name() != "b" {
		t.Fatalf("All() order unexpected: %v", all)
	}
}

func TestRegistryFromInsidePerform(t *testing.T) {
	var seen *Registry
	b := NewBuilder()
	b.MustRegister(ScopeAll, &Func{
		ID:    "introspect",
		Match: func(string, Message) bool { return true },
		Act: func(ctx context.Context, _ string, _ Message) (string, error) {
			registry, ok := RegistryFrom(ctx)
			if !ok {
				return "", errors.New("no registry")
			}
			seen = registry
			return "ok", nil
		},
	})
	registry := b.Build()

	if _, err := registry.Dispatch(context.Background(), ScopeAll, Message{}); err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if seen != registry {
		t.Fatal("expected Perform to observe the dispatching registry")
	}

	if _, ok := RegistryFrom(context.Background()); ok {
		t.Fatal("expected no registry outside dispatch")
	}
}

func TestParseScope(t *testing.T) {
	if scope, err := ParseScope("restricted"); err != nil || scope != ScopeRestricted {
		t.Fatalf("ParseScope(restricted) = %q, %v", scope, err)
	}
	if _, err := ParseScope("elsewhere"); err == nil {
		t.Fatal("expected error for unknown scope")
	}
}
