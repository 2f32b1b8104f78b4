package rule

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Builder collects rules during process start. It is not meant to be shared
// after Build.
type Builder struct {
	mu     sync.Mutex
	rules  map[Scope][]Rule
	sealed bool
}

// NewBuilder returns an empty builder for both scopes.
func NewBuilder() *Builder {
	return &Builder{rules: make(map[Scope][]Rule, len(Scopes))}
}

// Register appends r to the scope's ordered sequence. Registration order is
// the only tie-breaker at dispatch time.
func (b *Builder) Register(scope Scope, r Rule) error {
	if !scope.valid() {
		return fmt.Errorf("register rule: unknown scope %q", scope)
	}
	if err := checkInterface(r); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sealed {
		return ErrSealed
	}

	b.rules[scope] = append(b.rules[scope], r)
	return nil
}

// MustRegister is Register for static wiring where a failure is a programming error.
func (b *Builder) MustRegister(scope Scope, r Rule) {
	if err := b.Register(scope, r); err != nil {
		panic(err)
	}
}

// Build freezes the collected rules into a read-only Registry.
func (b *Builder) Build() *Registry {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sealed = true

	rules := make(map[Scope][]Rule, len(Scopes))
	for _, scope := range Scopes {
		rules[scope] = slices.Clone(b.rules[scope])
	}

	return &Registry{rules: rules}
}

func checkInterface(r Rule) error {
	if r == nil {
		return &InterfaceError{Reason: "rule is nil"}
	}

	value := reflect.ValueOf(r)
	if value.Kind() == reflect.Pointer && value.IsNil() {
		return &InterfaceError{Rule: fmt.Sprintf("%T", r), Reason: "rule is a nil pointer"}
	}

	if fn, ok := r.(*Func); ok {
		if fn.Match == nil {
			return &InterfaceError{Rule: nameOf(r), Reason: "missing is_target predicate"}
		}
		if fn.Act == nil {
			return &InterfaceError{Rule: nameOf(r), Reason: "missing perform action"}
		}
	}

	return nil
}

func nameOf(r Rule) string {
	if name := strings.TrimSpace(r.Name()); name != "" {
		return name
	}

	return fmt.Sprintf("%T", r)
}

// Registry holds the two frozen, ordered rule sequences.
type Registry struct {
	rules map[Scope][]Rule
}

// Rules returns a copy of the scope's rules in registration order.
func (r *Registry) Rules(scope Scope) []Rule {
	return slices.Clone(r.rules[scope])
}

// All returns every rule, restricted scope first.
func (r *Registry) All() []Rule {
	all := make([]Rule, 0, r.Len())
	for _, scope := range Scopes {
		all = append(all, r.rules[scope]...)
	}

	return all
}

// Len reports the number of registered rules across both scopes.
func (r *Registry) Len() int {
	total := 0
	for _, rules := range r.rules {
		total += len(rules)
	}

	return total
}

// Dispatch runs the first rule in scope whose predicate matches msg.
//
// A matched rule ends the scan even when it produces an empty reply. Failures
// inside the matched rule come back as *ExecutionError.
func (r *Registry) Dispatch(ctx context.Context, scope Scope, msg Message) (Result, error) {
	if !scope.valid() {
		return Result{}, fmt.Errorf("dispatch: unknown scope %q", scope)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx = context.WithValue(ctx, registryKey{}, r)

	for _, candidate := range r.rules[scope] {
		matched, err := isTarget(candidate, scope, msg)
		if err != nil {
			return Result{Rule: nameOf(candidate), Scope: scope}, err
		}
		if !matched {
			continue
		}

		reply, err := perform(ctx, candidate, scope, msg)
		result := Result{Reply: reply, Rule: nameOf(candidate), Scope: scope, Matched: true}
		if err != nil {
			result.Reply = ""
			return result, err
		}

		return result, nil
	}

	return Result{Scope: scope}, nil
}

func isTarget(candidate Rule, scope Scope, msg Message) (matched bool, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = &ExecutionError{Rule: nameOf(candidate), Scope: scope, Err: fmt.Errorf("panic in predicate: %v", recovered)}
		}
	}()

	return candidate.IsTarget(msg.Text, msg), nil
}

func perform(ctx context.Context, candidate Rule, scope Scope, msg Message) (reply string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = &ExecutionError{Rule: nameOf(candidate), Scope: scope, Err: fmt.Errorf("panic: %v", recovered)}
		}
	}()

	reply, err = candidate.Perform(ctx, msg.Text, msg)
	if err != nil {
		return "", &ExecutionError{Rule: nameOf(candidate), Scope: scope, Err: err}
	}

	return reply, nil
}

type registryKey struct{}

// RegistryFrom returns the registry dispatching the current Perform call.
func RegistryFrom(ctx context.Context) (*Registry, bool) {
	if ctx == nil {
		return nil, false
	}

	registry, ok := ctx.Value(registryKey{}).(*Registry)
	return registry, ok && registry != nil
}
