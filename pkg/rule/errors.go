package rule

import (
	"errors"
	"fmt"
)

var (
	// ErrInterface marks a rule that cannot be registered.
	ErrInterface = errors.New("rule does not implement the rule interface")
	// ErrExecution marks a failure raised while a matched rule was running.
	ErrExecution = errors.New("rule execution failed")
	// ErrSealed is returned when registering after the registry was built.
	ErrSealed = errors.New("registry already built")
)

// InterfaceError reports a registration-time contract violation.
type InterfaceError struct {
	Rule   string
	Reason string
}

func (e *InterfaceError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("invalid rule: %s", e.Reason)
	}

	return fmt.Sprintf("invalid rule %s: %s", e.Rule, e.Reason)
}

func (e *InterfaceError) Is(target error) bool {
	return target == ErrInterface
}

// ExecutionError wraps an error or panic raised inside a matched rule.
type ExecutionError struct {
	Rule  string
	Scope Scope
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("rule %s (%s scope): %v", e.Rule, e.Scope, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecution
}
