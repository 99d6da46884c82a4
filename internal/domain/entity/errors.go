package entity

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("invalid evaluation request")
	ErrAgentLoad        = errors.New("agent load failed")
	ErrAgentRuntime     = errors.New("agent execution failed")
	ErrElementNotFound  = errors.New("element not found")
	ErrEnvironment      = errors.New("environment error")
	ErrCallbackDelivery = errors.New("callback delivery failed")
	ErrInvalidAction    = errors.New("invalid action")
	ErrStopAction       = errors.New("stop action has no concrete form")
)

// ElementNotFoundError keeps the selector that could not be resolved.
type ElementNotFoundError struct {
	Selector string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element not found for selector %q", e.Selector)
}

func (e *ElementNotFoundError) Is(target error) bool {
	return target == ErrElementNotFound
}
