package grace

import (
	"errors"
	"fmt"
)

// Error is an error that tells the operator how to fix it
type Error interface {
	error

	WhatExpected() string
	WhatHappened() string
	WhatToDo() string
}

type ActionableError struct {
	expected     string
	got          string
	callToAction string
}

func (e *ActionableError) WhatExpected() string {
	return e.expected
}

func (e *ActionableError) WhatHappened() string {
	return e.got
}

func (e *ActionableError) WhatToDo() string {
	return e.callToAction
}

func (e *ActionableError) Error() string {
	return fmt.Sprintf("expected: %s, got: %s; What to do: %s", e.expected, e.got, e.callToAction)
}

func RaiseError(
	expected, got, cta string,
) Error {
	return &ActionableError{
		expected:     expected,
		got:          got,
		callToAction: cta,
	}
}

// AsActionable reports whether err, or any error it wraps, carries operator guidance
func AsActionable(err error) (Error, bool) {
	var target *ActionableError
	if errors.As(err, &target) {
		return target, true
	}

	return nil, false
}
