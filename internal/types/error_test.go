package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestCustomErrorMessage(t *testing.T) {
	err := &CustomError{Code: 403, Message: "forbidden", Type: "builder.authorization.service"}

	expected := "403: forbidden [type: builder.authorization.service]"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("generation abc: %w", ErrNotFound)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("Expected wrapped error to match ErrNotFound")
	}
	if errors.Is(wrapped, ErrConflict) {
		t.Error("Expected wrapped error not to match ErrConflict")
	}
}
