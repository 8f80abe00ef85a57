package contract

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpErrorMessage(t *testing.T) {
	cause := errors.New("disk full")
	tests := []struct {
		name string
		err  *OpError
		want string
	}{
		{"op and cause", NewOpError(KindStore, "complete", "save unit", cause), "complete: save unit: disk full"},
		{"op only", NewOpError(KindInvalidInput, "start", "budget must be positive", nil), "start: budget must be positive"},
		{"cause only", NewOpError(KindScan, "", "walk", cause), "walk: disk full"},
		{"message only", NewOpError(KindInternal, "", "boom", nil), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestOpErrorUnwrap(t *testing.T) {
	err := NewOpError(KindNotFound, "next", "project", NotFoundf("project %s", "p1"))
	assert.ErrorIs(t, err, ErrNotFound)

	var opErr *OpError
	wrapped := fmt.Errorf("outer: %w", err)
	assert.ErrorAs(t, wrapped, &opErr)
	assert.Equal(t, KindNotFound, opErr.Kind)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"typed", NewOpError(KindEvidenceMissing, "complete", "none", nil), KindEvidenceMissing},
		{"wrapped typed", fmt.Errorf("x: %w", NewOpError(KindConflict, "", "c", nil)), KindConflict},
		{"not found sentinel", NotFoundf("unit %s", "u1"), KindNotFound},
		{"transition sentinel", fmt.Errorf("move: %w", ErrInvalidTransition), KindInvalidTransition},
		{"evidence sentinel", ErrEvidenceMissing, KindEvidenceMissing},
		{"conflict sentinel", ErrConflict, KindConflict},
		{"budget sentinel", ErrBudget, KindInvalidInput},
		{"untyped", errors.New("connection refused"), KindStore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}
