package ui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/renato0307/modshell/internal/tasks"
)

func TestFormatErrorForDisplay(t *testing.T) {
	assert.Empty(t, formatErrorForDisplay(nil, 40))
	assert.Equal(t, "short", formatErrorForDisplay(errors.New("short"), 40))
	assert.Equal(t, "one two\nthree", formatErrorForDisplay(errors.New("one two three"), 10))
}

func TestFormatErrorForDisplay_Truncates(t *testing.T) {
	long := errors.New(strings.Repeat("word ", 100))

	out := formatErrorForDisplay(long, 20)

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, maxErrorLines)
	assert.True(t, strings.HasSuffix(out, truncationMark))
	for _, l := range lines {
		assert.LessOrEqual(t, len(l), 20)
	}
}

func TestErrorManager_StaleClearIsIgnored(t *testing.T) {
	em := NewErrorManager(0)
	first := errors.New("first")
	second := errors.New("second")

	assert.Nil(t, em.SetError(first), "no delay means no clear command")
	em.SetError(second)
	em.handleClear(clearErrorMsg{err: first})

	assert.Equal(t, second, em.GetError())
	em.handleClear(clearErrorMsg{err: second})
	assert.False(t, em.HasError())
}

func TestErrorManager_BackendFailuresDoNotAutoClear(t *testing.T) {
	em := NewErrorManager(time.Second)

	assert.NotNil(t, em.SetError(errors.New("A has no options")))
	assert.False(t, em.HasTrace())

	wrapped := fmt.Errorf("failed to apply changes: %w", &tasks.Error{Kind: tasks.KindIO, Message: "disk full", Trace: "write\nsync"})
	assert.Nil(t, em.SetError(wrapped))
	assert.True(t, em.HasTrace())
	assert.Contains(t, em.TraceView(), "sync")

	assert.Nil(t, em.SetError(&tasks.Error{Kind: tasks.KindTransport, Message: "closed"}))
	assert.False(t, em.HasTrace(), "no trace, message only")

	em.ClearError()
	assert.False(t, em.HasTrace())
}
