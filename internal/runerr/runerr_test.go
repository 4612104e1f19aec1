package runerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunError_Error(t *testing.T) {
	e := New(CodeUnknownTask, "no such task %q", "frobnicate")
	assert.Equal(t, `UNKNOWN_TASK: no such task "frobnicate"`, e.Error())

	at := e.At(2, 5, 7)
	assert.Equal(t, `UNKNOWN_TASK: no such task "frobnicate" (task 2, lines 5-7)`, at.Error())
	// At returns a copy; the original stays unpositioned.
	assert.Equal(t, -1, e.Task)
}

func TestWrap_Unwraps(t *testing.T) {
	cause := errors.New("disk full")
	e := Wrap(CodeAdapterExecutionFailed, cause, "execution failed")
	require.ErrorIs(t, e, cause)
	assert.Contains(t, e.Error(), "disk full")
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeInvalidOption, CodeOf(New(CodeInvalidOption, "bad flag")))
	assert.Equal(t, CodeMisplacedInit, CodeOf(fmt.Errorf("outer: %w", New(CodeMisplacedInit, "init after task 0"))))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestIsParseError(t *testing.T) {
	assert.True(t, IsParseError(New(CodeMalformedScript, "")))
	assert.True(t, IsParseError(New(CodeUnknownTask, "")))
	assert.False(t, IsParseError(New(CodeUnknownFakeID, "")))
	assert.False(t, IsParseError(errors.New("plain")))
}
