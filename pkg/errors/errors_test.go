package errors

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithContext(t *testing.T) {
	assert.NoError(t, WithContext(nil, "ignored"))

	cause := New("permission denied")
	err := WithContext(WithContext(cause, "open"), "hash source")
	assert.EqualError(t, err, "hash source: open: permission denied")
	assert.Equal(t, cause, RootCause(err))
}

func TestRootCauseTyped(t *testing.T) {
	err := WithContext(FileNotFound{Path: "/src"}, "check source")
	dneErr, ok := RootCause(err).(FileNotFound)
	assert.True(t, ok)
	assert.Equal(t, "/src", dneErr.Path)

	pathErr := &os.PathError{Op: "open", Path: "/missing", Err: os.ErrNotExist}
	assert.True(t, os.IsNotExist(RootCause(WithContext(pathErr, "stat"))))
}

func TestNewFormatting(t *testing.T) {
	assert.EqualError(t, New("plain"), "plain")
	assert.EqualError(t, New("interval must be positive, got %d", -1),
		"interval must be positive, got -1")
}

func TestGetPrintableMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		exp  string
	}{
		{
			name: "Friendly",
			err:  NewFriendlyError("Source folder %q does not exist.", "/src"),
			exp:  `Source folder "/src" does not exist.`,
		},
		{
			name: "WrappedFriendly",
			err:  WithContext(NewFriendlyError("friendly"), "context"),
			exp:  "friendly",
		},
		{
			name: "Unfriendly",
			err:  WithContext(New("cause"), "context"),
			exp:  "Error: context: cause",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, GetPrintableMessage(test.err))
		})
	}
}
