package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Is(t *testing.T) {
	err := &Error{Code: CodeD5, Field: "MDEntryPx"}

	require.ErrorIs(t, err, ErrD5)
	require.NotErrorIs(t, err, ErrD6)
	require.Contains(t, err.Error(), "[D5]")
	require.Contains(t, err.Error(), `field "MDEntryPx"`)
}

func TestError_Context(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"D4Key", &Error{Code: CodeD4, Key: "global::::||Price"}, `key "global::::||Price"`},
		{"D9Template", &Error{Code: CodeD9, TemplateID: 99}, "template 99"},
		{"D7Length", &Error{Code: CodeD7, Length: 7}, "length 7"},
		{"Detail", Newf(CodeBufferUnderflow, "at offset %d", 3), "at offset 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Contains(t, tt.err.Error(), tt.want)
		})
	}
}

func TestCodeOf(t *testing.T) {
	require := require.New(t)

	wrapped := fmt.Errorf("decode: %w", New(CodeD7, "front removal"))
	require.Equal(CodeD7, CodeOf(wrapped))
	require.Equal(CodeBufferUnderflow, CodeOf(fmt.Errorf("x: %w", ErrBufferUnderflow)))
	require.Equal(CodeUnknown, CodeOf(errors.New("plain")))
	require.Equal("D7", CodeD7.String())
	require.Equal("Unknown", Code(200).String())
}

func TestWrap(t *testing.T) {
	require := require.New(t)

	f := func(fail bool) (err error) {
		defer Wrap(&err, "Decode(%d)", 7)
		if fail {
			return New(CodeD9, "")
		}

		return nil
	}

	require.NoError(f(false))

	err := f(true)
	require.ErrorIs(err, ErrD9)
	require.Contains(err.Error(), "Decode(7): ")
}
