package frame

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/fastcodec/endian"
	"github.com/arloliu/fastcodec/errs"
)

func TestWriter_Append(t *testing.T) {
	long := bytes.Repeat([]byte{0x80}, 200)

	tests := []struct {
		name    string
		opts    []Option
		seq     uint64
		payload []byte
		want    []byte
	}{
		{
			name:    "BlockLengthOnly",
			payload: []byte{0xC0, 0x81},
			want:    []byte{0x82, 0xC0, 0x81},
		},
		{
			name:    "TwoByteLength",
			payload: long,
			want:    append([]byte{0x01, 0xC8}, long...),
		},
		{
			name:    "BigEndianPreamble",
			opts:    []Option{WithPreamble(4, endian.GetBigEndianEngine())},
			seq:     1,
			payload: []byte{0xC0, 0x81},
			want:    []byte{0x00, 0x00, 0x00, 0x01, 0x82, 0xC0, 0x81},
		},
		{
			name:    "LittleEndianPreamble",
			opts:    []Option{WithPreamble(2, endian.GetLittleEndianEngine())},
			seq:     0x0102,
			payload: []byte{0x80},
			want:    []byte{0x02, 0x01, 0x81, 0x80},
		},
		{
			name:    "PreambleWithoutLength",
			opts:    []Option{WithPreamble(1, nil), WithoutBlockLength()},
			seq:     7,
			payload: []byte{0xC0, 0x81},
			want:    []byte{0x07, 0xC0, 0x81},
		},
		{
			name: "EmptyPayload",
			want: []byte{0x80},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWriter(tt.opts...)
			require.NoError(t, err)

			got, err := w.Append([]byte{0xAA}, tt.seq, tt.payload)
			require.NoError(t, err)
			require.Equal(t, append([]byte{0xAA}, tt.want...), got)
			require.Equal(t, len(tt.want)-len(tt.payload), w.Overhead(len(tt.payload)))
		})
	}
}

func TestWriter_Errors(t *testing.T) {
	_, err := NewWriter(WithPreamble(3, nil))
	require.ErrorIs(t, err, errs.ErrInvalidFrame)

	w, err := NewWriter(WithPreamble(1, nil))
	require.NoError(t, err)

	dst := []byte{0x01}
	out, err := w.Append(dst, 256, []byte{0x80})
	require.ErrorIs(t, err, errs.ErrInvalidFrame)
	require.Equal(t, dst, out)

	w, err = NewWriter()
	require.NoError(t, err)
	_, err = w.Append(nil, 1<<40, []byte{0x80})
	require.NoError(t, err, "sequence is ignored without preamble")
}

func TestReader_Next(t *testing.T) {
	require := require.New(t)

	opts := []Option{WithPreamble(4, endian.GetBigEndianEngine())}
	w, err := NewWriter(opts...)
	require.NoError(err)

	payloads := [][]byte{{0xC0, 0x81}, bytes.Repeat([]byte{0x61}, 300), {}}
	var buf []byte
	for i, p := range payloads {
		buf, err = w.Append(buf, uint64(100+i), p) //nolint:gosec
		require.NoError(err)
	}

	r, err := NewReader(buf, opts...)
	require.NoError(err)
	for i, p := range payloads {
		f, err := r.Next()
		require.NoError(err)
		require.Equal(uint64(100+i), f.Seq) //nolint:gosec
		require.Equal(len(p), len(f.Payload))
		require.True(bytes.Equal(p, f.Payload))
	}
	require.Equal(len(buf), r.Offset())
	require.Equal(0, r.Remaining())

	_, err = r.Next()
	require.ErrorIs(err, io.EOF)

	r.Reset(buf)
	f, err := r.Next()
	require.NoError(err)
	require.Equal(uint64(100), f.Seq)
}

func TestReader_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		data []byte
	}{
		{"TruncatedPreamble", []Option{WithPreamble(4, nil)}, []byte{0x00, 0x00}},
		{"MissingStopBit", nil, []byte{0x01, 0x02}},
		{"TruncatedPayload", nil, []byte{0x83, 0xC0, 0x81}},
		{"Oversized", []Option{WithMaxBlockLength(2)}, []byte{0x83, 0xC0, 0x81, 0x82}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReader(tt.data, tt.opts...)
			require.NoError(t, err)

			_, err = r.Next()
			require.ErrorIs(t, err, errs.ErrInvalidFrame)
		})
	}
}

func TestReader_WithoutBlockLength(t *testing.T) {
	require := require.New(t)

	data := []byte{0x01, 0xC0, 0x81, 0x02, 0x80}
	r, err := NewReader(data, WithPreamble(1, nil), WithoutBlockLength())
	require.NoError(err)

	require.ErrorIs(r.Advance(1), errs.ErrInvalidFrame, "no frame yet")

	f, err := r.Next()
	require.NoError(err)
	require.Equal(uint64(1), f.Seq)
	require.Equal([]byte{0xC0, 0x81, 0x02, 0x80}, f.Payload)

	_, err = r.Next()
	require.ErrorIs(err, errs.ErrInvalidFrame, "Advance is required between frames")

	require.ErrorIs(r.Advance(5), errs.ErrInvalidFrame)
	require.NoError(r.Advance(2))

	f, err = r.Next()
	require.NoError(err)
	require.Equal(uint64(2), f.Seq)
	require.Equal([]byte{0x80}, f.Payload)
	require.NoError(r.Advance(1))

	_, err = r.Next()
	require.ErrorIs(err, io.EOF)
}
