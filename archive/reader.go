package archive

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"go.uber.org/zap"

	"github.com/arloliu/fastcodec/compress"
	"github.com/arloliu/fastcodec/errs"
	"github.com/arloliu/fastcodec/frame"
	"github.com/arloliu/fastcodec/internal/hash"
	"github.com/arloliu/fastcodec/section"
)

// Reader gives access to the messages of a validated archive. It is
// immutable after NewReader and safe for concurrent use.
type Reader struct {
	header section.ArchiveHeader
	frames []frame.Frame
}

// NewReader parses and validates an archive.
//
// Returns:
//   - *Reader: reader over the archived messages
//   - error: header errors from section.ParseArchiveHeader,
//     ErrInvalidPayloadSize, ErrChecksumMismatch, ErrMessageCountInvalid,
//     ErrInvalidFrame or a decompression error
func NewReader(data []byte, opts ...Option) (r *Reader, err error) {
	defer errs.Wrap(&err, "archive.NewReader")

	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	header, err := section.ParseArchiveHeader(data)
	if err != nil {
		return nil, err
	}

	stored := data[section.HeaderSize:]
	if uint64(len(stored)) != uint64(header.CompressedSize) {
		return nil, fmt.Errorf("%w: header records %d bytes, archive holds %d",
			errs.ErrInvalidPayloadSize, header.CompressedSize, len(stored))
	}

	if int64(header.PayloadSize) > cfg.maxPayloadSize {
		return nil, fmt.Errorf("%w: header records %d uncompressed bytes, limit is %d",
			errs.ErrInvalidPayloadSize, header.PayloadSize, cfg.maxPayloadSize)
	}

	payload, err := decompress(header, stored)
	if err != nil {
		return nil, err
	}
	if uint64(len(payload)) != uint64(header.PayloadSize) {
		return nil, fmt.Errorf("%w: header records %d uncompressed bytes, got %d",
			errs.ErrInvalidPayloadSize, header.PayloadSize, len(payload))
	}
	if sum := hash.Checksum(payload); sum != header.Checksum {
		return nil, fmt.Errorf("%w: want %016x, got %016x", errs.ErrChecksumMismatch, header.Checksum, sum)
	}

	frames, err := splitFrames(header, payload, cfg.maxBlockLength)
	if err != nil {
		return nil, err
	}

	if ce := cfg.logger.Check(zap.DebugLevel, "archive opened"); ce != nil {
		ce.Write(
			zap.Uint32("messages", header.MessageCount),
			zap.Stringer("compression", header.Flag.Compression()),
			zap.Time("created_at", header.CreatedAtAsTime()),
		)
	}

	return &Reader{header: header, frames: frames}, nil
}

func decompress(header section.ArchiveHeader, stored []byte) ([]byte, error) {
	codec, err := compress.GetCodec(header.Flag.Compression())
	if err != nil {
		return nil, err
	}

	var payload []byte
	if sized, ok := codec.(compress.SizedDecompressor); ok {
		payload, err = sized.DecompressSized(stored, int(header.PayloadSize))
	} else {
		payload, err = codec.Decompress(stored)
	}
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}

	return payload, nil
}

func splitFrames(header section.ArchiveHeader, payload []byte, maxBlockLength int) ([]frame.Frame, error) {
	fr, err := frame.NewReader(payload,
		frame.WithPreamble(int(header.Flag.PreambleSize), header.Flag.GetEndianEngine()),
		frame.WithMaxBlockLength(maxBlockLength),
	)
	if err != nil {
		return nil, err
	}

	// every frame takes at least one byte
	frames := make([]frame.Frame, 0, min(int(header.MessageCount), len(payload)))
	for {
		f, err := fr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(frames) == int(header.MessageCount) {
			return nil, fmt.Errorf("%w: more than %d messages", errs.ErrMessageCountInvalid, header.MessageCount)
		}
		frames = append(frames, f)
	}

	if len(frames) != int(header.MessageCount) {
		return nil, fmt.Errorf("%w: header records %d messages, payload holds %d",
			errs.ErrMessageCountInvalid, header.MessageCount, len(frames))
	}

	return frames, nil
}

// Header returns the archive header.
func (r *Reader) Header() section.ArchiveHeader { return r.header }

// Len returns the number of archived messages.
func (r *Reader) Len() int { return len(r.frames) }

// Message returns the i-th encoded message.
func (r *Reader) Message(i int) []byte { return r.frames[i].Payload }

// All iterates the encoded messages in archive order.
func (r *Reader) All() iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		for i, f := range r.frames {
			if !yield(i, f.Payload) {
				return
			}
		}
	}
}

// Frames iterates the archived frames, with their preamble sequence numbers.
func (r *Reader) Frames() iter.Seq2[int, frame.Frame] {
	return func(yield func(int, frame.Frame) bool) {
		for i, f := range r.frames {
			if !yield(i, f) {
				return
			}
		}
	}
}
