package archive

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arloliu/fastcodec/compress"
	"github.com/arloliu/fastcodec/endian"
	"github.com/arloliu/fastcodec/errs"
	"github.com/arloliu/fastcodec/frame"
	"github.com/arloliu/fastcodec/internal/hash"
	"github.com/arloliu/fastcodec/internal/pool"
	"github.com/arloliu/fastcodec/section"
)

// Writer collects encoded messages into an archive.
//
// A Writer is not safe for concurrent use. After Finish it rejects further
// calls with errs.ErrArchiveFinished.
type Writer struct {
	cfg      *Config
	header   *section.ArchiveHeader
	frames   *frame.Writer
	codec    compress.Codec
	payload  *pool.ByteBuffer
	count    uint32
	finished bool
}

// NewWriter creates an archive writer.
func NewWriter(opts ...Option) (*Writer, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	header := section.NewArchiveHeader(cfg.createdAt)
	engine := endian.GetLittleEndianEngine()
	if cfg.bigEndian {
		header.Flag.WithBigEndian()
		engine = endian.GetBigEndianEngine()
	}
	header.Flag.PreambleSize = uint8(cfg.preambleSize) //nolint:gosec
	header.Flag.SetCompression(cfg.compression)

	frames, err := frame.NewWriter(frame.WithPreamble(cfg.preambleSize, engine))
	if err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return nil, err
	}

	return &Writer{
		cfg:     cfg,
		header:  header,
		frames:  frames,
		codec:   codec,
		payload: pool.GetArchiveBuffer(),
	}, nil
}

// Len returns the number of messages appended so far.
func (w *Writer) Len() int { return int(w.count) }

// Append adds one encoded message. With a preamble, its sequence number is
// the message position starting at 1.
func (w *Writer) Append(msg []byte) error {
	return w.AppendSeq(uint64(w.count)+1, msg)
}

// AppendSeq adds one encoded message with an explicit preamble sequence number.
func (w *Writer) AppendSeq(seq uint64, msg []byte) (err error) {
	defer errs.Wrap(&err, "archive.AppendSeq(%d)", seq)

	if w.finished {
		return errs.ErrArchiveFinished
	}

	start := w.payload.Len()
	if uint64(start)+uint64(w.frames.Overhead(len(msg))+len(msg)) > section.MaxPayloadSize {
		return fmt.Errorf("%w: payload exceeds %d bytes", errs.ErrInvalidPayloadSize, uint64(section.MaxPayloadSize))
	}

	w.payload.B, err = w.frames.Append(w.payload.B, seq, msg)
	if err != nil {
		return err
	}
	w.count++

	return nil
}

// Finish compresses the payload and returns the complete archive.
func (w *Writer) Finish() (data []byte, err error) {
	defer errs.Wrap(&err, "archive.Finish")

	if w.finished {
		return nil, errs.ErrArchiveFinished
	}
	w.finished = true
	defer func() {
		pool.PutArchiveBuffer(w.payload)
		w.payload = nil
	}()

	payload := w.payload.Bytes()
	start := time.Now()
	compressed, err := w.codec.Compress(payload)
	if err != nil {
		return nil, fmt.Errorf("compress payload: %w", err)
	}

	stats := compress.CompressionStats{
		Algorithm:         w.header.Flag.Compression(),
		OriginalSize:      int64(len(payload)),
		CompressedSize:    int64(len(compressed)),
		CompressionTimeNs: time.Since(start).Nanoseconds(),
	}

	if w.cfg.createdAt.IsZero() {
		w.header.CreatedAt = time.Now().UnixMicro()
	}
	w.header.MessageCount = w.count
	w.header.PayloadSize = uint32(len(payload))       //nolint:gosec
	w.header.CompressedSize = uint32(len(compressed)) //nolint:gosec
	w.header.Checksum = hash.Checksum(payload)

	data = make([]byte, 0, section.HeaderSize+len(compressed))
	data = append(data, w.header.Bytes()...)
	data = append(data, compressed...)

	if ce := w.cfg.logger.Check(zap.DebugLevel, "archive finished"); ce != nil {
		ce.Write(
			zap.Uint32("messages", w.count),
			zap.Stringer("compression", stats.Algorithm),
			zap.Int64("payload_size", stats.OriginalSize),
			zap.Int64("compressed_size", stats.CompressedSize),
			zap.Float64("space_savings", stats.SpaceSavings()),
			zap.Int64("compression_ns", stats.CompressionTimeNs),
		)
	}

	return data, nil
}
