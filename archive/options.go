package archive

import (
	"time"

	"go.uber.org/zap"

	"github.com/arloliu/fastcodec/format"
	"github.com/arloliu/fastcodec/frame"
	"github.com/arloliu/fastcodec/internal/options"
	"github.com/arloliu/fastcodec/section"
)

// DefaultMaxPayloadSize is the default bound on the uncompressed payload size
// a reader accepts.
const DefaultMaxPayloadSize = 256 << 20

// Config holds archive writer and reader settings.
type Config struct {
	logger         *zap.Logger
	compression    format.CompressionType
	preambleSize   int
	bigEndian      bool
	createdAt      time.Time
	maxBlockLength int
	maxPayloadSize int64
}

// Option configures a Writer or a Reader. Options that do not apply to the
// configured component are ignored.
type Option = options.Option[*Config]

func newConfig(opts []Option) (*Config, error) {
	cfg := &Config{
		logger:         zap.NewNop(),
		compression:    format.CompressionNone,
		maxBlockLength: frame.DefaultMaxBlockLength,
		maxPayloadSize: DefaultMaxPayloadSize,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WithLogger sets the logger. The default logger discards everything.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithCompression selects the payload compression of a writer.
func WithCompression(compression format.CompressionType) Option {
	return options.New(func(c *Config) error {
		flag := section.NewArchiveFlag()
		flag.SetCompression(compression)
		if err := flag.Validate(); err != nil {
			return err
		}
		c.compression = compression

		return nil
	})
}

// WithPreamble makes a writer store a size-byte sequence number before every
// message. Valid sizes are 0, 1, 2, 4 and 8.
func WithPreamble(size int) Option {
	return options.New(func(c *Config) error {
		// validated by the frame writer
		if _, err := frame.NewWriter(frame.WithPreamble(size, nil)); err != nil {
			return err
		}
		c.preambleSize = size

		return nil
	})
}

// WithBigEndian makes a writer use big-endian header fields and preambles.
func WithBigEndian() Option {
	return options.NoError(func(c *Config) {
		c.bigEndian = true
	})
}

// WithCreatedAt sets the creation time recorded by a writer. It defaults to
// the time of Finish.
func WithCreatedAt(t time.Time) Option {
	return options.NoError(func(c *Config) {
		c.createdAt = t
	})
}

// WithMaxBlockLength bounds the message sizes accepted by a reader.
func WithMaxBlockLength(n int) Option {
	return options.NoError(func(c *Config) {
		if n > 0 {
			c.maxBlockLength = n
		}
	})
}

// WithMaxPayloadSize bounds the uncompressed payload size a reader accepts.
// The payload is allocated from the size recorded in the header, so the bound
// applies before decompression.
func WithMaxPayloadSize(n int64) Option {
	return options.NoError(func(c *Config) {
		if n > 0 {
			c.maxPayloadSize = n
		}
	})
}
