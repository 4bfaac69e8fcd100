package frame

import (
	"fmt"

	"github.com/arloliu/fastcodec/endian"
	"github.com/arloliu/fastcodec/errs"
	"github.com/arloliu/fastcodec/internal/options"
)

// DefaultMaxBlockLength is the largest block length accepted by a reader
// unless configured otherwise.
const DefaultMaxBlockLength = 1 << 20

// Config holds framing settings shared by readers and writers.
type Config struct {
	preambleSize   int
	engine         endian.EndianEngine
	blockLength    bool
	maxBlockLength int
}

// Option configures a Reader or a Writer.
type Option = options.Option[*Config]

func newConfig(opts []Option) (*Config, error) {
	cfg := &Config{
		engine:         endian.GetBigEndianEngine(),
		blockLength:    true,
		maxBlockLength: DefaultMaxBlockLength,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WithPreamble prefixes every frame with a sequence number of size bytes in
// the byte order of engine. Valid sizes are 0, 1, 2, 4 and 8.
func WithPreamble(size int, engine endian.EndianEngine) Option {
	return options.New(func(c *Config) error {
		switch size {
		case 0, 1, 2, 4, 8:
		default:
			return fmt.Errorf("%w: unsupported preamble size %d", errs.ErrInvalidFrame, size)
		}
		c.preambleSize = size
		if engine != nil {
			c.engine = engine
		}

		return nil
	})
}

// WithoutBlockLength disables the stop-bit block length.
func WithoutBlockLength() Option {
	return options.NoError(func(c *Config) {
		c.blockLength = false
	})
}

// WithMaxBlockLength bounds the block lengths accepted by a reader.
func WithMaxBlockLength(n int) Option {
	return options.NoError(func(c *Config) {
		if n > 0 {
			c.maxBlockLength = n
		}
	})
}

// PreambleSize returns the configured preamble size in bytes.
func (c *Config) PreambleSize() int { return c.preambleSize }

// Engine returns the byte order of the preamble.
func (c *Config) Engine() endian.EndianEngine { return c.engine }
