package codec

import (
	"go.uber.org/zap"

	"github.com/arloliu/fastcodec/internal/options"
	"github.com/arloliu/fastcodec/value"
)

// DefaultMaxSequenceLength is the largest sequence length accepted by a
// decoder unless configured otherwise.
const DefaultMaxSequenceLength = 1 << 16

// Config holds the settings shared by decoders, encoders and token pools.
type Config struct {
	logger         *zap.Logger
	newAllocator   func() value.Allocator
	maxSequenceLen int
}

// Option configures a Decoder, an Encoder or a TokenPool. Options that do not
// apply to the configured component are ignored.
type Option = options.Option[*Config]

func newConfig(opts []Option) (*Config, error) {
	cfg := &Config{
		logger:         zap.NewNop(),
		newAllocator:   func() value.Allocator { return value.NewArenaAllocator(0, 0) },
		maxSequenceLen: DefaultMaxSequenceLength,
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

// WithAllocator makes the decoder materialize messages with alloc.
//
// A TokenPool shares alloc between its tokens, so alloc must then be safe for
// concurrent use (HeapAllocator is); use WithArena for per-token arenas.
func WithAllocator(alloc value.Allocator) Option {
	return options.NoError(func(c *Config) {
		if alloc != nil {
			c.newAllocator = func() value.Allocator { return alloc }
		}
	})
}

// WithArena gives every decoder its own ArenaAllocator with the given slab
// sizes. It is the default, with default slab sizes.
func WithArena(valueSlab, byteSlab int) Option {
	return options.NoError(func(c *Config) {
		c.newAllocator = func() value.Allocator { return value.NewArenaAllocator(valueSlab, byteSlab) }
	})
}

// WithMaxSequenceLength bounds the sequence lengths accepted by the decoder.
func WithMaxSequenceLength(n int) Option {
	return options.NoError(func(c *Config) {
		if n > 0 {
			c.maxSequenceLen = n
		}
	})
}
