package codec

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/arloliu/fastcodec/errs"
	"github.com/arloliu/fastcodec/message"
	"github.com/arloliu/fastcodec/schema"
)

// TokenPool partitions decoding of one template repository between a fixed
// set of tokens. Every token owns a decoder with its own dictionary and
// allocator, so tokens decode concurrently.
//
// A token is the unit of mutual exclusion: the messages decoded with a token
// stay valid until the token decodes again, and must not be accessed after
// the token is released to another goroutine. Since each token keeps its own
// dictionary, a stream must be decoded with the same token from start to end
// or be reset when it changes tokens.
type TokenPool struct {
	free   chan *Token
	tokens []*Token
	logger *zap.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// Token grants exclusive use of one decoder of a TokenPool.
type Token struct {
	id   int
	pool *TokenPool
	dec  *Decoder
	held atomic.Bool
}

// NewTokenPool creates a pool of size tokens over repo.
//
// Parameters:
//   - repo: templates shared by every token
//   - size: number of tokens, at least 1
//   - opts: decoder options applied to every token
//
// Returns:
//   - *TokenPool: pool with every token free
//   - error: configuration error
func NewTokenPool(repo *schema.Repository, size int, opts ...Option) (*TokenPool, error) {
	if size < 1 {
		size = 1
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	p := &TokenPool{
		free:   make(chan *Token, size),
		tokens: make([]*Token, size),
		logger: cfg.logger,
		done:   make(chan struct{}),
	}
	for i := range p.tokens {
		t := &Token{id: i, pool: p, dec: newDecoder(repo, cfg)}
		p.tokens[i] = t
		p.free <- t
	}

	return p, nil
}

// Size returns the number of tokens.
func (p *TokenPool) Size() int { return len(p.tokens) }

// Acquire waits for a free token.
//
// It fails with the context error when ctx is done first, and with
// errs.ErrTokenPoolClosed once the pool is closed.
func (p *TokenPool) Acquire(ctx context.Context) (*Token, error) {
	select {
	case <-p.done:
		return nil, errs.ErrTokenPoolClosed
	default:
	}

	select {
	case t := <-p.free:
		t.held.Store(true)
		if ce := p.logger.Check(zap.DebugLevel, "token acquired"); ce != nil {
			ce.Write(zap.Int("token", t.id), zap.Int("free", len(p.free)))
		}

		return t, nil
	case <-p.done:
		return nil, errs.ErrTokenPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close makes every pending and future Acquire fail. Tokens held by callers
// stay usable until released.
func (p *TokenPool) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

// ID returns the index of the token in its pool.
func (t *Token) ID() int { return t.id }

// Decoder returns the decoder owned by the token.
func (t *Token) Decoder() *Decoder { return t.dec }

// Decode decodes the message at the front of data with the token's decoder.
// See Decoder.Decode.
func (t *Token) Decode(data []byte, forceReset bool) (*message.Message, int, error) {
	return t.dec.Decode(data, forceReset)
}

// Release returns the token to its pool. Messages decoded with the token must
// not be used afterwards. Releasing a token that is not held is a no-op.
func (t *Token) Release() {
	if !t.held.CompareAndSwap(true, false) {
		return
	}
	t.pool.free <- t
}
