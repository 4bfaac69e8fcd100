// Package fastcodec encodes and decodes FAST (FIX Adapted for STreaming)
// messages.
//
// FAST compresses a stream of messages by describing each message with a
// template and transmitting a field only when it cannot be derived from the
// template or from the previous message. The sender and the receiver keep
// the same dictionary of previous values, so messages of one stream must be
// encoded and decoded in order, by a single encoder and a single decoder.
//
// # Basic Usage
//
// Describing templates and building a repository:
//
//	repo, err := fastcodec.Build(schema.NewDescription(
//	    schema.NewTemplate(1, "Quote", []schema.FieldDesc{
//	        schema.UInt32("SeqNum", 34, schema.Increment()),
//	        schema.ASCII("Symbol", 55, schema.Copy()),
//	        schema.Decimal("Px", 270, schema.Delta()),
//	    }),
//	))
//
// Encoding:
//
//	enc, _ := fastcodec.NewEncoder(repo)
//	msg, _ := message.New(repo, 1)
//	// set fields through msg.Field(...)
//	stream, err := enc.Append(stream, msg, false)
//
// Decoding:
//
//	dec, _ := fastcodec.NewDecoder(repo)
//	for len(stream) > 0 {
//	    msg, n, err := dec.Decode(stream, false)
//	    if err != nil {
//	        return err
//	    }
//	    stream = stream[n:]
//	}
//
// # Package Structure
//
// This package provides top-level wrappers for the common use cases. The
// schema package builds template repositories, codec holds the encoder, the
// decoder and the token pool, message is the field-level message view, and
// archive with frame record and replay captured streams.
package fastcodec

import (
	"fmt"

	"github.com/arloliu/fastcodec/archive"
	"github.com/arloliu/fastcodec/codec"
	"github.com/arloliu/fastcodec/errs"
	"github.com/arloliu/fastcodec/message"
	"github.com/arloliu/fastcodec/schema"
)

// Build validates template descriptions and builds the repository shared by
// encoders and decoders.
func Build(descs ...*schema.TemplatesDescription) (*schema.Repository, error) {
	return schema.Build(descs)
}

// NewDecoder creates a decoder with its own dictionary over repo.
func NewDecoder(repo *schema.Repository, opts ...codec.Option) (*codec.Decoder, error) {
	return codec.NewDecoder(repo, opts...)
}

// NewEncoder creates an encoder with its own dictionary over repo.
func NewEncoder(repo *schema.Repository, opts ...codec.Option) (*codec.Encoder, error) {
	return codec.NewEncoder(repo, opts...)
}

// NewTokenPool creates a pool of size decoders for independent streams.
func NewTokenPool(repo *schema.Repository, size int, opts ...codec.Option) (*codec.TokenPool, error) {
	return codec.NewTokenPool(repo, size, opts...)
}

// Record encodes msgs as one stream with enc and stores every encoded
// message in an archive. The first message is encoded with a dictionary
// reset, so the archive replays from a fresh decoder.
func Record(enc *codec.Encoder, msgs []*message.Message, opts ...archive.Option) (data []byte, err error) {
	defer errs.Wrap(&err, "Record")

	w, err := archive.NewWriter(opts...)
	if err != nil {
		return nil, err
	}

	var buf []byte
	for i, msg := range msgs {
		buf, err = enc.Append(buf[:0], msg, i == 0)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		if err = w.Append(buf); err != nil {
			return nil, err
		}
	}

	return w.Finish()
}

// Replay decodes every message of an archive in order with dec and calls fn
// with each of them. The message passed to fn is valid until fn returns.
//
// The decoder dictionary is reset before the first message. Replay stops at
// the first error returned by the archive, the decoder or fn.
func Replay(dec *codec.Decoder, data []byte, fn func(i int, msg *message.Message) error, opts ...archive.Option) (err error) {
	defer errs.Wrap(&err, "Replay")

	r, err := archive.NewReader(data, opts...)
	if err != nil {
		return err
	}

	for i, payload := range r.All() {
		msg, n, err := dec.Decode(payload, i == 0)
		if err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		if n != len(payload) {
			return fmt.Errorf("%w: message %d leaves %d trailing bytes", errs.ErrInvalidFrame, i, len(payload)-n)
		}
		if err := fn(i, msg); err != nil {
			return err
		}
	}

	return nil
}
