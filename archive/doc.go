// Package archive records and replays captures of encoded FAST messages.
//
// An archive is a 32-byte section.ArchiveHeader followed by a payload of
// block-framed messages (see package frame), compressed as a whole with one
// of the codecs of package compress:
//
//	w, _ := archive.NewWriter(archive.WithCompression(format.CompressionZstd))
//	for _, msg := range encoded {
//	    _ = w.Append(msg)
//	}
//	data, err := w.Finish()
//
//	r, err := archive.NewReader(data)
//	for i, msg := range r.All() {
//	    ...
//	}
//
// The header records the message count, both payload sizes and the xxHash64
// of the uncompressed payload; NewReader verifies all of them before the
// first message is returned. Since FAST decoding depends on dictionary state,
// messages must be replayed in order by a single decoder.
package archive
