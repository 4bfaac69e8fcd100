package encoding

// PresenceMap reads the bits of a decoded presence map, most significant bit
// first, seven bits per byte. Bits past the end of the map read as zero.
type PresenceMap struct {
	data []byte
	pos  int
}

// NewPresenceMap returns a presence map over the raw stream bytes of a map,
// stop bit included.
func NewPresenceMap(data []byte) PresenceMap {
	return PresenceMap{data: data}
}

// IsNextBitSet consumes the next bit and reports whether it is set.
func (p *PresenceMap) IsNextBitSet() bool {
	idx := p.pos / 7
	mask := byte(signBit) >> (p.pos % 7)
	p.pos++

	if idx >= len(p.data) {
		return false
	}

	return p.data[idx]&mask != 0
}

// Consumed returns the number of bits read so far.
func (p *PresenceMap) Consumed() int { return p.pos }

// Bytes returns the raw stream bytes of the map.
func (p *PresenceMap) Bytes() []byte { return p.data }

// PresenceMapWriter accumulates presence bits during encoding.
//
// The zero value is ready for use.
type PresenceMapWriter struct {
	bits []byte
	n    int
}

// MaxPresenceMapBytes returns the number of bytes needed for a map of nbits bits.
// A map always occupies at least one byte.
func MaxPresenceMapBytes(nbits int) int {
	if nbits <= 0 {
		return 1
	}

	return (nbits + 6) / 7
}

// SetNextBit appends one bit to the map.
func (w *PresenceMapWriter) SetNextBit(set bool) {
	idx := w.n / 7
	for idx >= len(w.bits) {
		w.bits = append(w.bits, 0)
	}
	if set {
		w.bits[idx] |= byte(signBit) >> (w.n % 7)
	}
	w.n++
}

// Len returns the number of bits written.
func (w *PresenceMapWriter) Len() int { return w.n }

// EncodedLen returns the byte length of the committed map: trailing all-zero
// bytes are dropped, leaving at least one byte.
func (w *PresenceMapWriter) EncodedLen() int {
	n := len(w.bits)
	for n > 1 && w.bits[n-1] == 0 {
		n--
	}

	return max(n, 1)
}

// Commit writes the committed map into dst, which must hold EncodedLen bytes,
// and sets the stop bit on the last byte.
func (w *PresenceMapWriter) Commit(dst []byte) {
	n := w.EncodedLen()
	clear(dst[:n])
	copy(dst, w.bits[:min(n, len(w.bits))])
	dst[n-1] |= stopBit
}

// Reset clears the map for reuse.
func (w *PresenceMapWriter) Reset() {
	w.bits = w.bits[:0]
	w.n = 0
}
