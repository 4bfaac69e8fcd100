package value

// Allocator provides the storage of decoded messages.
//
// The decoder asks for field storage (Values) and byte content (Bytes) while
// materializing a message and calls Reset before decoding the next one, which
// releases everything handed out so far in bulk.
type Allocator interface {
	// Values returns n zeroed cells.
	Values(n int) []Value
	// Bytes returns a byte slice of length n. Its content is unspecified.
	Bytes(n int) []byte
	// Reset releases every allocation made since the previous Reset.
	Reset()
}

// HeapAllocator allocates from the Go heap. Reset is a no-op; released
// storage is reclaimed by the garbage collector once unreferenced, so
// messages decoded with it stay valid indefinitely.
type HeapAllocator struct{}

var _ Allocator = HeapAllocator{}

func (HeapAllocator) Values(n int) []Value { return make([]Value, n) }

func (HeapAllocator) Bytes(n int) []byte { return make([]byte, n) }

func (HeapAllocator) Reset() {}

const (
	defaultValueSlab = 256
	defaultByteSlab  = 4096
)

// ArenaAllocator bump-allocates from slabs and recycles the current slab on
// Reset. Storage handed out before a Reset must not be used after it.
//
// ArenaAllocator is not safe for concurrent use.
type ArenaAllocator struct {
	values    []Value
	valuePos  int
	bytes     []byte
	bytePos   int
	valueSlab int
	byteSlab  int
}

var _ Allocator = (*ArenaAllocator)(nil)

// NewArenaAllocator creates an arena with the given slab sizes. Non-positive
// sizes select the defaults (256 cells, 4KiB).
func NewArenaAllocator(valueSlab, byteSlab int) *ArenaAllocator {
	if valueSlab <= 0 {
		valueSlab = defaultValueSlab
	}
	if byteSlab <= 0 {
		byteSlab = defaultByteSlab
	}

	return &ArenaAllocator{valueSlab: valueSlab, byteSlab: byteSlab}
}

// Values returns n zeroed cells from the current slab, starting a new slab
// when the current one is exhausted.
func (a *ArenaAllocator) Values(n int) []Value {
	if n == 0 {
		return nil
	}
	if a.valuePos+n > len(a.values) {
		a.values = make([]Value, max(a.valueSlab, n))
		a.valuePos = 0
	}

	s := a.values[a.valuePos : a.valuePos+n : a.valuePos+n]
	a.valuePos += n
	clear(s)

	return s
}

// Bytes returns n bytes from the current byte slab.
func (a *ArenaAllocator) Bytes(n int) []byte {
	if n == 0 {
		return []byte{}
	}
	if a.bytePos+n > len(a.bytes) {
		a.bytes = make([]byte, max(a.byteSlab, n))
		a.bytePos = 0
	}

	s := a.bytes[a.bytePos : a.bytePos+n : a.bytePos+n]
	a.bytePos += n

	return s
}

// Reset rewinds the current slabs. Earlier slabs are left to the garbage
// collector.
func (a *ArenaAllocator) Reset() {
	a.valuePos = 0
	a.bytePos = 0
}
