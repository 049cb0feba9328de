// Package bitio implements bit-level cursors over byte buffers.
//
// Reader extracts arbitrary bit-aligned fields (1-64 bits) from a borrowed
// byte slice, Writer packs them into one. Both support most-significant-
// bit-first ("big-endian") and least-significant-bit-first ("little-endian")
// bitstream layouts, selected per cursor at construction time.
//
// The cursors are deliberately unchecked in their hot paths: reads past the
// logical end of a Reader are defined to return zero bits (up to an 8-bit
// slack past the end, after which the position stops advancing), and it is
// the caller's job to bound-check with BitsRemaining before trusting a
// value. Validation belongs at the packet or image boundary, not in the
// per-bit loop.
package bitio

import (
	"encoding/binary"
	"errors"
	"math"
)

// Order selects the bit layout of a stream.
type Order int

const (
	// MSBFirst reads and writes the most significant bit of each byte
	// first (the usual layout of MPEG-style bitstreams).
	MSBFirst Order = iota
	// LSBFirst reads and writes the least significant bit of each byte
	// first.
	LSBFirst
)

// minCacheBits is the widest field Read can extract in one refill.
const minCacheBits = 25

// ErrInvalidData is returned when a cursor is initialized with a nil
// buffer or an out-of-range size.
var ErrInvalidData = errors.New("bitio: invalid data")

// Reader is a bit-level cursor over a borrowed byte slice. The zero value
// is an empty, exhausted reader. Reader never owns its buffer and must not
// be shared between goroutines.
type Reader struct {
	buf             []byte
	index           int // current position in bits
	sizeInBits      int
	sizeInBitsPlus8 int // over-read clamp
	order           Order
}

// NewReader initializes a reader over buf, sized in whole bytes.
func NewReader(buf []byte, order Order) (*Reader, error) {
	if len(buf) > math.MaxInt32/8 {
		return &Reader{}, ErrInvalidData
	}
	return NewReaderBits(buf, len(buf)*8, order)
}

// NewReaderBits initializes a reader over the first sizeInBits bits of buf.
// A nil buffer, a negative size, or a size that would overflow when rounded
// up to bytes yields ErrInvalidData and an empty reader.
func NewReaderBits(buf []byte, sizeInBits int, order Order) (*Reader, error) {
	if buf == nil || sizeInBits < 0 || sizeInBits > math.MaxInt32-7 {
		return &Reader{}, ErrInvalidData
	}
	return &Reader{
		buf:             buf,
		sizeInBits:      sizeInBits,
		sizeInBitsPlus8: sizeInBits + 8,
		order:           order,
	}, nil
}

// cache32 returns a 32-bit window of the stream starting at bit position
// idx. For MSBFirst the next bit is the window's bit 31; for LSBFirst it is
// bit 0. Bits past the end of the buffer read as zero, which keeps the
// documented soft over-read memory safe without a padded allocation.
func (r *Reader) cache32(idx int) uint32 {
	b := idx >> 3
	var w uint64
	if b+8 <= len(r.buf) {
		if r.order == LSBFirst {
			w = binary.LittleEndian.Uint64(r.buf[b:])
		} else {
			w = binary.BigEndian.Uint64(r.buf[b:])
		}
	} else {
		var tmp [8]byte
		if b < len(r.buf) {
			copy(tmp[:], r.buf[b:])
		}
		if r.order == LSBFirst {
			w = binary.LittleEndian.Uint64(tmp[:])
		} else {
			w = binary.BigEndian.Uint64(tmp[:])
		}
	}
	if r.order == LSBFirst {
		return uint32(w >> uint(idx&7))
	}
	return uint32(w << uint(idx&7) >> 32)
}

// Read extracts the next n bits, 1 <= n <= 25, and advances the cursor.
func (r *Reader) Read(n int) uint32 {
	cache := r.cache32(r.index)
	r.advance(n)
	if r.order == LSBFirst {
		return cache & (1<<uint(n) - 1)
	}
	return cache >> uint(32-n)
}

// Peek returns the next n bits, 1 <= n <= 25, without advancing.
func (r *Reader) Peek(n int) uint32 {
	cache := r.cache32(r.index)
	if r.order == LSBFirst {
		return cache & (1<<uint(n) - 1)
	}
	return cache >> uint(32-n)
}

// Skip advances the cursor by n bits, clamped to the over-read slack.
func (r *Reader) Skip(n int) {
	r.advance(n)
}

func (r *Reader) advance(n int) {
	idx := r.index + n
	if idx > r.sizeInBitsPlus8 {
		idx = r.sizeInBitsPlus8
	}
	r.index = idx
}

// SkipLong moves the cursor by n bits, which may be negative. The resulting
// position is clamped to [0, size+8].
func (r *Reader) SkipLong(n int) {
	idx := r.index + n
	if idx < 0 {
		idx = 0
	} else if idx > r.sizeInBitsPlus8 {
		idx = r.sizeInBitsPlus8
	}
	r.index = idx
}

// Read1 reads a single bit. This is the fast path around the generic
// cache refill.
func (r *Reader) Read1() uint32 {
	idx := r.index
	var bit uint32
	if b := idx >> 3; b < len(r.buf) {
		if r.order == LSBFirst {
			bit = uint32(r.buf[b]>>uint(idx&7)) & 1
		} else {
			bit = uint32(r.buf[b]>>uint(7-idx&7)) & 1
		}
	}
	if idx < r.sizeInBitsPlus8 {
		r.index = idx + 1
	}
	return bit
}

// Peek1 returns the next bit without advancing.
func (r *Reader) Peek1() uint32 {
	var bit uint32
	if b := r.index >> 3; b < len(r.buf) {
		if r.order == LSBFirst {
			bit = uint32(r.buf[b]>>uint(r.index&7)) & 1
		} else {
			bit = uint32(r.buf[b]>>uint(7-r.index&7)) & 1
		}
	}
	return bit
}

// Skip1 advances past a single bit.
func (r *Reader) Skip1() {
	if r.index < r.sizeInBitsPlus8 {
		r.index++
	}
}

// ReadLong extracts 0 to 32 bits. Fields wider than the cache are split
// into two sub-reads combined according to the bit order.
func (r *Reader) ReadLong(n int) uint32 {
	if n == 0 {
		return 0
	}
	if n <= minCacheBits {
		return r.Read(n)
	}
	if r.order == LSBFirst {
		ret := r.Read(16)
		return ret | r.Read(n-16)<<16
	}
	ret := r.Read(16) << uint(n-16)
	return ret | r.Read(n-16)
}

// PeekLong returns 0 to 32 bits without advancing. Fields wider than the
// cache are read from a duplicated cursor; the receiver is never mutated.
func (r *Reader) PeekLong(n int) uint32 {
	if n == 0 {
		return 0
	}
	if n <= minCacheBits {
		return r.Peek(n)
	}
	dup := *r
	return dup.ReadLong(n)
}

// Read64 extracts 0 to 64 bits.
func (r *Reader) Read64(n int) uint64 {
	if n <= 32 {
		return uint64(r.ReadLong(n))
	}
	if r.order == LSBFirst {
		ret := uint64(r.ReadLong(32))
		return ret | uint64(r.ReadLong(n-32))<<32
	}
	ret := uint64(r.ReadLong(n-32)) << 32
	return ret | uint64(r.ReadLong(32))
}

// ReadUE reads an unsigned Exp-Golomb code: leading zero bits up to a
// terminating one, then that many mantissa bits. Code "1" is 0, "010" is 1,
// "011" is 2.
func (r *Reader) ReadUE() uint32 {
	leading := 0
	for leading < 32 && r.Read1() == 0 {
		leading++
	}
	if leading == 0 {
		return 0
	}
	if leading >= 32 {
		// Degenerate all-zero input; the value is unrepresentable.
		return math.MaxUint32
	}
	return 1<<uint(leading) - 1 + r.ReadLong(leading)
}

// ReadSE reads a signed Exp-Golomb code. Codes 0,1,2,3,4 map to
// 0,1,-1,2,-2.
func (r *Reader) ReadSE() int32 {
	k := r.ReadUE()
	if k&1 == 1 {
		return int32(k+1) / 2
	}
	return -int32(k / 2)
}

// BitsRead returns the number of bits consumed so far.
func (r *Reader) BitsRead() int {
	return r.index
}

// BitsRemaining returns the number of unread bits. It goes negative (down
// to -8) once the cursor has been driven into the over-read slack.
func (r *Reader) BitsRemaining() int {
	return r.sizeInBits - r.index
}

// AlignToByte skips to the next byte boundary and returns the unread tail
// of the buffer.
func (r *Reader) AlignToByte() []byte {
	if n := -r.index & 7; n != 0 {
		r.Skip(n)
	}
	b := r.index >> 3
	if b > len(r.buf) {
		b = len(r.buf)
	}
	return r.buf[b:]
}
