package bitio

import (
	"encoding/binary"
	"errors"
)

// ErrOverflow is reported by Writer.Err after a write ran past the end of
// the output buffer. Writes after an overflow are dropped.
var ErrOverflow = errors.New("bitio: output buffer overflow")

// Writer packs bit fields into a caller-owned byte slice. Bits accumulate
// in a 32-bit pending cache and are committed to the buffer one 32-bit
// word at a time in the configured bit order. The zero value is not
// usable; call NewWriter.
//
// Write preconditions are the caller's responsibility: the value passed to
// Write must fit in the requested width, otherwise the stream is silently
// corrupted.
type Writer struct {
	buf     []byte
	cur     int    // bytes committed to buf
	cache   uint32 // pending bits; only the low 32-bitLeft bits are meaningful
	bitLeft int    // free bits in cache, in [0, 32]
	order   Order
	err     error
}

// NewWriter returns a writer emitting into buf.
func NewWriter(buf []byte, order Order) *Writer {
	return &Writer{buf: buf, bitLeft: 32, order: order}
}

// Write appends the low n bits of v to the stream, 1 <= n <= 31.
// v must be < 2^n.
func (w *Writer) Write(n int, v uint32) {
	if w.order == LSBFirst {
		w.cache |= v << uint(32-w.bitLeft)
		if n >= w.bitLeft {
			w.emit32()
			w.cache = v >> uint(w.bitLeft)
			w.bitLeft += 32
		}
		w.bitLeft -= n
		return
	}
	if n < w.bitLeft {
		w.cache = w.cache<<uint(n) | v
		w.bitLeft -= n
		return
	}
	w.cache <<= uint(w.bitLeft)
	w.cache |= v >> uint(n-w.bitLeft)
	w.emit32()
	w.bitLeft += 32 - n
	w.cache = v
}

// Write32 appends exactly 32 bits as two 16-bit writes ordered per the
// configured bit order.
func (w *Writer) Write32(v uint32) {
	if w.order == LSBFirst {
		w.Write(16, v&0xffff)
		w.Write(16, v>>16)
		return
	}
	w.Write(16, v>>16)
	w.Write(16, v&0xffff)
}

func (w *Writer) emit32() {
	if w.cur+4 > len(w.buf) {
		w.err = ErrOverflow
		return
	}
	if w.order == LSBFirst {
		binary.LittleEndian.PutUint32(w.buf[w.cur:], w.cache)
	} else {
		binary.BigEndian.PutUint32(w.buf[w.cur:], w.cache)
	}
	w.cur += 4
}

// Flush pads the pending bits with zeros and commits the final partial
// word as whole bytes. Call it exactly once, after the last Write and
// before reading back Bytes.
func (w *Writer) Flush() {
	pending := 32 - w.bitLeft
	cache := w.cache
	if w.order == MSBFirst {
		cache <<= uint(w.bitLeft)
	}
	for pending > 0 {
		if w.cur >= len(w.buf) {
			w.err = ErrOverflow
			break
		}
		if w.order == LSBFirst {
			w.buf[w.cur] = byte(cache)
			cache >>= 8
		} else {
			w.buf[w.cur] = byte(cache >> 24)
			cache <<= 8
		}
		w.cur++
		pending -= 8
	}
	w.cache = 0
	w.bitLeft = 32
}

// BitsWritten returns the total number of bits committed, including the
// pending cache.
func (w *Writer) BitsWritten() int {
	return w.cur*8 + 32 - w.bitLeft
}

// Bytes returns the committed portion of the output buffer. Only valid
// after Flush.
func (w *Writer) Bytes() []byte {
	return w.buf[:w.cur]
}

// Err returns the first overflow encountered, if any.
func (w *Writer) Err() error {
	return w.err
}

// CopyBits transfers n bits from src to dst, preserving bit order within
// each field. Both cursors advance.
func CopyBits(dst *Writer, src *Reader, n int) {
	for n >= 16 {
		dst.Write(16, src.Read(16))
		n -= 16
	}
	if n > 0 {
		dst.Write(n, src.Read(n))
	}
}
