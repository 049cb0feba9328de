// Package pool provides bucketed sync.Pool instances for the scratch
// buffers used while unpacking texture frames. Buffers are organized by
// size class; a 1080p DXT5 plane is roughly 2 MiB, so the classes run
// from 64 KiB up to 8 MiB.
package pool

import "sync"

// Size classes for bucketed pools.
const (
	Size64K  = 64 << 10
	Size256K = 256 << 10
	Size1M   = 1 << 20
	Size2M   = 2 << 20
	Size8M   = 8 << 20
)

var sizes = [...]int{Size64K, Size256K, Size1M, Size2M, Size8M}

var pools [len(sizes)]sync.Pool

func init() {
	for i := range pools {
		sz := sizes[i]
		pools[i] = sync.Pool{
			New: func() any {
				b := make([]byte, sz)
				return &b
			},
		}
	}
}

// bucketIndex returns the pool index for a given size, or -1 when the
// request exceeds the largest class.
func bucketIndex(size int) int {
	for i, sz := range sizes {
		if size <= sz {
			return i
		}
	}
	return -1
}

// Get returns a byte slice of exactly the requested length. Requests
// within the size classes come from a pool; larger ones are one-off
// allocations. The caller must call Put when done.
func Get(size int) []byte {
	idx := bucketIndex(size)
	if idx < 0 {
		return make([]byte, size)
	}
	bp := pools[idx].Get().(*[]byte)
	b := *bp
	if cap(b) < size {
		b = make([]byte, sizes[idx])
		*bp = b
	}
	return b[:size]
}

// Put returns a byte slice to the pool. The slice must have been obtained
// from Get. Slices outside the size classes are dropped.
func Put(b []byte) {
	c := cap(b)
	if c < Size64K {
		return
	}
	idx := bucketIndex(c)
	if idx < 0 {
		return
	}
	b = b[:c]
	pools[idx].Put(&b)
}
