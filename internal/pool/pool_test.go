package pool

import (
	"sync"
	"testing"
)

func TestGetPut_ExactSize(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"64K", Size64K},
		{"256K", Size256K},
		{"1M", Size1M},
		{"2M", Size2M},
		{"8M", Size8M},
		{"100K", 100 << 10},
		{"3M", 3 << 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Get(tt.size)
			if len(b) != tt.size {
				t.Errorf("Get(%d): len = %d, want %d", tt.size, len(b), tt.size)
			}
			Put(b)
		})
	}
}

func TestBucketIndex(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{1, 0},
		{Size64K, 0},
		{Size64K + 1, 1},
		{Size256K, 1},
		{Size256K + 1, 2},
		{Size1M, 2},
		{Size1M + 1, 3},
		{Size2M, 3},
		{Size2M + 1, 4},
		{Size8M, 4},
		{Size8M + 1, -1},
	}
	for _, tt := range tests {
		if got := bucketIndex(tt.size); got != tt.want {
			t.Errorf("bucketIndex(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestGet_Oversized(t *testing.T) {
	// Requests past the largest class are one-off allocations.
	size := Size8M + 1
	b := Get(size)
	if len(b) != size {
		t.Errorf("Get(%d): len = %d, want %d", size, len(b), size)
	}
	Put(b) // dropped, must not panic
}

func TestGet_SmallSize(t *testing.T) {
	for _, size := range []int{0, 1, 4096, Size64K - 1} {
		b := Get(size)
		if len(b) != size {
			t.Errorf("Get(%d): len = %d, want %d", size, len(b), size)
		}
		if cap(b) < Size64K {
			t.Errorf("Get(%d): cap = %d, want >= %d", size, cap(b), Size64K)
		}
		Put(b)
	}
}

func TestPut_SmallSlice(t *testing.T) {
	// Put of slices below the smallest class is a no-op.
	Put(make([]byte, 100))
	Put(nil)

	b := Get(Size64K)
	if len(b) != Size64K {
		t.Errorf("Get after small Put: len = %d, want %d", len(b), Size64K)
	}
	Put(b)
}

func TestConcurrency(t *testing.T) {
	const goroutines = 16
	const iterations = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				for _, size := range []int{32 << 10, 128 << 10, 512 << 10, 3 << 20} {
					b := Get(size)
					if len(b) != size {
						t.Errorf("concurrent Get(%d): len = %d", size, len(b))
						return
					}
					b[0] = byte(i)
					b[size-1] = byte(i)
					Put(b)
				}
			}
		}()
	}

	wg.Wait()
}

func TestReuse(t *testing.T) {
	const size = Size1M
	for i := 0; i < 10; i++ {
		b := Get(size)
		if len(b) != size {
			t.Fatalf("cycle %d: Get(%d) len = %d", i, size, len(b))
		}
		Put(b)
	}
}

func BenchmarkGet(b *testing.B) {
	benchmarks := []struct {
		name string
		size int
	}{
		{"64K", Size64K},
		{"1M", Size1M},
		{"2M", Size2M},
	}
	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				buf := Get(bm.size)
				Put(buf)
			}
		})
	}
}

func BenchmarkGetParallel(b *testing.B) {
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			buf := Get(Size2M)
			Put(buf)
		}
	})
}
