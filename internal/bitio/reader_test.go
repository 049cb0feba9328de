package bitio

import (
	"math"
	"testing"
)

func TestNewReaderBits_Invalid(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		bits int
	}{
		{"nil buffer", nil, 8},
		{"negative size", []byte{0}, -1},
		{"overflow size", []byte{0}, math.MaxInt32 - 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReaderBits(tt.buf, tt.bits, MSBFirst)
			if err != ErrInvalidData {
				t.Fatalf("err = %v, want ErrInvalidData", err)
			}
			// Failed init must leave an empty, safe cursor.
			if r.BitsRemaining() != 0 || r.BitsRead() != 0 {
				t.Errorf("reader not zeroed: remaining=%d read=%d",
					r.BitsRemaining(), r.BitsRead())
			}
			if got := r.Read(8); got != 0 {
				t.Errorf("Read on zeroed reader = %#x, want 0", got)
			}
		})
	}
}

func TestReader_MSBFirst(t *testing.T) {
	// 0xA5 = 1010_0101, 0x3C = 0011_1100.
	data := []byte{0xA5, 0x3C, 0xFF, 0x00}
	r, err := NewReader(data, MSBFirst)
	if err != nil {
		t.Fatal(err)
	}

	if v := r.Read(4); v != 0xA {
		t.Errorf("Read(4) = %#x, want 0xA", v)
	}
	if v := r.Read(4); v != 0x5 {
		t.Errorf("Read(4) = %#x, want 0x5", v)
	}
	if v := r.Read(3); v != 0x1 { // 001
		t.Errorf("Read(3) = %#x, want 0x1", v)
	}
	if v := r.Read(5); v != 0x1C {
		t.Errorf("Read(5) = %#x, want 0x1C", v)
	}
	if v := r.Read(8); v != 0xFF {
		t.Errorf("Read(8) = %#x, want 0xFF", v)
	}
}

func TestReader_LSBFirst(t *testing.T) {
	data := []byte{0xA5, 0x3C, 0x00, 0x00}
	r, err := NewReader(data, LSBFirst)
	if err != nil {
		t.Fatal(err)
	}

	// Low nibble first.
	if v := r.Read(4); v != 0x5 {
		t.Errorf("Read(4) = %#x, want 0x5", v)
	}
	if v := r.Read(4); v != 0xA {
		t.Errorf("Read(4) = %#x, want 0xA", v)
	}
	// Next byte, low bits first: 0x3C = 0011_1100 -> 12 bits 0x3C.
	if v := r.Read(8); v != 0x3C {
		t.Errorf("Read(8) = %#x, want 0x3C", v)
	}
}

func TestReader_Read1AndPeek(t *testing.T) {
	data := []byte{0b1011_0001, 0x00}
	r, _ := NewReader(data, MSBFirst)

	want := []uint32{1, 0, 1, 1, 0, 0, 0, 1}
	for i, w := range want {
		if p := r.Peek1(); p != w {
			t.Errorf("bit %d: Peek1 = %d, want %d", i, p, w)
		}
		if v := r.Read1(); v != w {
			t.Errorf("bit %d: Read1 = %d, want %d", i, v, w)
		}
	}

	r, _ = NewReader(data, MSBFirst)
	if p := r.Peek(8); p != 0b1011_0001 {
		t.Errorf("Peek(8) = %#x", p)
	}
	if r.BitsRead() != 0 {
		t.Error("Peek advanced the cursor")
	}
}

func TestReader_PeekLong_DoesNotAdvance(t *testing.T) {
	data := []byte{0x12, 0x34, 0x56, 0x78, 0x9A, 0x00, 0x00, 0x00}
	r, _ := NewReader(data, MSBFirst)

	want := r.PeekLong(32)
	if want != 0x12345678 {
		t.Fatalf("PeekLong(32) = %#x, want 0x12345678", want)
	}
	if r.BitsRead() != 0 {
		t.Fatal("PeekLong advanced the cursor")
	}
	if got := r.ReadLong(32); got != want {
		t.Errorf("ReadLong(32) = %#x after PeekLong = %#x", got, want)
	}
}

func TestReader_ReadLong_Read64(t *testing.T) {
	data := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF,
		0x00, 0x00, 0x00, 0x00}

	r, _ := NewReader(data, MSBFirst)
	if v := r.Read64(64); v != 0x0123456789ABCDEF {
		t.Errorf("MSB Read64(64) = %#x", v)
	}

	r, _ = NewReader(data, LSBFirst)
	if v := r.Read64(64); v != 0xEFCDAB8967452301 {
		t.Errorf("LSB Read64(64) = %#x", v)
	}

	// Wide ReadLong crosses the cache width and must split correctly.
	r, _ = NewReader(data, MSBFirst)
	r.Skip(3)
	if v := r.ReadLong(29); v != 0x01234567&0x1FFFFFFF {
		t.Errorf("ReadLong(29) = %#x", v)
	}
}

func TestReader_BitsRemaining_ClampsAtSlack(t *testing.T) {
	data := []byte{0xFF, 0xFF}
	r, _ := NewReaderBits(data, 16, MSBFirst)

	if v := r.BitsRemaining(); v != 16 {
		t.Fatalf("BitsRemaining = %d, want 16", v)
	}
	r.Read(10)
	if v := r.BitsRemaining(); v != 6 {
		t.Fatalf("BitsRemaining = %d, want 6", v)
	}
	// Drive the cursor deep past the end; the position clamps at size+8.
	for i := 0; i < 20; i++ {
		r.Skip(25)
	}
	if v := r.BitsRemaining(); v != -8 {
		t.Errorf("BitsRemaining = %d, want -8", v)
	}
	// Reads in the slack are defined and return zero bits.
	if v := r.Read(8); v != 0 {
		t.Errorf("over-read returned %#x, want 0", v)
	}
}

func TestReader_SkipLong_Negative(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	r, _ := NewReader(data, MSBFirst)

	r.Skip(16)
	r.SkipLong(-8)
	if v := r.Read(8); v != 0xAD {
		t.Errorf("Read after SkipLong(-8) = %#x, want 0xAD", v)
	}
	r.SkipLong(-1000)
	if r.BitsRead() != 0 {
		t.Errorf("SkipLong did not clamp at 0: %d", r.BitsRead())
	}
	r.SkipLong(1000)
	if r.BitsRemaining() != -8 {
		t.Errorf("SkipLong did not clamp at size+8: %d", r.BitsRemaining())
	}
}

func TestReader_ReadUE(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint32
	}{
		{"code 1 -> 0", []byte{0b1000_0000, 0}, 0},
		{"code 010 -> 1", []byte{0b0100_0000, 0}, 1},
		{"code 011 -> 2", []byte{0b0110_0000, 0}, 2},
		{"code 00100 -> 3", []byte{0b0010_0000, 0}, 3},
		{"code 00111 -> 6", []byte{0b0011_1000, 0}, 6},
		{"code 0001000 -> 7", []byte{0b0001_0000, 0}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := NewReader(tt.data, MSBFirst)
			if got := r.ReadUE(); got != tt.want {
				t.Errorf("ReadUE = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReader_ReadSE(t *testing.T) {
	// Standard mapping: code k -> 0, 1, -1, 2, -2, ...
	codes := []struct {
		data []byte
		want int32
	}{
		{[]byte{0b1000_0000, 0}, 0},
		{[]byte{0b0100_0000, 0}, 1},
		{[]byte{0b0110_0000, 0}, -1},
		{[]byte{0b0010_0000, 0}, 2},
		{[]byte{0b0010_1000, 0}, -2},
	}
	for _, c := range codes {
		r, _ := NewReader(c.data, MSBFirst)
		if got := r.ReadSE(); got != c.want {
			t.Errorf("ReadSE(% x) = %d, want %d", c.data, got, c.want)
		}
	}
}

func TestReader_AlignToByte(t *testing.T) {
	data := []byte{0xFF, 0x01, 0x02, 0x03}
	r, _ := NewReader(data, MSBFirst)

	r.Read(3)
	tail := r.AlignToByte()
	if r.BitsRead() != 8 {
		t.Fatalf("BitsRead = %d, want 8", r.BitsRead())
	}
	if len(tail) != 3 || tail[0] != 0x01 {
		t.Errorf("tail = % x, want 01 02 03", tail)
	}

	// Already aligned: no movement.
	r.AlignToByte()
	if r.BitsRead() != 8 {
		t.Errorf("AlignToByte moved an aligned cursor to %d", r.BitsRead())
	}
}

func TestReader_ZeroValueIsSafe(t *testing.T) {
	var r Reader
	if v := r.Read(8); v != 0 {
		t.Errorf("zero-value Read = %#x", v)
	}
	if v := r.Read1(); v != 0 {
		t.Errorf("zero-value Read1 = %d", v)
	}
}
