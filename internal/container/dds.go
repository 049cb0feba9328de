// Package container parses the byte-level framing that wraps compressed
// texture data: the DirectDraw Surface header and the HAP section header.
// It makes no decoding decisions; callers map the parsed fields to a
// texture format.
package container

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Errors shared by the framing parsers.
var (
	ErrTruncated     = errors.New("container: truncated data")
	ErrInvalidHeader = errors.New("container: invalid header")
)

// Tag builds a little-endian FourCC from four characters.
func Tag(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// TagString renders a FourCC for diagnostics, escaping non-printable
// bytes.
func TagString(tag uint32) string {
	buf := make([]byte, 0, 16)
	for i := 0; i < 4; i++ {
		c := byte(tag >> uint(8*i))
		if c >= 0x20 && c < 0x7F {
			buf = append(buf, c)
		} else {
			buf = append(buf, fmt.Sprintf("[%d]", c)...)
		}
	}
	return string(buf)
}

// DDS header constants.
const (
	ddsMagic      = 0x20534444 // "DDS "
	ddsHeaderSize = 124
	ddpfSize      = 32

	// DDSHeaderLength is the full on-disk length of magic plus header.
	DDSHeaderLength = 128
)

// DDPF pixel format flags.
const (
	DDPFFourCC    = 1 << 2
	DDPFPalette   = 1 << 5
	DDPFNormalMap = 1 << 31
)

// GIMP-DDS reserved1 tags announcing non-RGB payload interpretation.
var (
	TagAlphaExponent = Tag('A', 'E', 'X', 'P')
	TagYCoCg         = Tag('Y', 'C', 'G', '1')
	TagYCoCgScaled   = Tag('Y', 'C', 'G', '2')
)

// DDSHeader holds the fields of a parsed DirectDraw Surface header that
// matter for decoding the payload.
type DDSHeader struct {
	Flags       uint32
	Width       int
	Height      int
	MipMapCount int

	// GimpTag is the alternative-implementation marker stored in
	// reserved1[3] (AEXP, YCG1, YCG2), zero when absent.
	GimpTag uint32

	// DDPF block.
	PixFlags uint32
	FourCC   uint32
	BitCount uint32
	RMask    uint32
	GMask    uint32
	BMask    uint32
	AMask    uint32
}

// Compressed reports whether the payload is FourCC block-compressed.
func (h *DDSHeader) Compressed() bool { return h.PixFlags&DDPFFourCC != 0 }

// Paletted reports whether the payload carries a 256-entry palette.
func (h *DDSHeader) Paletted() bool { return h.PixFlags&DDPFPalette != 0 }

// NormalMap reports the normal-map pixel flag.
func (h *DDSHeader) NormalMap() bool { return h.PixFlags&DDPFNormalMap != 0 }

// ParseDDSHeader reads the 128-byte DDS preamble and returns the header
// fields and the texture payload that follows.
func ParseDDSHeader(data []byte) (*DDSHeader, []byte, error) {
	if len(data) < DDSHeaderLength {
		return nil, nil, fmt.Errorf("%w: frame is too small (%d)", ErrTruncated, len(data))
	}
	le := binary.LittleEndian

	if le.Uint32(data) != ddsMagic || le.Uint32(data[4:]) != ddsHeaderSize {
		return nil, nil, fmt.Errorf("%w: bad DDS magic", ErrInvalidHeader)
	}

	h := &DDSHeader{
		Flags:       le.Uint32(data[8:]),
		Height:      int(le.Uint32(data[12:])),
		Width:       int(le.Uint32(data[16:])),
		MipMapCount: int(le.Uint32(data[28:])),
		// reserved1[0..2] skipped; alternative implementations use
		// reserved1 as a custom header.
		GimpTag: le.Uint32(data[44:]),
	}

	// The DDPF block proper.
	if le.Uint32(data[76:]) != ddpfSize {
		return nil, nil, fmt.Errorf("%w: invalid pixel format header %d",
			ErrInvalidHeader, le.Uint32(data[76:]))
	}
	h.PixFlags = le.Uint32(data[80:])
	h.FourCC = le.Uint32(data[84:])
	h.BitCount = le.Uint32(data[88:])
	h.RMask = le.Uint32(data[92:])
	h.GMask = le.Uint32(data[96:])
	h.BMask = le.Uint32(data[100:])
	h.AMask = le.Uint32(data[104:])

	if h.Width <= 0 || h.Height <= 0 {
		return nil, nil, fmt.Errorf("%w: invalid image size %dx%d",
			ErrInvalidHeader, h.Width, h.Height)
	}

	return h, data[DDSHeaderLength:], nil
}
