package container

import (
	"encoding/binary"
	"fmt"
)

// HAP section header: the first three bytes are the little-endian size of
// the section past the header, or zero if the size is stored in the next
// long word; the fourth byte carries the section type.
//
// https://github.com/Vidvox/hap/blob/master/documentation/HapVideoDRAFT.md

// HapSection is a parsed section header.
type HapSection struct {
	// Length of the section body in bytes.
	Length int
	// Type packs the texture format in the low nibble and the
	// second-stage compressor in the high nibble.
	Type byte
	// HeaderSize is 4, or 8 when the extended length word is present.
	HeaderSize int
}

// ParseHapSection reads a section header and validates the body length
// against the available data.
func ParseHapSection(data []byte) (HapSection, error) {
	if len(data) < 8 {
		return HapSection{}, fmt.Errorf("%w: frame is too small (%d)", ErrTruncated, len(data))
	}

	s := HapSection{
		Length:     int(uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16),
		Type:       data[3],
		HeaderSize: 4,
	}
	if s.Length == 0 {
		s.Length = int(binary.LittleEndian.Uint32(data[4:]))
		s.HeaderSize = 8
	}

	if s.Length == 0 || s.Length > len(data)-s.HeaderSize {
		return HapSection{}, fmt.Errorf("%w: section length %d exceeds frame",
			ErrInvalidHeader, s.Length)
	}
	return s, nil
}

// HapHeaderSize returns the section header size needed for a body of the
// given length: 4 bytes when the length fits in 24 bits, 8 otherwise.
func HapHeaderSize(length int) int {
	if length <= 0x00FFFFFF {
		return 4
	}
	return 8
}

// WriteHapSection emits a section header for a body of the given length
// and returns the header size written.
func WriteHapSection(dst []byte, length int, sectionType byte) int {
	if HapHeaderSize(length) == 4 {
		dst[0] = byte(length)
		dst[1] = byte(length >> 8)
		dst[2] = byte(length >> 16)
		dst[3] = sectionType
		return 4
	}
	dst[0], dst[1], dst[2] = 0, 0, 0
	dst[3] = sectionType
	binary.LittleEndian.PutUint32(dst[4:], uint32(length))
	return 8
}
