package texture

import (
	"encoding/binary"
	"errors"
)

// ErrNoEncoder is returned by Encode for formats without an encode path.
var ErrNoEncoder = errors.New("texture: format has no encoder")

type blockEncoder func(dst []byte, stride int, src []byte) int

func encoderFor(f Format) (blockEncoder, error) {
	switch f {
	case DXT1:
		return encodeDXT1Block, nil
	case DXT5:
		return encodeDXT5Block, nil
	case DXT5YCoCgScaled:
		return encodeDXT5YSBlock, nil
	default:
		return nil, ErrNoEncoder
	}
}

func to565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// colorBounds returns the bounding-box extremes of the 16 source pixels,
// read from src at the given stride.
func colorBounds(stride int, src []byte) (lo, hi [3]uint8) {
	lo = [3]uint8{255, 255, 255}
	for j := 0; j < BlockHeight; j++ {
		for i := 0; i < BlockWidth; i++ {
			p := src[i*4+j*stride:]
			for c := 0; c < 3; c++ {
				if p[c] < lo[c] {
					lo[c] = p[c]
				}
				if p[c] > hi[c] {
					hi[c] = p[c]
				}
			}
		}
	}
	return
}

func sqDist(p []byte, r, g, b uint8) int {
	dr := int(p[0]) - int(r)
	dg := int(p[1]) - int(g)
	db := int(p[2]) - int(b)
	return dr*dr + dg*dg + db*db
}

// encodeColors writes the two 565 anchors and the 2-bit index table of a
// color block: a fast range fit using the bounding-box extremes as
// anchors and nearest-palette-entry indices. The anchors are ordered so
// decoders select the four-color mode; a flat block encodes as equal
// anchors with an all-zero index pattern.
func encodeColors(dst []byte, stride int, src []byte) {
	lo, hi := colorBounds(stride, src)
	c0 := to565(hi[0], hi[1], hi[2])
	c1 := to565(lo[0], lo[1], lo[2])
	if c0 < c1 {
		c0, c1 = c1, c0
	}

	binary.LittleEndian.PutUint16(dst, c0)
	binary.LittleEndian.PutUint16(dst[2:], c1)

	if c0 == c1 {
		binary.LittleEndian.PutUint32(dst[4:], 0)
		return
	}

	// Palette in four-color mode, matching the decoder's reconstruction.
	r0, g0, b0 := expand565(c0)
	r1, g1, b1 := expand565(c1)
	var pal [4][3]uint8
	pal[0] = [3]uint8{r0, g0, b0}
	pal[1] = [3]uint8{r1, g1, b1}
	pal[2] = [3]uint8{
		uint8((2*uint32(r0) + uint32(r1)) / 3),
		uint8((2*uint32(g0) + uint32(g1)) / 3),
		uint8((2*uint32(b0) + uint32(b1)) / 3),
	}
	pal[3] = [3]uint8{
		uint8((uint32(r0) + 2*uint32(r1)) / 3),
		uint8((uint32(g0) + 2*uint32(g1)) / 3),
		uint8((uint32(b0) + 2*uint32(b1)) / 3),
	}

	var code uint32
	for j := 0; j < BlockHeight; j++ {
		for i := 0; i < BlockWidth; i++ {
			p := src[i*4+j*stride:]
			best, bestDist := 0, 1<<30
			for k := 0; k < 4; k++ {
				if d := sqDist(p, pal[k][0], pal[k][1], pal[k][2]); d < bestDist {
					best, bestDist = k, d
				}
			}
			code |= uint32(best) << uint(2*(i+j*4))
		}
	}
	binary.LittleEndian.PutUint32(dst[4:], code)
}

// encodeDXT1Block compresses 4x4 RGBA pixels into one 8-byte DXT1 block.
func encodeDXT1Block(dst []byte, stride int, src []byte) int {
	encodeColors(dst, stride, src)
	return 8
}

// encodeAlpha writes the two alpha anchors and the packed 3-bit index
// plane of a DXT5 block, using the a0 > a1 seven-step ramp.
func encodeAlpha(dst []byte, stride int, src []byte) {
	a0, a1 := uint8(0), uint8(255)
	for j := 0; j < BlockHeight; j++ {
		for i := 0; i < BlockWidth; i++ {
			a := src[i*4+j*stride+3]
			if a > a0 {
				a0 = a
			}
			if a < a1 {
				a1 = a
			}
		}
	}
	dst[0] = a0
	dst[1] = a1

	var ramp [8]uint8
	ramp[0] = a0
	ramp[1] = a1
	if a0 > a1 {
		for k := 2; k < 8; k++ {
			ramp[k] = uint8(((8-uint32(k))*uint32(a0) +
				(uint32(k)-1)*uint32(a1)) / 7)
		}
	}

	var indices [16]uint8
	for j := 0; j < BlockHeight; j++ {
		for i := 0; i < BlockWidth; i++ {
			a := int(src[i*4+j*stride+3])
			best, bestDist := 0, 1<<30
			for k := 0; k < 8; k++ {
				if a0 <= a1 && k >= 2 {
					break
				}
				d := a - int(ramp[k])
				if d < 0 {
					d = -d
				}
				if d < bestDist {
					best, bestDist = k, d
				}
			}
			indices[i+j*4] = uint8(best)
		}
	}

	// Pack 8 indices per 24-bit little-endian group.
	for block := 0; block < 2; block++ {
		var tmp uint32
		for i := 0; i < 8; i++ {
			tmp |= uint32(indices[block*8+i]) << uint(i*3)
		}
		dst[2+block*3+0] = byte(tmp)
		dst[2+block*3+1] = byte(tmp >> 8)
		dst[2+block*3+2] = byte(tmp >> 16)
	}
}

// encodeDXT5Block compresses 4x4 RGBA pixels into one 16-byte DXT5 block.
func encodeDXT5Block(dst []byte, stride int, src []byte) int {
	encodeAlpha(dst, stride, src)
	encodeColors(dst[8:], stride, src)
	return 16
}

// encodeDXT5YSBlock rotates the pixels into scaled-YCoCg layout (Co, Cg,
// scale, Y with unit scale) and DXT5-compresses the result. It inverts
// the transform dxt5ysBlock applies on decode.
func encodeDXT5YSBlock(dst []byte, stride int, src []byte) int {
	var tmp [BlockWidth * BlockHeight * 4]byte
	for j := 0; j < BlockHeight; j++ {
		for i := 0; i < BlockWidth; i++ {
			p := src[i*4+j*stride:]
			r := int(p[0])
			g := int(p[1])
			b := int(p[2])

			co := (r - b) / 2
			y := (2*g + r + b) / 4
			cg := (2*g - r - b) / 4

			q := tmp[(i+j*4)*4:]
			q[0] = uint8(co + 128)
			q[1] = uint8(cg + 128)
			q[2] = 0 // unit chroma scale
			q[3] = uint8(y)
		}
	}
	return encodeDXT5Block(dst, BlockWidth*4, tmp[:])
}
