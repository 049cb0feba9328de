// Package texture implements decoding and (partial) encoding of S3TC/RGTC
// compressed textures. A texture is a grid of fixed-size 4x4 texel blocks;
// each block decodes independently to 16 RGBA pixels.
//
// Block-level functions are unchecked: they assume a full-size input block
// and a destination large enough for a 4x4 write at the given stride, and
// they hold no state, so disjoint destination regions may be decoded
// concurrently. Validation happens once per image in Decode/Encode.
//
// The numeric reconstruction rules (two-step 5:6:5 expansion, the
// three-color-plus-transparency mode, the 7- and 5-step alpha ramps)
// reproduce the behavior of widely deployed DXTC decoders bit for bit.
//
// A description of the block encodings:
// https://www.opengl.org/wiki/S3_Texture_Compression
package texture

import (
	"encoding/binary"
	"fmt"
)

// BlockWidth and BlockHeight are the texel dimensions of every block.
const (
	BlockWidth  = 4
	BlockHeight = 4
)

// Format identifies a compressed block encoding. The zero value is invalid.
type Format int

const (
	// DXT1 (BC1): two RGB565 anchors + 2-bit indices, opaque.
	DXT1 Format = iota + 1
	// DXT1A: DXT1 with the three-color mode's fourth code decoding to
	// transparent black.
	DXT1A
	// DXT2 (BC2 premultiplied): DXT3 followed by the premultiply-named
	// per-pixel transform.
	DXT2
	// DXT3 (BC2): 4-bit explicit alpha + DXT1 color.
	DXT3
	// DXT4 (BC3 premultiplied): DXT5 followed by the premultiply-named
	// per-pixel transform.
	DXT4
	// DXT5 (BC3): interpolated alpha + DXT1 color.
	DXT5
	// DXT5YCoCg: DXT5 with luma in alpha, classic YCoCg post-process.
	DXT5YCoCg
	// DXT5YCoCgScaled: DXT5 with luma in alpha, scaled YCoCg post-process.
	DXT5YCoCgScaled
	// RGTC1U (BC4/ATI1 unsigned): single channel, decoded into red.
	RGTC1U
)

// BlockSize returns the compressed size of one block in bytes.
func (f Format) BlockSize() int {
	switch f {
	case DXT1, DXT1A, RGTC1U:
		return 8
	default:
		return 16
	}
}

func (f Format) String() string {
	switch f {
	case DXT1:
		return "DXT1"
	case DXT1A:
		return "DXT1A"
	case DXT2:
		return "DXT2"
	case DXT3:
		return "DXT3"
	case DXT4:
		return "DXT4"
	case DXT5:
		return "DXT5"
	case DXT5YCoCg:
		return "DXT5-YCoCg"
	case DXT5YCoCgScaled:
		return "DXT5-YCoCg-scaled"
	case RGTC1U:
		return "RGTC1U"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// DecodeBlock decodes one compressed block to 4x4 RGBA pixels, written to
// dst across four rows spaced stride bytes apart. It returns the number of
// input bytes consumed (8 or 16).
func (f Format) DecodeBlock(dst []byte, stride int, block []byte) int {
	switch f {
	case DXT1:
		return dxt1Block(dst, stride, block)
	case DXT1A:
		return dxt1aBlock(dst, stride, block)
	case DXT2:
		return dxt2Block(dst, stride, block)
	case DXT3:
		return dxt3Block(dst, stride, block)
	case DXT4:
		return dxt4Block(dst, stride, block)
	case DXT5:
		return dxt5Block(dst, stride, block)
	case DXT5YCoCg:
		return dxt5yBlock(dst, stride, block)
	case DXT5YCoCgScaled:
		return dxt5ysBlock(dst, stride, block)
	case RGTC1U:
		return rgtc1uBlock(dst, stride, block)
	default:
		panic("texture: DecodeBlock on invalid format")
	}
}

var opaqueAlpha = [16]uint8{
	255, 255, 255, 255, 255, 255, 255, 255,
	255, 255, 255, 255, 255, 255, 255, 255,
}

// expand565 widens packed 5:6:5 channels to 8 bits. The two-step division
// is an exact integer form of round(raw/maxRaw*255) and must not be
// replaced by a multiply-shift: reference decoders round this exact way.
func expand565(c uint16) (r, g, b uint8) {
	t := uint32(c>>11)*255 + 16
	r = uint8((t/32 + t) / 32)
	t = uint32((c>>5)&0x3F)*255 + 32
	g = uint8((t/64 + t) / 64)
	t = uint32(c&0x1F)*255 + 16
	b = uint8((t/32 + t) / 32)
	return
}

func putRGBA(dst []byte, r, g, b, a uint8) {
	dst[0] = r
	dst[1] = g
	dst[2] = b
	dst[3] = a
}

// dxt1Internal decodes the shared two-anchor-color portion of the DXT
// family. Per-pixel alpha comes from alphaTab; alpha1bit is what the
// three-color mode's transparent code produces.
func dxt1Internal(dst []byte, stride int, block []byte, alphaTab *[16]uint8, alpha1bit uint8) {
	color0 := binary.LittleEndian.Uint16(block)
	color1 := binary.LittleEndian.Uint16(block[2:])
	r0, g0, b0 := expand565(color0)
	r1, g1, b1 := expand565(color1)
	code := binary.LittleEndian.Uint32(block[4:])

	if color0 > color1 {
		// Four-color mode, no transparency.
		for j := 0; j < BlockHeight; j++ {
			for i := 0; i < BlockWidth; i++ {
				alpha := alphaTab[i+j*4]
				p := dst[i*4+j*stride:]
				switch (code >> uint(2*(i+j*4))) & 0x03 {
				case 0:
					putRGBA(p, r0, g0, b0, alpha)
				case 1:
					putRGBA(p, r1, g1, b1, alpha)
				case 2:
					putRGBA(p,
						uint8((2*uint32(r0)+uint32(r1))/3),
						uint8((2*uint32(g0)+uint32(g1))/3),
						uint8((2*uint32(b0)+uint32(b1))/3),
						alpha)
				case 3:
					putRGBA(p,
						uint8((uint32(r0)+2*uint32(r1))/3),
						uint8((uint32(g0)+2*uint32(g1))/3),
						uint8((uint32(b0)+2*uint32(b1))/3),
						alpha)
				}
			}
		}
		return
	}

	// Three-color-plus-transparency mode.
	for j := 0; j < BlockHeight; j++ {
		for i := 0; i < BlockWidth; i++ {
			alpha := alphaTab[i+j*4]
			p := dst[i*4+j*stride:]
			switch (code >> uint(2*(i+j*4))) & 0x03 {
			case 0:
				putRGBA(p, r0, g0, b0, alpha)
			case 1:
				putRGBA(p, r1, g1, b1, alpha)
			case 2:
				putRGBA(p,
					uint8((uint32(r0)+uint32(r1))/2),
					uint8((uint32(g0)+uint32(g1))/2),
					uint8((uint32(b0)+uint32(b1))/2),
					alpha)
			case 3:
				putRGBA(p, 0, 0, 0, alpha1bit)
			}
		}
	}
}

// dxt1Block decodes a DXT1 block with fully opaque alpha.
func dxt1Block(dst []byte, stride int, block []byte) int {
	dxt1Internal(dst, stride, block, &opaqueAlpha, 255)
	return 8
}

// dxt1aBlock decodes a DXT1 block where the three-color mode's fourth
// code is fully transparent.
func dxt1aBlock(dst []byte, stride int, block []byte) int {
	dxt1Internal(dst, stride, block, &opaqueAlpha, 0)
	return 8
}

// dxt3Internal expands the 4-bit explicit alpha plane, then runs the
// common color decode with it.
func dxt3Internal(dst []byte, stride int, block []byte) {
	var alphaValues [16]uint8
	for i := 0; i < 4; i++ {
		alpha := binary.LittleEndian.Uint16(block[i*2:])
		alphaValues[i*4+0] = uint8(alpha>>0&0x0F) * 17
		alphaValues[i*4+1] = uint8(alpha>>4&0x0F) * 17
		alphaValues[i*4+2] = uint8(alpha>>8&0x0F) * 17
		alphaValues[i*4+3] = uint8(alpha>>12&0x0F) * 17
	}
	dxt1Internal(dst, stride, block[8:], &alphaValues, 255)
}

// premult2straight replicates the premultiplied-to-straight pass of the
// reference decoder. Note the transform computes channel*alpha/255, which
// is algebraically a premultiply; it is kept verbatim for bit
// compatibility with that decoder. See DESIGN.md.
func premult2straight(p []byte) {
	a := uint32(p[3])
	p[0] = uint8(uint32(p[0]) * a / 255)
	p[1] = uint8(uint32(p[1]) * a / 255)
	p[2] = uint8(uint32(p[2]) * a / 255)
}

func dxt2Block(dst []byte, stride int, block []byte) int {
	dxt3Internal(dst, stride, block)
	for y := 0; y < BlockHeight; y++ {
		for x := 0; x < BlockWidth; x++ {
			premult2straight(dst[x*4+y*stride:])
		}
	}
	return 16
}

func dxt3Block(dst []byte, stride int, block []byte) int {
	dxt3Internal(dst, stride, block)
	return 16
}

// decompressIndices unpacks 16 3-bit indices from 6 bytes: each 3-byte
// group is read as a 24-bit little-endian word holding 8 indices, index i
// at bits [3i, 3i+3).
func decompressIndices(dst []uint8, src []byte) {
	for block := 0; block < 2; block++ {
		tmp := uint32(src[0]) | uint32(src[1])<<8 | uint32(src[2])<<16
		for i := 0; i < 8; i++ {
			dst[i] = uint8(tmp >> uint(i*3) & 0x7)
		}
		src = src[3:]
		dst = dst[8:]
	}
}

func dxt5Internal(dst []byte, stride int, block []byte) {
	alpha0 := block[0]
	alpha1 := block[1]

	var alphaIndices [16]uint8
	decompressIndices(alphaIndices[:], block[2:])

	color0 := binary.LittleEndian.Uint16(block[8:])
	color1 := binary.LittleEndian.Uint16(block[10:])
	r0, g0, b0 := expand565(color0)
	r1, g1, b1 := expand565(color1)
	code := binary.LittleEndian.Uint32(block[12:])

	for j := 0; j < BlockHeight; j++ {
		for i := 0; i < BlockWidth; i++ {
			alphaCode := alphaIndices[i+j*4]
			colorCode := code >> uint(2*(i+j*4)) & 0x03

			var alpha uint8
			switch {
			case alphaCode == 0:
				alpha = alpha0
			case alphaCode == 1:
				alpha = alpha1
			case alpha0 > alpha1:
				alpha = uint8(((8-uint32(alphaCode))*uint32(alpha0) +
					(uint32(alphaCode)-1)*uint32(alpha1)) / 7)
			case alphaCode == 6:
				alpha = 0
			case alphaCode == 7:
				alpha = 255
			default:
				alpha = uint8(((6-uint32(alphaCode))*uint32(alpha0) +
					(uint32(alphaCode)-1)*uint32(alpha1)) / 5)
			}

			p := dst[i*4+j*stride:]
			switch colorCode {
			case 0:
				putRGBA(p, r0, g0, b0, alpha)
			case 1:
				putRGBA(p, r1, g1, b1, alpha)
			case 2:
				putRGBA(p,
					uint8((2*uint32(r0)+uint32(r1))/3),
					uint8((2*uint32(g0)+uint32(g1))/3),
					uint8((2*uint32(b0)+uint32(b1))/3),
					alpha)
			case 3:
				putRGBA(p,
					uint8((uint32(r0)+2*uint32(r1))/3),
					uint8((uint32(g0)+2*uint32(g1))/3),
					uint8((uint32(b0)+2*uint32(b1))/3),
					alpha)
			}
		}
	}
}

func dxt4Block(dst []byte, stride int, block []byte) int {
	dxt5Internal(dst, stride, block)
	for y := 0; y < BlockHeight; y++ {
		for x := 0; x < BlockWidth; x++ {
			premult2straight(dst[x*4+y*stride:])
		}
	}
	return 16
}

func dxt5Block(dst []byte, stride int, block []byte) int {
	dxt5Internal(dst, stride, block)
	return 16
}

func clipUint8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// ycocg2rgba converts one YCoCg pixel (Co, Cg, scale, Y in the R, G, B, A
// slots) to RGBA in place. The scaled variant derives the chroma scale
// from the blue slot and forces opaque alpha; the classic variant keeps
// the blue slot as the output alpha.
func ycocg2rgba(p []byte, scaled bool) {
	r := int(p[0])
	g := int(p[1])
	b := int(p[2])
	a := int(p[3])

	s := 1
	if scaled {
		s = (b >> 3) + 1
	}
	y := a
	co := (r - 128) / s
	cg := (g - 128) / s

	p[0] = clipUint8(y + co - cg)
	p[1] = clipUint8(y + cg)
	p[2] = clipUint8(y - co - cg)
	if scaled {
		p[3] = 255
	} else {
		p[3] = uint8(b)
	}
}

// dxt5yBlock decodes DXT5 with luma stored in alpha, then reorders the
// components with the classic YCoCg transform.
func dxt5yBlock(dst []byte, stride int, block []byte) int {
	dxt5Internal(dst, stride, block)
	for y := 0; y < BlockHeight; y++ {
		for x := 0; x < BlockWidth; x++ {
			ycocg2rgba(dst[x*4+y*stride:], false)
		}
	}
	return 16
}

// dxt5ysBlock is dxt5yBlock with the scaled chroma variant.
func dxt5ysBlock(dst []byte, stride int, block []byte) int {
	dxt5Internal(dst, stride, block)
	for y := 0; y < BlockHeight; y++ {
		for x := 0; x < BlockWidth; x++ {
			ycocg2rgba(dst[x*4+y*stride:], true)
		}
	}
	return 16
}

// rgtc1uBlock decodes a BC4 unsigned block. The single channel is
// normalized to [0,1], interpolated with the same ramp structure as DXT5
// alpha, and written into red with opaque alpha.
func rgtc1uBlock(dst []byte, stride int, block []byte) int {
	var colorTable [8]float32
	r0 := float32(block[0]) / 255.0
	r1 := float32(block[1]) / 255.0

	colorTable[0] = r0
	colorTable[1] = r1
	if r0 > r1 {
		colorTable[2] = (6*r0 + 1*r1) / 7.0
		colorTable[3] = (5*r0 + 2*r1) / 7.0
		colorTable[4] = (4*r0 + 3*r1) / 7.0
		colorTable[5] = (3*r0 + 4*r1) / 7.0
		colorTable[6] = (2*r0 + 5*r1) / 7.0
		colorTable[7] = (1*r0 + 6*r1) / 7.0
	} else {
		colorTable[2] = (4*r0 + 1*r1) / 5.0
		colorTable[3] = (3*r0 + 2*r1) / 5.0
		colorTable[4] = (2*r0 + 3*r1) / 5.0
		colorTable[5] = (1*r0 + 4*r1) / 5.0
		colorTable[6] = 0.0
		colorTable[7] = 1.0
	}

	var indices [16]uint8
	decompressIndices(indices[:], block[2:])

	for y := 0; y < BlockHeight; y++ {
		for x := 0; x < BlockWidth; x++ {
			r := uint8(colorTable[indices[x+y*4]] * 255)
			putRGBA(dst[x*4+y*stride:], r, 0, 0, 255)
		}
	}
	return 8
}
