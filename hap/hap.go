// Package hap encodes and decodes HAP video frames: DXT-compressed
// texture data wrapped in a sectioned container, optionally compressed a
// second time with snappy.
//
// A frame carries no dimensions of its own, so both the Decoder and the
// Encoder are constructed with the image size, which normally comes from
// the enclosing container track.
package hap

import (
	"errors"
	"fmt"
	"image"

	"github.com/klauspost/compress/snappy"

	"github.com/deepteams/dxtex/internal/container"
	"github.com/deepteams/dxtex/internal/pool"
	"github.com/deepteams/dxtex/internal/texture"
)

// Texture format, the low nibble of the section type.
const (
	FmtRGBDXT1         = 0x0B
	FmtRGBADXT5        = 0x0E
	FmtYCoCgDXT5Scaled = 0x0F
)

// Second-stage compressor, the high nibble of the section type.
const (
	CompNone    = 0xA0
	CompSnappy  = 0xB0
	CompComplex = 0xC0
)

// Errors reported by frame parsing.
var (
	ErrBadFrame    = errors.New("hap: invalid frame")
	ErrUnsupported = errors.New("hap: unsupported frame")
)

// formatFor maps a section format nibble to its texture format.
func formatFor(section byte) (texture.Format, error) {
	switch section & 0x0F {
	case FmtRGBDXT1:
		return texture.DXT1, nil
	case FmtRGBADXT5:
		return texture.DXT5, nil
	case FmtYCoCgDXT5Scaled:
		return texture.DXT5YCoCgScaled, nil
	}
	return 0, fmt.Errorf("%w: texture format %#02x", ErrUnsupported, section&0x0F)
}

// sectionFor is the inverse mapping used when encoding.
func sectionFor(f texture.Format) (byte, error) {
	switch f {
	case texture.DXT1:
		return FmtRGBDXT1, nil
	case texture.DXT5:
		return FmtRGBADXT5, nil
	case texture.DXT5YCoCgScaled:
		return FmtYCoCgDXT5Scaled, nil
	}
	return 0, fmt.Errorf("%w: texture format %v", ErrUnsupported, f)
}

func align4(n int) int { return (n + 3) &^ 3 }

// A Decoder turns HAP frames into images. It is safe for sequential use
// only; decode each stream with its own Decoder.
type Decoder struct {
	width, height int
}

// NewDecoder returns a Decoder for frames of the given display size.
func NewDecoder(width, height int) (*Decoder, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: frame size %dx%d", ErrBadFrame, width, height)
	}
	return &Decoder{width: width, height: height}, nil
}

// Decode unpacks one frame. The section header selects the texture
// format and the second-stage compressor; the texture is then decoded on
// the 4-aligned grid and cropped to the display size.
func (d *Decoder) Decode(frame []byte) (*image.NRGBA, error) {
	s, err := container.ParseHapSection(frame)
	if err != nil {
		return nil, err
	}
	f, err := formatFor(s.Type)
	if err != nil {
		return nil, err
	}

	cw, ch := align4(d.width), align4(d.height)
	texSize := cw / 4 * (ch / 4) * f.BlockSize()
	body := frame[s.HeaderSize : s.HeaderSize+s.Length]

	var tex []byte
	switch s.Type & 0xF0 {
	case CompNone:
		tex = body
	case CompSnappy:
		n, err := snappy.DecodedLen(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
		}
		if n != texSize {
			return nil, fmt.Errorf("%w: texture is %d bytes, need %d", ErrBadFrame, n, texSize)
		}
		scratch := pool.Get(n)
		defer pool.Put(scratch)
		tex, err = snappy.Decode(scratch, body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
		}
	case CompComplex:
		// Multi-chunk frames interleave per-chunk compressors and need
		// the chunk table sections; none of the streams this package
		// targets produce them.
		return nil, fmt.Errorf("%w: complex second-stage compression", ErrUnsupported)
	default:
		return nil, fmt.Errorf("%w: second-stage compressor %#02x", ErrUnsupported, s.Type&0xF0)
	}
	if len(tex) < texSize {
		return nil, fmt.Errorf("%w: texture is %d bytes, need %d", ErrBadFrame, len(tex), texSize)
	}

	img := image.NewNRGBA(image.Rect(0, 0, d.width, d.height))
	if cw == d.width && ch == d.height {
		if err := texture.DecodeParallel(f, img.Pix, cw, ch, img.Stride, tex); err != nil {
			return nil, err
		}
		return img, nil
	}

	// Decode on the aligned grid, then crop.
	aligned := pool.Get(cw * ch * 4)
	defer pool.Put(aligned)
	if err := texture.DecodeParallel(f, aligned, cw, ch, cw*4, tex); err != nil {
		return nil, err
	}
	for y := 0; y < d.height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+d.width*4], aligned[y*cw*4:])
	}
	return img, nil
}

// An Encoder turns images into HAP frames.
type Encoder struct {
	width, height int
	format        texture.Format
	section       byte
}

// NewEncoder returns an Encoder producing frames of the given size in
// the given texture format. DXT1, DXT5 and DXT5YCoCgScaled are the
// formats the HAP variants name (Hap, Hap Alpha, Hap Q).
func NewEncoder(width, height int, f texture.Format) (*Encoder, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: frame size %dx%d", ErrBadFrame, width, height)
	}
	section, err := sectionFor(f)
	if err != nil {
		return nil, err
	}
	return &Encoder{width: width, height: height, format: f, section: section}, nil
}

// Encode compresses one frame. The texture payload is snappy-compressed
// unless that fails to shrink it, in which case the frame is emitted
// with the none compressor.
func (e *Encoder) Encode(img *image.NRGBA) ([]byte, error) {
	b := img.Bounds()
	if b.Dx() != e.width || b.Dy() != e.height {
		return nil, fmt.Errorf("%w: frame size %dx%d, want %dx%d",
			ErrBadFrame, b.Dx(), b.Dy(), e.width, e.height)
	}

	cw, ch := align4(e.width), align4(e.height)
	pix, stride := img.Pix, img.Stride
	if cw != e.width || ch != e.height {
		pix, stride = padEdges(img, cw, ch)
		defer pool.Put(pix)
	}

	tex := pool.Get(cw / 4 * (ch / 4) * e.format.BlockSize())
	defer pool.Put(tex)
	n, err := texture.Encode(e.format, tex, pix, cw, ch, stride)
	if err != nil {
		return nil, err
	}
	tex = tex[:n]

	packed := snappy.Encode(pool.Get(snappy.MaxEncodedLen(n)), tex)
	defer pool.Put(packed[:cap(packed)])

	body, comp := packed, byte(CompSnappy)
	if len(packed) >= n {
		body, comp = tex, CompNone
	}

	out := make([]byte, container.HapHeaderSize(len(body))+len(body))
	hdr := container.WriteHapSection(out, len(body), comp|e.section)
	copy(out[hdr:], body)
	return out, nil
}

// padEdges copies the image into a 4-aligned pooled buffer, replicating
// the rightmost column and bottom row into the padding so the partial
// blocks compress cleanly. The caller owns the returned buffer.
func padEdges(img *image.NRGBA, cw, ch int) ([]byte, int) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	stride := cw * 4
	pix := pool.Get(stride * ch)

	for y := 0; y < ch; y++ {
		sy := y
		if sy >= h {
			sy = h - 1
		}
		row := pix[y*stride:]
		copy(row, img.Pix[sy*img.Stride:sy*img.Stride+w*4])
		edge := row[(w-1)*4 : w*4]
		for x := w; x < cw; x++ {
			copy(row[x*4:], edge)
		}
	}
	return pix, stride
}
