package dxtex

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/deepteams/dxtex/internal/container"
	"github.com/deepteams/dxtex/internal/texture"
)

func init() {
	image.RegisterFormat("dds", "DDS ", Decode, DecodeConfig)
}

// Errors returned by the decoder.
var (
	ErrUnsupported = errors.New("dxtex: unsupported format")
	ErrInvalidData = errors.New("dxtex: invalid data")
)

// Post-processing pass run after the pixel data is in RGBA form.
type postProc int

const (
	ppNone postProc = iota
	ppAlphaExp
	ppNormalMap
	ppDoom3
	ppRawYCoCg
	ppA2XY
)

func (p postProc) String() string {
	switch p {
	case ppAlphaExp:
		return "alpha-exponent"
	case ppNormalMap:
		return "normal-map"
	case ppDoom3:
		return "rxgb"
	case ppRawYCoCg:
		return "raw-ycocg"
	case ppA2XY:
		return "a2xy"
	}
	return "none"
}

// Features describes a DDS file's properties.
type Features struct {
	Width       int
	Height      int
	MipMapCount int
	FourCC      string // empty for uncompressed files
	Format      string // texture format or pixel layout
	Compressed  bool
	Paletted    bool
	PostProcess string // post-processing pass, "none" when absent
}

// pixelFormat is the decoded interpretation of the DDPF block and the
// GIMP-DDS reserved1 tag.
type pixelFormat struct {
	tex      texture.Format // zero when not block-compressed
	postproc postProc
	paletted bool
	gray     bool
	bgra     bool
	opaque   bool // alpha mask absent, force 255
	name     string
}

// parsePixelFormat maps the header fields to a decode plan. FourCC
// selection and the post-proc priority follow the DirectDraw conventions:
// the RXGB swap is set by the fourcc itself, then alpha-exponent beats
// normal-map beats raw YCoCg, and an A2XY tag in the bit-count field
// overrides them all.
func parsePixelFormat(h *container.DDSHeader) (pixelFormat, error) {
	var pf pixelFormat
	normalMap := h.NormalMap()

	switch {
	case h.Compressed():
		switch h.FourCC {
		case container.Tag('D', 'X', 'T', '1'):
			pf.tex = texture.DXT1A
		case container.Tag('D', 'X', 'T', '2'):
			pf.tex = texture.DXT2
		case container.Tag('D', 'X', 'T', '3'):
			pf.tex = texture.DXT3
		case container.Tag('D', 'X', 'T', '4'):
			pf.tex = texture.DXT4
		case container.Tag('D', 'X', 'T', '5'):
			switch h.GimpTag {
			case container.TagYCoCgScaled:
				pf.tex = texture.DXT5YCoCgScaled
			case container.TagYCoCg:
				pf.tex = texture.DXT5YCoCg
			default:
				pf.tex = texture.DXT5
			}
		case container.Tag('R', 'X', 'G', 'B'):
			// Doom3 normal maps: plain DXT5 with R and A swapped, handled
			// by its own pass rather than the normal-map reconstruction.
			pf.tex = texture.DXT5
			pf.postproc = ppDoom3
			normalMap = false
		case container.Tag('A', 'T', 'I', '1'), container.Tag('B', 'C', '4', 'U'):
			pf.tex = texture.RGTC1U
		case container.Tag('A', 'T', 'C', ' '), container.Tag('A', 'T', 'C', 'A'),
			container.Tag('A', 'T', 'C', 'I'), container.Tag('E', 'T', 'C', ' '),
			container.Tag('E', 'T', 'C', '1'), container.Tag('E', 'T', 'C', '2'),
			container.Tag('B', 'C', '4', 'S'), container.Tag('A', 'T', 'I', '2'),
			container.Tag('B', 'C', '5', 'U'), container.Tag('B', 'C', '5', 'S'),
			container.Tag('D', 'X', '1', '0'):
			return pf, fmt.Errorf("%w: texture type %s", ErrUnsupported,
				container.TagString(h.FourCC))
		default:
			return pf, fmt.Errorf("%w: fourcc %s", ErrUnsupported,
				container.TagString(h.FourCC))
		}
		pf.name = pf.tex.String()

	case h.Paletted():
		if h.BitCount != 8 {
			return pf, fmt.Errorf("%w: palette bpp %d", ErrUnsupported, h.BitCount)
		}
		pf.paletted = true
		pf.name = "pal8"

	default:
		r, g, b, a := h.RMask, h.GMask, h.BMask, h.AMask
		switch {
		case h.BitCount == 8 && r == 0xff && g == 0 && b == 0 && a == 0:
			pf.gray = true
			pf.name = "gray8"
		case h.BitCount == 32 && r == 0xff && g == 0xff00 && b == 0xff0000:
			pf.bgra = false
			pf.opaque = a == 0
			pf.name = "rgba32"
		case h.BitCount == 32 && r == 0xff0000 && g == 0xff00 && b == 0xff:
			pf.bgra = true
			pf.opaque = a == 0
			pf.name = "bgra32"
		default:
			return pf, fmt.Errorf("%w: pixel layout [bpp %d r %#x g %#x b %#x a %#x]",
				ErrUnsupported, h.BitCount, r, g, b, a)
		}
	}

	if pf.postproc == ppNone {
		switch {
		case h.GimpTag == container.TagAlphaExponent:
			pf.postproc = ppAlphaExp
		case normalMap:
			pf.postproc = ppNormalMap
		case h.GimpTag == container.TagYCoCg && !h.Compressed():
			pf.postproc = ppRawYCoCg
		}
	}
	// ATI/NVidia variants sometimes store a swizzle tag in the bit count.
	if h.BitCount == container.Tag('A', '2', 'X', 'Y') {
		pf.postproc = ppA2XY
	}

	return pf, nil
}

// readAll reads all data from r. If r implements Len() int (e.g.
// *bytes.Reader), a single exact-sized allocation is used instead of
// the repeated doublings that io.ReadAll performs.
func readAll(r io.Reader) ([]byte, error) {
	if lr, ok := r.(interface{ Len() int }); ok {
		n := lr.Len()
		if n > 0 {
			data := make([]byte, n)
			_, err := io.ReadFull(r, data)
			return data, err
		}
	}
	return io.ReadAll(r)
}

// Decode reads a DDS image from r and returns it as an image.Image.
// Block-compressed and 32 bpp files decode to *image.NRGBA, paletted
// files to *image.Paletted and 8 bpp gray files to *image.Gray.
func Decode(r io.Reader) (image.Image, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("dxtex: reading data: %w", err)
	}
	return decodeBytes(data)
}

// DecodeConfig returns the color model and dimensions of a DDS image
// without decoding pixel data.
func DecodeConfig(r io.Reader) (image.Config, error) {
	data, err := readAll(r)
	if err != nil {
		return image.Config{}, fmt.Errorf("dxtex: reading data: %w", err)
	}
	h, _, err := container.ParseDDSHeader(data)
	if err != nil {
		return image.Config{}, err
	}
	pf, err := parsePixelFormat(h)
	if err != nil {
		return image.Config{}, err
	}

	cm := color.Model(color.NRGBAModel)
	if pf.gray {
		cm = color.GrayModel
	}
	return image.Config{ColorModel: cm, Width: h.Width, Height: h.Height}, nil
}

// GetFeatures reads DDS features without decoding pixel data.
func GetFeatures(r io.Reader) (*Features, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("dxtex: reading data: %w", err)
	}
	h, _, err := container.ParseDDSHeader(data)
	if err != nil {
		return nil, err
	}
	pf, err := parsePixelFormat(h)
	if err != nil {
		return nil, err
	}

	f := &Features{
		Width:       h.Width,
		Height:      h.Height,
		MipMapCount: h.MipMapCount,
		Format:      pf.name,
		Compressed:  h.Compressed(),
		Paletted:    pf.paletted,
		PostProcess: pf.postproc.String(),
	}
	if h.Compressed() {
		f.FourCC = container.TagString(h.FourCC)
	}
	return f, nil
}

func decodeBytes(data []byte) (image.Image, error) {
	h, payload, err := container.ParseDDSHeader(data)
	if err != nil {
		return nil, err
	}
	pf, err := parsePixelFormat(h)
	if err != nil {
		return nil, err
	}

	switch {
	case pf.tex != 0:
		return decodeCompressed(h, pf, payload)
	case pf.paletted:
		return decodePaletted(h, payload)
	case pf.gray:
		return decodeGray(h, payload)
	default:
		return decode32(h, pf, payload)
	}
}

func align4(n int) int { return (n + 3) &^ 3 }

// decodeCompressed block-decodes the texture on the 4-aligned grid, runs
// the post-processing pass and crops to the declared size.
func decodeCompressed(h *container.DDSHeader, pf pixelFormat, payload []byte) (image.Image, error) {
	cw, ch := align4(h.Width), align4(h.Height)

	img := image.NewNRGBA(image.Rect(0, 0, cw, ch))
	if err := texture.DecodeParallel(pf.tex, img.Pix, cw, ch, img.Stride, payload); err != nil {
		return nil, err
	}
	runPostProc(pf, img.Pix)

	if cw == h.Width && ch == h.Height {
		return img, nil
	}
	return img.SubImage(image.Rect(0, 0, h.Width, h.Height)), nil
}

// decodePaletted reads the leading 256-entry RGBA palette and the 8 bpp
// index plane that follows.
func decodePaletted(h *container.DDSHeader, payload []byte) (image.Image, error) {
	const palSize = 256 * 4
	if len(payload) < palSize+h.Width*h.Height {
		return nil, fmt.Errorf("%w: short paletted payload (%d)", ErrInvalidData, len(payload))
	}

	pal := make(color.Palette, 256)
	for i := range pal {
		p := payload[i*4:]
		pal[i] = color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
	}

	img := image.NewPaletted(image.Rect(0, 0, h.Width, h.Height), pal)
	src := payload[palSize:]
	for y := 0; y < h.Height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+h.Width], src[y*h.Width:])
	}
	return img, nil
}

func decodeGray(h *container.DDSHeader, payload []byte) (image.Image, error) {
	if len(payload) < h.Width*h.Height {
		return nil, fmt.Errorf("%w: short gray payload (%d)", ErrInvalidData, len(payload))
	}
	img := image.NewGray(image.Rect(0, 0, h.Width, h.Height))
	for y := 0; y < h.Height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+h.Width], payload[y*h.Width:])
	}
	return img, nil
}

// decode32 copies a 32 bpp payload, normalizing BGRA ordering and masks
// without an alpha channel, then runs the post-processing pass.
func decode32(h *container.DDSHeader, pf pixelFormat, payload []byte) (image.Image, error) {
	if len(payload) < h.Width*h.Height*4 {
		return nil, fmt.Errorf("%w: short payload (%d)", ErrInvalidData, len(payload))
	}

	img := image.NewNRGBA(image.Rect(0, 0, h.Width, h.Height))
	rowLen := h.Width * 4
	for y := 0; y < h.Height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+rowLen], payload[y*rowLen:])
	}
	if pf.bgra {
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i], img.Pix[i+2] = img.Pix[i+2], img.Pix[i]
		}
	}
	if pf.opaque {
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = 255
		}
	}
	runPostProc(pf, img.Pix)
	return img, nil
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

// runPostProc converts the decoded RGBA data in place.
func runPostProc(pf pixelFormat, pix []byte) {
	switch pf.postproc {
	case ppAlphaExp:
		// Alpha-exponential mode divides each channel by the maximum
		// R, G or B value and stores the multiplying factor in the
		// alpha channel.
		for i := 0; i < len(pix); i += 4 {
			p := pix[i:]
			a := int(p[3])
			p[0] = uint8(int(p[0]) * a / 255)
			p[1] = uint8(int(p[1]) * a / 255)
			p[2] = uint8(int(p[2]) * a / 255)
			p[3] = 255
		}

	case ppNormalMap:
		// Normal maps encode X in R or A depending on the texture type,
		// Y in G, and derive Z from the unit-length constraint.
		xOff := 3
		if pf.tex == texture.RGTC1U {
			xOff = 0
		}
		for i := 0; i < len(pix); i += 4 {
			p := pix[i:]
			x := p[xOff]
			y := p[1]
			nx := 2*float32(x)/255 - 1
			ny := 2*float32(y)/255 - 1
			var nz float32
			if d := 1 - nx*nx - ny*ny; d > 0 {
				nz = float32(math.Sqrt(float64(d)))
			}
			p[0] = x
			p[1] = y
			p[2] = clipUint8(int(255 * (nz + 1) / 2))
			p[3] = 255
		}

	case ppDoom3:
		// RXGB stores R in the alpha plane.
		for i := 0; i < len(pix); i += 4 {
			pix[i], pix[i+3] = pix[i+3], pix[i]
		}

	case ppRawYCoCg:
		// The payload is Y-Co-Cg-A behind ordinary RGBA masks.
		for i := 0; i < len(pix); i += 4 {
			p := pix[i:]
			a := int(p[0])
			cg := int(p[1]) - 128
			co := int(p[2]) - 128
			y := int(p[3])
			p[0] = clipUint8(y + co - cg)
			p[1] = clipUint8(y + cg)
			p[2] = clipUint8(y - co - cg)
			p[3] = uint8(a)
		}

	case ppA2XY:
		// A2XY swizzle keeps the layout but swaps R and G.
		for i := 0; i < len(pix); i += 4 {
			pix[i], pix[i+1] = pix[i+1], pix[i]
		}
	}
}
