package texture

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// Errors reported by the validated image-level entry points.
var (
	ErrShortInput = errors.New("texture: compressed data shorter than block count requires")
	ErrShortDest  = errors.New("texture: destination buffer too small")
	ErrBadSize    = errors.New("texture: dimensions must be positive multiples of 4")
)

// checkDims validates the aligned image geometry shared by Decode and
// Encode and returns the block count.
func checkDims(f Format, width, height, stride int, pixLen, texLen int) (int, error) {
	if width <= 0 || height <= 0 || width%BlockWidth != 0 || height%BlockHeight != 0 {
		return 0, fmt.Errorf("%w: %dx%d", ErrBadSize, width, height)
	}
	blocks := width / BlockWidth * (height / BlockHeight)
	if texLen < blocks*f.BlockSize() {
		return 0, fmt.Errorf("%w: have %d, need %d", ErrShortInput, texLen, blocks*f.BlockSize())
	}
	if pixLen < (height-1)*stride+width*4 {
		return 0, fmt.Errorf("%w: have %d, need %d", ErrShortDest, pixLen, (height-1)*stride+width*4)
	}
	return blocks, nil
}

// Decode decompresses a whole texture into dst, a pixel buffer of at
// least (height-1)*stride + width*4 bytes. Width and height are the coded
// (4-aligned) dimensions. Buffer sizes are validated once here; the block
// loop itself is unchecked.
func Decode(f Format, dst []byte, width, height, stride int, data []byte) error {
	if _, err := checkDims(f, width, height, stride, len(dst), len(data)); err != nil {
		return err
	}
	for j := 0; j < height; j += BlockHeight {
		for i := 0; i < width; i += BlockWidth {
			step := f.DecodeBlock(dst[i*4+j*stride:], stride, data)
			data = data[step:]
		}
	}
	return nil
}

// DecodeParallel is Decode with the block grid sharded across worker
// goroutines. Every block writes only its own 4x4 destination region, so
// the result is identical to the sequential decode.
func DecodeParallel(f Format, dst []byte, width, height, stride int, data []byte) error {
	blocks, err := checkDims(f, width, height, stride, len(dst), len(data))
	if err != nil {
		return err
	}

	workers := runtime.NumCPU()
	if workers > blocks {
		workers = blocks
	}
	if workers <= 1 {
		return Decode(f, dst, width, height, stride, data)
	}

	blocksPerRow := width / BlockWidth
	ratio := f.BlockSize()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for nb := w; nb < blocks; nb += workers {
				x := nb % blocksPerRow * BlockWidth
				y := nb / blocksPerRow * BlockHeight
				f.DecodeBlock(dst[x*4+y*stride:], stride, data[nb*ratio:])
			}
		}(w)
	}
	wg.Wait()
	return nil
}

// Encode compresses a whole RGBA pixel buffer into dst and returns the
// number of bytes written. Only formats with an encode path (DXT1, DXT5,
// DXT5YCoCgScaled) are supported.
func Encode(f Format, dst []byte, src []byte, width, height, stride int) (int, error) {
	enc, err := encoderFor(f)
	if err != nil {
		return 0, err
	}
	if width <= 0 || height <= 0 || width%BlockWidth != 0 || height%BlockHeight != 0 {
		return 0, fmt.Errorf("%w: %dx%d", ErrBadSize, width, height)
	}
	blocks := width / BlockWidth * (height / BlockHeight)
	if len(dst) < blocks*f.BlockSize() {
		return 0, fmt.Errorf("%w: have %d, need %d", ErrShortDest, len(dst), blocks*f.BlockSize())
	}
	if len(src) < (height-1)*stride+width*4 {
		return 0, fmt.Errorf("%w: have %d, need %d", ErrShortInput, len(src), (height-1)*stride+width*4)
	}

	out := 0
	for j := 0; j < height; j += BlockHeight {
		for i := 0; i < width; i += BlockWidth {
			out += enc(dst[out:], stride, src[i*4+j*stride:])
		}
	}
	return out, nil
}
