// Package dxtex provides a pure Go decoder for DirectDraw Surface (DDS)
// textures and the block compression formats they carry.
//
// DDS is the container most GPU texture pipelines produce. This package
// implements the common fourcc payloads without any CGo dependencies,
// making it fully portable and easy to cross-compile.
//
// The package supports:
//   - DXT1/BC1 with 1-bit alpha
//   - DXT2/DXT3 (BC2) and DXT4/DXT5 (BC3)
//   - DXT5-based YCoCg and scaled YCoCg (GIMP YCG1/YCG2 tags)
//   - RGTC1 unsigned (BC4/ATI1)
//   - RXGB, normal-map and alpha-exponent post-processing
//   - Paletted, 8 bpp gray and 32 bpp RGBA/BGRA uncompressed payloads
//
// Basic usage for decoding:
//
//	img, err := dxtex.Decode(reader)
//
// HAP video frames (DXT textures with snappy second-stage compression)
// are handled by the hap subpackage.
package dxtex
