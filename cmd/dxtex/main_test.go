package main

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/deepteams/dxtex/internal/texture"
)

// createTestDDS writes a small DXT1 DDS file and returns its path. The
// color (132, 134, 132) survives 565 quantization exactly.
func createTestDDS(t *testing.T, dir string, w, h int) string {
	t.Helper()

	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = 132, 134, 132, 255
	}
	tex := make([]byte, w*h/16*8)
	if _, err := texture.Encode(texture.DXT1, tex, pix, w, h, w*4); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 128+len(tex))
	le := binary.LittleEndian
	le.PutUint32(buf, 0x20534444) // "DDS "
	le.PutUint32(buf[4:], 124)
	le.PutUint32(buf[12:], uint32(h))
	le.PutUint32(buf[16:], uint32(w))
	le.PutUint32(buf[76:], 32)
	le.PutUint32(buf[80:], 1<<2) // DDPF_FOURCC
	copy(buf[84:], "DXT1")
	copy(buf[128:], tex)

	path := filepath.Join(dir, "input.dds")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// createTestPNG writes a small flat PNG and returns its path.
func createTestPNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 132, 134, 132, 255
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "input.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunDec_PNG(t *testing.T) {
	dir := t.TempDir()
	in := createTestDDS(t, dir, 8, 8)
	out := filepath.Join(dir, "out.png")

	if err := runDec([]string{"-o", out, in}); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
		t.Errorf("bounds = %v, want 8x8", b)
	}
}

func TestRunDec_BMPByExtension(t *testing.T) {
	dir := t.TempDir()
	in := createTestDDS(t, dir, 8, 8)
	out := filepath.Join(dir, "out.bmp")

	if err := runDec([]string{"-o", out, in}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 2 || data[0] != 'B' || data[1] != 'M' {
		t.Errorf("output is not BMP (starts %v)", data[:2])
	}
}

func TestRunDec_MissingInput(t *testing.T) {
	if err := runDec(nil); err == nil {
		t.Error("want error for missing input")
	}
}

func TestRunInfo(t *testing.T) {
	dir := t.TempDir()
	in := createTestDDS(t, dir, 16, 8)

	if err := runInfo([]string{in}); err != nil {
		t.Fatal(err)
	}
}

func TestRunHap_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := createTestPNG(t, dir, 16, 8)
	frame := filepath.Join(dir, "frame.hap")
	out := filepath.Join(dir, "out.png")

	if err := runHapEnc([]string{"-fmt", "hap", "-o", frame, in}); err != nil {
		t.Fatal(err)
	}
	if err := runHapDec([]string{"-w", "16", "-h", "8", "-o", out, frame}); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, _ := img.At(3, 3).RGBA()
	if r>>8 != 132 || g>>8 != 134 || b>>8 != 132 {
		t.Errorf("pixel = %d %d %d, want 132 134 132", r>>8, g>>8, b>>8)
	}
}

func TestRunHapDec_RequiresDims(t *testing.T) {
	dir := t.TempDir()
	frame := filepath.Join(dir, "frame.hap")
	if err := os.WriteFile(frame, make([]byte, 16), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := runHapDec([]string{frame}); err == nil {
		t.Error("want error when -w/-h are missing")
	}
}

func TestParseHapProfile(t *testing.T) {
	tests := []struct {
		in   string
		want texture.Format
		ok   bool
	}{
		{"hap", texture.DXT1, true},
		{"HAPA", texture.DXT5, true},
		{"hapq", texture.DXT5YCoCgScaled, true},
		{"hap-q", texture.DXT5YCoCgScaled, true},
		{"dxt9", 0, false},
	}
	for _, tt := range tests {
		got, err := parseHapProfile(tt.in)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("parseHapProfile(%q) = %v, %v", tt.in, got, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("parseHapProfile(%q): want error", tt.in)
		}
	}
}

func TestDetectOutputFormat(t *testing.T) {
	tests := []struct {
		flag, out, want string
	}{
		{"", "", "png"},
		{"", "x.bmp", "bmp"},
		{"", "x.tif", "tiff"},
		{"", "x.tiff", "tiff"},
		{"bmp", "x.png", "bmp"},
		{"", "-", "png"},
	}
	for _, tt := range tests {
		if got := detectOutputFormat(tt.flag, tt.out); got != tt.want {
			t.Errorf("detectOutputFormat(%q, %q) = %q, want %q", tt.flag, tt.out, got, tt.want)
		}
	}
}
