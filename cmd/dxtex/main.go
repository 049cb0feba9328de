// Command dxtex decodes DDS textures and converts HAP video frames from
// the command line.
//
// Usage:
//
//	dxtex dec [options] <input.dds>    DDS → PNG/BMP/TIFF (use "-" for stdin, -o - for stdout)
//	dxtex info <input.dds>             Display DDS metadata
//	dxtex hap enc [options] <input>    PNG/JPEG → raw HAP frame
//	dxtex hap dec [options] <input>    raw HAP frame → PNG/BMP/TIFF
package main

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // hap enc input decoding
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/deepteams/dxtex"
	"github.com/deepteams/dxtex/hap"
	"github.com/deepteams/dxtex/internal/texture"
)

func main() {
	args := os.Args[1:]

	// Global verbosity flag, usable before the subcommand.
	if len(args) > 0 && (args[0] == "-v" || args[0] == "--verbose") {
		logrus.SetLevel(logrus.DebugLevel)
		args = args[1:]
	}
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch args[0] {
	case "dec":
		err = runDec(args[1:])
	case "info":
		err = runInfo(args[1:])
	case "hap":
		err = runHap(args[1:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "dxtex: unknown command %q\n\n", args[0])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "dxtex: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  dxtex dec [options] <input.dds>    Decode DDS to PNG, BMP, or TIFF
  dxtex info <input.dds>             Display DDS metadata
  dxtex hap enc [options] <input>    Encode PNG/JPEG to a raw HAP frame
  dxtex hap dec [options] <input>    Decode a raw HAP frame

Use "-" as input to read from stdin, "-o -" to write to stdout.
Pass -v before the command for debug logging.

Run "dxtex <command> -h" for command-specific options.
`)
}

// openInput returns an io.ReadCloser for the given path.
// If path is "-", stdin is returned (caller should not close).
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func readInput(path string) ([]byte, error) {
	in, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return io.ReadAll(in)
}

// detectOutputFormat returns "png", "bmp" or "tiff" based on flag or
// extension.
func detectOutputFormat(fmtFlag, outputPath string) string {
	if fmtFlag != "" {
		return strings.ToLower(fmtFlag)
	}
	if outputPath != "" && outputPath != "-" {
		switch strings.ToLower(filepath.Ext(outputPath)) {
		case ".bmp":
			return "bmp"
		case ".tif", ".tiff":
			return "tiff"
		}
	}
	return "png"
}

// encodeImage writes img in the specified format to w.
func encodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case "bmp":
		return bmp.Encode(w, img)
	case "tif", "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case "png":
		return png.Encode(w, img)
	default:
		return fmt.Errorf("unknown output format %q (use png/bmp/tiff)", format)
	}
}

// writeImage routes img to outputPath (or stdout), deriving a name from
// inputPath when none is given.
func writeImage(img image.Image, inputPath, outputPath, outFmt string) error {
	if outputPath == "-" {
		return encodeImage(os.Stdout, img, outFmt)
	}

	if outputPath == "" {
		ext := "." + outFmt
		if outFmt == "tiff" {
			ext = ".tif"
		}
		if inputPath == "-" {
			outputPath = "output" + ext
		} else {
			base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
			outputPath = base + ext
		}
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := encodeImage(out, img, outFmt); err != nil {
		out.Close()
		os.Remove(outputPath)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(outputPath)
		return err
	}

	fmt.Fprintf(os.Stderr, "Decoded %s → %s\n", inputPath, outputPath)
	return nil
}

// --- dec ---

func runDec(args []string) error {
	fs := flag.NewFlagSet("dec", flag.ContinueOnError)
	output := fs.String("o", "", `output path (default: <input>.png, "-" for stdout)`)
	fmtFlag := fs.String("fmt", "", "output format: png, bmp, tiff (auto-detect from extension if omitted)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("dec: missing input file\nUsage: dxtex dec [options] <input.dds>")
	}
	inputPath := fs.Arg(0)

	data, err := readInput(inputPath)
	if err != nil {
		return fmt.Errorf("dec: reading input: %w", err)
	}

	feat, err := dxtex.GetFeatures(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("dec: %w", err)
	}
	logrus.Debugf("dec: %dx%d format %s fourcc %q postproc %s",
		feat.Width, feat.Height, feat.Format, feat.FourCC, feat.PostProcess)

	img, err := dxtex.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("dec: %w", err)
	}

	return writeImage(img, inputPath, *output, detectOutputFormat(*fmtFlag, *output))
}

// --- info ---

func runInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("info: missing input file\nUsage: dxtex info <input.dds>")
	}
	inputPath := args[0]

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	feat, err := dxtex.GetFeatures(in)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}

	name := inputPath
	if inputPath == "-" {
		name = "<stdin>"
	}

	fmt.Printf("File:        %s\n", name)
	fmt.Printf("Format:      %s\n", feat.Format)
	fmt.Printf("Dimensions:  %d x %d\n", feat.Width, feat.Height)
	fmt.Printf("Compressed:  %v\n", feat.Compressed)
	if feat.FourCC != "" {
		fmt.Printf("FourCC:      %s\n", feat.FourCC)
	}
	fmt.Printf("Paletted:    %v\n", feat.Paletted)
	fmt.Printf("Post-proc:   %s\n", feat.PostProcess)
	if feat.MipMapCount > 0 {
		fmt.Printf("Mipmaps:     %d (only the top level is decoded)\n", feat.MipMapCount)
	}

	if inputPath != "-" {
		if fi, err := os.Stat(inputPath); err == nil {
			fmt.Printf("File size:   %d bytes\n", fi.Size())
		}
	}

	return nil
}

// --- hap ---

func runHap(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("hap: missing subcommand\nUsage: dxtex hap enc|dec [options] <input>")
	}
	switch args[0] {
	case "enc":
		return runHapEnc(args[1:])
	case "dec":
		return runHapDec(args[1:])
	default:
		return fmt.Errorf("hap: unknown subcommand %q (use enc or dec)", args[0])
	}
}

func parseHapProfile(s string) (texture.Format, error) {
	switch strings.ToLower(s) {
	case "hap":
		return texture.DXT1, nil
	case "hapa", "hap-alpha":
		return texture.DXT5, nil
	case "hapq", "hap-q":
		return texture.DXT5YCoCgScaled, nil
	default:
		return 0, fmt.Errorf("hap enc: unknown profile %q (use hap/hapa/hapq)", s)
	}
}

func runHapEnc(args []string) error {
	fs := flag.NewFlagSet("hap enc", flag.ContinueOnError)
	profile := fs.String("fmt", "hap", "HAP profile: hap (DXT1), hapa (DXT5), hapq (scaled YCoCg DXT5)")
	output := fs.String("o", "", `output path (default: <input>.hap, "-" for stdout)`)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("hap enc: missing input file\nUsage: dxtex hap enc [options] <input>")
	}
	inputPath := fs.Arg(0)

	f, err := parseHapProfile(*profile)
	if err != nil {
		return err
	}

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("hap enc: decoding input: %w", err)
	}

	src, ok := img.(*image.NRGBA)
	if !ok {
		src = image.NewNRGBA(img.Bounds())
		draw.Draw(src, img.Bounds(), img, img.Bounds().Min, draw.Src)
	}

	enc, err := hap.NewEncoder(src.Bounds().Dx(), src.Bounds().Dy(), f)
	if err != nil {
		return fmt.Errorf("hap enc: %w", err)
	}
	frame, err := enc.Encode(src)
	if err != nil {
		return fmt.Errorf("hap enc: %w", err)
	}
	logrus.Debugf("hap enc: %dx%d %v frame, %d bytes",
		src.Bounds().Dx(), src.Bounds().Dy(), f, len(frame))

	if *output == "-" {
		_, err = os.Stdout.Write(frame)
		return err
	}
	outputPath := *output
	if outputPath == "" {
		if inputPath == "-" {
			outputPath = "output.hap"
		} else {
			base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
			outputPath = base + ".hap"
		}
	}
	if err := os.WriteFile(outputPath, frame, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Encoded %s → %s (%d bytes)\n", inputPath, outputPath, len(frame))
	return nil
}

func runHapDec(args []string) error {
	fs := flag.NewFlagSet("hap dec", flag.ContinueOnError)
	width := fs.Int("w", 0, "frame width (required; raw frames carry no dimensions)")
	height := fs.Int("h", 0, "frame height (required)")
	output := fs.String("o", "", `output path (default: <input>.png, "-" for stdout)`)
	fmtFlag := fs.String("fmt", "", "output format: png, bmp, tiff")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("hap dec: missing input file\nUsage: dxtex hap dec -w W -h H [options] <input>")
	}
	if *width <= 0 || *height <= 0 {
		return fmt.Errorf("hap dec: -w and -h are required (raw frames carry no dimensions)")
	}
	inputPath := fs.Arg(0)

	frame, err := readInput(inputPath)
	if err != nil {
		return fmt.Errorf("hap dec: reading input: %w", err)
	}

	dec, err := hap.NewDecoder(*width, *height)
	if err != nil {
		return fmt.Errorf("hap dec: %w", err)
	}
	img, err := dec.Decode(frame)
	if err != nil {
		return fmt.Errorf("hap dec: %w", err)
	}
	logrus.Debugf("hap dec: %d byte frame → %dx%d", len(frame), *width, *height)

	return writeImage(img, inputPath, *output, detectOutputFormat(*fmtFlag, *output))
}
