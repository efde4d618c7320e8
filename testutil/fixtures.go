// Package testutil builds in-memory image fixtures for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// Quadrant colours used by Quadrants.  They are far apart so they survive
// lossy encoding and resampling.
var (
	Red    = color.NRGBA{R: 220, G: 20, B: 20, A: 255}
	Green  = color.NRGBA{R: 20, G: 200, B: 20, A: 255}
	Blue   = color.NRGBA{R: 20, G: 20, B: 220, A: 255}
	Yellow = color.NRGBA{R: 230, G: 230, B: 20, A: 255}
)

// Quadrants returns a w x h image split into four solid quadrants:
// red top-left, green top-right, blue bottom-left, yellow bottom-right.
func Quadrants(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var c color.NRGBA
			switch {
			case x < w/2 && y < h/2:
				c = Red
			case y < h/2:
				c = Green
			case x < w/2:
				c = Blue
			default:
				c = Yellow
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// JPEG encodes img.  orientation > 0 embeds an EXIF block carrying that
// orientation tag, including values outside 1-8.
func JPEG(tb testing.TB, img image.Image, orientation int) []byte {
	tb.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		tb.Fatalf("encode test jpeg: %v", err)
	}
	data := buf.Bytes()
	if orientation <= 0 {
		return data
	}
	// Splice an APP1 segment in right after SOI.
	out := make([]byte, 0, len(data)+64)
	out = append(out, data[:2]...)
	out = append(out, exifSegment(uint16(orientation))...)
	return append(out, data[2:]...)
}

// exifSegment builds a minimal little-endian APP1 Exif segment whose IFD0
// holds only the orientation tag (0x0112, SHORT).
func exifSegment(orientation uint16) []byte {
	var tiff bytes.Buffer
	tiff.WriteString("II*\x00")
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8)) // IFD0 offset
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(1)) // entry count
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0112))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(3)) // SHORT
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(1))
	_ = binary.Write(&tiff, binary.LittleEndian, orientation)
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0)) // value padding
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(0)) // no next IFD

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)
	seg := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))
	return append(seg, payload...)
}

// PNG encodes img losslessly.
func PNG(tb testing.TB, img image.Image) []byte {
	tb.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		tb.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

// PNGHeaderClaiming returns a valid 1x1 grey PNG whose IHDR has been
// rewritten to claim width x height, CRC included.  Header readers accept it;
// a full decode would try to allocate the claimed size.
func PNGHeaderClaiming(tb testing.TB, width, height uint32) []byte {
	tb.Helper()
	data := PNG(tb, image.NewGray(image.Rect(0, 0, 1, 1)))
	// signature(8) | length(4) | "IHDR"(4) | width(4) | height(4) | ... | crc(4)
	const ihdr = 8
	binary.BigEndian.PutUint32(data[ihdr+8:], width)
	binary.BigEndian.PutUint32(data[ihdr+12:], height)
	crc := crc32.ChecksumIEEE(data[ihdr+4 : ihdr+8+13])
	binary.BigEndian.PutUint32(data[ihdr+8+13:], crc)
	return data
}

// WriteFile writes data to dir/name and returns the full path.
func WriteFile(tb testing.TB, dir, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write fixture %s: %v", path, err)
	}
	return path
}

// ColorNear reports whether two colours are within tol on every channel.
func ColorNear(a, b color.Color, tol int) bool {
	ar, ag, ab, _ := a.RGBA()
	br, bg, bb, _ := b.RGBA()
	near := func(x, y uint32) bool {
		d := int(x>>8) - int(y>>8)
		return d <= tol && d >= -tol
	}
	return near(ar, br) && near(ag, bg) && near(ab, bb)
}
