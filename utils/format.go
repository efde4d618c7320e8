package utils

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Skryldev/image-transform/core"
)

// SniffLen is the number of leading bytes DetectFormat looks at.
const SniffLen = 512

// DetectFormat sniffs the first bytes of data and returns the image format.
func DetectFormat(data []byte) core.Format {
	if len(data) < 4 {
		return core.FormatUnknown
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return core.FormatJPEG
	}
	// PNG: 89 50 4E 47
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return core.FormatPNG
	}
	if bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a")) {
		return core.FormatGIF
	}
	// WebP: RIFF....WEBP
	if len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return core.FormatWebP
	}
	if data[0] == 'B' && data[1] == 'M' {
		return core.FormatBMP
	}
	// TIFF: II*\0 or MM\0*
	if bytes.Equal(data[0:4], []byte("II*\x00")) || bytes.Equal(data[0:4], []byte("MM\x00*")) {
		return core.FormatTIFF
	}
	// AVIF: ISO-BMFF box "ftyp" with an avif/avis brand.
	if len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")) {
		brand := string(data[8:12])
		if brand == "avif" || brand == "avis" {
			return core.FormatAVIF
		}
	}
	// Fallback to net/http sniffing.
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return core.FormatJPEG
	case "image/png":
		return core.FormatPNG
	case "image/gif":
		return core.FormatGIF
	case "image/webp":
		return core.FormatWebP
	case "image/bmp":
		return core.FormatBMP
	}
	return core.FormatUnknown
}

// FormatFromExt maps a file extension to a format.  Unknown extensions yield
// FormatUnknown.
func FormatFromExt(path string) core.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".jpe":
		return core.FormatJPEG
	case ".png":
		return core.FormatPNG
	case ".gif":
		return core.FormatGIF
	case ".webp":
		return core.FormatWebP
	case ".bmp":
		return core.FormatBMP
	case ".tif", ".tiff":
		return core.FormatTIFF
	case ".avif":
		return core.FormatAVIF
	}
	return core.FormatUnknown
}

// ParseOutputSpec splits an optional ":quality" suffix off an output path,
// e.g. "thumb.jpg:75".  quality is 0 when no suffix is present.  A colon
// followed by anything other than digits is treated as part of the path.
func ParseOutputSpec(spec string) (path string, quality int, err error) {
	i := strings.LastIndexByte(spec, ':')
	if i < 0 || i == len(spec)-1 {
		return spec, 0, nil
	}
	suffix := spec[i+1:]
	for _, c := range suffix {
		if c < '0' || c > '9' {
			return spec, 0, nil
		}
	}
	q, err := strconv.Atoi(suffix)
	if err != nil || q < 1 || q > 100 {
		return "", 0, fmt.Errorf("output quality %q out of range 1-100", suffix)
	}
	return spec[:i], q, nil
}
