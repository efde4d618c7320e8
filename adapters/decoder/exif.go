package decoder

import (
	"bytes"

	"github.com/rwcarlsen/goexif/exif"
)

// Orientation returns the raw EXIF orientation tag found in data, or 1 when
// the data carries no readable EXIF.  Values outside 1-8 are returned as is;
// interpreting them is the caller's business.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		// Not a fatal error for non-JPEGs or images without EXIF
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orient, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orient
}
