// Package transform holds the pure pixel operations applied between decode
// and encode: orientation normalisation, resize and rotate.  Every function
// returns a new buffer and leaves its input untouched.
package transform

import (
	"github.com/disintegration/imaging"

	"github.com/Skryldev/image-transform/core"
)

// Normalize turns buf upright according to meta.Orientation when autoOrient
// is set.  Orientation values outside 1-8 are treated as 1.  The returned
// metadata reports orientation 1 and the upright dimensions.
func Normalize(buf *core.ImageBuffer, meta core.Metadata, autoOrient bool) (*core.ImageBuffer, core.Metadata) {
	if !autoOrient {
		return buf, meta
	}
	img := buf.Image
	switch meta.Orientation {
	case 2:
		img = imaging.FlipH(img)
	case 3:
		img = imaging.Rotate180(img)
	case 4:
		img = imaging.FlipV(img)
	case 5:
		img = imaging.Transpose(img)
	case 6:
		// imaging rotates counter-clockwise; 270 CCW is 90 CW.
		img = imaging.Rotate270(img)
	case 7:
		img = imaging.Transverse(img)
	case 8:
		img = imaging.Rotate90(img)
	}
	out := meta
	out.Orientation = 1
	if img == buf.Image {
		return buf, out
	}
	nb := core.NewImageBuffer(img)
	out.Width, out.Height = nb.Width(), nb.Height()
	return nb, out
}
