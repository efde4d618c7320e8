//go:build vips

package vips

import "image/color"

// Header-only loads have no pixel model; these stand-ins carry the two facts
// Metadata derives from a model: colour space and alpha.

func grayModel(alpha bool) color.Model {
	if alpha {
		return color.NRGBAModel
	}
	return color.GrayModel
}

func rgbModel(alpha bool) color.Model {
	if alpha {
		return color.NRGBAModel
	}
	return color.YCbCrModel
}
