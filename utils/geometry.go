package utils

import (
	"errors"
	"fmt"
	"math"
)

// ErrPixelLimit is returned by Limits.Check for sizes over a limit.
var ErrPixelLimit = errors.New("image exceeds the pixel limit")

// Limits bounds the size of any image the service allocates.  A zero field
// disables that bound.
type Limits struct {
	MaxDimension int   // longest allowed side
	MaxPixels    int64 // largest allowed width*height
}

// Check reports whether a width x height image fits the limits.  The pixel
// bound is tested by division so huge sides cannot overflow the product.
func (l Limits) Check(width, height int) error {
	if l.MaxDimension > 0 && (width > l.MaxDimension || height > l.MaxDimension) {
		return fmt.Errorf("%dx%d: side longer than %d: %w", width, height, l.MaxDimension, ErrPixelLimit)
	}
	if l.MaxPixels > 0 && width > 0 && int64(height) > l.MaxPixels/int64(width) {
		return fmt.Errorf("%dx%d: more than %d pixels: %w", width, height, l.MaxPixels, ErrPixelLimit)
	}
	return nil
}

// FitDimensions returns the largest size with the source aspect ratio that
// fits inside targetW x targetH.  The result may be larger than the source.
// Pass 0 for either axis to derive it from the other.
func FitDimensions(srcW, srcH, targetW, targetH int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return targetW, targetH
	}
	if targetW == 0 && targetH == 0 {
		return srcW, srcH
	}
	if targetW == 0 {
		return scaled(srcW, targetH, srcH), targetH
	}
	if targetH == 0 {
		return targetW, scaled(srcH, targetW, srcW)
	}
	// Compare targetW/srcW against targetH/srcH without floating point.
	if int64(targetW)*int64(srcH) <= int64(targetH)*int64(srcW) {
		return targetW, scaled(srcH, targetW, srcW)
	}
	return scaled(srcW, targetH, srcH), targetH
}

// CoverDimensions returns the smallest size with the source aspect ratio that
// covers targetW x targetH.  Cropping the result to the target fills it
// completely.
func CoverDimensions(srcW, srcH, targetW, targetH int) (int, int) {
	if srcW <= 0 || srcH <= 0 || targetW <= 0 || targetH <= 0 {
		return FitDimensions(srcW, srcH, targetW, targetH)
	}
	if int64(targetW)*int64(srcH) >= int64(targetH)*int64(srcW) {
		return targetW, max(scaled(srcH, targetW, srcW), targetH)
	}
	return max(scaled(srcW, targetH, srcH), targetW), targetH
}

// scaled returns v*num/den rounded to nearest, never below 1.
func scaled(v, num, den int) int {
	r := int(math.Round(float64(v) * float64(num) / float64(den)))
	if r < 1 {
		return 1
	}
	return r
}
