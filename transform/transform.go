package transform

import (
	"fmt"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/Skryldev/image-transform/core"
	apperrors "github.com/Skryldev/image-transform/errors"
	"github.com/Skryldev/image-transform/utils"
)

// Resize scales buf into a width x height box.  With crop the image covers
// the box and is centre-cropped to exactly width x height; without it the
// image fits inside the box with its aspect ratio kept.  Both directions,
// up and down, are allowed.  Every image allocated along the way, the
// intermediate cover image included, must fit lim.
func Resize(buf *core.ImageBuffer, width, height int, crop bool, filter imaging.ResampleFilter, lim utils.Limits) (*core.ImageBuffer, error) {
	if err := ValidateDimensions(width, height, lim); err != nil {
		return nil, err
	}
	srcW, srcH := buf.Width(), buf.Height()
	if crop {
		coverW, coverH := utils.CoverDimensions(srcW, srcH, width, height)
		if err := lim.Check(coverW, coverH); err != nil {
			return nil, apperrors.New(apperrors.KindInvalidDimension, "transform.resize",
				fmt.Errorf("crop %dx%d from %dx%d: %w", width, height, srcW, srcH, err))
		}
		scaled := buf.Image
		if coverW != srcW || coverH != srcH {
			scaled = imaging.Resize(buf.Image, coverW, coverH, filter)
		}
		return core.NewImageBuffer(imaging.CropCenter(scaled, width, height)), nil
	}
	dstW, dstH := utils.FitDimensions(srcW, srcH, width, height)
	if dstW == srcW && dstH == srcH {
		return core.NewImageBuffer(imaging.Clone(buf.Image)), nil
	}
	return core.NewImageBuffer(imaging.Resize(buf.Image, dstW, dstH, filter)), nil
}

// Rotate turns buf clockwise by degrees, which must be 0, 90, 180 or 270.
// Pixels are permuted, never resampled.
func Rotate(buf *core.ImageBuffer, degrees int) (*core.ImageBuffer, error) {
	if err := ValidateRotation(degrees); err != nil {
		return nil, err
	}
	switch degrees {
	case 90:
		return core.NewImageBuffer(imaging.Rotate270(buf.Image)), nil
	case 180:
		return core.NewImageBuffer(imaging.Rotate180(buf.Image)), nil
	case 270:
		return core.NewImageBuffer(imaging.Rotate90(buf.Image)), nil
	}
	return core.NewImageBuffer(imaging.Clone(buf.Image)), nil
}

// ValidateDimensions rejects non-positive target sizes and targets outside
// lim.
func ValidateDimensions(width, height int, lim utils.Limits) error {
	if width <= 0 || height <= 0 {
		return apperrors.New(apperrors.KindInvalidDimension, "transform.resize",
			fmt.Errorf("target %dx%d: both sides must be positive", width, height))
	}
	if err := lim.Check(width, height); err != nil {
		return apperrors.New(apperrors.KindInvalidDimension, "transform.resize",
			fmt.Errorf("target too large: %w", err))
	}
	return nil
}

// ValidateRotation accepts only quarter turns within one revolution.
func ValidateRotation(degrees int) error {
	switch degrees {
	case 0, 90, 180, 270:
		return nil
	}
	return apperrors.New(apperrors.KindUnsupportedRotation, "transform.rotate",
		fmt.Errorf("%d degrees: must be one of 0, 90, 180, 270", degrees))
}

// Filter maps a resampler name to an imaging filter.
func Filter(name string) (imaging.ResampleFilter, error) {
	switch strings.ToLower(name) {
	case "", "lanczos":
		return imaging.Lanczos, nil
	case "catmullrom":
		return imaging.CatmullRom, nil
	case "mitchell":
		return imaging.MitchellNetravali, nil
	case "linear":
		return imaging.Linear, nil
	case "box":
		return imaging.Box, nil
	case "nearest":
		return imaging.NearestNeighbor, nil
	}
	return imaging.ResampleFilter{}, apperrors.New(apperrors.KindConfig, "transform.filter",
		fmt.Errorf("unknown resampler %q", name))
}
