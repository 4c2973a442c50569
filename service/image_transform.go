package service

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

const (
	enhanceScale    = 1.2
	enhanceContrast = 1.2
	transformJPEGQ  = 92
)

// EnhanceImage upscales img by 1.2x and stretches each channel by 1.2
// around the midpoint.
func EnhanceImage(img image.Image) *image.NRGBA {
	b := img.Bounds()
	w := int(math.Round(float64(b.Dx()) * enhanceScale))
	h := int(math.Round(float64(b.Dy()) * enhanceScale))
	upscaled := imaging.Resize(img, w, h, imaging.Lanczos)
	return imaging.AdjustFunc(upscaled, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: stretchChannel(c.R),
			G: stretchChannel(c.G),
			B: stretchChannel(c.B),
			A: c.A,
		}
	})
}

func stretchChannel(v uint8) uint8 {
	out := (float64(v)-128)*enhanceContrast + 128
	return uint8(math.Max(0, math.Min(255, math.Round(out))))
}

// GrayscaleImage converts img to luma-weighted grayscale.
func GrayscaleImage(img image.Image) *image.NRGBA {
	return imaging.Grayscale(img)
}

// ApplyStrategy returns a new encoded image for the given retry strategy.
// The input slice is never modified.
func ApplyStrategy(strategy RetryStrategy, data []byte) ([]byte, error) {
	if strategy == StrategyRetry {
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image for %s: %w", strategy, err)
	}

	var transformed image.Image
	switch strategy {
	case StrategyEnhance:
		transformed = EnhanceImage(img)
	case StrategyFallback:
		transformed = GrayscaleImage(img)
	default:
		return nil, fmt.Errorf("unknown retry strategy %q", strategy)
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, transformed, imaging.JPEG, imaging.JPEGQuality(transformJPEGQ)); err != nil {
		return nil, fmt.Errorf("failed to encode %s image: %w", strategy, err)
	}
	return buf.Bytes(), nil
}
