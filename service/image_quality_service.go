package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/metrics"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
)

// Names of the individual quality checks.
const (
	CheckFileSize    = "file_size"
	CheckFileType    = "file_type"
	CheckDimensions  = "dimensions"
	CheckAspectRatio = "aspect_ratio"
	CheckClarity     = "clarity"
)

// ImageFile is an uploaded image as received from the client.
type ImageFile struct {
	Filename string
	MIMEType string
	Data     []byte
	// Size is the declared upload size; len(Data) is used when zero.
	Size int64
}

func (f ImageFile) size() int64 {
	if f.Size > 0 {
		return f.Size
	}
	return int64(len(f.Data))
}

// QualityConfig holds the limits applied by ValidateImageQuality.
type QualityConfig struct {
	MaxFileSize   int64
	MinFileSize   int64
	MinWidth      int
	MinHeight     int
	OptimalWidth  int
	OptimalHeight int
	MinAspect     float64
	MaxAspect     float64
	// Luma bounds and minimum standard deviation for the clarity sample.
	MaxBrightness float64
	MinBrightness float64
	MinContrast   float64
}

// DefaultQualityConfig accepts photos of 50 KB to 10 MB and at least 800x600.
func DefaultQualityConfig() QualityConfig {
	return QualityConfig{
		MaxFileSize:   10 * 1024 * 1024,
		MinFileSize:   50 * 1024,
		MinWidth:      800,
		MinHeight:     600,
		OptimalWidth:  1200,
		OptimalHeight: 800,
		MinAspect:     0.5,
		MaxAspect:     2.0,
		MaxBrightness: 230,
		MinBrightness: 50,
		MinContrast:   30,
	}
}

// knownAspectRatios are width/height ratios of common ID documents in either orientation.
var knownAspectRatios = []float64{
	1.586, // ID-1 card (PhilID, license, UMID)
	0.631,
	1.42, // passport data page
	0.70,
	1.37, // passport card
}

var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// ImageQualityService scores uploaded ID photos before any OCR is spent on them.
type ImageQualityService struct {
	cfg    QualityConfig
	logger *zap.Logger
}

// NewImageQualityService creates a new ImageQualityService instance
func NewImageQualityService(cfg QualityConfig, logger *zap.Logger) *ImageQualityService {
	return &ImageQualityService{cfg: cfg, logger: logger}
}

// ValidateImageQuality runs all checks on file. Only context cancellation
// produces an error; bad images yield a low-scoring result.
func (s *ImageQualityService) ValidateImageQuality(ctx context.Context, file ImageFile) (*dto.ImageQualityResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &dto.ImageQualityResult{
		Checks:      []dto.QualityCheck{},
		Warnings:    []string{},
		Suggestions: []string{},
	}

	sizeCheck := s.checkFileSize(file, result)
	result.Checks = append(result.Checks, sizeCheck)
	if file.size() > s.cfg.MaxFileSize {
		return s.reject(result), nil
	}

	detected := mimetype.Detect(file.Data)
	typeCheck := s.checkFileType(file, detected.String(), result)
	result.Checks = append(result.Checks, typeCheck)
	if !typeCheck.Passed {
		return s.reject(result), nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(file.Data))
	if err != nil {
		result.Checks = append(result.Checks, dto.QualityCheck{
			Name:    CheckDimensions,
			Passed:  false,
			Score:   0,
			Message: "The image could not be read",
		})
		result.Suggestions = append(result.Suggestions, "Upload a JPEG, PNG or WebP photo of your ID")
		return s.finish(result), nil
	}

	dimCheck := s.checkDimensions(cfg.Width, cfg.Height, result)
	result.Checks = append(result.Checks, dimCheck)
	result.Checks = append(result.Checks, s.checkAspectRatio(cfg.Width, cfg.Height, result))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(file.Data))
	if err != nil {
		s.logger.Warn("image decode failed after header decode", zap.String("filename", file.Filename), zap.Error(err))
		result.Checks = append(result.Checks, dto.QualityCheck{
			Name:    CheckClarity,
			Passed:  false,
			Score:   0,
			Message: "The image data is corrupted",
		})
		return s.finish(result), nil
	}
	result.Checks = append(result.Checks, s.checkClarity(img, result))

	return s.finish(result), nil
}

func (s *ImageQualityService) checkFileSize(file ImageFile, result *dto.ImageQualityResult) dto.QualityCheck {
	size := file.size()
	check := dto.QualityCheck{Name: CheckFileSize, Passed: true, Score: 100, Message: "File size is fine"}

	switch {
	case size > s.cfg.MaxFileSize:
		check.Passed = false
		check.Score = 0
		check.Message = fmt.Sprintf("File is %s, the limit is %s", humanBytes(size), humanBytes(s.cfg.MaxFileSize))
		result.Warnings = append(result.Warnings, "The image is too large to upload")
		result.Suggestions = append(result.Suggestions, "Lower the camera resolution or compress the photo below 10MB")
	case size < s.cfg.MinFileSize:
		check.Score = 50
		check.Message = fmt.Sprintf("File is only %s and may be heavily compressed", humanBytes(size))
		result.Warnings = append(result.Warnings, "The image file is very small and may lack detail")
		result.Suggestions = append(result.Suggestions, "Use the original photo instead of a screenshot or thumbnail")
	}
	return check
}

func (s *ImageQualityService) checkFileType(file ImageFile, detected string, result *dto.ImageQualityResult) dto.QualityCheck {
	check := dto.QualityCheck{Name: CheckFileType, Passed: true, Score: 100, Message: "Supported image type " + detected}
	if !supportedImageTypes[detected] {
		check.Passed = false
		check.Score = 0
		check.Message = fmt.Sprintf("Unsupported file type %s", detected)
		result.Warnings = append(result.Warnings, "The file is not a supported image")
		result.Suggestions = append(result.Suggestions, "Upload a JPEG, PNG or WebP photo of your ID")
		return check
	}
	declared := strings.ToLower(strings.TrimSpace(file.MIMEType))
	if declared != "" && declared != detected && !(declared == "image/jpg" && detected == "image/jpeg") {
		s.logger.Debug("declared MIME type differs from content",
			zap.String("declared", declared), zap.String("detected", detected))
	}
	return check
}

// checkDimensions ignores orientation: the long side is compared with the
// long minimum and the short side with the short minimum.
func (s *ImageQualityService) checkDimensions(w, h int, result *dto.ImageQualityResult) dto.QualityCheck {
	long, short := w, h
	if short > long {
		long, short = short, long
	}
	minLong, minShort := s.cfg.MinWidth, s.cfg.MinHeight
	optLong, optShort := s.cfg.OptimalWidth, s.cfg.OptimalHeight

	check := dto.QualityCheck{Name: CheckDimensions, Message: fmt.Sprintf("%dx%d pixels", w, h)}
	if long < minLong || short < minShort {
		ratio := math.Min(float64(long)/float64(minLong), float64(short)/float64(minShort))
		check.Score = int(math.Min(59, math.Round(60*ratio)))
		check.Message = fmt.Sprintf("%dx%d is below the %dx%d minimum", w, h, minLong, minShort)
		result.Warnings = append(result.Warnings, "The image resolution is too low to read the ID reliably")
		result.Suggestions = append(result.Suggestions, "Move closer so the ID fills the frame, or use a higher camera resolution")
		return check
	}

	check.Passed = true
	ratio := math.Min(float64(long)/float64(optLong), float64(short)/float64(optShort))
	check.Score = clampScore(int(math.Round(100*ratio)), 70, 100)
	return check
}

func (s *ImageQualityService) checkAspectRatio(w, h int, result *dto.ImageQualityResult) dto.QualityCheck {
	check := dto.QualityCheck{Name: CheckAspectRatio}
	if h == 0 {
		check.Message = "Image has no height"
		return check
	}
	ratio := float64(w) / float64(h)
	check.Message = fmt.Sprintf("Aspect ratio %.2f", ratio)

	if ratio < s.cfg.MinAspect || ratio > s.cfg.MaxAspect {
		check.Score = 30
		result.Warnings = append(result.Warnings, "The image is unusually narrow or wide for an ID")
		result.Suggestions = append(result.Suggestions, "Frame the whole ID card without extra background")
		return check
	}

	nearest := math.MaxFloat64
	for _, known := range knownAspectRatios {
		if d := math.Abs(ratio - known); d < nearest {
			nearest = d
		}
	}
	check.Passed = true
	check.Score = clampScore(int(math.Round(100-nearest*150)), 60, 100)
	return check
}

// checkClarity samples the centered square and scores brightness and contrast.
func (s *ImageQualityService) checkClarity(img image.Image, result *dto.ImageQualityResult) dto.QualityCheck {
	mean, stddev := lumaStats(img)
	check := dto.QualityCheck{
		Name:    CheckClarity,
		Score:   100,
		Message: fmt.Sprintf("Brightness %.0f, contrast %.0f", mean, stddev),
	}

	if mean > s.cfg.MaxBrightness {
		check.Score -= 40
		result.Warnings = append(result.Warnings, "The image is overexposed")
		result.Suggestions = append(result.Suggestions, "Avoid direct light and glare on the card")
	}
	if mean < s.cfg.MinBrightness {
		check.Score -= 40
		result.Warnings = append(result.Warnings, "The image is too dark")
		result.Suggestions = append(result.Suggestions, "Take the photo in a brighter place")
	}
	if stddev < s.cfg.MinContrast {
		check.Score -= 30
		result.Warnings = append(result.Warnings, "The image has low contrast and may be blurry")
		result.Suggestions = append(result.Suggestions, "Hold the camera steady and tap to focus on the ID")
	}
	check.Score = clampScore(check.Score, 0, 100)
	check.Passed = check.Score >= 60
	return check
}

// lumaStats returns the mean and standard deviation of 8-bit luma over a
// centered square covering half of the shorter side, sampled on a grid of at
// most 200x200 points.
func lumaStats(img image.Image) (mean, stddev float64) {
	b := img.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	side /= 2
	if side < 1 {
		side = 1
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	step := side / 200
	if step < 1 {
		step = 1
	}

	var sum, sumSq float64
	var n int
	for y := y0; y < y0+side; y += step {
		for x := x0; x < x0+side; x += step {
			r, g, bl, _ := img.At(x, y).RGBA()
			l := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)) / 257
			sum += l
			sumSq += l * l
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	mean = sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

func (s *ImageQualityService) reject(result *dto.ImageQualityResult) *dto.ImageQualityResult {
	result.Score = 0
	result.Overall = dto.QualityUnacceptable
	result.CanProceed = false
	metrics.ImageQualityChecks.WithLabelValues(result.Overall).Inc()
	return result
}

func (s *ImageQualityService) finish(result *dto.ImageQualityResult) *dto.ImageQualityResult {
	total := 0
	for _, c := range result.Checks {
		total += c.Score
	}
	if len(result.Checks) > 0 {
		result.Score = int(math.Round(float64(total) / float64(len(result.Checks))))
	}
	result.Overall = overallBucket(result.Score)

	required := true
	for _, name := range []string{CheckFileSize, CheckFileType, CheckDimensions} {
		if c := result.Check(name); c == nil || !c.Passed {
			required = false
		}
	}
	result.CanProceed = required && result.Score >= 60

	metrics.ImageQualityChecks.WithLabelValues(result.Overall).Inc()
	return result
}

func overallBucket(score int) string {
	switch {
	case score >= 90:
		return dto.QualityExcellent
	case score >= 75:
		return dto.QualityGood
	case score >= 60:
		return dto.QualityAcceptable
	case score >= 40:
		return dto.QualityPoor
	default:
		return dto.QualityUnacceptable
	}
}

func clampScore(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func humanBytes(n int64) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.1fMB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.0fKB", float64(n)/1024)
	default:
		return fmt.Sprintf("%dB", n)
	}
}
