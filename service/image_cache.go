package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/store"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const (
	cachedImageMaxSide = 1600
	cachedImageQuality = 80
)

// Upload slots of the ID verification step.
const (
	ImageFieldIDFront = "idFront"
	ImageFieldIDBack  = "idBack"
)

// ErrInvalidImageField is returned for a field that is not an upload slot.
var ErrInvalidImageField = fmt.Errorf("image field must be %q or %q", ImageFieldIDFront, ImageFieldIDBack)

// ValidImageField reports whether field names an upload slot.
func ValidImageField(field string) bool {
	return field == ImageFieldIDFront || field == ImageFieldIDBack
}

// ImageCache keeps a downscaled JPEG copy of each uploaded image per session
// so an interrupted upload step can be restored.
type ImageCache struct {
	store     store.KeyValueStore
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewImageCache creates an ImageCache whose entries live for retention.
func NewImageCache(kv store.KeyValueStore, retention time.Duration, logger *zap.Logger) *ImageCache {
	return &ImageCache{store: kv, retention: retention, logger: logger, now: time.Now}
}

// Put stores data under field, replacing any previous image for that field.
func (c *ImageCache) Put(ctx context.Context, sessionID, field string, data []byte, mimeType string) (*dto.CachedImageMeta, error) {
	if !ValidImageField(field) {
		return nil, ErrInvalidImageField
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image for cache: %w", err)
	}
	b := img.Bounds()
	if b.Dx() > cachedImageMaxSide || b.Dy() > cachedImageMaxSide {
		img = imaging.Fit(img, cachedImageMaxSide, cachedImageMaxSide, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(cachedImageQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode cached image: %w", err)
	}

	meta := &dto.CachedImageMeta{
		Field:         field,
		MIMEType:      mimeType,
		Width:         img.Bounds().Dx(),
		Height:        img.Bounds().Dy(),
		OriginalBytes: len(data),
		StoredBytes:   buf.Len(),
		StoredAt:      c.now().UTC(),
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(ctx, store.ImageKey(sessionID, field), base64.StdEncoding.EncodeToString(buf.Bytes()), c.retention); err != nil {
		return nil, fmt.Errorf("failed to cache image: %w", err)
	}
	if err := c.store.Set(ctx, store.ImageMetaKey(sessionID, field), string(metaJSON), c.retention); err != nil {
		return nil, fmt.Errorf("failed to cache image metadata: %w", err)
	}
	if err := c.addToIndex(ctx, sessionID, field); err != nil {
		c.logger.Warn("failed to update image index", zap.String("session_id", sessionID), zap.Error(err))
	}
	return meta, nil
}

// Get returns the cached JPEG and its metadata. store.ErrNotFound is
// returned when nothing is cached.
func (c *ImageCache) Get(ctx context.Context, sessionID, field string) ([]byte, *dto.CachedImageMeta, error) {
	if !ValidImageField(field) {
		return nil, nil, ErrInvalidImageField
	}
	encoded, err := c.store.Get(ctx, store.ImageKey(sessionID, field))
	if err != nil {
		return nil, nil, err
	}
	rawMeta, err := c.store.Get(ctx, store.ImageMetaKey(sessionID, field))
	if err != nil {
		return nil, nil, err
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, nil, fmt.Errorf("cached image is corrupt: %w", err)
	}
	var meta dto.CachedImageMeta
	if err := json.Unmarshal([]byte(rawMeta), &meta); err != nil {
		return nil, nil, fmt.Errorf("cached image metadata is corrupt: %w", err)
	}
	return data, &meta, nil
}

func (c *ImageCache) addToIndex(ctx context.Context, sessionID, field string) error {
	fields := readImageIndex(ctx, c.store, sessionID)
	for _, f := range fields {
		if f == field {
			return nil
		}
	}
	raw, err := json.Marshal(append(fields, field))
	if err != nil {
		return err
	}
	return c.store.Set(ctx, store.ImageIndexKey(sessionID), string(raw), c.retention)
}
