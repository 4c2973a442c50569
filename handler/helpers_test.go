package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/Aashish23092/solar-id-intake/client"
	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVision struct {
	data  *dto.ExtractedIDData
	err   error
	calls int
}

func (s *stubVision) ExtractIDInfo(ctx context.Context, imageBase64 string, progress client.ProgressFunc) (*dto.ExtractedIDData, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	copied := *s.data
	return &copied, nil
}

func fastRetry() service.RetryOptions {
	opts := service.DefaultRetryOptions()
	opts.MaxRetries = 1
	opts.BaseDelay = time.Millisecond
	opts.MaxDelay = time.Millisecond
	return opts
}

// newOCRService passes a nil interface when vision is nil so AI is disabled.
func newOCRService(vision *stubVision) *service.OCRService {
	var extractor service.IDExtractor
	if vision != nil {
		extractor = vision
	}
	return service.NewOCRService(extractor, nil, service.NewRetryService(zap.NewNop()), fastRetry(), zap.NewNop())
}

func stripedImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(60)
			if (x/20)%2 == 1 {
				v = 180
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func jpegBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, jpeg.Encode(buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

// multipartRequest builds a form upload with the file under "file".
func multipartRequest(t *testing.T, path string, data []byte, mimeType string, fields map[string]string) *http.Request {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if data != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="id.jpg"`)
		h.Set("Content-Type", mimeType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, path string, v any) *http.Request {
	t.Helper()
	var body bytes.Buffer
	if v != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(v))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
