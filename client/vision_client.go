package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const (
	imageDetail         = "high"
	minIDNumberLength   = 5
	followUpNoneAnswer  = "NONE"
	followUpProvenance  = " ID number located in a focused second pass."
	defaultMaxTokens    = 1000
	defaultFollowUpToks = 50
)

// ProgressFunc receives coarse extraction progress. It may be nil.
type ProgressFunc func(stage string, percent int)

// VisionConfig configures NewVisionClient. Zero token limits use the defaults.
type VisionConfig struct {
	APIKey            string
	Model             string
	BaseURL           string
	Timeout           time.Duration
	MaxTokens         int
	FollowUpMaxTokens int
}

// VisionClient extracts ID fields with a vision-capable chat model.
type VisionClient struct {
	llm               llms.Model
	model             string
	maxTokens         int
	followUpMaxTokens int
	logger            *zap.Logger
}

// NewVisionClient builds an OpenAI-backed client. A missing API key is
// reported as an OCRError with ErrCodeMissingCredentials.
func NewVisionClient(cfg VisionConfig, logger *zap.Logger) (*VisionClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, NewOCRError(ErrCodeMissingCredentials, "vision model API key is not configured", "", nil)
	}

	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision model client: %w", err)
	}

	c := NewVisionClientWithModel(llm, cfg.Model, logger)
	if cfg.MaxTokens > 0 {
		c.maxTokens = cfg.MaxTokens
	}
	if cfg.FollowUpMaxTokens > 0 {
		c.followUpMaxTokens = cfg.FollowUpMaxTokens
	}
	return c, nil
}

// NewVisionClientWithModel wraps an existing model.
func NewVisionClientWithModel(llm llms.Model, model string, logger *zap.Logger) *VisionClient {
	return &VisionClient{
		llm:               llm,
		model:             model,
		maxTokens:         defaultMaxTokens,
		followUpMaxTokens: defaultFollowUpToks,
		logger:            logger,
	}
}

// ExtractIDInfo reads the ID fields from a base64 image or data URL. When the
// first answer has no usable ID number a second, narrower prompt asks for the
// number alone.
func (c *VisionClient) ExtractIDInfo(ctx context.Context, imageBase64 string, progress ProgressFunc) (*dto.ExtractedIDData, error) {
	report := func(stage string, pct int) {
		if progress != nil {
			progress(stage, pct)
		}
	}

	imageURL := toDataURL(imageBase64)
	report("analyzing", 20)

	content, err := c.generate(ctx, buildExtractionPrompt(), imageURL, c.maxTokens)
	if err != nil {
		return nil, err
	}

	report("parsing", 60)
	data, err := parseExtraction(content)
	if err != nil {
		c.logger.Warn("vision model returned unusable content", zap.Error(err))
		return nil, err
	}

	if len(strings.TrimSpace(data.IDNumber)) < minIDNumberLength {
		report("locating_id_number", 75)
		c.locateIDNumber(ctx, imageURL, data)
	}

	report("complete", 100)
	return data, nil
}

// locateIDNumber runs the follow-up prompt. Failures keep the first-pass result.
func (c *VisionClient) locateIDNumber(ctx context.Context, imageURL string, data *dto.ExtractedIDData) {
	answer, err := c.generate(ctx, buildFollowUpPrompt(data.IDType), imageURL, c.followUpMaxTokens)
	if err != nil {
		c.logger.Warn("ID number follow-up failed", zap.Error(err))
		return
	}

	answer = strings.Trim(strings.TrimSpace(stripCodeFences(answer)), "\"'`.")
	if strings.EqualFold(answer, followUpNoneAnswer) || len(answer) <= minIDNumberLength {
		c.logger.Debug("follow-up found no ID number", zap.String("answer", answer))
		return
	}

	data.IDNumber = answer
	data.Explanation = strings.TrimSpace(data.Explanation + followUpProvenance)
}

func (c *VisionClient) generate(ctx context.Context, prompt, imageURL string, maxTokens int) (string, error) {
	resp, err := c.llm.GenerateContent(ctx, []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt),
				llms.ImageURLWithDetailPart(imageURL, imageDetail),
			},
		},
	}, llms.WithMaxTokens(maxTokens), llms.WithTemperature(0))
	if err != nil {
		return "", NewOCRError(ErrCodeServiceFailure, "vision model request failed", "", err)
	}
	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", NewOCRError(ErrCodeEmptyResponse, "vision model returned no content", "", nil)
	}
	return resp.Choices[0].Content, nil
}

type extractionPayload struct {
	Name        string          `json:"name"`
	Address     string          `json:"address"`
	IDNumber    string          `json:"idNumber"`
	IDType      string          `json:"idType"`
	BirthDate   string          `json:"birthDate"`
	Confidence  json.RawMessage `json:"confidence"`
	Explanation string          `json:"explanation"`
}

func parseExtraction(content string) (*dto.ExtractedIDData, error) {
	cleaned := stripCodeFences(content)
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, NewOCRError(ErrCodeNonJSONResponse, "vision model did not answer with JSON", content, nil)
	}

	var payload extractionPayload
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &payload); err != nil {
		return nil, NewOCRError(ErrCodeInvalidJSON, "vision model JSON could not be decoded", content, err)
	}

	return &dto.ExtractedIDData{
		Name:        strings.TrimSpace(payload.Name),
		Address:     strings.TrimSpace(payload.Address),
		IDNumber:    strings.TrimSpace(payload.IDNumber),
		IDType:      strings.TrimSpace(payload.IDType),
		BirthDate:   strings.TrimSpace(payload.BirthDate),
		Confidence:  parseConfidence(payload.Confidence),
		Explanation: strings.TrimSpace(payload.Explanation),
	}, nil
}

// parseConfidence accepts a number or a numeric string and clamps to 0-100.
// Values at or below 1 are treated as fractions.
func parseConfidence(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		if _, err := fmt.Sscanf(strings.TrimSuffix(strings.TrimSpace(s), "%"), "%g", &f); err != nil {
			return 0
		}
	}
	if f > 0 && f <= 1 {
		f *= 100
	}
	return int(math.Max(0, math.Min(100, math.Round(f))))
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.Index(s, "\n"); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func toDataURL(imageBase64 string) string {
	s := strings.TrimSpace(imageBase64)
	if strings.HasPrefix(s, "data:") {
		return s
	}
	return "data:image/jpeg;base64," + s
}
