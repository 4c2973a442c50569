package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// scriptedModel answers GenerateContent calls from a fixed list.
type scriptedModel struct {
	answers []string
	errs    []error
	prompts []string
	images  []llms.ImageURLContent
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	i := len(m.prompts)
	for _, part := range messages[0].Parts {
		switch p := part.(type) {
		case llms.TextContent:
			m.prompts = append(m.prompts, p.Text)
		case llms.ImageURLContent:
			m.images = append(m.images, p)
		}
	}
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.answers) {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.answers[i]}}}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

const philIDAnswer = "```json\n" + `{
  "name": "DELA CRUZ, JUAN MIGUEL",
  "address": "123 Rizal St, Quezon City",
  "idNumber": "1234-5678-9012-3456",
  "idType": "Philippine National ID",
  "birthDate": "1990-01-15",
  "confidence": 92,
  "explanation": "Clear photo"
}` + "\n```"

func TestExtractIDInfo_SinglePass(t *testing.T) {
	model := &scriptedModel{answers: []string{philIDAnswer}}
	c := NewVisionClientWithModel(model, "gpt-4o", zap.NewNop())

	var stages []string
	data, err := c.ExtractIDInfo(context.Background(), "aGVsbG8=", func(stage string, pct int) {
		stages = append(stages, stage)
	})
	require.NoError(t, err)

	assert.Equal(t, "DELA CRUZ, JUAN MIGUEL", data.Name)
	assert.Equal(t, "1234-5678-9012-3456", data.IDNumber)
	assert.Equal(t, 92, data.Confidence)
	assert.Len(t, model.prompts, 1)
	require.Len(t, model.images, 1)
	assert.Equal(t, "high", model.images[0].Detail)
	assert.True(t, strings.HasPrefix(model.images[0].URL, "data:image/jpeg;base64,"))
	assert.Equal(t, "complete", stages[len(stages)-1])
}

func TestExtractIDInfo_FollowUpFindsNumber(t *testing.T) {
	first := `{"name":"REYES, ANA","idNumber":"","idType":"Driver's License","confidence":70,"explanation":"Number obscured"}`
	model := &scriptedModel{answers: []string{first, "N01-23-456789"}}
	c := NewVisionClientWithModel(model, "gpt-4o", zap.NewNop())

	data, err := c.ExtractIDInfo(context.Background(), "data:image/png;base64,aGVsbG8=", nil)
	require.NoError(t, err)

	assert.Equal(t, "N01-23-456789", data.IDNumber)
	assert.Contains(t, data.Explanation, "second pass")
	require.Len(t, model.prompts, 2)
	assert.Contains(t, model.prompts[1], "Driver's License")
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", model.images[1].URL)
}

func TestExtractIDInfo_FollowUpNone(t *testing.T) {
	first := `{"name":"REYES, ANA","idNumber":"12","idType":"Postal ID","confidence":55}`
	model := &scriptedModel{answers: []string{first, "NONE"}}
	c := NewVisionClientWithModel(model, "gpt-4o", zap.NewNop())

	data, err := c.ExtractIDInfo(context.Background(), "aGVsbG8=", nil)
	require.NoError(t, err)

	assert.Equal(t, "12", data.IDNumber)
	assert.NotContains(t, data.Explanation, "second pass")
}

func TestExtractIDInfo_FollowUpFailureKeepsFirstPass(t *testing.T) {
	first := `{"name":"REYES, ANA","idNumber":"","confidence":55}`
	model := &scriptedModel{answers: []string{first}, errs: []error{nil, errors.New("rate limited")}}
	c := NewVisionClientWithModel(model, "gpt-4o", zap.NewNop())

	data, err := c.ExtractIDInfo(context.Background(), "aGVsbG8=", nil)
	require.NoError(t, err)
	assert.Equal(t, "REYES, ANA", data.Name)
}

func TestExtractIDInfo_NonJSON(t *testing.T) {
	model := &scriptedModel{answers: []string{"I cannot read this image."}}
	c := NewVisionClientWithModel(model, "gpt-4o", zap.NewNop())

	_, err := c.ExtractIDInfo(context.Background(), "aGVsbG8=", nil)

	var ocrErr *OCRError
	require.ErrorAs(t, err, &ocrErr)
	assert.Equal(t, ErrCodeNonJSONResponse, ocrErr.Code)
	assert.Equal(t, "I cannot read this image.", ocrErr.RawContent)
}

func TestExtractIDInfo_InvalidJSON(t *testing.T) {
	model := &scriptedModel{answers: []string{`{"name": "A",}`}}
	c := NewVisionClientWithModel(model, "gpt-4o", zap.NewNop())

	_, err := c.ExtractIDInfo(context.Background(), "aGVsbG8=", nil)

	var ocrErr *OCRError
	require.ErrorAs(t, err, &ocrErr)
	assert.Equal(t, ErrCodeInvalidJSON, ocrErr.Code)
}

func TestExtractIDInfo_ServiceFailure(t *testing.T) {
	model := &scriptedModel{errs: []error{errors.New("502 bad gateway")}}
	c := NewVisionClientWithModel(model, "gpt-4o", zap.NewNop())

	_, err := c.ExtractIDInfo(context.Background(), "aGVsbG8=", nil)

	var ocrErr *OCRError
	require.ErrorAs(t, err, &ocrErr)
	assert.Equal(t, ErrCodeServiceFailure, ocrErr.Code)
}

func TestNewVisionClient_MissingCredentials(t *testing.T) {
	_, err := NewVisionClient(VisionConfig{Model: "gpt-4o"}, zap.NewNop())

	var ocrErr *OCRError
	require.ErrorAs(t, err, &ocrErr)
	assert.Equal(t, ErrCodeMissingCredentials, ocrErr.Code)
}

func TestNewVisionClient_OpenAIRoundTrip(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	content := `{"name":"SANTOS, MARIA","idNumber":"P1234567A","idType":"Passport","confidence":0.9}`
	httpmock.RegisterResponder(http.MethodPost, "https://llm.test/v1/chat/completions",
		func(req *http.Request) (*http.Response, error) {
			body := map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion",
				"created": 1700000000,
				"model":   "gpt-4o",
				"choices": []map[string]any{{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": content},
					"finish_reason": "stop",
				}},
				"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 10, "total_tokens": 20},
			}
			return httpmock.NewJsonResponse(http.StatusOK, body)
		})

	c, err := NewVisionClient(VisionConfig{APIKey: "sk-test", Model: "gpt-4o", BaseURL: "https://llm.test/v1"}, zap.NewNop())
	require.NoError(t, err)

	data, err := c.ExtractIDInfo(context.Background(), "aGVsbG8=", nil)
	require.NoError(t, err)
	assert.Equal(t, "SANTOS, MARIA", data.Name)
	assert.Equal(t, 90, data.Confidence)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestParseConfidence(t *testing.T) {
	assert.Equal(t, 85, parseConfidence(json.RawMessage(`85`)))
	assert.Equal(t, 85, parseConfidence(json.RawMessage(`"85%"`)))
	assert.Equal(t, 75, parseConfidence(json.RawMessage(`0.75`)))
	assert.Equal(t, 100, parseConfidence(json.RawMessage(`140`)))
	assert.Equal(t, 0, parseConfidence(nil))
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, "NONE", stripCodeFences("```\nNONE\n```"))
	assert.Equal(t, "plain", stripCodeFences("  plain "))
}
