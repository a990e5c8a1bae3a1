package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	defaultVisionModel = "gemini-2.5-flash"
	defaultImageModel  = "gemini-3-pro-image-preview"

	// maxErrorPayload bounds how much of a raw error body travels with an error.
	maxErrorPayload = 400
)

type Options struct {
	APIKey      string
	BaseURL     string
	APIVersion  string
	VisionModel string
	ImageModel  string
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

type Client struct {
	apiKey      string
	baseURL     string
	apiVersion  string
	visionModel string
	imageModel  string
	httpClient  *http.Client
	logger      *slog.Logger
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "v1beta"
	}

	visionModel := strings.TrimSpace(opts.VisionModel)
	if visionModel == "" {
		visionModel = defaultVisionModel
	}

	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = defaultImageModel
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		apiKey:      opts.APIKey,
		baseURL:     baseURL,
		apiVersion:  apiVersion,
		visionModel: visionModel,
		imageModel:  imageModel,
		httpClient:  opts.HTTPClient,
		logger:      logger,
	}
}

func (c *Client) ImageModel() string {
	return c.imageModel
}

// SynthesisError is the only hard failure the generation pipeline surfaces:
// either the image call failed at transport level (Status + truncated Detail)
// or it succeeded without returning any inline image (FinishReason).
type SynthesisError struct {
	Status       string
	FinishReason string
	Detail       string
}

func (e *SynthesisError) Error() string {
	if e.FinishReason != "" {
		return fmt.Sprintf("gemini returned no image, finishReason=%s", e.FinishReason)
	}
	return fmt.Sprintf("gemini API %s: %s", e.Status, e.Detail)
}

// AnalyzeImage sends an instruction plus one inline image to the vision model
// and returns the first text part of the response.
func (c *Client) AnalyzeImage(ctx context.Context, instruction string, img ImageInput) (string, error) {
	req := generateContentRequest{
		Contents: []content{
			{Parts: []part{
				{Text: instruction},
				{InlineData: toBlob(img)},
			}},
		},
		GenerationConfig: &generationConfig{Temperature: 0.1},
	}

	resp, err := c.generateContent(ctx, c.visionModel, req)
	if err != nil {
		return "", err
	}
	return firstText(resp), nil
}

// GenerateText sends a text-only request and returns the first text part.
func (c *Client) GenerateText(ctx context.Context, instruction string, temperature float64) (string, error) {
	req := generateContentRequest{
		Contents:         []content{{Parts: []part{{Text: instruction}}}},
		GenerationConfig: &generationConfig{Temperature: temperature},
	}

	resp, err := c.generateContent(ctx, c.visionModel, req)
	if err != nil {
		return "", err
	}
	return firstText(resp), nil
}

// GenerateImage sends the instruction followed by each supplied image as an
// inline part, requesting image and text modalities, and returns the raw
// bytes of the first inline image found across all candidates. Both failure
// modes return *SynthesisError; neither is retried.
func (c *Client) GenerateImage(ctx context.Context, instruction string, images []ImageInput) ([]byte, error) {
	parts := make([]part, 0, len(images)+1)
	parts = append(parts, part{Text: instruction})
	for _, img := range images {
		parts = append(parts, part{InlineData: toBlob(img)})
	}

	req := generateContentRequest{
		Contents: []content{{Parts: parts}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}

	resp, err := c.generateContent(ctx, c.imageModel, req)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return nil, &SynthesisError{Status: se.status, Detail: se.body}
		}
		return nil, fmt.Errorf("image generation: %w", err)
	}

	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode image payload: %w", err)
			}
			return raw, nil
		}
	}

	finish := "N/A"
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
		finish = resp.Candidates[0].FinishReason
	}
	return nil, &SynthesisError{FinishReason: finish}
}

func (c *Client) generateContent(ctx context.Context, model string, payload generateContentRequest) (generateContentResponse, error) {
	if c.httpClient == nil {
		return generateContentResponse{}, errors.New("http client is nil")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		return generateContentResponse{}, &statusError{
			status: httpResp.Status,
			body:   truncate(strings.TrimSpace(string(rawBody)), maxErrorPayload),
		}
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return generateContentResponse{}, fmt.Errorf("decode response: %w", err)
	}

	return decoded, nil
}

func firstText(resp generateContentResponse) string {
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.Text != "" {
				return p.Text
			}
		}
	}
	return ""
}

func toBlob(img ImageInput) *blob {
	return &blob{
		Data:     base64.StdEncoding.EncodeToString(img.Data),
		MimeType: img.MimeType,
	}
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}

type statusError struct {
	status string
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gemini API %s: %s", e.status, e.body)
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature        float64  `json:"temperature,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
}
