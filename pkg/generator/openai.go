package generator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

const (
	// DefaultOpenAIBaseURL は OpenAI API の既定のベース URL です。
	DefaultOpenAIBaseURL = "https://api.openai.com"

	stepVision   = "Vision"
	stepGenerate = "DALL-E"
	stepEdit     = "DALL-E Edit"

	maxErrorBodyBytes = 4096
)

// OpenAIConfig は OpenAI クライアントの設定です。
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	VisionModel string
	ImageModel  string
	EditModel   string
	// DescribeMaxTokens は説明文の最大トークン数です。
	DescribeMaxTokens int
	// ImageSize は生成画像の寸法 (例: "1024x1024") です。
	ImageSize  string
	HTTPClient *http.Client
}

// OpenAIClient は Vision・画像生成・画像編集の各エンドポイントを呼び出します。
type OpenAIClient struct {
	cfg OpenAIConfig
}

// NewOpenAIClient は既定値を補って OpenAIClient を生成します。
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.VisionModel == "" {
		cfg.VisionModel = "gpt-4o"
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = "dall-e-3"
	}
	if cfg.EditModel == "" {
		cfg.EditModel = "dall-e-2"
	}
	if cfg.DescribeMaxTokens <= 0 {
		cfg.DescribeMaxTokens = 300
	}
	if cfg.ImageSize == "" {
		cfg.ImageSize = "1024x1024"
	}
	return &OpenAIClient{cfg: cfg}
}

func (c *OpenAIClient) ready() error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return &CredentialError{Vendor: "OpenAI", EnvVar: "OPENAI_API_KEY"}
	}
	return nil
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string            `json:"role"`
	Content []chatContentPart `json:"content"`
}

type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type imageGenerationRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	N       int    `json:"n"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
}

type imageResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// Describe は Vision モデルに元画像の説明を依頼します。
func (c *OpenAIClient) Describe(ctx context.Context, img SourceImage, instruction string) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}

	reqBody := chatCompletionRequest{
		Model: c.cfg.VisionModel,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatContentPart{
				{Type: "text", Text: instruction},
				{Type: "image_url", ImageURL: &chatImageURL{URL: img.DataURI}},
			},
		}},
		MaxTokens: c.cfg.DescribeMaxTokens,
	}

	body, err := c.postJSON(ctx, stepVision, "/v1/chat/completions", reqBody)
	if err != nil {
		return "", err
	}

	var payload chatCompletionResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("Failed to parse Vision API response: %s", truncate(string(body), errorPreviewBytes))
	}
	if len(payload.Choices) == 0 || strings.TrimSpace(payload.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("Invalid Vision API response structure: %s", truncate(string(body), errorPreviewBytes))
	}
	return strings.TrimSpace(payload.Choices[0].Message.Content), nil
}

// Generate はテキストプロンプトから画像を生成します。
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (*Result, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	reqBody := imageGenerationRequest{
		Model:   c.cfg.ImageModel,
		Prompt:  prompt,
		N:       1,
		Size:    c.cfg.ImageSize,
		Quality: "standard",
	}
	body, err := c.postJSON(ctx, stepGenerate, "/v1/images/generations", reqBody)
	if err != nil {
		return nil, err
	}
	return parseOpenAIImage(stepGenerate, body)
}

// Edit は元画像を multipart で送り、編集済み画像を受け取ります。
// 送信する画像は 4MB 未満の PNG である必要があります。
func (c *OpenAIClient) Edit(ctx context.Context, img SourceImage, prompt string) (*Result, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"model":  c.cfg.EditModel,
		"prompt": prompt,
		"n":      "1",
		"size":   c.cfg.ImageSize,
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("build edit request: %w", err)
		}
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="image.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("build edit request: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, fmt.Errorf("build edit request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build edit request: %w", err)
	}

	body, err := c.do(ctx, stepEdit, "/v1/images/edits", mw.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}
	return parseOpenAIImage(stepEdit, body)
}

func (c *OpenAIClient) postJSON(ctx context.Context, step, path string, v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", step, err)
	}
	return c.do(ctx, step, path, "application/json", bytes.NewReader(payload))
}

// do はリクエストを送り、2xx であれば本文を返します。
// それ以外のステータスは UpstreamError になります。
func (c *OpenAIClient) do(ctx context.Context, step, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", step, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", step, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBodyBytes))
		slog.WarnContext(ctx, "上流APIがエラーを返しました", "step", step, "status", res.StatusCode, "body", truncate(string(errBody), logPreviewBytes))
		return nil, newUpstreamError(step, res.StatusCode, bytes.TrimSpace(errBody))
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", step, err)
	}
	slog.DebugContext(ctx, "上流APIの応答を受信しました", "step", step, "status", res.StatusCode, "body", truncate(string(data), logPreviewBytes))
	return data, nil
}

func parseOpenAIImage(step string, body []byte) (*Result, error) {
	var payload imageResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("Failed to parse %s API response: %s", step, truncate(string(body), errorPreviewBytes))
	}
	if len(payload.Data) == 0 {
		return nil, ErrNoImageGenerated
	}
	first := payload.Data[0]
	switch {
	case first.URL != "":
		return &Result{URL: first.URL}, nil
	case first.B64JSON != "":
		data, err := base64.StdEncoding.DecodeString(first.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("Failed to decode %s image data: %w", step, err)
		}
		return &Result{Data: data, MIMEType: "image/png"}, nil
	default:
		return nil, ErrNoImageGenerated
	}
}
