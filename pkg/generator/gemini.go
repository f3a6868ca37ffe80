package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// GeminiClient は Gemini を使った説明と直接編集のクライアントなのだ。
type GeminiClient struct {
	aiClient   gemini.GenerativeModel
	textModel  string
	imageModel string
}

// NewGeminiClient は GeminiClient を初期化します。
// aiClient が nil の場合は呼び出し時に認証情報不足のエラーを返すのだ。
func NewGeminiClient(aiClient gemini.GenerativeModel, textModel, imageModel string) *GeminiClient {
	return &GeminiClient{
		aiClient:   aiClient,
		textModel:  textModel,
		imageModel: imageModel,
	}
}

func (g *GeminiClient) ready() error {
	if g.aiClient == nil {
		return &CredentialError{Vendor: "Gemini", EnvVar: "GEMINI_API_KEY"}
	}
	return nil
}

// Describe は画像の説明文を返します。
func (g *GeminiClient) Describe(ctx context.Context, img SourceImage, instruction string) (string, error) {
	if err := g.ready(); err != nil {
		return "", err
	}

	resp, err := g.aiClient.GenerateWithParts(ctx, g.textModel, imageParts(img, instruction), gemini.GenerateOptions{})
	if err != nil {
		return "", fmt.Errorf("Gemini説明生成エラー: %w", err)
	}

	var sb strings.Builder
	for _, part := range firstCandidateParts(rawResponse(resp)) {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	desc := strings.TrimSpace(sb.String())
	if desc == "" {
		return "", fmt.Errorf("Invalid Vision API response structure: no text in candidates")
	}
	slog.DebugContext(ctx, "Gemini説明を取得しました", "model", g.textModel, "description", truncate(desc, logPreviewBytes))
	return desc, nil
}

// Edit は元画像とプロンプトを一度に送り、編集済み画像を受け取ります。
func (g *GeminiClient) Edit(ctx context.Context, img SourceImage, prompt string) (*Result, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}

	resp, err := g.aiClient.GenerateWithParts(ctx, g.imageModel, imageParts(img, prompt), gemini.GenerateOptions{})
	if err != nil {
		return nil, fmt.Errorf("Gemini画像編集エラー: %w", err)
	}
	return parseImageResponse(rawResponse(resp))
}

// imageParts はテキスト指示と元画像を1リクエスト分のパーツにまとめます。
func imageParts(img SourceImage, text string) []*genai.Part {
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return []*genai.Part{
		{Text: text},
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: img.Data}},
	}
}

func rawResponse(resp *gemini.Response) *genai.GenerateContentResponse {
	if resp == nil {
		return nil
	}
	return resp.RawResponse
}

func firstCandidateParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return nil
	}
	return c.Content.Parts
}

// parseImageResponse は最初の候補からインライン画像を取り出します。
func parseImageResponse(resp *genai.GenerateContentResponse) (*Result, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil, ErrNoImageGenerated
	}

	candidate := resp.Candidates[0]
	for _, part := range firstCandidateParts(resp) {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return &Result{
				Data:     part.InlineData.Data,
				MIMEType: part.InlineData.MIMEType,
			}, nil
		}
	}

	switch candidate.FinishReason {
	case "", genai.FinishReasonUnspecified, genai.FinishReasonStop:
		return nil, ErrNoImageGenerated
	}
	return nil, fmt.Errorf("画像生成が中断されました (理由: %s): %w", candidate.FinishReason, ErrNoImageGenerated)
}
