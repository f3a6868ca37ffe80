package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func imageResponseOf(parts ...*genai.Part) *gemini.Response {
	return &gemini.Response{
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: parts},
			}},
		},
	}
}

func TestGeminiClient_Edit(t *testing.T) {
	ctx := context.Background()
	src := SourceImage{Data: []byte("src"), MIMEType: "image/jpeg"}

	t.Run("成功: プロンプトと画像を1回の GenerateWithParts で送るのだ", func(t *testing.T) {
		ai := &mockAIClient{
			generateFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
				assert.Equal(t, "image-model", model)
				require.Len(t, parts, 2)
				assert.Equal(t, "flamify", parts[0].Text)
				assert.Equal(t, "image/jpeg", parts[1].InlineData.MIMEType)
				assert.Equal(t, []byte("src"), parts[1].InlineData.Data)
				return imageResponseOf(
					&genai.Part{Text: "here you go"},
					&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("out")}},
				), nil
			},
		}

		res, err := NewGeminiClient(ai, "text-model", "image-model").Edit(ctx, src, "flamify")
		require.NoError(t, err)
		assert.Equal(t, []byte("out"), res.Data)
		assert.Equal(t, "image/png", res.MIMEType)
	})

	t.Run("失敗: 画像パーツが無い場合は画像なしエラーなのだ", func(t *testing.T) {
		ai := &mockAIClient{
			generateFunc: func(context.Context, string, []*genai.Part, gemini.GenerateOptions) (*gemini.Response, error) {
				return imageResponseOf(&genai.Part{Text: "sorry"}), nil
			},
		}

		_, err := NewGeminiClient(ai, "t", "i").Edit(ctx, src, "p")
		assert.ErrorIs(t, err, ErrNoImageGenerated)
	})

	t.Run("失敗: FinishReason が異常（SAFETY等）な場合", func(t *testing.T) {
		ai := &mockAIClient{
			generateFunc: func(context.Context, string, []*genai.Part, gemini.GenerateOptions) (*gemini.Response, error) {
				return &gemini.Response{RawResponse: &genai.GenerateContentResponse{
					Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
				}}, nil
			},
		}

		_, err := NewGeminiClient(ai, "t", "i").Edit(ctx, src, "p")
		require.ErrorIs(t, err, ErrNoImageGenerated)
		assert.Contains(t, err.Error(), "SAFETY")
	})

	t.Run("失敗: FinishReason が空文字なら中断扱いにしないのだ", func(t *testing.T) {
		ai := &mockAIClient{
			generateFunc: func(context.Context, string, []*genai.Part, gemini.GenerateOptions) (*gemini.Response, error) {
				return imageResponseOf(&genai.Part{Text: "no image today"}), nil
			},
		}

		_, err := NewGeminiClient(ai, "t", "i").Edit(ctx, src, "p")
		require.ErrorIs(t, err, ErrNoImageGenerated)
		assert.Equal(t, "No image generated", err.Error())
	})

	t.Run("失敗: レスポンスが nil でも画像なしエラーなのだ", func(t *testing.T) {
		ai := &mockAIClient{
			generateFunc: func(context.Context, string, []*genai.Part, gemini.GenerateOptions) (*gemini.Response, error) {
				return nil, nil
			},
		}

		_, err := NewGeminiClient(ai, "t", "i").Edit(ctx, src, "p")
		assert.ErrorIs(t, err, ErrNoImageGenerated)
	})

	t.Run("失敗: API エラーはラップされるのだ", func(t *testing.T) {
		apiErr := errors.New("boom")
		ai := &mockAIClient{
			generateFunc: func(context.Context, string, []*genai.Part, gemini.GenerateOptions) (*gemini.Response, error) {
				return nil, apiErr
			},
		}

		_, err := NewGeminiClient(ai, "t", "i").Edit(ctx, src, "p")
		assert.ErrorIs(t, err, apiErr)
	})

	t.Run("失敗: クライアント未設定なら認証情報エラーなのだ", func(t *testing.T) {
		_, err := NewGeminiClient(nil, "t", "i").Edit(ctx, src, "p")
		require.ErrorIs(t, err, ErrMissingCredential)
		assert.Contains(t, err.Error(), "GEMINI_API_KEY")
	})
}

func TestGeminiClient_Describe(t *testing.T) {
	ctx := context.Background()

	t.Run("成功: テキストパーツを連結して返すのだ", func(t *testing.T) {
		ai := &mockAIClient{
			generateFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
				assert.Equal(t, "text-model", model)
				assert.Equal(t, VisionInstruction, parts[0].Text)
				return imageResponseOf(&genai.Part{Text: "a dog "}, &genai.Part{Text: "in a park"}), nil
			},
		}

		desc, err := NewGeminiClient(ai, "text-model", "i").Describe(ctx, SourceImage{Data: []byte("x")}, VisionInstruction)
		require.NoError(t, err)
		assert.Equal(t, "a dog in a park", desc)
	})

	t.Run("失敗: 候補が無い場合は構造エラーなのだ", func(t *testing.T) {
		ai := &mockAIClient{
			generateFunc: func(context.Context, string, []*genai.Part, gemini.GenerateOptions) (*gemini.Response, error) {
				return &gemini.Response{RawResponse: &genai.GenerateContentResponse{}}, nil
			},
		}

		_, err := NewGeminiClient(ai, "t", "i").Describe(ctx, SourceImage{}, VisionInstruction)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid Vision API response structure")
	})
}
