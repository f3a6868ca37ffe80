package generator

import (
	"context"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// --- Mocks ---

type mockHTTPClient struct {
	data    []byte
	err     error
	fetched []string
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.fetched = append(m.fetched, url)
	return m.data, m.err
}

type mockDescriber struct {
	describeFunc func(ctx context.Context, img SourceImage, instruction string) (string, error)
	calls        int
}

func (m *mockDescriber) Describe(ctx context.Context, img SourceImage, instruction string) (string, error) {
	m.calls++
	if m.describeFunc != nil {
		return m.describeFunc(ctx, img, instruction)
	}
	return "a cat", nil
}

type mockGenerator struct {
	generateFunc func(ctx context.Context, prompt string) (*Result, error)
	calls        int
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (*Result, error) {
	m.calls++
	if m.generateFunc != nil {
		return m.generateFunc(ctx, prompt)
	}
	return &Result{URL: "https://8.8.8.8/out.png"}, nil
}

type mockEditor struct {
	editFunc func(ctx context.Context, img SourceImage, prompt string) (*Result, error)
	calls    int
}

func (m *mockEditor) Edit(ctx context.Context, img SourceImage, prompt string) (*Result, error) {
	m.calls++
	if m.editFunc != nil {
		return m.editFunc(ctx, img, prompt)
	}
	return &Result{Data: []byte("edited")}, nil
}

type mockStrategy struct {
	applyFunc func(ctx context.Context, img SourceImage, prompt string) (*Outcome, error)
}

func (m *mockStrategy) Name() string { return "mock" }

func (m *mockStrategy) Apply(ctx context.Context, img SourceImage, prompt string) (*Outcome, error) {
	return m.applyFunc(ctx, img, prompt)
}

// mockAIClient は GenerateWithParts だけを差し替えます。他のメソッドは呼ばれない前提なのだ。
type mockAIClient struct {
	gemini.GenerativeModel
	generateFunc func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
}

func (m *mockAIClient) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	return m.generateFunc(ctx, model, parts, opts)
}

// allowAll は httptest サーバー (ループバック) へのアクセスを許可する検証関数です。
func allowAll(string) (bool, error) { return true, nil }
