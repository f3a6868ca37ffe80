package generator

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	// StrategyTwoStep は説明→生成の二段階方式です。
	StrategyTwoStep = "two-step"
	// StrategyOneStep は直接編集の一段階方式です。
	StrategyOneStep = "one-step"
)

// TwoStep は元画像を説明させ、その説明とプロンプトから新しい画像を生成します。
type TwoStep struct {
	describer   Describer
	generator   ImageGenerator
	instruction string
}

// NewTwoStep は TwoStep を生成します。
func NewTwoStep(describer Describer, generator ImageGenerator) (*TwoStep, error) {
	if describer == nil {
		return nil, fmt.Errorf("describer is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	return &TwoStep{describer: describer, generator: generator, instruction: VisionInstruction}, nil
}

func (s *TwoStep) Name() string { return StrategyTwoStep }

// Apply は説明に失敗した場合、生成を呼ばずにエラーを返します。
func (s *TwoStep) Apply(ctx context.Context, img SourceImage, prompt string) (*Outcome, error) {
	desc, err := s.describer.Describe(ctx, img, s.instruction)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "画像の説明を取得しました", "description", truncate(desc, logPreviewBytes))

	res, err := s.generator.Generate(ctx, ComposePrompt(desc, prompt))
	if err != nil {
		return nil, err
	}
	return &Outcome{Result: res, Description: desc}, nil
}

// ComposePrompt は説明文と変換プロンプトを連結します。
func ComposePrompt(description, prompt string) string {
	return description + ". " + prompt
}

// OneStep は元画像とプロンプトを編集エンドポイントへ一度に送ります。
type OneStep struct {
	editor ImageEditor
}

// NewOneStep は OneStep を生成します。
func NewOneStep(editor ImageEditor) (*OneStep, error) {
	if editor == nil {
		return nil, fmt.Errorf("editor is required")
	}
	return &OneStep{editor: editor}, nil
}

func (s *OneStep) Name() string { return StrategyOneStep }

func (s *OneStep) Apply(ctx context.Context, img SourceImage, prompt string) (*Outcome, error) {
	res, err := s.editor.Edit(ctx, img, prompt)
	if err != nil {
		return nil, err
	}
	return &Outcome{Result: res}, nil
}
