package generator

const (
	// VisionInstruction は二段階方式の一段目で送る固定の指示文です。
	VisionInstruction = "Describe this image in detail, focusing on the main subject, their appearance, pose, and background. Be concise but descriptive."

	// DefaultPrompt は既定の変換プロンプト (flamify) です。
	DefaultPrompt = "Make this profile picture cartoon flamified, make cartoonified fire be the central theme of this profile picture and make it cartoonified fire effects. Cartoon art style for a flame theme is very important to maintain the integrity of the theme. Just edit the existing picture, do not completely go off the rails and ignore the existing picture. Make sure your changes / \"flamification\" is done on this picture."

	// logPreviewBytes は上流レスポンスをログに残すときの最大長です。
	logPreviewBytes = 500
	// errorPreviewBytes はパース失敗時のエラーに含める本文の最大長です。
	errorPreviewBytes = 200
)

// SourceImage はパイプラインに渡す元画像です。
// DataURI はブラウザから受け取った形式のまま保持し、Data はそのデコード結果です。
type SourceImage struct {
	Data     []byte
	MIMEType string
	DataURI  string
}

// Result はリモートが返した生成結果です。URL か Data のどちらかを持ちます。
type Result struct {
	URL      string
	Data     []byte
	MIMEType string
}

// Outcome は Strategy の実行結果です。
type Outcome struct {
	Result      *Result
	Description string
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
