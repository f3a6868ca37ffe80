package domain

// TransformRequest はプロキシ境界へ送るリクエストボディです。
// Image は "data:image/png;base64,..." 形式のデータ URI です。
type TransformRequest struct {
	Image  string `json:"image"`
	Prompt string `json:"prompt"`
}

// TransformResponse はプロキシ境界の成功レスポンスです。
// ImageURL はブラウザのキャンバスにそのまま読み込めるようデータ URI で返します。
type TransformResponse struct {
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description,omitempty"`
}

// ErrorResponse はプロキシ境界のエラーレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}
