package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingCredential は上流の認証情報が設定されていないことを示します。
	ErrMissingCredential = errors.New("API key not configured")
	// ErrNoImageGenerated は上流が画像を返さなかったことを示します。
	ErrNoImageGenerated = errors.New("No image generated")
	// ErrInvalidRequest は画像またはプロンプトが欠けていることを示します。
	ErrInvalidRequest = errors.New("Missing image or prompt")
)

// CredentialError はどの認証情報が不足しているかを利用者向けの文言で保持します。
type CredentialError struct {
	EnvVar string
	Vendor string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("%s API key not configured. Please add %s to your environment variables.", e.Vendor, e.EnvVar)
}

func (e *CredentialError) Unwrap() error { return ErrMissingCredential }

// UpstreamError は上流 API の非 2xx 応答です。
// Error() は上流の error.message があればそれだけを返します。
type UpstreamError struct {
	Step       string
	StatusCode int
	Message    string
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	msg := fmt.Sprintf("%s API Error (%d): %s", e.Step, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += " - Response: " + e.Body
	}
	return msg
}

// newUpstreamError は上流のエラー本文を解釈して UpstreamError を組み立てます。
// JSON として読めれば error.message を、読めなければ本文そのものを残します。
func newUpstreamError(step string, status int, body []byte) *UpstreamError {
	e := &UpstreamError{Step: step, StatusCode: status}
	var payload struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		e.Body = string(body)
		return e
	}
	if payload.Error != nil {
		e.Message = payload.Error.Message
	}
	return e
}
