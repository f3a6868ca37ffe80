package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shouni/flame-pfp-kit/pkg/domain"
)

const maxProxyErrorBytes = 64 << 10

// ErrEmptyResult はプロキシが imageUrl を返さなかったことを示します。
var ErrEmptyResult = errors.New("proxy returned no image")

// ProxyError はプロキシ境界の非 2xx 応答です。
// Error() はプロキシが返した error フィールドの文言そのものです。
type ProxyError struct {
	StatusCode int
	Message    string
}

func (e *ProxyError) Error() string {
	return e.Message
}

// ProxyClient はエディタからプロキシ境界 (POST /api/generate-ai-pfp) を呼び出すクライアントです。
// 上流の認証情報はプロキシ側にだけ存在し、このクライアントは持ちません。
type ProxyClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewProxyClient は ProxyClient を生成します。httpClient が nil なら http.DefaultClient を使います。
func NewProxyClient(endpoint string, httpClient *http.Client) (*ProxyClient, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ProxyClient{endpoint: endpoint, httpClient: httpClient}, nil
}

// Transform は変換リクエストを送り、成功時のレスポンスを返します。
func (c *ProxyClient) Transform(ctx context.Context, req domain.TransformRequest) (*domain.TransformResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal transform request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build transform request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transform request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxProxyErrorBytes))
		var errResp domain.ErrorResponse
		msg := ""
		if json.Unmarshal(body, &errResp) == nil {
			msg = errResp.Error
		}
		if msg == "" {
			msg = fmt.Sprintf("HTTP error! status: %d", res.StatusCode)
		}
		slog.WarnContext(ctx, "プロキシがエラーを返しました", "status", res.StatusCode, "error", msg)
		return nil, &ProxyError{StatusCode: res.StatusCode, Message: msg}
	}

	var out domain.TransformResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode transform response: %w", err)
	}
	if out.ImageURL == "" {
		return nil, ErrEmptyResult
	}
	return &out, nil
}
