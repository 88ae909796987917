// Package externalapi は連携サービス（モデル管理・入退室管理・人事）のHTTPクライアントに共通する処理を提供します。
package externalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultTimeout は連携サービス呼び出し1回あたりの既定のタイムアウトです。
const DefaultTimeout = 5 * time.Second

// TimeoutFromEnv はCOLLABORATOR_TIMEOUTを読み込みます。未設定・不正値の場合はDefaultTimeoutです。
func TimeoutFromEnv() time.Duration {
	v := os.Getenv("COLLABORATOR_TIMEOUT")
	if v == "" {
		return DefaultTimeout
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid COLLABORATOR_TIMEOUT, using default", "value", v, "default", DefaultTimeout)
		return DefaultTimeout
	}
	return d
}

// ServiceTimeout はサービス個別のタイムアウト（例: MODEL_REGISTRY_TIMEOUT）を読み込みます。
// 未設定・不正値の場合はTimeoutFromEnvに従います。
func ServiceTimeout(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return TimeoutFromEnv()
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid service timeout, using COLLABORATOR_TIMEOUT", "key", key, "value", v)
		return TimeoutFromEnv()
	}
	return d
}

// StatusError は想定外のHTTPステータスです。
type StatusError struct {
	Service    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s http %d", e.Service, e.StatusCode)
}

// Temporary は5xxかどうかを返します。
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500
}

// Do はJSONリクエストを送信します。bodyがnilの場合は本文なしです。
// 呼び出し側はCloseBodyでレスポンスを閉じる必要があります。
func Do(ctx context.Context, client *http.Client, method, url string, body any, header http.Header) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return client.Do(req)
}

// DecodeJSON はレスポンス本文をoutにデコードします。
func DecodeJSON(res *http.Response, out any) error {
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CloseBody はレスポンス本文を読み捨てて閉じ、接続を再利用できるようにします。
func CloseBody(res *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))
	if err := res.Body.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err)
	}
}

// JoinURL はベースURLとパスを連結します。
func JoinURL(base string, segments ...string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}
