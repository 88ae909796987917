// Package http は外部サービス呼び出し用のHTTPクライアントを提供します。
package http

import (
	"fmt"
	"net"
	"net/http"
	"time"
)

// NewHTTPClient は外部API呼び出し用に設定されたHTTPクライアントを作成します。
//
// 設定:
//   - Proxy: 環境変数（HTTP_PROXYなど）が設定されている場合に使用
//   - Dialer.Timeout: TCP接続タイムアウト（デフォルトより短い）
//   - Dialer.KeepAlive: 再利用可能なTCP接続の維持期間
//   - MaxIdleConns: 最大アイドル接続数
//   - IdleConnTimeout: アイドル接続の維持期間
//   - TLSHandshakeTimeout: HTTPSハンドシェイクの最大時間
//   - Client.Timeout: リクエスト全体のタイムアウト（呼び出し元から渡される）
//
// 注意:
//   - http.DefaultClientにはタイムアウトがないため、常にカスタムクライアントを使用すること
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout, Transport: newTransport()}
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
}

// TokenSource はサービス間呼び出し用のトークンを発行します。
// jwtmw.Generatorを満たします。
type TokenSource interface {
	GenerateToken(subject, scope string) (string, error)
}

// NewServiceClient は呼び出しごとに短命のサービストークンを付与するHTTPクライアントを作成します。
// tokensがnilの場合はNewHTTPClientと同じです。
func NewServiceClient(timeout time.Duration, tokens TokenSource, subject, scope string) *http.Client {
	c := NewHTTPClient(timeout)
	if tokens != nil {
		c.Transport = &tokenTransport{base: c.Transport, tokens: tokens, subject: subject, scope: scope}
	}
	return c
}

// tokenTransport はAuthorizationヘッダーを付与するRoundTripperです。
type tokenTransport struct {
	base    http.RoundTripper
	tokens  TokenSource
	subject string
	scope   string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.tokens.GenerateToken(t.subject, t.scope)
	if err != nil {
		return nil, fmt.Errorf("issue service token: %w", err)
	}
	// RoundTripperはリクエストを変更してはならないため複製する
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(r)
}
