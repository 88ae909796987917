// Package modelregistry はリモートのモデル管理サービスのクライアントを提供します。
package modelregistry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"fingerprint_access/internal/feature/recognition/domain"
	"fingerprint_access/internal/feature/recognition/domain/entity"
	"fingerprint_access/internal/feature/recognition/usecase"
	"fingerprint_access/internal/platform/externalapi"
)

// Config はモデル管理サービスの接続設定です。
type Config struct {
	BaseURL string        // 例: "http://model-management:8080"
	Timeout time.Duration // 1回の呼び出しのタイムアウト
}

// LoadConfig は環境変数から設定を読み込みます。BaseURLが空の場合はローカルDBを使用します。
func LoadConfig() Config {
	return Config{
		BaseURL: os.Getenv("MODEL_REGISTRY_BASE_URL"),
		Timeout: externalapi.ServiceTimeout("MODEL_REGISTRY_TIMEOUT"),
	}
}

// modelResponse はモデル取得APIのレスポンスです。
type modelResponse struct {
	ID       string `json:"id"`
	PathName string `json:"pathName"`
}

// Client はusecase.ModelStoreのHTTP実装です。
type Client struct {
	cfg    Config
	client *http.Client
}

var _ usecase.ModelStore = (*Client)(nil)

// NewClient はClientの新しいインスタンスを生成します。
func NewClient(cfg Config, client *http.Client) *Client {
	return &Client{cfg: cfg, client: client}
}

// FindModel はモデルを取得します。
//
//	GET {base}/api/fingerprint-segmentation-models/{id}
//	GET {base}/api/fingerprint-recognition-models/{id}
//
// 404は*domain.ModelNotFoundError、通信エラーと5xxはdomain.ErrModelRegistryUnavailableです。
func (c *Client) FindModel(ctx context.Context, kind entity.ModelKind, id string) (*entity.ModelReference, error) {
	resource, err := resourceFor(kind)
	if err != nil {
		return nil, err
	}
	u := externalapi.JoinURL(c.cfg.BaseURL, "api", resource, url.PathEscape(id))

	res, err := externalapi.Do(ctx, c.client, http.MethodGet, u, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrModelRegistryUnavailable, err)
	}
	defer externalapi.CloseBody(res)

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, &domain.ModelNotFoundError{ID: id, Kind: kind}
	case res.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %w", domain.ErrModelRegistryUnavailable, &externalapi.StatusError{Service: "model registry", StatusCode: res.StatusCode})
	case res.StatusCode >= 300:
		return nil, &externalapi.StatusError{Service: "model registry", StatusCode: res.StatusCode}
	}

	var body modelResponse
	if err := externalapi.DecodeJSON(res, &body); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrModelRegistryUnavailable, err)
	}
	ref := &entity.ModelReference{ID: body.ID, Kind: kind, PathName: body.PathName}
	if ref.ID == "" {
		ref.ID = id
	}
	return ref, nil
}

func resourceFor(kind entity.ModelKind) (string, error) {
	switch kind {
	case entity.ModelKindSegmentation:
		return "fingerprint-segmentation-models", nil
	case entity.ModelKindRecognition:
		return "fingerprint-recognition-models", nil
	}
	return "", fmt.Errorf("unknown model kind %q", kind)
}
