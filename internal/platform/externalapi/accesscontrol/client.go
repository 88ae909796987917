// Package accesscontrol はリモートの入退室管理サービス（エリア・入室許可・アクセスログ）のクライアントを提供します。
package accesscontrol

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

const service = "access control"

// Config は入退室管理サービスの接続設定です。
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// LoadConfig は環境変数から設定を読み込みます。BaseURLが空の場合はローカルDBを使用します。
func LoadConfig() Config {
	return Config{
		BaseURL: os.Getenv("ACCESS_CONTROL_BASE_URL"),
		Timeout: externalapi.ServiceTimeout("ACCESS_CONTROL_TIMEOUT"),
	}
}

type areaResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// accessLogRequest はアクセスログ作成APIのリクエストです。
type accessLogRequest struct {
	ID         string    `json:"id"`
	AreaID     *string   `json:"areaId,omitempty"`
	SubjectID  *string   `json:"subjectId,omitempty"`
	DeviceID   string    `json:"deviceId,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	AccessType string    `json:"accessType"`
	Authorized bool      `json:"authorized"`
}

type accessLogResponse struct {
	ID string `json:"id"`
}

type linkRequest struct {
	RecognitionID string `json:"recognitionId"`
}

// Client は入退室管理サービスのHTTPクライアントです。
type Client struct {
	cfg    Config
	client *http.Client
}

var (
	_ usecase.AreaResolver        = (*Client)(nil)
	_ usecase.GrantChecker        = (*Client)(nil)
	_ usecase.AccessLogRepository = (*Client)(nil)
	_ usecase.AccessLogLinker     = (*Client)(nil)
)

// NewClient はClientの新しいインスタンスを生成します。
func NewClient(cfg Config, client *http.Client) *Client {
	return &Client{cfg: cfg, client: client}
}

// FindArea はエリアを取得します。GET {base}/api/areas/{id}
func (c *Client) FindArea(ctx context.Context, id string) (*entity.Area, error) {
	res, err := externalapi.Do(ctx, c.client, http.MethodGet, externalapi.JoinURL(c.cfg.BaseURL, "api", "areas", url.PathEscape(id)), nil, nil)
	if err != nil {
		return nil, unavailable(err)
	}
	defer externalapi.CloseBody(res)

	if res.StatusCode == http.StatusNotFound {
		return nil, domain.ErrAreaNotFound
	}
	if res.StatusCode >= 300 {
		return nil, unavailable(&externalapi.StatusError{Service: service, StatusCode: res.StatusCode})
	}
	var body areaResponse
	if err := externalapi.DecodeJSON(res, &body); err != nil {
		return nil, unavailable(err)
	}
	if body.ID == "" {
		body.ID = id
	}
	return &entity.Area{ID: body.ID, Name: body.Name}, nil
}

// HasGrant は入室許可の有無を返します。GET {base}/api/areas/{areaId}/grants/{subjectId}
// 200は許可あり、404は許可なしです。
func (c *Client) HasGrant(ctx context.Context, subjectID, areaID string) (bool, error) {
	u := externalapi.JoinURL(c.cfg.BaseURL, "api", "areas", url.PathEscape(areaID), "grants", url.PathEscape(subjectID))
	res, err := externalapi.Do(ctx, c.client, http.MethodGet, u, nil, nil)
	if err != nil {
		return false, unavailable(err)
	}
	defer externalapi.CloseBody(res)

	switch {
	case res.StatusCode == http.StatusNotFound:
		return false, nil
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return true, nil
	}
	return false, unavailable(&externalapi.StatusError{Service: service, StatusCode: res.StatusCode})
}

// Create はアクセスログを作成します。POST {base}/api/access-logs
//
// ScanKeyがある場合は端末で限定したキー（entity.DeviceScanKey）をIdempotency-Keyヘッダーで送ります。
// 409はdomain.ErrDuplicateScanです。
// サービスがIDを払い出した場合はentry.IDを置き換えます。
func (c *Client) Create(ctx context.Context, entry *entity.AccessLogEntry) error {
	body := accessLogRequest{
		ID:         entry.ID,
		AreaID:     entry.AreaID,
		SubjectID:  entry.SubjectID,
		DeviceID:   entry.DeviceID,
		Timestamp:  entry.Timestamp,
		AccessType: string(entry.AccessType),
		Authorized: entry.Authorized,
	}
	var header http.Header
	if entry.ScanKey != "" {
		header = http.Header{"Idempotency-Key": []string{entity.DeviceScanKey(entry.DeviceID, entry.ScanKey)}}
	}

	res, err := externalapi.Do(ctx, c.client, http.MethodPost, externalapi.JoinURL(c.cfg.BaseURL, "api", "access-logs"), body, header)
	if err != nil {
		return fmt.Errorf("create access log: %w", err)
	}
	defer externalapi.CloseBody(res)

	if res.StatusCode == http.StatusConflict {
		return fmt.Errorf("%w: scan key %q", domain.ErrDuplicateScan, entry.ScanKey)
	}
	if res.StatusCode >= 300 {
		return fmt.Errorf("create access log: %w", &externalapi.StatusError{Service: service, StatusCode: res.StatusCode})
	}
	var created accessLogResponse
	if err := externalapi.DecodeJSON(res, &created); err == nil && created.ID != "" {
		entry.ID = created.ID
	}
	return nil
}

// LinkRecognition はアクセスログにrecognitionIDを設定します。PUT {base}/api/access-logs/{id}/recognition-id
func (c *Client) LinkRecognition(ctx context.Context, accessLogID, recognitionID string) error {
	u := externalapi.JoinURL(c.cfg.BaseURL, "api", "access-logs", url.PathEscape(accessLogID), "recognition-id")
	res, err := externalapi.Do(ctx, c.client, http.MethodPut, u, linkRequest{RecognitionID: recognitionID}, nil)
	if err != nil {
		return fmt.Errorf("link recognition: %w", err)
	}
	defer externalapi.CloseBody(res)

	if res.StatusCode >= 300 {
		return fmt.Errorf("link recognition: %w", &externalapi.StatusError{Service: service, StatusCode: res.StatusCode})
	}
	return nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrAccessControlUnavailable, err)
}
