// Package usermanagement はリモートの人事（従業員）サービスのクライアントを提供します。
package usermanagement

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"fingerprint_access/internal/feature/recognition/domain"
	"fingerprint_access/internal/feature/recognition/domain/entity"
	"fingerprint_access/internal/feature/recognition/usecase"
	"fingerprint_access/internal/platform/externalapi"
)

// Config は人事サービスの接続設定です。
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// LoadConfig は環境変数から設定を読み込みます。
func LoadConfig() Config {
	return Config{
		BaseURL: os.Getenv("USER_MANAGEMENT_BASE_URL"),
		Timeout: externalapi.ServiceTimeout("USER_MANAGEMENT_TIMEOUT"),
	}
}

type employeeResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Client はusecase.SubjectDirectoryのHTTP実装です。
type Client struct {
	cfg    Config
	client *http.Client
}

var _ usecase.SubjectDirectory = (*Client)(nil)

// NewClient はClientの新しいインスタンスを生成します。
func NewClient(cfg Config, client *http.Client) *Client {
	return &Client{cfg: cfg, client: client}
}

// FindSubject は従業員を取得します。GET {base}/api/employees/{id}
// 404はdomain.ErrSubjectNotFoundです。
func (c *Client) FindSubject(ctx context.Context, id string) (*entity.Subject, error) {
	res, err := externalapi.Do(ctx, c.client, http.MethodGet, externalapi.JoinURL(c.cfg.BaseURL, "api", "employees", url.PathEscape(id)), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("find employee: %w", err)
	}
	defer externalapi.CloseBody(res)

	if res.StatusCode == http.StatusNotFound {
		return nil, domain.ErrSubjectNotFound
	}
	if res.StatusCode >= 300 {
		return nil, &externalapi.StatusError{Service: "user management", StatusCode: res.StatusCode}
	}
	var body employeeResponse
	if err := externalapi.DecodeJSON(res, &body); err != nil {
		return nil, err
	}
	name := body.Name
	if name == "" {
		name = strings.TrimSpace(body.FirstName + " " + body.LastName)
	}
	return &entity.Subject{ID: id, Name: name}, nil
}
