// Package di provides dependency injection factories for creating application components.
package di

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"fingerprint_access/internal/feature/recognition/adapters"
	"fingerprint_access/internal/feature/recognition/adapters/matcher"
	"fingerprint_access/internal/feature/recognition/usecase"
	"fingerprint_access/internal/platform/cache"
	"fingerprint_access/internal/platform/externalapi/accesscontrol"
	"fingerprint_access/internal/platform/externalapi/modelregistry"
	"fingerprint_access/internal/platform/externalapi/usermanagement"
	infrahttp "fingerprint_access/internal/platform/http"
	jwtmw "fingerprint_access/internal/platform/jwt"
)

const (
	// ServiceSubject は他サービス呼び出し時のトークンのsubjectです。
	ServiceSubject = "fingerprint-access"
	// serviceTokenTTL はサービストークンの有効期限です。呼び出しごとに発行します。
	serviceTokenTTL = time.Minute
	// idempotencyNamespace はリプレイキャッシュのRedisキー接頭辞です。
	idempotencyNamespace = "scan"
)

// Collaborators は認識パイプラインが依存する外部データの実装一式です。
type Collaborators struct {
	Models   usecase.ModelStore
	Areas    usecase.AreaResolver
	Grants   usecase.GrantChecker
	Logs     usecase.AccessLogRepository
	Linker   usecase.AccessLogLinker
	Subjects usecase.SubjectDirectory
	Samples  usecase.SampleDirectory
	Events   usecase.RecognitionEventRepository
}

// NewServiceTokens はJWT_SECRETからサービストークン発行者を作成します。
// 未設定の場合はnilを返し、外部呼び出しは認証ヘッダーなしで行われます。
func NewServiceTokens() infrahttp.TokenSource {
	secret := os.Getenv(jwtmw.EnvKeyJWTSecret)
	if secret == "" {
		return nil
	}
	return jwtmw.NewGenerator(secret, serviceTokenTTL)
}

// NewCollaborators は環境変数に応じて実装を選択します。
// 各サービスのベースURLが設定されていればHTTPクライアントを、なければローカルDBを使います。
// 認識イベントは常にローカルDBに保存します。
func NewCollaborators(db *gorm.DB, tokens infrahttp.TokenSource) Collaborators {
	clientFor := func(timeout time.Duration) *http.Client {
		return infrahttp.NewServiceClient(timeout, tokens, ServiceSubject, jwtmw.ScopeService)
	}

	c := Collaborators{
		Models:   adapters.NewModelStore(db),
		Subjects: adapters.NewSubjectDirectory(db),
		Samples:  adapters.NewSampleDirectory(db),
		Events:   adapters.NewRecognitionEventRepository(db),
	}

	if cfg := modelregistry.LoadConfig(); cfg.BaseURL != "" {
		slog.Info("using remote model registry", "base_url", cfg.BaseURL)
		c.Models = modelregistry.NewClient(cfg, clientFor(cfg.Timeout))
	}

	if cfg := accesscontrol.LoadConfig(); cfg.BaseURL != "" {
		slog.Info("using remote access control", "base_url", cfg.BaseURL)
		remote := accesscontrol.NewClient(cfg, clientFor(cfg.Timeout))
		c.Areas, c.Grants, c.Logs, c.Linker = remote, remote, remote, remote
	} else {
		store := adapters.NewAccessControlStore(db)
		logs := adapters.NewAccessLogRepository(db)
		c.Areas, c.Grants, c.Logs, c.Linker = store, store, logs, logs
	}

	if cfg := usermanagement.LoadConfig(); cfg.BaseURL != "" {
		slog.Info("using remote user management", "base_url", cfg.BaseURL)
		c.Subjects = usermanagement.NewClient(cfg, clientFor(cfg.Timeout))
	}
	return c
}

// NewMatcher は環境変数から設定したマッチャーゲートウェイを作成します。
func NewMatcher() *matcher.Gateway {
	return matcher.NewGateway(matcher.LoadConfig())
}

// NewRecognizer は認識パイプラインを組み立てます。
// Redisが利用可能な場合はIdempotency-Keyによるリプレイキャッシュでラップします。
func NewRecognizer(cfg usecase.Config, c Collaborators, m usecase.Matcher, rdb *redis.Client) usecase.Recognizer {
	uc := usecase.NewRecognitionUsecase(
		cfg,
		usecase.NewModelRegistry(c.Models),
		m,
		c.Areas,
		c.Subjects,
		c.Samples,
		usecase.NewAuthorizationEvaluator(c.Grants),
		usecase.NewDecisionRecorder(c.Logs, c.Events, c.Linker),
	)
	if rdb == nil {
		return uc
	}
	return cache.NewIdempotentRecognizer(rdb, 0, 0, uc, idempotencyNamespace)
}
