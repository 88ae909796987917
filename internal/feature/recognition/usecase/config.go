package usecase

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"fingerprint_access/internal/feature/recognition/domain/entity"
)

const (
	// DefaultMatchThreshold は照合成立とみなす信頼度の下限です（この値ちょうどは成立）。
	DefaultMatchThreshold = 0.7
	// DefaultMatcherTimeout はマッチャープロセス1回あたりの制限時間です。
	DefaultMatcherTimeout = 30 * time.Second
	// DefaultAuditTimeout はアクセスログ確定後の監査書き込みに与える時間です。
	DefaultAuditTimeout = 5 * time.Second
	// MaxImageSize は指紋画像の最大サイズ（10MB）です。
	MaxImageSize = 10 * 1024 * 1024
)

// AreaNotFoundPolicy は存在しないエリアIDを受け取った場合の扱いです。
type AreaNotFoundPolicy string

const (
	// AreaPolicyDegrade はエリア指定なしとして扱います（無条件で認可）。
	AreaPolicyDegrade AreaNotFoundPolicy = "degrade"
	// AreaPolicyReject はリクエストを失敗させます。
	AreaPolicyReject AreaNotFoundPolicy = "reject"
)

// Config は認識パイプラインの設定です。構築時にユースケースへ渡します。
type Config struct {
	MatchThreshold     float64
	MatcherTimeout     time.Duration
	AuditTimeout       time.Duration
	AreaNotFoundPolicy AreaNotFoundPolicy
	DefaultAccessType  entity.AccessType
	MaxImageSize       int
}

// DefaultConfig は既定値のConfigを返します。
func DefaultConfig() Config {
	return Config{
		MatchThreshold:     DefaultMatchThreshold,
		MatcherTimeout:     DefaultMatcherTimeout,
		AuditTimeout:       DefaultAuditTimeout,
		AreaNotFoundPolicy: AreaPolicyDegrade,
		DefaultAccessType:  entity.AccessTypeEntry,
		MaxImageSize:       MaxImageSize,
	}
}

// LoadConfig は環境変数から設定を読み込みます。不正な値は警告を出して既定値を使います。
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("MATCH_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			cfg.MatchThreshold = f
		} else {
			slog.Warn("invalid MATCH_THRESHOLD, using default", "value", v, "default", DefaultMatchThreshold)
		}
	}
	if v := os.Getenv("MATCHER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.MatcherTimeout = d
		} else {
			slog.Warn("invalid MATCHER_TIMEOUT, using default", "value", v, "default", DefaultMatcherTimeout)
		}
	}
	if v := os.Getenv("AUDIT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.AuditTimeout = d
		} else {
			slog.Warn("invalid AUDIT_TIMEOUT, using default", "value", v, "default", DefaultAuditTimeout)
		}
	}
	switch p := AreaNotFoundPolicy(os.Getenv("AREA_NOT_FOUND_POLICY")); p {
	case "":
	case AreaPolicyDegrade, AreaPolicyReject:
		cfg.AreaNotFoundPolicy = p
	default:
		slog.Warn("invalid AREA_NOT_FOUND_POLICY, using default", "value", p, "default", AreaPolicyDegrade)
	}
	if v := os.Getenv("DEFAULT_ACCESS_TYPE"); v != "" {
		if at, ok := entity.ParseAccessType(v); ok {
			cfg.DefaultAccessType = at
		} else {
			slog.Warn("invalid DEFAULT_ACCESS_TYPE, using default", "value", v, "default", entity.AccessTypeEntry)
		}
	}
	return cfg
}
