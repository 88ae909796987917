// Package cache はRedisを使ったusecaseのデコレーターを提供します。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"fingerprint_access/internal/feature/recognition/domain"
	"fingerprint_access/internal/feature/recognition/domain/entity"
	"fingerprint_access/internal/feature/recognition/usecase"
)

// pendingMarker は処理中のスキャンを示す値です。結果のJSONと区別できれば何でも構いません。
const pendingMarker = "pending"

// IdempotentRecognizer はRecognizerをRedisによる冪等リプレイで装飾します。
//
// 冪等キー付きの最初のリクエストがキーを確保（SET NX）し、完了した結果を保存します。
// 同じキーの後続リクエストには保存済みの結果を返し、処理中であればdomain.ErrScanInFlightを返します。
// Redisが使えない場合はinnerをそのまま呼び、重複はDBの一意制約に任せます。
type IdempotentRecognizer struct {
	inner      usecase.Recognizer
	rdb        *redis.Client
	ttl        time.Duration
	pendingTTL time.Duration
	namespace  string
}

var _ usecase.Recognizer = (*IdempotentRecognizer)(nil)

// NewIdempotentRecognizer はIdempotentRecognizerを生成します。
// ttlが0以下なら24時間、pendingTTLが0以下なら1分、namespaceが空なら"scan"を使用します。
func NewIdempotentRecognizer(rdb *redis.Client, ttl, pendingTTL time.Duration, inner usecase.Recognizer, namespace string) *IdempotentRecognizer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if pendingTTL <= 0 {
		pendingTTL = time.Minute
	}
	if namespace == "" {
		namespace = "scan"
	}
	return &IdempotentRecognizer{
		inner:      inner,
		rdb:        rdb,
		ttl:        ttl,
		pendingTTL: pendingTTL,
		namespace:  namespace,
	}
}

// Recognize は冪等キーがあれば保存済みの結果を返し、なければinnerを実行して結果を保存します。
func (r *IdempotentRecognizer) Recognize(ctx context.Context, req entity.RecognitionRequest) (*entity.RecognitionResult, error) {
	// Redis未設定、または冪等キーなしならバイパス
	if r.rdb == nil || req.ScanKey == "" {
		return r.inner.Recognize(ctx, req)
	}

	key := r.cacheKey(req.DeviceID, req.ScanKey)

	// 1) 保存済みの結果を確認
	if res, ok, err := r.lookup(ctx, key); ok {
		return res, err
	}

	// 2) キーを確保
	claimed, err := r.rdb.SetNX(ctx, key, pendingMarker, r.pendingTTL).Result()
	if err != nil {
		slog.Warn("idempotency claim failed, continuing without replay", "key", key, "error", err)
		return r.inner.Recognize(ctx, req)
	}
	if !claimed {
		if res, ok, err := r.lookup(ctx, key); ok {
			return res, err
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrScanInFlight, req.ScanKey)
	}

	// 3) 実行
	res, err := r.inner.Recognize(ctx, req)
	if err != nil {
		// 失敗したリクエストは再試行できるよう確保を解除する
		if delErr := r.rdb.Del(context.WithoutCancel(ctx), key).Err(); delErr != nil {
			slog.Warn("failed to release idempotency key", "key", key, "error", delErr)
		}
		return nil, err
	}

	// 4) 結果を保存（ベストエフォート）
	if b, mErr := json.Marshal(res); mErr == nil {
		if sErr := r.rdb.Set(context.WithoutCancel(ctx), key, b, r.ttl).Err(); sErr != nil {
			slog.Warn("failed to store recognition result for replay", "key", key, "error", sErr)
		}
	}
	return res, nil
}

// lookup は保存済みの値を解釈します。okがfalseの場合は値がなく、innerの実行に進みます。
func (r *IdempotentRecognizer) lookup(ctx context.Context, key string) (*entity.RecognitionResult, bool, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("idempotency lookup failed", "key", key, "error", err)
		}
		return nil, false, nil
	}
	if string(b) == pendingMarker {
		return nil, true, fmt.Errorf("%w: %s", domain.ErrScanInFlight, key)
	}
	var res entity.RecognitionResult
	if err := json.Unmarshal(b, &res); err != nil {
		// 壊れたエントリは削除する
		_ = r.rdb.Del(ctx, key).Err()
		return nil, false, nil
	}
	res.Replayed = true
	return &res, true, nil
}

// cacheKey は端末と冪等キーからRedisのキーを生成します。
func (r *IdempotentRecognizer) cacheKey(deviceID, scanKey string) string {
	return r.namespace + ":" + entity.DeviceScanKey(deviceID, scanKey)
}
