// Package router はHTTPルーティングを定義します。
package router

import (
	"context"

	"github.com/gin-gonic/gin"

	recognitionhandler "fingerprint_access/internal/feature/recognition/transport/handler"
	"fingerprint_access/internal/platform/http/handler"
	jwtmw "fingerprint_access/internal/platform/jwt"
	"fingerprint_access/internal/shared/ratelimiter"
)

// NewRouter はルーティングを設定したginエンジンを返します。
// readyはreadinessチェック、limiterは端末単位のレート制限です。
func NewRouter(recognition *recognitionhandler.RecognitionHandler, ready func(ctx context.Context) error,
	limiter *ratelimiter.KeyedLimiter) *gin.Engine {
	r := gin.Default()

	// 認証不要
	// 導通確認用
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	// DBなど依存先の疎通確認
	r.GET("/readyz", handler.Ready(ready))

	// 認証必須のルート
	// → 端末トークン（scope=device）が必要
	v1 := r.Group("/v1")
	v1.Use(jwtmw.AuthRequired())
	// 認証後に端末IDでレート制限する
	v1.Use(ratelimiter.Middleware(limiter, deviceKey))
	{
		v1.POST("/recognitions", recognition.Recognize)
	}

	return r
}

func deviceKey(c *gin.Context) string {
	return c.GetString(jwtmw.ContextDeviceID)
}
