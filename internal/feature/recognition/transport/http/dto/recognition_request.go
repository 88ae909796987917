// Package dto はrecognitionフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

// RecognitionForm は POST /v1/recognitions のマルチパートフォームです。
// 画像ファイル（image）はフォームファイルとして別に取得します。
type RecognitionForm struct {
	SegmentationModelID string `form:"segmentationModelId" binding:"required"`
	RecognitionModelID  string `form:"recognitionModelId" binding:"required"`
	AreaID              string `form:"areaId"`
	AccessType          string `form:"accessType"`
}

// IdempotencyKeyHeader はクライアントが1回のスキャンに付与する冪等キーのヘッダーです。
const IdempotencyKeyHeader = "Idempotency-Key"

// ReplayedHeader は保存済みの結果を返した場合に付与するレスポンスヘッダーです。
const ReplayedHeader = "Idempotent-Replayed"

// MaxIdempotencyKeyLength は冪等キーの最大長です（access_logs.scan_keyの列長）。
const MaxIdempotencyKeyLength = 128
