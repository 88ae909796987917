// Package api はHTTP APIのリクエスト・レスポンス型を定義します。
package api

import "time"

// ErrorResponse はすべてのエラーレスポンスの本文です。
type ErrorResponse struct {
	Error string `json:"error"`
}

// WarningResponse は部分的成功などの助言的な警告です。
type WarningResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AccessLogResponse は作成されたアクセスログです。
type AccessLogResponse struct {
	ID            string    `json:"id"`
	AreaID        *string   `json:"areaId,omitempty"`
	SubjectID     *string   `json:"subjectId,omitempty"`
	DeviceID      string    `json:"deviceId,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	AccessType    string    `json:"accessType"`
	Authorized    bool      `json:"authorized"`
	RecognitionID *string   `json:"recognitionId,omitempty"`
}

// RecognitionResponse は POST /v1/recognitions の成功レスポンスです。
type RecognitionResponse struct {
	Matched     bool              `json:"matched"`
	Confidence  float64           `json:"confidence"`
	Authorized  bool              `json:"authorized"`
	AccessLog   AccessLogResponse `json:"accessLog"`
	SubjectID   *string           `json:"subjectId,omitempty"`
	SubjectName string            `json:"subjectName,omitempty"`

	// SampleID は照合した指紋サンプルです。SampleActive はその有効状態で、不明な場合は省略されます。
	SampleID     *string           `json:"sampleId,omitempty"`
	SampleActive *bool             `json:"sampleActive,omitempty"`
	Warnings     []WarningResponse `json:"warnings,omitempty"`
}

// StatusResponse はヘルスチェックのレスポンスです。
type StatusResponse struct {
	Status string `json:"status"`
}
