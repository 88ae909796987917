// Package handler はrecognitionフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"fingerprint_access/internal/api"
	"fingerprint_access/internal/feature/recognition/domain"
	"fingerprint_access/internal/feature/recognition/domain/entity"
	"fingerprint_access/internal/feature/recognition/transport/http/dto"
	jwtmw "fingerprint_access/internal/platform/jwt"
)

// RecognitionUsecase は指紋認識パイプラインのユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type RecognitionUsecase interface {
	Recognize(ctx context.Context, req entity.RecognitionRequest) (*entity.RecognitionResult, error)
}

// RecognitionHandler は指紋認識のHTTPリクエストを処理します。
type RecognitionHandler struct {
	uc           RecognitionUsecase
	maxImageSize int64
}

// NewRecognitionHandler はRecognitionHandlerの新しいインスタンスを生成します。
func NewRecognitionHandler(uc RecognitionUsecase, maxImageSize int64) *RecognitionHandler {
	return &RecognitionHandler{uc: uc, maxImageSize: maxImageSize}
}

// Recognize は指紋画像を照合し、入退室の可否を判定して記録します。
//
// エンドポイント: POST /v1/recognitions
// Content-Type: multipart/form-data
// フィールド: image（画像ファイル）, segmentationModelId, recognitionModelId, areaId（任意）, accessType（任意）
// ヘッダー: Idempotency-Key（任意）
func (h *RecognitionHandler) Recognize(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		slog.Warn("画像ファイルの取得に失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "画像ファイルが必要です"})
		return
	}
	if h.maxImageSize > 0 && file.Size > h.maxImageSize {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "画像サイズが上限を超えています"})
		return
	}

	var form dto.RecognitionForm
	if err := c.ShouldBind(&form); err != nil {
		slog.Warn("認識リクエストのバリデーションに失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "segmentationModelIdとrecognitionModelIdが必要です"})
		return
	}

	scanKey := c.GetHeader(dto.IdempotencyKeyHeader)
	if len(scanKey) > dto.MaxIdempotencyKeyLength {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Idempotency-Keyが長すぎます"})
		return
	}

	f, err := file.Open()
	if err != nil {
		slog.Error("画像ファイルのオープンに失敗", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "画像の読み込みに失敗しました"})
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("画像ファイルのクローズに失敗", "error", err)
		}
	}()

	imageData, err := io.ReadAll(f)
	if err != nil {
		slog.Error("画像データの読み取りに失敗", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "画像の読み込みに失敗しました"})
		return
	}

	req := entity.RecognitionRequest{
		Image:               imageData,
		SegmentationModelID: form.SegmentationModelID,
		RecognitionModelID:  form.RecognitionModelID,
		AccessType:          entity.AccessType(form.AccessType),
		DeviceID:            c.GetString(jwtmw.ContextDeviceID),
		ScanKey:             scanKey,
	}
	if form.AreaID != "" {
		areaID := form.AreaID
		req.AreaID = &areaID
	}

	result, err := h.uc.Recognize(c.Request.Context(), req)
	if err != nil {
		status, msg := errorStatus(err)
		if status >= http.StatusInternalServerError {
			slog.Error("指紋認識に失敗", "error", err, "device_id", req.DeviceID)
		} else {
			slog.Warn("指紋認識リクエストを拒否", "error", err, "device_id", req.DeviceID)
		}
		c.JSON(status, api.ErrorResponse{Error: msg})
		return
	}

	if result.Replayed {
		c.Header(dto.ReplayedHeader, "true")
	}
	c.JSON(http.StatusOK, toResponse(result))
}

// errorStatus はパイプラインのエラーをHTTPステータスとメッセージに対応付けます。
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrDuplicateScan):
		return http.StatusConflict, "このスキャンは既に記録されています"
	case errors.Is(err, domain.ErrScanInFlight):
		return http.StatusConflict, "同じスキャンを処理中です"
	case errors.Is(err, domain.ErrModelRegistryUnavailable):
		return http.StatusServiceUnavailable, "モデル管理サービスに接続できません"
	case errors.Is(err, domain.ErrAccessControlUnavailable):
		return http.StatusServiceUnavailable, "入退室管理サービスに接続できません"
	case errors.Is(err, domain.ErrMatcherTimeout):
		return http.StatusGatewayTimeout, "指紋照合がタイムアウトしました"
	case errors.Is(err, domain.ErrModelNotFound):
		return http.StatusInternalServerError, "指定されたモデルが見つかりません"
	case errors.Is(err, domain.ErrAreaNotFound):
		return http.StatusInternalServerError, "指定されたエリアが見つかりません"
	case errors.Is(err, domain.ErrAccessLogWriteFailed):
		return http.StatusInternalServerError, "アクセスログの記録に失敗しました"
	}
	return http.StatusInternalServerError, "指紋認識に失敗しました"
}

func toResponse(r *entity.RecognitionResult) api.RecognitionResponse {
	out := api.RecognitionResponse{
		Matched:    r.Decision.Matched,
		Confidence: r.Decision.Confidence,
		Authorized: r.Decision.Authorized,
		SubjectID:  r.Decision.SubjectID,
		AccessLog: api.AccessLogResponse{
			ID:            r.AccessLog.ID,
			AreaID:        r.AccessLog.AreaID,
			SubjectID:     r.AccessLog.SubjectID,
			DeviceID:      r.AccessLog.DeviceID,
			Timestamp:     r.AccessLog.Timestamp,
			AccessType:    string(r.AccessLog.AccessType),
			Authorized:    r.AccessLog.Authorized,
			RecognitionID: r.AccessLog.RecognitionID,
		},
		SubjectName:  r.SubjectName,
		SampleID:     r.Decision.SampleID,
		SampleActive: r.SampleActive,
	}
	for _, w := range r.Warnings {
		out.Warnings = append(out.Warnings, api.WarningResponse{Code: string(w.Code), Message: w.Message})
	}
	return out
}
