package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fingerprint_access/internal/feature/recognition/domain"
	"fingerprint_access/internal/feature/recognition/domain/entity"
)

// AccessLogRepository はアクセスログを永続化するインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type AccessLogRepository interface {
	// Create はアクセスログを追加します。実装はIDを払い出し直してもかまいません。
	// 同じScanKeyが既に存在する場合はdomain.ErrDuplicateScanを返します。
	Create(ctx context.Context, entry *entity.AccessLogEntry) error
}

// RecognitionEventRepository は認識イベントを永続化するインターフェースです。
type RecognitionEventRepository interface {
	Create(ctx context.Context, event *entity.RecognitionEvent) error
}

// AccessLogLinker はアクセスログに認識イベントIDを後付けするインターフェースです。
type AccessLogLinker interface {
	LinkRecognition(ctx context.Context, accessLogID, recognitionID string) error
}

// RecordInput は記録に必要な判定結果とリクエストの文脈です。
type RecordInput struct {
	Decision            entity.AccessDecision
	AreaID              *string
	AccessType          entity.AccessType
	DeviceID            string
	ScanKey             string
	SegmentationModelID string
	RecognitionModelID  string
	ImageDigest         string
}

// DecisionRecorder はアクセスログと認識イベントを順に記録します。
//
// アクセスログの作成は判定そのものの記録であり、失敗すればリクエスト全体が失敗します。
// その後の認識イベント作成とリンクは失敗しても警告に留め、アクセスログを取り消しません。
type DecisionRecorder struct {
	logs   AccessLogRepository
	events RecognitionEventRepository
	linker AccessLogLinker // nilの場合はリンクを行いません
	now    func() time.Time
	newID  func() string
}

// NewDecisionRecorder はDecisionRecorderの新しいインスタンスを生成します。
func NewDecisionRecorder(logs AccessLogRepository, events RecognitionEventRepository, linker AccessLogLinker) *DecisionRecorder {
	return &DecisionRecorder{
		logs:   logs,
		events: events,
		linker: linker,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Record は判定を記録し、作成されたアクセスログと警告を返します。
//
// auditCtxはアクセスログ確定後の書き込みに使うコンテキストです。
// 呼び出し元の切断で監査記録が途切れないよう、呼び出し側でキャンセルを切り離して渡します。
func (r *DecisionRecorder) Record(ctx, auditCtx context.Context, in RecordInput) (entity.AccessLogEntry, []entity.Warning, error) {
	// 照合不成立の場合、人物IDは記録に含めない
	subjectID := in.Decision.SubjectID
	if !in.Decision.Matched {
		subjectID = nil
	}

	entry := entity.AccessLogEntry{
		ID:         r.newID(),
		AreaID:     in.AreaID,
		SubjectID:  subjectID,
		DeviceID:   in.DeviceID,
		Timestamp:  r.now(),
		AccessType: in.AccessType,
		Authorized: in.Decision.Authorized,
		ScanKey:    in.ScanKey,
	}

	// 1. アクセスログ（必須）
	if err := r.logs.Create(ctx, &entry); err != nil {
		return entity.AccessLogEntry{}, nil, fmt.Errorf("%w: %w", domain.ErrAccessLogWriteFailed, err)
	}

	var warnings []entity.Warning

	// 2. 認識イベント（ベストエフォート）
	ts := r.now()
	if ts.Before(entry.Timestamp) {
		ts = entry.Timestamp
	}
	event := entity.RecognitionEvent{
		ID:                  r.newID(),
		SubjectID:           subjectID,
		SampleID:            in.Decision.SampleID,
		AccessLogID:         entry.ID,
		SegmentationModelID: in.SegmentationModelID,
		RecognitionModelID:  in.RecognitionModelID,
		Confidence:          in.Decision.Confidence,
		ImageDigest:         in.ImageDigest,
		Timestamp:           ts,
	}
	if err := r.events.Create(auditCtx, &event); err != nil {
		slog.Warn("recognition event write failed", "access_log_id", entry.ID, "error", err)
		warnings = append(warnings, entity.Warning{
			Code:    entity.WarningRecognitionEventWriteFailed,
			Message: fmt.Errorf("%w: %w", domain.ErrRecognitionEventWriteFailed, err).Error(),
		})
		return entry, warnings, nil
	}

	// 3. リンクバック（ベストエフォート）
	if r.linker != nil {
		if err := r.linker.LinkRecognition(auditCtx, entry.ID, event.ID); err != nil {
			slog.Warn("access log link-back failed", "access_log_id", entry.ID, "recognition_id", event.ID, "error", err)
			warnings = append(warnings, entity.Warning{
				Code:    entity.WarningLinkBackFailed,
				Message: fmt.Errorf("%w: %w", domain.ErrLinkBackFailed, err).Error(),
			})
			return entry, warnings, nil
		}
	}
	entry.RecognitionID = &event.ID

	return entry, warnings, nil
}
