// Package usecase はrecognitionフィーチャーのビジネスロジックを実装します。
//
// 認識パイプラインは次の順に一方向で進みます。
//
//	ResolveModels → Match → Decide → (ResolveArea) → Authorize → Record → Respond
//
// Record より前の失敗では何も永続化しません。
package usecase

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/blake2b"

	"fingerprint_access/internal/feature/recognition/domain"
	"fingerprint_access/internal/feature/recognition/domain/entity"
)

// ModelResolver はセグメンテーション・認識モデルIDをモデル参照に解決します。
type ModelResolver interface {
	Resolve(ctx context.Context, segmentationModelID, recognitionModelID string) (entity.ModelReference, entity.ModelReference, error)
}

// Matcher は外部の指紋照合器を呼び出すインターフェースです。
// 制限時間はctxのデッドラインで渡します。
type Matcher interface {
	Match(ctx context.Context, image []byte, seg, rec entity.ModelReference) (entity.MatchOutcome, error)
}

// AreaResolver はエリアIDを解決します。存在しない場合はdomain.ErrAreaNotFoundを返します。
type AreaResolver interface {
	FindArea(ctx context.Context, id string) (*entity.Area, error)
}

// SubjectDirectory は照合された人物の注釈情報を取得します。
// 存在しない場合はdomain.ErrSubjectNotFoundを返します。
type SubjectDirectory interface {
	FindSubject(ctx context.Context, id string) (*entity.Subject, error)
}

// SampleDirectory は照合に使われた登録サンプルの状態を取得します。
// 存在しない場合はdomain.ErrSampleNotFoundを返します。
type SampleDirectory interface {
	FindSample(ctx context.Context, id string) (*entity.SampleStatus, error)
}

// Recognizer は認識パイプライン全体のインターフェースです。
// キャッシュなどのデコレータはこのインターフェースを実装します。
type Recognizer interface {
	Recognize(ctx context.Context, req entity.RecognitionRequest) (*entity.RecognitionResult, error)
}

// RecognitionUsecase は認識パイプラインのオーケストレーターです。
type RecognitionUsecase struct {
	cfg       Config
	models    ModelResolver
	matcher   Matcher
	areas     AreaResolver
	subjects  SubjectDirectory // nilの場合は注釈しません
	samples   SampleDirectory  // nilの場合は注釈しません
	evaluator *AuthorizationEvaluator
	recorder  *DecisionRecorder
}

var _ Recognizer = (*RecognitionUsecase)(nil)

// NewRecognitionUsecase はRecognitionUsecaseの新しいインスタンスを生成します。
func NewRecognitionUsecase(
	cfg Config,
	models ModelResolver,
	matcher Matcher,
	areas AreaResolver,
	subjects SubjectDirectory,
	samples SampleDirectory,
	evaluator *AuthorizationEvaluator,
	recorder *DecisionRecorder,
) *RecognitionUsecase {
	return &RecognitionUsecase{
		cfg:       cfg,
		models:    models,
		matcher:   matcher,
		areas:     areas,
		subjects:  subjects,
		samples:   samples,
		evaluator: evaluator,
		recorder:  recorder,
	}
}

// Recognize は指紋画像1枚に対してパイプラインを実行します。
func (u *RecognitionUsecase) Recognize(ctx context.Context, req entity.RecognitionRequest) (*entity.RecognitionResult, error) {
	if err := u.validate(&req); err != nil {
		return nil, err
	}

	// ResolveModels
	seg, rec, err := u.models.Resolve(ctx, req.SegmentationModelID, req.RecognitionModelID)
	if err != nil {
		return nil, err
	}

	// Match
	matchCtx, cancel := context.WithTimeout(ctx, u.cfg.MatcherTimeout)
	outcome, err := u.matcher.Match(matchCtx, req.Image, seg, rec)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}

	// Decide
	decision := Decide(outcome, u.cfg.MatchThreshold)
	result := &entity.RecognitionResult{}

	if decision.Matched {
		u.annotateSubject(ctx, *decision.SubjectID, result)
		if decision.SampleID != nil {
			u.annotateSample(ctx, *decision.SampleID, result)
		}
	}

	// ResolveArea
	areaID, err := u.resolveArea(ctx, req.AreaID, result)
	if err != nil {
		return nil, err
	}

	// Authorize
	authorized, err := u.evaluator.Authorize(ctx, decision.SubjectID, areaID)
	if err != nil {
		return nil, err
	}
	decision.Authorized = authorized

	// Record
	auditCtx, auditCancel := context.WithTimeout(context.WithoutCancel(ctx), u.cfg.AuditTimeout)
	defer auditCancel()
	entry, warnings, err := u.recorder.Record(ctx, auditCtx, RecordInput{
		Decision:            decision,
		AreaID:              areaID,
		AccessType:          req.AccessType,
		DeviceID:            req.DeviceID,
		ScanKey:             req.ScanKey,
		SegmentationModelID: seg.ID,
		RecognitionModelID:  rec.ID,
		ImageDigest:         imageDigest(req.Image),
	})
	if err != nil {
		return nil, err
	}

	// Respond
	result.Decision = decision
	result.AccessLog = entry
	result.Warnings = append(result.Warnings, warnings...)

	slog.Info("recognition decided",
		"access_log_id", entry.ID,
		"matched", decision.Matched,
		"authorized", decision.Authorized,
		"confidence", decision.Confidence,
		"device_id", req.DeviceID,
		"partial", result.Partial(),
	)
	return result, nil
}

// validate はリクエストを検証し、アクセス種別の既定値を補います。
func (u *RecognitionUsecase) validate(req *entity.RecognitionRequest) error {
	if len(req.Image) == 0 {
		return fmt.Errorf("%w: image data is empty", domain.ErrInvalidRequest)
	}
	if len(req.Image) > u.cfg.MaxImageSize {
		return fmt.Errorf("%w: image size exceeds maximum of %d bytes", domain.ErrInvalidRequest, u.cfg.MaxImageSize)
	}
	if req.SegmentationModelID == "" || req.RecognitionModelID == "" {
		return fmt.Errorf("%w: segmentation and recognition model ids are required", domain.ErrInvalidRequest)
	}
	if req.AccessType == "" {
		req.AccessType = u.cfg.DefaultAccessType
	} else if at, ok := entity.ParseAccessType(string(req.AccessType)); ok {
		req.AccessType = at
	} else {
		return fmt.Errorf("%w: unknown access type %q", domain.ErrInvalidRequest, req.AccessType)
	}
	if req.AreaID != nil && *req.AreaID == "" {
		req.AreaID = nil
	}
	return nil
}

// annotateSubject は照合者の表示名を結果に付けます。失敗しても照合結果は変えません。
func (u *RecognitionUsecase) annotateSubject(ctx context.Context, subjectID string, result *entity.RecognitionResult) {
	if u.subjects == nil {
		return
	}
	s, err := u.subjects.FindSubject(ctx, subjectID)
	switch {
	case err == nil:
		result.SubjectName = s.Name
	case errors.Is(err, domain.ErrSubjectNotFound):
		slog.Warn("matched subject not found in directory", "subject_id", subjectID)
		result.Warnings = append(result.Warnings, entity.Warning{
			Code:    entity.WarningSubjectNotFound,
			Message: "subject not found in directory but fingerprint matched",
		})
	default:
		slog.Warn("subject lookup failed", "subject_id", subjectID, "error", err)
		result.Warnings = append(result.Warnings, entity.Warning{
			Code:    entity.WarningSubjectLookupFailed,
			Message: err.Error(),
		})
	}
}

// annotateSample は照合したサンプルが有効かどうかを結果に付けます。
// 無効なサンプルでも判定は変えず、呼び出し元に知らせるだけです。
func (u *RecognitionUsecase) annotateSample(ctx context.Context, sampleID string, result *entity.RecognitionResult) {
	if u.samples == nil {
		return
	}
	s, err := u.samples.FindSample(ctx, sampleID)
	switch {
	case err == nil:
		active := s.Active
		result.SampleActive = &active
		if !active {
			slog.Warn("matched an inactive fingerprint sample", "sample_id", sampleID)
		}
	case errors.Is(err, domain.ErrSampleNotFound):
		slog.Warn("matched sample not enrolled", "sample_id", sampleID)
		result.Warnings = append(result.Warnings, entity.Warning{
			Code:    entity.WarningSampleNotFound,
			Message: fmt.Sprintf("fingerprint sample %s not found", sampleID),
		})
	default:
		slog.Warn("sample lookup failed", "sample_id", sampleID, "error", err)
		result.Warnings = append(result.Warnings, entity.Warning{
			Code:    entity.WarningSampleLookupFailed,
			Message: err.Error(),
		})
	}
}

// resolveArea はエリアを解決します。存在しないエリアはポリシーに従い扱います。
func (u *RecognitionUsecase) resolveArea(ctx context.Context, areaID *string, result *entity.RecognitionResult) (*string, error) {
	if areaID == nil {
		return nil, nil
	}
	area, err := u.areas.FindArea(ctx, *areaID)
	if err == nil {
		id := area.ID
		return &id, nil
	}
	if !errors.Is(err, domain.ErrAreaNotFound) {
		return nil, fmt.Errorf("resolve area %q: %w", *areaID, err)
	}
	if u.cfg.AreaNotFoundPolicy == AreaPolicyReject {
		return nil, fmt.Errorf("resolve area %q: %w", *areaID, err)
	}
	slog.Warn("area not found, treating request as area-less", "area_id", *areaID)
	result.Warnings = append(result.Warnings, entity.Warning{
		Code:    entity.WarningAreaNotFound,
		Message: fmt.Sprintf("area %s not found; access evaluated without area", *areaID),
	})
	return nil, nil
}

// imageDigest は画像のBLAKE2b-256を16進文字列で返します。
func imageDigest(image []byte) string {
	sum := blake2b.Sum256(image)
	return hex.EncodeToString(sum[:])
}
