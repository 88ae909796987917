package adapters

import (
	"context"

	"gorm.io/gorm"

	"fingerprint_access/internal/feature/recognition/domain/entity"
	"fingerprint_access/internal/feature/recognition/usecase"
)

type recognitionEventGorm struct {
	db *gorm.DB
}

var _ usecase.RecognitionEventRepository = (*recognitionEventGorm)(nil)

// NewRecognitionEventRepository はGORMによる認識イベントリポジトリを生成します。
func NewRecognitionEventRepository(db *gorm.DB) *recognitionEventGorm {
	return &recognitionEventGorm{db: db}
}

func (r *recognitionEventGorm) Create(ctx context.Context, e *entity.RecognitionEvent) error {
	m := RecognitionEventModel{
		ID:                  e.ID,
		SubjectID:           e.SubjectID,
		SampleID:            e.SampleID,
		AccessLogID:         e.AccessLogID,
		SegmentationModelID: e.SegmentationModelID,
		RecognitionModelID:  e.RecognitionModelID,
		Confidence:          e.Confidence,
		ImageDigest:         e.ImageDigest,
		Timestamp:           e.Timestamp,
	}
	return r.db.WithContext(ctx).Create(&m).Error
}
