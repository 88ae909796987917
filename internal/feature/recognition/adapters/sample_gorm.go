package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"fingerprint_access/internal/feature/recognition/domain"
	"fingerprint_access/internal/feature/recognition/domain/entity"
	"fingerprint_access/internal/feature/recognition/usecase"
)

type sampleGorm struct {
	db *gorm.DB
}

var _ usecase.SampleDirectory = (*sampleGorm)(nil)

// NewSampleDirectory はGORMによる指紋サンプルの参照を生成します。
func NewSampleDirectory(db *gorm.DB) *sampleGorm {
	return &sampleGorm{db: db}
}

// FindSample はサンプルの状態を取得します。存在しない場合はdomain.ErrSampleNotFoundを返します。
func (r *sampleGorm) FindSample(ctx context.Context, id string) (*entity.SampleStatus, error) {
	var m FingerprintSampleModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSampleNotFound
		}
		return nil, err
	}
	return &entity.SampleStatus{ID: m.ID, Active: m.Active}, nil
}
