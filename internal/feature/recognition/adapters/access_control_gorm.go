package adapters

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"fingerprint_access/internal/feature/recognition/domain"
	"fingerprint_access/internal/feature/recognition/domain/entity"
	"fingerprint_access/internal/feature/recognition/usecase"
)

// accessControlGorm はエリアと入室許可の読み取りを提供します。
type accessControlGorm struct {
	db *gorm.DB
}

var (
	_ usecase.AreaResolver = (*accessControlGorm)(nil)
	_ usecase.GrantChecker = (*accessControlGorm)(nil)
)

// NewAccessControlStore はGORMによるアクセス制御ストアを生成します。
func NewAccessControlStore(db *gorm.DB) *accessControlGorm {
	return &accessControlGorm{db: db}
}

// FindArea はエリアを取得します。存在しない場合はdomain.ErrAreaNotFoundを返します。
func (r *accessControlGorm) FindArea(ctx context.Context, id string) (*entity.Area, error) {
	var m AreaModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAreaNotFound
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrAccessControlUnavailable, err)
	}
	return &entity.Area{ID: m.ID, Name: m.Name}, nil
}

// HasGrant は許可行の有無を返します。
func (r *accessControlGorm) HasGrant(ctx context.Context, subjectID, areaID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&AreaGrantModel{}).
		Where("subject_id = ? AND area_id = ?", subjectID, areaID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrAccessControlUnavailable, err)
	}
	return count > 0, nil
}
