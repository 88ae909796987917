package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"fingerprint_access/internal/feature/recognition/domain"
	"fingerprint_access/internal/feature/recognition/domain/entity"
	"fingerprint_access/internal/feature/recognition/usecase"
)

type subjectGorm struct {
	db *gorm.DB
}

var _ usecase.SubjectDirectory = (*subjectGorm)(nil)

// NewSubjectDirectory はGORMによる人物ディレクトリを生成します。
func NewSubjectDirectory(db *gorm.DB) *subjectGorm {
	return &subjectGorm{db: db}
}

// FindSubject は人物を取得します。存在しない場合はdomain.ErrSubjectNotFoundを返します。
func (r *subjectGorm) FindSubject(ctx context.Context, id string) (*entity.Subject, error) {
	var m SubjectModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSubjectNotFound
		}
		return nil, err
	}
	return &entity.Subject{ID: m.ID, Name: m.Name}, nil
}
