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

// modelStoreGorm はModelStoreのGORM実装です。
type modelStoreGorm struct {
	db *gorm.DB
}

var _ usecase.ModelStore = (*modelStoreGorm)(nil)

// NewModelStore はGORMによるモデルストアを生成します。
func NewModelStore(db *gorm.DB) *modelStoreGorm {
	return &modelStoreGorm{db: db}
}

// FindModel は種別とIDでモデルを取得します。
// 存在しない場合は*domain.ModelNotFoundErrorを、DBエラーはErrModelRegistryUnavailableとして返します。
func (r *modelStoreGorm) FindModel(ctx context.Context, kind entity.ModelKind, id string) (*entity.ModelReference, error) {
	var m BiometricModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND kind = ?", id, string(kind)).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.ModelNotFoundError{ID: id, Kind: kind}
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrModelRegistryUnavailable, err)
	}
	return &entity.ModelReference{ID: m.ID, Kind: entity.ModelKind(m.Kind), PathName: m.PathName}, nil
}
