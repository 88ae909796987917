package usecase

import (
	"context"
	"fmt"

	"fingerprint_access/internal/feature/recognition/domain"
	"fingerprint_access/internal/feature/recognition/domain/entity"
)

// ModelStore は種別とIDからモデル参照を取得するインターフェースです。
// ローカルDB実装とリモートのモデル管理サービス実装があります。
//
// 見つからない場合は*domain.ModelNotFoundErrorを、到達できない場合は
// domain.ErrModelRegistryUnavailableをラップしたエラーを返します。
type ModelStore interface {
	FindModel(ctx context.Context, kind entity.ModelKind, id string) (*entity.ModelReference, error)
}

// ModelRegistry は1リクエスト分のセグメンテーション・認識モデルを解決します。
type ModelRegistry struct {
	store ModelStore
}

var _ ModelResolver = (*ModelRegistry)(nil)

// NewModelRegistry はModelRegistryの新しいインスタンスを生成します。
func NewModelRegistry(store ModelStore) *ModelRegistry {
	return &ModelRegistry{store: store}
}

// Resolve は2つのモデルIDを解決します。どちらか一方でも失敗すればエラーを返します。
func (r *ModelRegistry) Resolve(ctx context.Context, segmentationModelID, recognitionModelID string) (entity.ModelReference, entity.ModelReference, error) {
	seg, err := r.find(ctx, entity.ModelKindSegmentation, segmentationModelID)
	if err != nil {
		return entity.ModelReference{}, entity.ModelReference{}, err
	}
	rec, err := r.find(ctx, entity.ModelKindRecognition, recognitionModelID)
	if err != nil {
		return entity.ModelReference{}, entity.ModelReference{}, err
	}
	return seg, rec, nil
}

func (r *ModelRegistry) find(ctx context.Context, kind entity.ModelKind, id string) (entity.ModelReference, error) {
	if id == "" {
		return entity.ModelReference{}, &domain.ModelNotFoundError{ID: id, Kind: kind}
	}
	m, err := r.store.FindModel(ctx, kind, id)
	if err != nil {
		return entity.ModelReference{}, fmt.Errorf("resolve %s model %q: %w", kind, id, err)
	}
	if m.PathName == "" {
		return entity.ModelReference{}, fmt.Errorf("resolve %s model %q: empty path: %w", kind, id, domain.ErrModelNotFound)
	}
	return *m, nil
}
