package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"fingerprint_access/internal/feature/recognition/domain"
	"fingerprint_access/internal/feature/recognition/domain/entity"
	"fingerprint_access/internal/feature/recognition/usecase"
)

// accessLogGorm はアクセスログの追記とリンクバックを行います。
type accessLogGorm struct {
	db *gorm.DB
}

var (
	_ usecase.AccessLogRepository = (*accessLogGorm)(nil)
	_ usecase.AccessLogLinker     = (*accessLogGorm)(nil)
)

// NewAccessLogRepository はGORMによるアクセスログリポジトリを生成します。
func NewAccessLogRepository(db *gorm.DB) *accessLogGorm {
	return &accessLogGorm{db: db}
}

// Create はアクセスログを追加します。
// 同じScanKeyのログが既に存在する場合、domain.ErrDuplicateScanを返します。
func (r *accessLogGorm) Create(ctx context.Context, e *entity.AccessLogEntry) error {
	m := accessLogFromEntity(e)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: scan key %q", domain.ErrDuplicateScan, e.ScanKey)
		}
		return err
	}
	return nil
}

// LinkRecognition はアクセスログにrecognitionIDを設定します。
func (r *accessLogGorm) LinkRecognition(ctx context.Context, accessLogID, recognitionID string) error {
	res := r.db.WithContext(ctx).
		Model(&AccessLogModel{}).
		Where("id = ?", accessLogID).
		Update("recognition_id", recognitionID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("access log %s not found", accessLogID)
	}
	return nil
}

func accessLogFromEntity(e *entity.AccessLogEntry) AccessLogModel {
	m := AccessLogModel{
		ID:            e.ID,
		AreaID:        e.AreaID,
		SubjectID:     e.SubjectID,
		DeviceID:      e.DeviceID,
		Timestamp:     e.Timestamp,
		AccessType:    string(e.AccessType),
		Authorized:    e.Authorized,
		RecognitionID: e.RecognitionID,
	}
	if e.ScanKey != "" {
		key := e.ScanKey
		m.ScanKey = &key
	}
	return m
}

// isDuplicateKey は一意制約違反かどうかを判定します。
// TranslateErrorが有効ならgorm.ErrDuplicatedKey、PostgreSQLは23505、SQLiteはメッセージで判定します。
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
