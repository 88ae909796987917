// Package adapters はrecognitionフィーチャーのGORMリポジトリ実装を提供します。
//
// 単一サービス構成ではモデル・エリア・許可・人物・監査記録をすべてこのDBに持ちます。
package adapters

import "time"

// BiometricModel はセグメンテーション/認識モデルのテーブルです。
// 種別ごとに別テーブルを持たず、kind列でタグ付けします。
type BiometricModel struct {
	ID        string `gorm:"primaryKey;size:64"`
	Kind      string `gorm:"primaryKey;size:16"`
	PathName  string `gorm:"size:512;not null"`
	Version   string `gorm:"size:32"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (BiometricModel) TableName() string {
	return "biometric_models"
}

// AreaModel は入退室管理の対象エリアです。
type AreaModel struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:128;not null"`
	CreatedAt time.Time
}

func (AreaModel) TableName() string {
	return "areas"
}

// AreaGrantModel は人物とエリアの入室許可です。行の存在だけが認可条件です。
type AreaGrantModel struct {
	ID        uint   `gorm:"primaryKey"`
	SubjectID string `gorm:"size:64;not null;uniqueIndex:area_grant_subject_area,priority:1"`
	AreaID    string `gorm:"size:64;not null;uniqueIndex:area_grant_subject_area,priority:2;index"`
	CreatedAt time.Time
}

func (AreaGrantModel) TableName() string {
	return "area_grants"
}

// SubjectModel は指紋が登録された人物です。
type SubjectModel struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:128;not null"`
	CreatedAt time.Time
}

func (SubjectModel) TableName() string {
	return "subjects"
}

// FingerprintSampleModel は登録済みの指紋サンプルです。無効化されたサンプルは削除せずActiveをfalseにします。
type FingerprintSampleModel struct {
	ID        string `gorm:"primaryKey;size:64"`
	SubjectID string `gorm:"size:64;not null;index"`
	Active    bool   `gorm:"not null"`
	CreatedAt time.Time
}

func (FingerprintSampleModel) TableName() string {
	return "fingerprint_samples"
}

// AccessLogModel は追記専用のアクセスログです。
// ScanKeyは冪等キーが指定された場合のみ値を持ち、NULLは重複とみなされません。
// 冪等キーは端末ごとに一意です。
type AccessLogModel struct {
	ID            string    `gorm:"primaryKey;size:36"`
	AreaID        *string   `gorm:"size:64;index"`
	SubjectID     *string   `gorm:"size:64;index"`
	DeviceID      string    `gorm:"size:128;uniqueIndex:access_log_device_scan_key,priority:1"`
	Timestamp     time.Time `gorm:"not null;index"`
	AccessType    string    `gorm:"size:16;not null"`
	Authorized    bool      `gorm:"not null"`
	RecognitionID *string   `gorm:"size:36"`
	ScanKey       *string   `gorm:"size:128;uniqueIndex:access_log_device_scan_key,priority:2"`
}

func (AccessLogModel) TableName() string {
	return "access_logs"
}

// RecognitionEventModel は生体照合の記録です。
type RecognitionEventModel struct {
	ID                  string    `gorm:"primaryKey;size:36"`
	SubjectID           *string   `gorm:"size:64;index"`
	SampleID            *string   `gorm:"size:64"`
	AccessLogID         string    `gorm:"size:36;not null;index"`
	SegmentationModelID string    `gorm:"size:64;not null"`
	RecognitionModelID  string    `gorm:"size:64;not null"`
	Confidence          float64   `gorm:"not null"`
	ImageDigest         string    `gorm:"size:64"`
	Timestamp           time.Time `gorm:"not null"`
}

func (RecognitionEventModel) TableName() string {
	return "recognition_events"
}

// Models はAutoMigrate対象のモデル一覧を返します。
func Models() []any {
	return []any{
		&BiometricModel{},
		&AreaModel{},
		&AreaGrantModel{},
		&SubjectModel{},
		&FingerprintSampleModel{},
		&AccessLogModel{},
		&RecognitionEventModel{},
	}
}
