package entity

import "time"

// AccessLogEntry は1回のアクセス試行とその認可結果を記録する監査ログです。
// 作成後に変更されるのはRecognitionIDの後付けのみです。
type AccessLogEntry struct {
	ID            string
	AreaID        *string
	SubjectID     *string
	DeviceID      string
	Timestamp     time.Time
	AccessType    AccessType
	Authorized    bool
	RecognitionID *string
	ScanKey       string
}

// RecognitionEvent は生体照合そのものの記録です。必ずAccessLogEntryの後に作成されます。
type RecognitionEvent struct {
	ID                  string
	SubjectID           *string
	SampleID            *string
	AccessLogID         string
	SegmentationModelID string
	RecognitionModelID  string
	Confidence          float64
	ImageDigest         string // 画像のBLAKE2b-256（16進）
	Timestamp           time.Time
}

// Area は入退室管理の対象エリアです。
type Area struct {
	ID   string
	Name string
}

// SampleStatus は登録済み指紋サンプルの状態です。無効化されたサンプルはActiveがfalseです。
type SampleStatus struct {
	ID     string
	Active bool
}

// Subject は指紋が登録された人物です。
type Subject struct {
	ID   string
	Name string
}
