package entity

// WarningCode は部分的成功を示す警告の種別です。
type WarningCode string

const (
	WarningRecognitionEventWriteFailed WarningCode = "recognition_event_write_failed"
	WarningLinkBackFailed              WarningCode = "link_back_failed"
	WarningSubjectNotFound             WarningCode = "subject_not_found"
	WarningSubjectLookupFailed         WarningCode = "subject_lookup_failed"
	WarningAreaNotFound                WarningCode = "area_not_found"
	WarningSampleNotFound              WarningCode = "sample_not_found"
	WarningSampleLookupFailed          WarningCode = "sample_lookup_failed"
)

// Warning はレスポンスに添える助言的な警告です。判定結果そのものは有効です。
type Warning struct {
	Code    WarningCode
	Message string
}

// RecognitionResult は認識パイプライン1回分の呼び出し元向けの結果です。
type RecognitionResult struct {
	Decision    AccessDecision
	AccessLog   AccessLogEntry
	SubjectName string // 照合者の表示名（注釈できなかった場合は空）
	// SampleActive は照合したサンプルが有効かどうかです。サンプルIDがない、または確認できなかった場合はnilです。
	SampleActive *bool
	Warnings    []Warning
	Replayed    bool // 冪等キーにより保存済みの結果を返した場合true
}

// Partial は監査記録の一部が失敗したかどうかを返します。
func (r *RecognitionResult) Partial() bool {
	for _, w := range r.Warnings {
		if w.Code == WarningRecognitionEventWriteFailed || w.Code == WarningLinkBackFailed {
			return true
		}
	}
	return false
}
