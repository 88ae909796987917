package entity

// MatchOutcome はマッチャー1回の実行結果です。
type MatchOutcome struct {
	CandidateSubjectID *string // 候補者ID（該当なしの場合nil）
	Confidence         float64 // 信頼度スコア（0.0 ~ 1.0）
	SampleID           *string // 最も近かった登録サンプルのID（報告されない場合nil）
}

// AccessDecision はマッチ結果と認可判定から導かれる判定値です。
type AccessDecision struct {
	Matched    bool
	Authorized bool
	SubjectID  *string // Matchedがfalseの場合は常にnil
	SampleID   *string // Matchedがfalseの場合は常にnil
	Confidence float64
}
