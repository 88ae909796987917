package usecase

import "fingerprint_access/internal/feature/recognition/domain/entity"

// Decide はマッチ結果としきい値から判定を導く純粋関数です。
// 候補者が存在し、かつ信頼度がしきい値以上の場合のみ照合成立とします。
// Authorizedは認可判定後に設定されるため、ここでは常にfalseです。
func Decide(outcome entity.MatchOutcome, threshold float64) entity.AccessDecision {
	d := entity.AccessDecision{Confidence: outcome.Confidence}
	if outcome.CandidateSubjectID != nil && outcome.Confidence >= threshold {
		id := *outcome.CandidateSubjectID
		d.Matched = true
		d.SubjectID = &id
		d.SampleID = outcome.SampleID
	}
	return d
}
