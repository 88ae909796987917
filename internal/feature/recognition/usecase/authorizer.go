package usecase

import (
	"context"
	"fmt"
)

// GrantChecker はエリアへの入室許可（AreaGrant）の有無を参照するインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type GrantChecker interface {
	// HasGrant は(subjectID, areaID)の許可が存在するかを返します。副作用のない読み取りです。
	HasGrant(ctx context.Context, subjectID, areaID string) (bool, error)
}

// AuthorizationEvaluator は人物とエリアから入室可否を判定します。
type AuthorizationEvaluator struct {
	grants GrantChecker
}

// NewAuthorizationEvaluator はAuthorizationEvaluatorの新しいインスタンスを生成します。
func NewAuthorizationEvaluator(grants GrantChecker) *AuthorizationEvaluator {
	return &AuthorizationEvaluator{grants: grants}
}

// Authorize は入室可否を判定します。
//
//   - エリア指定なし: 常に許可（勤怠記録などエリアを伴わない認識は拒否しない）
//   - エリア指定あり・人物なし: 拒否
//   - 両方あり: AreaGrantが存在すれば許可
//
// エラーは許可データを読み取れなかった場合のみ返します。
func (e *AuthorizationEvaluator) Authorize(ctx context.Context, subjectID, areaID *string) (bool, error) {
	if areaID == nil {
		return true, nil
	}
	if subjectID == nil {
		return false, nil
	}
	ok, err := e.grants.HasGrant(ctx, *subjectID, *areaID)
	if err != nil {
		return false, fmt.Errorf("check grant subject=%s area=%s: %w", *subjectID, *areaID, err)
	}
	return ok, nil
}
