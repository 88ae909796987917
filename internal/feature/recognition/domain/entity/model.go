// Package entity はrecognitionフィーチャーのドメインモデルを定義します。
package entity

// ModelKind は生体認証モデルの種別を表すタグです。
type ModelKind string

const (
	// ModelKindSegmentation は指紋領域の切り出しに使うモデルです。
	ModelKindSegmentation ModelKind = "segmentation"
	// ModelKindRecognition は指紋照合に使うモデルです。
	ModelKindRecognition ModelKind = "recognition"
)

// ModelReference は解決済みのモデル参照です。
// 1リクエストの間だけ保持し、リクエストをまたいでキャッシュしません。
type ModelReference struct {
	ID       string
	Kind     ModelKind
	PathName string // マッチャーに渡すモデルのパス
}
