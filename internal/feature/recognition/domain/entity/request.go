package entity

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// AccessType は入退室の種別です。
type AccessType string

const (
	AccessTypeEntry AccessType = "ENTRY"
	AccessTypeExit  AccessType = "EXIT"
)

// ParseAccessType は文字列をAccessTypeに変換します。大文字小文字は区別しません。
func ParseAccessType(s string) (AccessType, bool) {
	switch AccessType(strings.ToUpper(strings.TrimSpace(s))) {
	case AccessTypeEntry:
		return AccessTypeEntry, true
	case AccessTypeExit:
		return AccessTypeExit, true
	}
	return "", false
}

// RecognitionRequest は1回の指紋スキャンに対する認識リクエストです。永続化されません。
type RecognitionRequest struct {
	Image               []byte
	SegmentationModelID string
	RecognitionModelID  string
	AreaID              *string
	AccessType          AccessType
	DeviceID            string // スキャナー端末のID（デバイストークンのsub）
	ScanKey             string // クライアントが付与する冪等キー（任意）
}

// DeviceScanKey は冪等キーを端末単位に限定したキーを返します。
// 別々の端末が同じ冪等キーを使っても衝突せず、区切り文字の置き換えによる衝突も起きません。
func DeviceScanKey(deviceID, scanKey string) string {
	sum := blake2b.Sum256([]byte(deviceID + "\x00" + scanKey))
	return hex.EncodeToString(sum[:])
}
