package model

import (
	"errors"
	"fmt"
)

// 配置拒否の理由コード
const (
	ReasonOutOfBounds         = "out_of_bounds"
	ReasonInvalidColor        = "invalid_color"
	ReasonEntitlementRequired = "entitlement_required"
	ReasonCooldownActive      = "cooldown_active"
	ReasonUnauthenticated     = "unauthenticated"
	ReasonStorageUnavailable  = "storage_unavailable"
)

// ErrUnauthenticated 認証に失敗した場合のエラー
var ErrUnauthenticated = errors.New("認証に失敗しました")

// PlacementError 配置リクエストの構造化された拒否理由
// CooldownActive の場合は残り待ち時間をミリ秒で持ち、
// StorageUnavailable の場合のみクライアント側のリトライが許される
type PlacementError struct {
	Reason      string `json:"reason"`
	RemainingMs int64  `json:"remaining_ms,omitempty"`
	Retryable   bool   `json:"retryable,omitempty"`
}

func (e *PlacementError) Error() string {
	if e.Reason == ReasonCooldownActive {
		return fmt.Sprintf("%s (残り %dms)", e.Reason, e.RemainingMs)
	}
	return e.Reason
}

// NewCooldownError クールダウン中の拒否を作成
func NewCooldownError(remainingMs int64) *PlacementError {
	return &PlacementError{Reason: ReasonCooldownActive, RemainingMs: remainingMs}
}

// NewStorageError ストレージ障害による一時的な失敗を作成
func NewStorageError() *PlacementError {
	return &PlacementError{Reason: ReasonStorageUnavailable, Retryable: true}
}
