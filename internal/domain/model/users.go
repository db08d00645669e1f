package model

import "time"

// EntitlementTier ユーザーの権限区分
const (
	TierFree    = "free"
	TierPremium = "premium"
)

// User キャンバスの利用者
// LastPlacedAt と PlacementCount はストアへのコミット成功後にのみ更新される
type User struct {
	ID              string     `json:"id" db:"id"`
	DisplayName     string     `json:"display_name" db:"display_name"`
	EntitlementTier string     `json:"entitlement_tier" db:"entitlement_tier"`
	LastPlacedAt    *time.Time `json:"last_placed_at,omitempty" db:"last_placed_at"`
	PlacementCount  int        `json:"placement_count" db:"placement_count"`
}

// HasPremium プレミアムパレットを利用できるかどうか
func (u *User) HasPremium() bool {
	return u.EntitlementTier == TierPremium
}
