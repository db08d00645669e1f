package service

import (
	"strings"

	"GeoCanvas-App/internal/domain/model"
)

// PlacementValidator 配置リクエストの構造・ポリシー検証
// 副作用なしの純粋チェックであり、クールダウン判定は含まない
// （CooldownTrackerと直交に保つことで個別にテストできる）
type PlacementValidator struct {
	grid    *GridService
	palette *model.Palette
}

// NewPlacementValidator 新しいPlacementValidatorを作成
func NewPlacementValidator(grid *GridService, palette *model.Palette) *PlacementValidator {
	return &PlacementValidator{grid: grid, palette: palette}
}

// Validate 配置を順番に検証し、最初に失敗した理由を返す（成功時はnil）
// 1. セル座標が世界グリッド内にあるか
// 2. 色がパレットに含まれるか
// 3. プレミアム限定色の場合、ユーザーの権限区分が許可するか
func (v *PlacementValidator) Validate(cell model.GridCoord, color, entitlementTier string) *model.PlacementError {
	if !v.grid.InBounds(cell) {
		return &model.PlacementError{Reason: model.ReasonOutOfBounds}
	}

	color = strings.ToUpper(color)
	if !v.palette.Contains(color) {
		return &model.PlacementError{Reason: model.ReasonInvalidColor}
	}

	if v.palette.IsPremium(color) && entitlementTier != model.TierPremium {
		return &model.PlacementError{Reason: model.ReasonEntitlementRequired}
	}

	return nil
}
