package model

import "strings"

// DefaultBaseColors 全ユーザーが利用できる基本パレット
var DefaultBaseColors = []string{
	"#FFFFFF", "#E4E4E4", "#888888", "#222222",
	"#FFA7D1", "#FF0000", "#E59500", "#A06A42",
	"#E5D900", "#94E044", "#02BE01", "#00D3DD",
	"#0083C7", "#0000EA", "#CF6EE4", "#820080",
}

// DefaultPremiumColors プレミアム権限でのみ利用できる追加パレット
var DefaultPremiumColors = []string{
	"#FF3881", "#FF6A00", "#FFD635", "#00A368",
	"#3690EA", "#B44AC0", "#FF99AA", "#6D482F",
}

// Palette 配置可能な色の集合（権限で制限されるプレミアム色を含む）
type Palette struct {
	base    map[string]struct{}
	premium map[string]struct{}
}

// NewPalette 基本色とプレミアム色からパレットを作成（大文字に正規化）
func NewPalette(base, premium []string) *Palette {
	p := &Palette{
		base:    make(map[string]struct{}, len(base)),
		premium: make(map[string]struct{}, len(premium)),
	}
	for _, c := range base {
		p.base[strings.ToUpper(c)] = struct{}{}
	}
	for _, c := range premium {
		p.premium[strings.ToUpper(c)] = struct{}{}
	}
	return p
}

// DefaultPalette デフォルト構成のパレットを返す
func DefaultPalette() *Palette {
	return NewPalette(DefaultBaseColors, DefaultPremiumColors)
}

// Contains 指定色がパレットに含まれるか（プレミアム色も含めて判定）
func (p *Palette) Contains(color string) bool {
	c := strings.ToUpper(color)
	if _, ok := p.base[c]; ok {
		return true
	}
	_, ok := p.premium[c]
	return ok
}

// IsPremium 指定色がプレミアム限定色か
func (p *Palette) IsPremium(color string) bool {
	_, ok := p.premium[strings.ToUpper(color)]
	return ok
}
