package service

import (
	"sync"
	"time"
)

// cooldownEntry ユーザーごとのクールダウン状態
// inFlight はストアへのコミットが進行中であることを示す予約フラグ。
// 同一ユーザーのほぼ同時の2リクエストのうち2件目を確実に拒否するために使う
type cooldownEntry struct {
	lastPlacedAt time.Time
	inFlight     bool
}

// CooldownTracker ユーザーごとの配置レート制限
// 状態の更新は Begin → Commit / Abort の2段階で行い、
// Commit はストアへの書き込みが確定した後にのみ呼ぶ。
// 書き込み失敗でクールダウンが消費されることはない
type CooldownTracker struct {
	mu       sync.Mutex
	entries  map[string]*cooldownEntry
	cooldown time.Duration
	now      func() time.Time
}

// NewCooldownTracker 指定のクールダウン時間でトラッカーを作成
func NewCooldownTracker(cooldown time.Duration) *CooldownTracker {
	return &CooldownTracker{
		entries:  make(map[string]*cooldownEntry),
		cooldown: cooldown,
		now:      time.Now,
	}
}

// Prime ストアに保存された最終配置時刻で状態を初期化する（認証時に呼ぶ）
// すでにメモリ上に状態がある場合は何もしない
func (t *CooldownTracker) Prime(userID string, lastPlacedAt time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[userID]; !ok {
		t.entries[userID] = &cooldownEntry{lastPlacedAt: lastPlacedAt}
	}
}

// remainingLocked 残り待ち時間を計算する（呼び出し側でロック保持）
func (t *CooldownTracker) remainingLocked(e *cooldownEntry) int64 {
	if e == nil || e.lastPlacedAt.IsZero() {
		return 0
	}
	remaining := t.cooldown - t.now().Sub(e.lastPlacedAt)
	if remaining <= 0 {
		return 0
	}
	return remaining.Milliseconds()
}

// CanPlace 現在配置可能かどうかと残り待ち時間（ミリ秒）を返す
// 一度も配置していないユーザーは即座に配置可能
func (t *CooldownTracker) CanPlace(userID string) (bool, int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	remaining := t.remainingLocked(t.entries[userID])
	return remaining == 0, remaining
}

// Begin 配置を予約する。拒否時は残り待ち時間（ミリ秒）を返す。
// 同一ユーザーの別リクエストが進行中の場合も拒否する
func (t *CooldownTracker) Begin(userID string) (bool, int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[userID]
	if !ok {
		e = &cooldownEntry{}
		t.entries[userID] = e
	}

	if remaining := t.remainingLocked(e); remaining > 0 {
		return false, remaining
	}
	if e.inFlight {
		// 進行中のコミットがクールダウンを開始する前提で全量を返す
		return false, t.cooldown.Milliseconds()
	}

	e.inFlight = true
	return true, 0
}

// Commit ストアへのコミット成功後にクールダウンを開始する
func (t *CooldownTracker) Commit(userID string, placedAt time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[userID]; ok {
		e.lastPlacedAt = placedAt
		e.inFlight = false
	}
}

// Abort コミット失敗時に予約を解除する（クールダウンは消費しない）
func (t *CooldownTracker) Abort(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[userID]; ok {
		e.inFlight = false
	}
}
