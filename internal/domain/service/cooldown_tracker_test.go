package service

import (
	"testing"
	"time"
)

func TestCooldownTracker_基本フロー(t *testing.T) {
	tracker := NewCooldownTracker(30000 * time.Millisecond)
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return current }

	// 初回配置は即座に許可される
	ok, remaining := tracker.Begin("user-1")
	if !ok || remaining != 0 {
		t.Fatalf("初回配置が拒否されました: remaining=%d", remaining)
	}
	tracker.Commit("user-1", current)

	// 直後の2回目はクールダウン全量で拒否される
	ok, remaining = tracker.Begin("user-1")
	if ok {
		t.Fatal("クールダウン中の配置が許可されました")
	}
	if remaining <= 29000 || remaining > 30000 {
		t.Fatalf("残り待ち時間が期待と異なります: %dms", remaining)
	}

	// 15秒後: まだ拒否され、残りはおよそ半分
	current = current.Add(15 * time.Second)
	ok, remaining = tracker.Begin("user-1")
	if ok {
		t.Fatal("クールダウン途中の配置が許可されました")
	}
	if remaining != 15000 {
		t.Fatalf("残り待ち時間が期待と異なります: %dms", remaining)
	}

	// クールダウン経過後は再び許可される
	current = current.Add(15001 * time.Millisecond)
	ok, remaining = tracker.Begin("user-1")
	if !ok {
		t.Fatalf("クールダウン経過後の配置が拒否されました: remaining=%d", remaining)
	}
}

func TestCooldownTracker_ユーザーごとに独立(t *testing.T) {
	tracker := NewCooldownTracker(30 * time.Second)
	current := time.Now()
	tracker.now = func() time.Time { return current }

	ok, _ := tracker.Begin("user-a")
	if !ok {
		t.Fatal("user-aの初回配置が拒否されました")
	}
	tracker.Commit("user-a", current)

	// user-a のクールダウンは user-b に影響しない
	ok, _ = tracker.Begin("user-b")
	if !ok {
		t.Fatal("別ユーザーの配置が拒否されました")
	}
}

func TestCooldownTracker_同時リクエストの予約(t *testing.T) {
	tracker := NewCooldownTracker(30 * time.Second)

	ok, _ := tracker.Begin("user-1")
	if !ok {
		t.Fatal("1件目のBeginが拒否されました")
	}

	// コミット前の同一ユーザー2件目は確実に拒否される
	ok, remaining := tracker.Begin("user-1")
	if ok {
		t.Fatal("進行中の配置があるのに2件目が許可されました")
	}
	if remaining != 30000 {
		t.Fatalf("進行中拒否の残り時間が期待と異なります: %dms", remaining)
	}
}

func TestCooldownTracker_Abortはクールダウンを消費しない(t *testing.T) {
	tracker := NewCooldownTracker(30 * time.Second)

	ok, _ := tracker.Begin("user-1")
	if !ok {
		t.Fatal("Beginが拒否されました")
	}

	// ストア書き込み失敗を想定して予約を解除
	tracker.Abort("user-1")

	ok, remaining := tracker.Begin("user-1")
	if !ok {
		t.Fatalf("Abort後の再配置が拒否されました: remaining=%d", remaining)
	}
}

func TestCooldownTracker_Prime(t *testing.T) {
	tracker := NewCooldownTracker(30000 * time.Millisecond)
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return current }

	t.Run("ストアの最終配置時刻を反映する", func(t *testing.T) {
		// 10秒前に配置済み → 残り約20秒
		tracker.Prime("user-1", current.Add(-10*time.Second))
		ok, remaining := tracker.CanPlace("user-1")
		if ok {
			t.Fatal("Prime直後の配置が許可されました")
		}
		if remaining != 20000 {
			t.Fatalf("残り待ち時間が期待と異なります: %dms", remaining)
		}
	})

	t.Run("メモリ上の状態を上書きしない", func(t *testing.T) {
		// 再接続時のPrimeは既存のインメモリ状態を尊重する
		tracker.Prime("user-1", current.Add(-1*time.Second))
		_, remaining := tracker.CanPlace("user-1")
		if remaining != 20000 {
			t.Fatalf("Primeが既存状態を上書きしました: %dms", remaining)
		}
	})

	t.Run("古い配置時刻なら即座に配置可能", func(t *testing.T) {
		tracker.Prime("user-2", current.Add(-time.Hour))
		ok, remaining := tracker.CanPlace("user-2")
		if !ok || remaining != 0 {
			t.Fatalf("十分古い配置時刻なのに拒否されました: %dms", remaining)
		}
	})
}
