package services

import (
	"time"
)

// RateGate は外部APIの呼び出し間隔を一定に保つ固定間隔ゲートです。
// アダプティブなバックオフは行わず、前回の呼び出しから最低intervalだけ空けます。
type RateGate struct {
	interval time.Duration
	now      func() time.Time
	sleep    func(time.Duration)
	last     time.Time
}

// NewRateGate は指定した間隔のRateGateを作成します。
func NewRateGate(interval time.Duration) *RateGate {
	return &RateGate{
		interval: interval,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Wait は前回の通過から間隔が空くまでブロックします。初回は待ちません。
func (g *RateGate) Wait() {
	if !g.last.IsZero() {
		if remaining := g.interval - g.now().Sub(g.last); remaining > 0 {
			g.sleep(remaining)
		}
	}
	g.last = g.now()
}
