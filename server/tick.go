package server

import "time"

// ticker 抽象 time.Ticker，测试中可替换为手动触发
type ticker interface {
	Chan() <-chan time.Time
	Reset(d time.Duration)
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) Chan() <-chan time.Time { return t.C }

func newTimeTicker(d time.Duration) ticker { return timeTicker{time.NewTicker(d)} }

// Broadcaster 固定周期触发快照广播；周期独立于房间人数
type Broadcaster struct {
	rate      time.Duration
	t         ticker
	newTicker func(time.Duration) ticker
}

func NewBroadcaster(rate time.Duration) *Broadcaster {
	return &Broadcaster{rate: rate, newTicker: newTimeTicker}
}

// Start 启动定时器（重复调用无副作用）
func (b *Broadcaster) Start() {
	if b.t != nil {
		return
	}
	b.t = b.newTicker(b.rate)
}

// C 未启动时返回 nil 通道（select 中永不就绪）
func (b *Broadcaster) C() <-chan time.Time {
	if b.t == nil {
		return nil
	}
	return b.t.Chan()
}

func (b *Broadcaster) Rate() time.Duration { return b.rate }

// Reset 热更新广播周期
func (b *Broadcaster) Reset(rate time.Duration) {
	b.rate = rate
	if b.t != nil {
		b.t.Reset(rate)
	}
}

func (b *Broadcaster) Stop() {
	if b.t != nil {
		b.t.Stop()
		b.t = nil
	}
}

// Tick 计算快照并作为一条批量消息推送给所有房间成员
func (w *World) Tick() {
	start := time.Now()
	defer func() { w.metrics.AddTick(time.Since(start).Nanoseconds()) }()

	if w.room.Len() == 0 {
		// 空房间跳过广播
		w.metrics.IncEmptyTick()
		return
	}
	n, err := w.EmitRoom(EventStateUpdate, w.store.Snapshot())
	if err != nil {
		w.log.Errorw("encode snapshot failed", "err", err)
		return
	}
	w.metrics.AddSnapshotsSent(n)
}
