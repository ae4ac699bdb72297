package server

import (
	"sync/atomic"
)

// WorldMetrics 记录运行期的关键指标（用于监控与调试）
// 由世界协程写入，HTTP 协程读取，因此全部使用原子操作。
type WorldMetrics struct {
	Connections       int64 // 当前连接数
	ConnectsTotal     int64
	JoinsAccepted     int64
	DuplicateJoins    int64 // 已在房间内又请求加入
	MovesApplied      int64
	OrphanedMoves     int64 // 非成员的移动请求
	MalformedMessages int64 // 格式或负载校验失败
	UnknownEvents     int64 // 未注册的事件名
	HandlerPanics     int64
	TickCount         int64
	EmptyTicks        int64 // 房间为空跳过广播
	SnapshotsSent     int64 // 成功入队的 state_update 条数
	FramesDropped     int64 // 出站队列满被丢弃的消息数
	MirrorDropped     int64 // 镜像队列满被丢弃的消息数
	SlowClientsClosed int64 // 控制事件无法入队而被断开的连接数
	TotalTickNs       int64 // Tick 累计耗时（纳秒）
}

func (m *WorldMetrics) IncConnect() {
	atomic.AddInt64(&m.Connections, 1)
	atomic.AddInt64(&m.ConnectsTotal, 1)
}
func (m *WorldMetrics) IncDisconnect()         { atomic.AddInt64(&m.Connections, -1) }
func (m *WorldMetrics) IncJoinAccepted()       { atomic.AddInt64(&m.JoinsAccepted, 1) }
func (m *WorldMetrics) IncDuplicateJoin()      { atomic.AddInt64(&m.DuplicateJoins, 1) }
func (m *WorldMetrics) IncMoveApplied()        { atomic.AddInt64(&m.MovesApplied, 1) }
func (m *WorldMetrics) IncOrphanedMove()       { atomic.AddInt64(&m.OrphanedMoves, 1) }
func (m *WorldMetrics) IncMalformed()          { atomic.AddInt64(&m.MalformedMessages, 1) }
func (m *WorldMetrics) IncUnknownEvent()       { atomic.AddInt64(&m.UnknownEvents, 1) }
func (m *WorldMetrics) IncHandlerPanic()       { atomic.AddInt64(&m.HandlerPanics, 1) }
func (m *WorldMetrics) IncEmptyTick()          { atomic.AddInt64(&m.EmptyTicks, 1) }
func (m *WorldMetrics) AddSnapshotsSent(n int) { atomic.AddInt64(&m.SnapshotsSent, int64(n)) }
func (m *WorldMetrics) IncFrameDropped()       { atomic.AddInt64(&m.FramesDropped, 1) }
func (m *WorldMetrics) IncMirrorDropped()      { atomic.AddInt64(&m.MirrorDropped, 1) }
func (m *WorldMetrics) IncSlowClientClosed()   { atomic.AddInt64(&m.SlowClientsClosed, 1) }
func (m *WorldMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *WorldMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"connections":         atomic.LoadInt64(&m.Connections),
		"connects_total":      atomic.LoadInt64(&m.ConnectsTotal),
		"joins_accepted":      atomic.LoadInt64(&m.JoinsAccepted),
		"duplicate_joins":     atomic.LoadInt64(&m.DuplicateJoins),
		"moves_applied":       atomic.LoadInt64(&m.MovesApplied),
		"orphaned_moves":      atomic.LoadInt64(&m.OrphanedMoves),
		"malformed_messages":  atomic.LoadInt64(&m.MalformedMessages),
		"unknown_events":      atomic.LoadInt64(&m.UnknownEvents),
		"handler_panics":      atomic.LoadInt64(&m.HandlerPanics),
		"tick_count":          tick,
		"empty_ticks":         atomic.LoadInt64(&m.EmptyTicks),
		"snapshots_sent":      atomic.LoadInt64(&m.SnapshotsSent),
		"frames_dropped":      atomic.LoadInt64(&m.FramesDropped),
		"mirror_dropped":      atomic.LoadInt64(&m.MirrorDropped),
		"slow_clients_closed": atomic.LoadInt64(&m.SlowClientsClosed),
		"avg_tick_ms":         avgMs,
	}
}
