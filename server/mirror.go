package server

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Publisher 外部消息总线（Redis pub/sub 等）
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type mirrored struct {
	event   string
	payload []byte
}

// EventMirror 将房间级消息异步镜像到外部总线。
// Offer 在世界协程中调用，永不阻塞；发布在独立协程中进行。
type EventMirror struct {
	pub     Publisher
	channel string
	log     *zap.SugaredLogger
	queue   chan mirrored
	timeout time.Duration
}

func NewEventMirror(pub Publisher, channel string, log *zap.SugaredLogger) *EventMirror {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &EventMirror{
		pub:     pub,
		channel: channel,
		log:     log,
		queue:   make(chan mirrored, 128),
		timeout: 2 * time.Second,
	}
}

// Offer 入队，满则丢弃并返回 false
func (m *EventMirror) Offer(event string, payload []byte) bool {
	select {
	case m.queue <- mirrored{event: event, payload: payload}:
		return true
	default:
		return false
	}
}

// Run 持续发布直到 ctx 取消；单条发布失败只记录日志
func (m *EventMirror) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-m.queue:
			pctx, cancel := context.WithTimeout(ctx, m.timeout)
			if err := m.pub.Publish(pctx, m.channel, msg.payload); err != nil {
				m.log.Warnw("mirror publish failed", "channel", m.channel, "event", msg.event, "err", err)
			}
			cancel()
		}
	}
}
