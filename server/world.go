package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// World 房间世界：权威状态维护在内存，由单个协程串行推进。
// 连接、消息、Tick、管理操作都以命令形式投递到 cmds，不加锁。
type World struct {
	log         *zap.SugaredLogger
	registry    *Registry
	store       *Store
	room        *Room
	dispatcher  *Dispatcher
	metrics     *WorldMetrics
	broadcaster *Broadcaster
	mirror      *EventMirror

	step       float64
	echoErrors bool

	cmds chan func()
	done chan struct{}
}

// NewWorld 按配置创建世界；log 为 nil 时不输出日志
func NewWorld(cfg Config, log *zap.SugaredLogger) *World {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	w := &World{
		log:         log,
		registry:    NewRegistry(),
		store:       NewStore(),
		dispatcher:  protocolDispatcher(),
		metrics:     &WorldMetrics{},
		broadcaster: NewBroadcaster(cfg.EmitRate()),
		step:        cfg.Step,
		echoErrors:  cfg.EchoErrors,
		cmds:        make(chan func(), 256), // 足够缓冲，避免网络读阻塞影响 Tick
		done:        make(chan struct{}),
	}
	w.room = NewRoom(cfg.RoomName, w.store, Position{X: cfg.SpawnX, Y: cfg.SpawnY})
	w.room.onDrop = func(SessionID) { w.metrics.IncFrameDropped() }
	w.room.onEvict = func(id SessionID, event string) {
		w.metrics.IncSlowClientClosed()
		w.log.Warnw("outbox full, closing slow client", "session", id, "event", event)
	}
	w.room.onEmit = func(event string, payload []byte) {
		if w.mirror != nil && !w.mirror.Offer(event, payload) {
			w.metrics.IncMirrorDropped()
		}
	}
	return w
}

// SetMirror 挂载事件镜像，需在 Run 之前调用
func (w *World) SetMirror(m *EventMirror) { w.mirror = m }

func (w *World) Metrics() *WorldMetrics { return w.metrics }

// Dispatcher 返回入站事件路由表，可在 Run 之前注册额外事件
func (w *World) Dispatcher() *Dispatcher { return w.dispatcher }

// Run 世界主循环：处理命令与 Tick，直到 ctx 取消
func (w *World) Run(ctx context.Context) error {
	defer close(w.done)
	w.broadcaster.Start()
	defer w.broadcaster.Stop()
	defer w.shutdown()

	w.log.Infow("world started", "room", w.room.Name, "emitRate", w.broadcaster.Rate())
	for {
		select {
		case <-ctx.Done():
			w.log.Infow("world stopping", "reason", ctx.Err())
			return ctx.Err()
		case fn := <-w.cmds:
			w.safely("command", fn)
		case <-w.broadcaster.C():
			w.safely("tick", w.Tick)
		}
	}
}

// Post 投递命令到世界协程；世界已停止时返回 false
func (w *World) Post(fn func()) bool {
	select {
	case <-w.done:
		return false
	default:
	}
	select {
	case w.cmds <- fn:
		return true
	case <-w.done:
		return false
	}
}

var ErrWorldStopped = errors.New("world stopped")

// Call 投递命令并等待其在世界协程中执行完毕
func (w *World) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !w.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrWorldStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return ErrWorldStopped
	}
}

// safely 单个命令的 panic 不影响主循环与其他会话
func (w *World) safely(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.metrics.IncHandlerPanic()
			w.log.Errorw("recovered from panic", "in", what, "panic", fmt.Sprint(r))
		}
	}()
	fn()
}

// shutdown 关闭所有会话的出站队列，写协程随之退出
func (w *World) shutdown() {
	var ids []SessionID
	w.registry.Each(func(s *Session) { ids = append(ids, s.ID) })
	for _, id := range ids {
		if _, ok := w.registry.Remove(id); ok {
			w.metrics.IncDisconnect()
		}
	}
}

// Connect 创建会话并发送问候序列
func (w *World) Connect(out Outbox) *Session {
	s := w.registry.Create(out)
	w.metrics.IncConnect()
	w.log.Infow("new connection", "session", s.ID)

	_ = w.EmitTo(s, EventHello, HelloPayload{ID: string(s.ID), CrazyString: "abc123", CoolArray: []any{40, "beep", true}})
	_ = w.EmitTo(s, EventHowAreYou, nil)
	_ = w.EmitTo(s, EventAnyoneThere, nil)
	return s
}

// Disconnect 先离开房间（通知剩余成员）再销毁会话，同一轮循环内完成
func (w *World) Disconnect(id SessionID) {
	s, ok := w.registry.Get(id)
	if !ok {
		return
	}
	if w.room.Leave(s) {
		w.log.Infow("player left game", "session", id, "username", s.Username, "remaining", w.room.Len())
	}
	w.registry.Remove(id)
	w.metrics.IncDisconnect()
	w.log.Infow("connection closed", "session", id)
}

// Join 加入房间；重复加入只记录日志，不回应客户端
func (w *World) Join(s *Session) JoinResult {
	res := w.room.Join(s)
	switch res {
	case JoinAdmitted:
		w.metrics.IncJoinAccepted()
		w.log.Infow("player joined game", "session", s.ID, "username", s.Username)
	case JoinAlreadyMember:
		w.metrics.IncDuplicateJoin()
		w.log.Warnw("player is already in a game", "session", s.ID, "username", s.Username)
	}
	return res
}

// Move 在确认成员身份后修改位置
func (w *World) Move(s *Session, axis Axis, force int) error {
	if !w.room.IsMember(s.ID) {
		return ErrNotMember
	}
	if err := w.store.ApplyMovement(s.ID, axis, force, w.step); err != nil {
		return err
	}
	w.metrics.IncMoveApplied()
	return nil
}

// HandleMessage 解析一条入站消息并路由到处理器；错误只影响该消息
func (w *World) HandleMessage(id SessionID, raw []byte) {
	s, ok := w.registry.Get(id)
	if !ok {
		w.log.Debugw("message for closed session dropped", "session", id)
		return
	}
	msg, err := Decode(raw)
	if err != nil {
		w.reject(s, "", err)
		return
	}
	h, ok := w.dispatcher.Lookup(msg.Event)
	if !ok {
		w.metrics.IncUnknownEvent()
		w.log.Debugw("unknown event ignored", "session", id, "event", msg.Event)
		return
	}
	w.safely(msg.Event, func() {
		if err := h(w, s, msg.Data); err != nil {
			w.reject(s, msg.Event, err)
		}
	})
}

func (w *World) reject(s *Session, event string, err error) {
	var pe *PayloadError
	switch {
	case errors.Is(err, ErrNotMember):
		w.metrics.IncOrphanedMove()
		w.log.Warnw("movement from non-member dropped", "session", s.ID, "event", event)
	case errors.As(err, &pe):
		w.metrics.IncMalformed()
		w.log.Warnw("malformed message dropped", "session", s.ID, "event", event, "err", err)
	default:
		w.log.Errorw("handler failed", "session", s.ID, "event", event, "err", err)
	}
	if w.echoErrors {
		_ = w.EmitTo(s, EventError, ErrorPayload{Event: event, Reason: err.Error()})
	}
}

// EmitTo 发送给单个会话
func (w *World) EmitTo(s *Session, event string, data any) error {
	b, err := Encode(event, data)
	if err != nil {
		return err
	}
	if !s.Send(b) {
		w.metrics.IncFrameDropped()
	}
	return nil
}

// EmitRoom 发送给房间内所有成员
func (w *World) EmitRoom(event string, data any) (int, error) {
	return w.room.Emit(event, data)
}

// EmitAll 发送给所有已连接会话（无论是否在房间内）
func (w *World) EmitAll(event string, data any) (int, error) {
	b, err := Encode(event, data)
	if err != nil {
		return 0, err
	}
	n := 0
	w.registry.Each(func(s *Session) {
		if s.Send(b) {
			n++
		} else {
			w.metrics.IncFrameDropped()
		}
	})
	return n, nil
}

// RuntimeConfig 可热更新的世界参数
type RuntimeConfig struct {
	Step       float64 `json:"step"`
	EmitRateMs int     `json:"emitRateMs"`
	EchoErrors bool    `json:"echoErrors"`
}

// RuntimePatch 部分更新，nil 字段保持不变
type RuntimePatch struct {
	Step       *float64 `json:"step,omitempty"`
	EmitRateMs *int     `json:"emitRateMs,omitempty"`
	EchoErrors *bool    `json:"echoErrors,omitempty"`
}

func (w *World) RuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Step:       w.step,
		EmitRateMs: int(w.broadcaster.Rate() / time.Millisecond),
		EchoErrors: w.echoErrors,
	}
}

// ApplyRuntime 校验后整体应用，任一字段非法则不做任何修改
func (w *World) ApplyRuntime(p RuntimePatch) error {
	if p.Step != nil && *p.Step <= 0 {
		return fmt.Errorf("step must be positive, got %v", *p.Step)
	}
	if p.EmitRateMs != nil && *p.EmitRateMs <= 0 {
		return fmt.Errorf("emitRateMs must be positive, got %d", *p.EmitRateMs)
	}
	if p.Step != nil {
		w.step = *p.Step
	}
	if p.EmitRateMs != nil {
		w.broadcaster.Reset(time.Duration(*p.EmitRateMs) * time.Millisecond)
	}
	if p.EchoErrors != nil {
		w.echoErrors = *p.EchoErrors
	}
	cur := w.RuntimeConfig()
	w.log.Infow("config updated", "step", cur.Step, "emitRateMs", cur.EmitRateMs, "echoErrors", cur.EchoErrors)
	return nil
}

// SessionInfo 管理接口输出的会话视图
type SessionInfo struct {
	ID       SessionID `json:"id"`
	Username string    `json:"username"`
	Score    int       `json:"score"`
	InGame   bool      `json:"inGame"`
	Position *Position `json:"position,omitempty"`
}

func (w *World) Sessions() []SessionInfo {
	out := make([]SessionInfo, 0, w.registry.Len())
	w.registry.Each(func(s *Session) {
		info := SessionInfo{ID: s.ID, Username: s.Username, Score: s.Score, InGame: s.InGame}
		if p, ok := w.store.Get(s.ID); ok {
			info.Position = &p
		}
		out = append(out, info)
	})
	return out
}
