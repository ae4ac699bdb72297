package server

// JoinResult 加入房间的结果
type JoinResult int

const (
	JoinAdmitted JoinResult = iota
	JoinAlreadyMember
)

func (r JoinResult) String() string {
	if r == JoinAdmitted {
		return "admitted"
	}
	return "already_member"
}

// Room 命名的广播组；成员 ⇔ InGame 为真 ⇔ Store 中有条目
type Room struct {
	Name string

	members map[SessionID]*Session
	order   []SessionID
	store   *Store
	spawn   Position

	// onEmit 房间级消息发出后的回调（事件镜像等）
	onEmit func(event string, payload []byte)
	// onDrop 某成员出站队列拒收时回调
	onDrop func(id SessionID)
	// onEvict 控制事件无法入队、连接被关闭时回调
	onEvict func(id SessionID, event string)
}

// NewRoom 创建房间，初始化数据结构
func NewRoom(name string, store *Store, spawn Position) *Room {
	return &Room{
		Name:    name,
		members: make(map[SessionID]*Session),
		store:   store,
		spawn:   spawn,
	}
}

// Join 将会话加入房间并在出生点分配玩家状态；已是成员时不做任何改变
func (r *Room) Join(s *Session) JoinResult {
	if s.InGame {
		return JoinAlreadyMember
	}
	s.InGame = true
	r.members[s.ID] = s
	r.order = append(r.order, s.ID)
	r.store.Add(s.ID, r.spawn)
	if b, err := Encode(EventJoinSuccess, nil); err == nil {
		r.deliverControl(s, EventJoinSuccess, b)
	}
	return JoinAdmitted
}

// Leave 移除成员并通知剩余成员；从未加入时返回 false 且不发送任何消息
func (r *Room) Leave(s *Session) bool {
	if !s.InGame {
		return false
	}
	r.store.Remove(s.ID)
	delete(r.members, s.ID)
	for i, id := range r.order {
		if id == s.ID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	s.InGame = false
	r.broadcast(EventRemovePlayer, string(s.ID), true)
	return true
}

func (r *Room) IsMember(id SessionID) bool {
	_, ok := r.members[id]
	return ok
}

// Members 成员 ID（加入顺序）
func (r *Room) Members() []SessionID {
	out := make([]SessionID, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Room) Len() int { return len(r.order) }

// Emit 编码一次后推送给所有成员，返回成功入队的成员数；队列满的成员丢弃本条
func (r *Room) Emit(event string, data any) (int, error) {
	return r.broadcast(event, data, false)
}

// broadcast control 为真时消息不可丢：入队失败的成员连接被关闭，由断线流程清理
func (r *Room) broadcast(event string, data any, control bool) (int, error) {
	b, err := Encode(event, data)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range r.order {
		s := r.members[id]
		var ok bool
		if control {
			ok = r.deliverControl(s, event, b)
		} else {
			ok = r.deliver(s, b)
		}
		if ok {
			n++
		}
	}
	if r.onEmit != nil {
		r.onEmit(event, b)
	}
	return n, nil
}

func (r *Room) deliver(s *Session, b []byte) bool {
	if s.Send(b) {
		return true
	}
	if r.onDrop != nil {
		r.onDrop(s.ID)
	}
	return false
}

// deliverControl 客户端积压到无法接收控制事件时，宁可断开也不让其状态静默失真
func (r *Room) deliverControl(s *Session, event string, b []byte) bool {
	if r.deliver(s, b) {
		return true
	}
	if s.out != nil {
		s.out.Close()
	}
	if r.onEvict != nil {
		r.onEvict(s.ID, event)
	}
	return false
}
