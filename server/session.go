package server

import (
	"errors"
	"sort"

	"github.com/google/uuid"
)

// DefaultUsername 新会话的占位名
const DefaultUsername = "DEFAULT NAME"

var ErrUnknownSession = errors.New("unknown session")

// SessionID 连接建立时分配的不透明唯一标识（UUIDv4，进程内不复用）
type SessionID string

// Outbox 会话的出站队列（由网络写协程消费）
type Outbox interface {
	// Enqueue 非阻塞入队，队列满或已关闭时返回 false
	Enqueue(b []byte) bool
	Close()
}

// Session 一个客户端连接及其服务端属性
type Session struct {
	ID       SessionID
	Username string
	Score    int
	InGame   bool // 房间成员标记

	out Outbox
}

// Send 向本会话发送已编码的消息，返回是否入队成功
func (s *Session) Send(b []byte) bool {
	if s.out == nil {
		return false
	}
	return s.out.Enqueue(b)
}

// Registry 管理所有活跃会话，只在世界协程中访问
type Registry struct {
	sessions map[SessionID]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[SessionID]*Session)}
}

// Create 以默认属性创建会话
func (r *Registry) Create(out Outbox) *Session {
	s := &Session{
		ID:       SessionID(uuid.NewString()),
		Username: DefaultUsername,
		out:      out,
	}
	r.sessions[s.ID] = s
	return s
}

// Remove 删除会话并关闭其出站队列
func (r *Registry) Remove(id SessionID) (*Session, bool) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	delete(r.sessions, id)
	if s.out != nil {
		s.out.Close()
	}
	return s, true
}

func (r *Registry) Get(id SessionID) (*Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

// SetUsername 最后写入者生效，不做校验
func (r *Registry) SetUsername(id SessionID, name string) error {
	s, ok := r.sessions[id]
	if !ok {
		return ErrUnknownSession
	}
	s.Username = name
	return nil
}

func (r *Registry) Len() int { return len(r.sessions) }

// Each 按 ID 升序遍历，保证管理接口输出稳定
func (r *Registry) Each(fn func(*Session)) {
	ids := make([]SessionID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fn(r.sessions[id])
	}
}
