package server

import "errors"

var ErrNotMember = errors.New("session is not a room member")

// Axis 移动轴
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

func (a Axis) Valid() bool { return a == AxisX || a == AxisY }

// Position 玩家位置（无边界）
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlayerSnapshot 为广播给客户端的轻量状态
type PlayerSnapshot struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Store 权威玩家状态：会话 → 位置，保持插入顺序
type Store struct {
	pos   map[SessionID]*Position
	order []SessionID
}

func NewStore() *Store {
	return &Store{pos: make(map[SessionID]*Position)}
}

// Add 分配条目；已存在时保持原位置并返回 false
func (s *Store) Add(id SessionID, p Position) bool {
	if _, ok := s.pos[id]; ok {
		return false
	}
	cp := p
	s.pos[id] = &cp
	s.order = append(s.order, id)
	return true
}

func (s *Store) Remove(id SessionID) bool {
	if _, ok := s.pos[id]; !ok {
		return false
	}
	delete(s.pos, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Get 返回当前位置，不存在时 ok 为 false
func (s *Store) Get(id SessionID) (Position, bool) {
	p, ok := s.pos[id]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

func (s *Store) Len() int { return len(s.order) }

// ApplyMovement position[axis] += force * step；非成员或参数非法时不改变状态
func (s *Store) ApplyMovement(id SessionID, axis Axis, force int, step float64) error {
	if !axis.Valid() {
		return ErrInvalidAxis
	}
	if force != 1 && force != -1 {
		return ErrInvalidForce
	}
	p, ok := s.pos[id]
	if !ok {
		return ErrNotMember
	}
	delta := float64(force) * step
	switch axis {
	case AxisX:
		p.X += delta
	case AxisY:
		p.Y += delta
	}
	return nil
}

// Snapshot 返回所有成员位置的新副本，顺序无语义
func (s *Store) Snapshot() []PlayerSnapshot {
	out := make([]PlayerSnapshot, 0, len(s.order))
	for _, id := range s.order {
		p := s.pos[id]
		out = append(out, PlayerSnapshot{ID: string(id), X: p.X, Y: p.Y})
	}
	return out
}
