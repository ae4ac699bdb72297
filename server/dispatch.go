package server

import (
	"encoding/json"
)

// HandlerFunc 入站事件处理器，在世界协程中执行
type HandlerFunc func(w *World, s *Session, data json.RawMessage) error

// Dispatcher 事件名 → 处理器
type Dispatcher struct {
	handlers map[string]HandlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

// Register 注册处理器，同名覆盖
func (d *Dispatcher) Register(event string, h HandlerFunc) {
	d.handlers[event] = h
}

func (d *Dispatcher) Lookup(event string) (HandlerFunc, bool) {
	h, ok := d.handlers[event]
	return h, ok
}

// protocolDispatcher 注册客户端协议的全部入站事件
func protocolDispatcher() *Dispatcher {
	d := NewDispatcher()
	d.Register(EventImFine, handleImFine)
	d.Register(EventChangeUsername, handleChangeUsername)
	d.Register(EventJoinGame, handleJoinGame)
	d.Register(EventMovePlayer, handleMovePlayer)
	return d
}

func handleImFine(w *World, s *Session, _ json.RawMessage) error {
	return w.EmitTo(s, EventGoodToHear, nil)
}

func handleChangeUsername(w *World, s *Session, data json.RawMessage) error {
	name, err := ParseUsername(data)
	if err != nil {
		return err
	}
	if err := w.registry.SetUsername(s.ID, name); err != nil {
		return err
	}
	w.log.Infow("username changed", "session", s.ID, "username", name)
	return nil
}

func handleJoinGame(w *World, s *Session, _ json.RawMessage) error {
	w.Join(s)
	return nil
}

func handleMovePlayer(w *World, s *Session, data json.RawMessage) error {
	axis, force, err := ParseMove(data)
	if err != nil {
		return err
	}
	return w.Move(s, axis, force)
}
