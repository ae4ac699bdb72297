package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait     = 5 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
	sendQueueSize = 64
)

// ClientConn 负责发送（写）数据到客户端的轻量包装，实现 Outbox。
// Enqueue 与 Close 只在世界协程中调用。
type ClientConn struct {
	ws   *websocket.Conn
	send chan []byte
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ws:   ws,
		send: make(chan []byte, sendQueueSize),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Enqueue(b []byte) bool {
	if c.send == nil {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		// 为了实时性，丢弃新消息（防止阻塞 Tick）
		return false
	}
}

// Close 关闭发送队列，写协程写完剩余消息后关闭连接
func (c *ClientConn) Close() {
	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期 ping
func (c *ClientConn) writePump(send <-chan []byte) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ping.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端消息，按接收顺序投递到世界协程
// readLimit 为 0 时不限制单条消息大小
func (c *ClientConn) readPump(w *World, id SessionID, readLimit int64) {
	defer c.ws.Close()
	// 读泵退出时，通知世界在主循环中移除该会话
	defer w.Post(func() { w.Disconnect(id) })
	if readLimit > 0 {
		c.ws.SetReadLimit(readLimit)
	}
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { return c.ws.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				w.log.Debugw("read error", "session", id, "err", err)
			}
			return
		}
		if !w.Post(func() { w.HandleMessage(id, payload) }) {
			return
		}
	}
}

// WSHandler WebSocket 接入：每个连接一个会话
type WSHandler struct {
	world     *World
	log       *zap.SugaredLogger
	upgrader  websocket.Upgrader
	readLimit int64
}

func NewWSHandler(w *World, allowedOrigins []string, readLimit int64) *WSHandler {
	return &WSHandler{
		world:     w,
		log:       w.log,
		readLimit: readLimit,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func (h *WSHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		h.log.Warnw("upgrade error", "remote", r.RemoteAddr, "err", err)
		return
	}

	client := NewClientConn(ws)
	send := client.send
	var s *Session
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.world.Call(ctx, func() { s = h.world.Connect(client) }); err != nil {
		h.log.Warnw("connect rejected", "remote", r.RemoteAddr, "err", err)
		// 超时后 Connect 仍可能执行，排在其后清理
		h.world.Post(func() {
			if s != nil {
				h.world.Disconnect(s.ID)
			}
		})
		_ = ws.Close()
		return
	}

	go client.writePump(send)
	go client.readPump(h.world, s.ID, h.readLimit)
}

// originChecker 允许列表中包含 "*" 或为空时放行所有来源（演示环境）
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
