package server

import (
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// recorder 记录入队消息的 Outbox
type recorder struct {
	frames [][]byte
	closed bool
	full   bool
}

func (r *recorder) Enqueue(b []byte) bool {
	if r.closed || r.full {
		return false
	}
	r.frames = append(r.frames, b)
	return true
}

func (r *recorder) Close() { r.closed = true }

func (r *recorder) messages(t *testing.T) []Message[json.RawMessage] {
	t.Helper()
	out := make([]Message[json.RawMessage], 0, len(r.frames))
	for _, f := range r.frames {
		msg, err := Decode(f)
		if err != nil {
			t.Fatalf("decode frame %s: %v", f, err)
		}
		out = append(out, *msg)
	}
	return out
}

func (r *recorder) events(t *testing.T) []string {
	t.Helper()
	var names []string
	for _, m := range r.messages(t) {
		names = append(names, m.Event)
	}
	return names
}

func (r *recorder) count(t *testing.T, event string) int {
	t.Helper()
	n := 0
	for _, name := range r.events(t) {
		if name == event {
			n++
		}
	}
	return n
}

// lastSnapshot 返回最近一次 state_update 的负载
func (r *recorder) lastSnapshot(t *testing.T) ([]PlayerSnapshot, bool) {
	t.Helper()
	msgs := r.messages(t)
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Event != EventStateUpdate {
			continue
		}
		var snap []PlayerSnapshot
		if err := json.Unmarshal(msgs[i].Data, &snap); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		return snap, true
	}
	return nil, false
}

func (r *recorder) reset() { r.frames = nil }

func newTestWorld(t *testing.T) (*World, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	cfg := DefaultConfig()
	return NewWorld(cfg, zap.New(core).Sugar()), logs
}

func mustEncode(t *testing.T, event string, data any) []byte {
	t.Helper()
	b, err := Encode(event, data)
	if err != nil {
		t.Fatalf("encode %s: %v", event, err)
	}
	return b
}

func findSnapshot(snap []PlayerSnapshot, id SessionID) (PlayerSnapshot, bool) {
	for _, p := range snap {
		if p.ID == string(id) {
			return p, true
		}
	}
	return PlayerSnapshot{}, false
}

// manualTicker 测试中手动触发的 ticker
type manualTicker struct {
	c     chan time.Time
	rates []time.Duration
}

func newManualTicker() *manualTicker { return &manualTicker{c: make(chan time.Time)} }

func (m *manualTicker) Chan() <-chan time.Time { return m.c }
func (m *manualTicker) Reset(d time.Duration)  { m.rates = append(m.rates, d) }
func (m *manualTicker) Stop()                  {}
