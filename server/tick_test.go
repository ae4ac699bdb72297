package server

import (
	"testing"
	"time"
)

func TestBroadcasterCadence(t *testing.T) {
	const rate = 20 * time.Millisecond
	const window = 210 * time.Millisecond

	b := NewBroadcaster(rate)
	b.Start()
	defer b.Stop()

	deadline := time.After(window)
	fired := 0
loop:
	for {
		select {
		case <-b.C():
			fired++
		case <-deadline:
			break loop
		}
	}

	// ⌊210/20⌋ = 10，调度抖动留出余量
	if fired < 7 || fired > 11 {
		t.Fatalf("expected about %d firings, got %d", int(window/rate), fired)
	}
}

func TestBroadcasterNotStartedNeverFires(t *testing.T) {
	b := NewBroadcaster(time.Millisecond)
	select {
	case <-b.C():
		t.Fatalf("unstarted broadcaster fired")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBroadcasterReset(t *testing.T) {
	mt := newManualTicker()
	b := NewBroadcaster(100 * time.Millisecond)
	b.newTicker = func(time.Duration) ticker { return mt }

	b.Reset(50 * time.Millisecond) // 未启动：只记录周期
	if len(mt.rates) != 0 || b.Rate() != 50*time.Millisecond {
		t.Fatalf("unexpected state before start: rates=%v rate=%v", mt.rates, b.Rate())
	}

	b.Start()
	b.Start()
	b.Reset(25 * time.Millisecond)
	if len(mt.rates) != 1 || mt.rates[0] != 25*time.Millisecond {
		t.Fatalf("expected ticker reset to 25ms, got %v", mt.rates)
	}
	b.Stop()
	if b.C() != nil {
		t.Fatalf("expected nil channel after stop")
	}
}
