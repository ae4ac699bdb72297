package server

import (
	"errors"
	"testing"
)

func TestApplyMovementSumsForcesPerAxis(t *testing.T) {
	s := NewStore()
	id := SessionID("a")
	s.Add(id, Position{X: 200, Y: 150})

	moves := []struct {
		axis  Axis
		force int
	}{
		{AxisX, 1}, {AxisX, 1}, {AxisY, -1}, {AxisX, -1}, {AxisY, -1}, {AxisX, 1},
	}
	for _, m := range moves {
		if err := s.ApplyMovement(id, m.axis, m.force, 2); err != nil {
			t.Fatalf("apply %v: %v", m, err)
		}
	}

	got, ok := s.Get(id)
	if !ok {
		t.Fatalf("expected entry for %s", id)
	}
	if got.X != 204 || got.Y != 146 {
		t.Fatalf("expected (204, 146), got (%v, %v)", got.X, got.Y)
	}
}

func TestApplyMovementIsUnbounded(t *testing.T) {
	s := NewStore()
	id := SessionID("a")
	s.Add(id, Position{})
	for i := 0; i < 1000; i++ {
		_ = s.ApplyMovement(id, AxisY, -1, 2)
	}
	got, _ := s.Get(id)
	if got.Y != -2000 {
		t.Fatalf("expected y=-2000, got %v", got.Y)
	}
}

func TestApplyMovementRejectsAbsentAndInvalid(t *testing.T) {
	s := NewStore()
	if err := s.ApplyMovement("ghost", AxisX, 1, 2); !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("orphaned movement must not create an entry")
	}

	s.Add("a", Position{X: 1, Y: 1})
	if err := s.ApplyMovement("a", Axis("z"), 1, 2); !errors.Is(err, ErrInvalidAxis) {
		t.Fatalf("expected ErrInvalidAxis, got %v", err)
	}
	if err := s.ApplyMovement("a", AxisX, 3, 2); !errors.Is(err, ErrInvalidForce) {
		t.Fatalf("expected ErrInvalidForce, got %v", err)
	}
	if got, _ := s.Get("a"); got != (Position{X: 1, Y: 1}) {
		t.Fatalf("rejected movement changed position: %+v", got)
	}
}

func TestStoreAddKeepsExistingEntry(t *testing.T) {
	s := NewStore()
	s.Add("a", Position{X: 1, Y: 2})
	if s.Add("a", Position{X: 9, Y: 9}) {
		t.Fatalf("second add should report existing entry")
	}
	if got, _ := s.Get("a"); got != (Position{X: 1, Y: 2}) {
		t.Fatalf("second add overwrote position: %+v", got)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", s.Len())
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	s := NewStore()
	s.Add("a", Position{X: 1, Y: 1})
	s.Add("b", Position{X: 2, Y: 2})

	snap := s.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap))
	}
	snap[0].X = 999
	_ = s.ApplyMovement("b", AxisX, 1, 2)

	if got, _ := s.Get("a"); got.X != 1 {
		t.Fatalf("mutating snapshot leaked into store: %+v", got)
	}
	if p, _ := findSnapshot(snap, "b"); p.X != 2 {
		t.Fatalf("store mutation leaked into earlier snapshot: %+v", p)
	}
}

func TestSnapshotExcludesRemoved(t *testing.T) {
	s := NewStore()
	s.Add("a", Position{})
	s.Add("b", Position{})
	s.Add("c", Position{})
	if !s.Remove("b") {
		t.Fatalf("expected remove to report existing entry")
	}
	if s.Remove("b") {
		t.Fatalf("second remove should be a no-op")
	}

	snap := s.Snapshot()
	if _, ok := findSnapshot(snap, "b"); ok {
		t.Fatalf("removed id still in snapshot: %+v", snap)
	}
	for _, id := range []SessionID{"a", "c"} {
		if _, ok := findSnapshot(snap, id); !ok {
			t.Fatalf("expected %s in snapshot: %+v", id, snap)
		}
	}
	if _, ok := s.Get("b"); ok {
		t.Fatalf("expected b to be absent")
	}
}
