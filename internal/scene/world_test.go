package scene

import (
	"errors"
	"testing"

	"github.com/dshills/termsprite/internal/render/core"
)

func TestWorldSpawnAndFrame(t *testing.T) {
	w := NewWorld()
	a := w.Spawn(RenderState{Pos: core.Pos{X: 1}})
	b := w.Spawn(RenderState{Pos: core.Pos{X: 2}, Z: 3})

	f := w.Frame(80, 24)
	if len(f.Entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(f.Entities))
	}
	if f.Entities[0].ID != a || f.Entities[1].ID != b {
		t.Error("entities should be ordered by ID")
	}
	if f.Entities[0].Seq >= f.Entities[1].Seq {
		t.Error("creation sequence should increase")
	}
	if len(f.Created) != 2 || f.Width != 80 || f.Height != 24 {
		t.Errorf("unexpected frame metadata: %+v", f)
	}

	next := w.Frame(80, 24)
	if len(next.Created) != 0 || len(next.Destroyed) != 0 {
		t.Error("lifecycle lists should be drained after a frame")
	}
}

func TestWorldDespawn(t *testing.T) {
	w := NewWorld()
	id := w.Spawn(RenderState{})
	_ = w.Frame(10, 10)

	if err := w.Despawn(id); err != nil {
		t.Fatalf("Despawn: %v", err)
	}
	if err := w.Despawn(id); !errors.Is(err, ErrNoEntity) {
		t.Errorf("second Despawn should fail with ErrNoEntity, got %v", err)
	}

	f := w.Frame(10, 10)
	if len(f.Entities) != 0 || len(f.Destroyed) != 1 || f.Destroyed[0] != id {
		t.Errorf("unexpected frame after despawn: %+v", f)
	}
}

func TestWorldMoveAndSet(t *testing.T) {
	w := NewWorld()
	id := w.Spawn(RenderState{})

	if err := w.Move(id, core.Pos{X: 4, Y: 5}); err != nil {
		t.Fatal(err)
	}
	st, _ := w.Get(id)
	if st.Pos != (core.Pos{X: 4, Y: 5}) {
		t.Errorf("Pos = %v", st.Pos)
	}

	if err := w.Set(id, RenderState{Z: 9}); err != nil {
		t.Fatal(err)
	}
	st, _ = w.Get(id)
	if st.Z != 9 {
		t.Errorf("Z = %d, want 9", st.Z)
	}

	if err := w.Move(99, core.Pos{}); !errors.Is(err, ErrNoEntity) {
		t.Errorf("Move on missing entity: %v", err)
	}
}

func TestWorldInsertExplicitSeq(t *testing.T) {
	w := NewWorld()
	w.Insert(1, 5, RenderState{})
	w.Insert(2, 0, RenderState{})

	f := w.Frame(1, 1)
	if f.Entities[0].Seq != 5 || f.Entities[1].Seq != 0 {
		t.Error("explicit sequence numbers should be kept")
	}
	if id := w.Spawn(RenderState{}); id != 3 {
		t.Errorf("next spawned ID = %d, want 3", id)
	}
}

func TestEntityOutranks(t *testing.T) {
	low := Entity{ID: 1, Seq: 0, State: RenderState{Z: 0}}
	high := Entity{ID: 2, Seq: 1, State: RenderState{Z: 1}}
	if !high.Outranks(low) || low.Outranks(high) {
		t.Error("higher z should win")
	}

	early := Entity{ID: 7, Seq: 1}
	late := Entity{ID: 3, Seq: 2}
	if !early.Outranks(late) {
		t.Error("earlier creation should win a z tie")
	}

	a := Entity{ID: 1, Seq: 4}
	b := Entity{ID: 2, Seq: 4}
	if !a.Outranks(b) || b.Outranks(a) {
		t.Error("lower ID should break a full tie")
	}
}
