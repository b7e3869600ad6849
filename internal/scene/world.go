package scene

import (
	"errors"
	"sort"

	"github.com/dshills/termsprite/internal/render/core"
)

// ErrNoEntity indicates an operation on an entity that does not exist.
var ErrNoEntity = errors.New("no such entity")

// World is a minimal host-side entity store. It owns render state and
// produces a Frame per tick. It is not safe for concurrent use; hosts mutate
// it between ticks only.
type World struct {
	entities  map[EntityID]*Entity
	nextID    EntityID
	nextSeq   uint64
	created   []EntityID
	destroyed []EntityID
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{
		entities: make(map[EntityID]*Entity),
		nextID:   1,
	}
}

// Spawn adds an entity and returns its ID.
func (w *World) Spawn(state RenderState) EntityID {
	id := w.nextID
	w.nextID++
	w.Insert(id, w.nextSeq, state)
	return id
}

// Insert adds an entity with an explicit ID and creation sequence.
// Re-inserting an existing ID replaces it.
func (w *World) Insert(id EntityID, seq uint64, state RenderState) {
	if _, exists := w.entities[id]; !exists {
		w.created = append(w.created, id)
	}
	w.entities[id] = &Entity{ID: id, Seq: seq, State: state}
	if seq >= w.nextSeq {
		w.nextSeq = seq + 1
	}
	if id >= w.nextID {
		w.nextID = id + 1
	}
}

// Despawn removes an entity.
func (w *World) Despawn(id EntityID) error {
	if _, ok := w.entities[id]; !ok {
		return ErrNoEntity
	}
	delete(w.entities, id)
	w.destroyed = append(w.destroyed, id)
	return nil
}

// Get returns an entity's render state.
func (w *World) Get(id EntityID) (RenderState, bool) {
	e, ok := w.entities[id]
	if !ok {
		return RenderState{}, false
	}
	return e.State, true
}

// Set replaces an entity's render state.
func (w *World) Set(id EntityID, state RenderState) error {
	e, ok := w.entities[id]
	if !ok {
		return ErrNoEntity
	}
	e.State = state
	return nil
}

// Move sets an entity's position.
func (w *World) Move(id EntityID, pos core.Pos) error {
	e, ok := w.entities[id]
	if !ok {
		return ErrNoEntity
	}
	e.State.Pos = pos
	return nil
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return len(w.entities)
}

// IDs returns live entity IDs in ascending order.
func (w *World) IDs() []EntityID {
	ids := make([]EntityID, 0, len(w.entities))
	for id := range w.entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Frame snapshots the world for a width x height terminal and clears the
// pending created/destroyed lists. Entities are ordered by ID.
func (w *World) Frame(width, height int) Frame {
	ids := w.IDs()
	f := Frame{
		Entities:  make([]Entity, 0, len(ids)),
		Created:   w.created,
		Destroyed: w.destroyed,
		Width:     width,
		Height:    height,
	}
	for _, id := range ids {
		f.Entities = append(f.Entities, *w.entities[id])
	}
	w.created = nil
	w.destroyed = nil
	return f
}
