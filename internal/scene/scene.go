// Package scene describes the entities a host hands to the renderer each tick.
package scene

import (
	"fmt"

	"github.com/dshills/termsprite/internal/asset"
	"github.com/dshills/termsprite/internal/render/core"
)

// EntityID identifies an entity for its whole lifetime.
type EntityID uint64

// RenderState is everything the renderer observes about an entity.
type RenderState struct {
	Pos    core.Pos
	Sprite asset.Handle
	// Style is optional; the zero handle means no style map.
	Style asset.Handle
	Z     int
}

// Equals compares by value for position and z, by handle for assets.
func (s RenderState) Equals(other RenderState) bool {
	return s.Pos == other.Pos &&
		s.Sprite == other.Sprite &&
		s.Style == other.Style &&
		s.Z == other.Z
}

func (s RenderState) String() string {
	return fmt.Sprintf("%v sprite=%v style=%v z=%d", s.Pos, s.Sprite, s.Style, s.Z)
}

// Entity is a live entity as seen in one frame.
type Entity struct {
	ID EntityID
	// Seq is the creation order. Lower values were created earlier.
	Seq   uint64
	State RenderState
}

// Outranks reports whether e is drawn above other: higher z wins, then the
// earlier-created entity, then the lower ID.
func (e Entity) Outranks(other Entity) bool {
	if e.State.Z != other.State.Z {
		return e.State.Z > other.State.Z
	}
	if e.Seq != other.Seq {
		return e.Seq < other.Seq
	}
	return e.ID < other.ID
}

// Frame is the read-only view of the scene for one tick.
type Frame struct {
	// Entities lists every live entity.
	Entities []Entity
	// Created and Destroyed list lifecycle changes since the previous frame.
	Created   []EntityID
	Destroyed []EntityID
	// Width and Height are the current terminal dimensions.
	Width  int
	Height int
}
