package detect

import (
	"sort"

	"github.com/dshills/termsprite/internal/asset"
	"github.com/dshills/termsprite/internal/render/core"
	"github.com/dshills/termsprite/internal/scene"
)

// Reason explains why an entity is in the redraw set.
type Reason uint8

const (
	// ReasonNew marks an entity with no committed record.
	ReasonNew Reason = iota
	// ReasonChanged marks an entity whose render state differs from its record.
	ReasonChanged
)

// String returns the reason name.
func (r Reason) String() string {
	if r == ReasonNew {
		return "new"
	}
	return "changed"
}

// Redraw is one entity requiring recomputation.
type Redraw struct {
	Entity scene.Entity
	Reason Reason
	// Footprint is where the entity will be drawn this tick. Empty when its
	// sprite is not loaded.
	Footprint core.Rect
}

// RedrawSet is the output of change detection for one tick.
type RedrawSet struct {
	// Redraw lists new and changed entities in ID order.
	Redraw []Redraw
	// Removed lists entities with a record but no longer live, in ID order.
	Removed []scene.EntityID
	// Vacated holds the previous footprints of changed and removed entities.
	Vacated []core.Rect
	// Dirty is every rectangle whose cells must be recomposited: the
	// vacated rectangles plus the new footprints of redrawn entities.
	Dirty []core.Rect
	// Live is every live entity in ID order, duplicates resolved.
	Live []scene.Entity
}

// Empty reports whether nothing needs to be drawn.
func (s *RedrawSet) Empty() bool {
	return len(s.Redraw) == 0 && len(s.Removed) == 0
}

// Detect compares the frame against the snapshot. It has no side effects.
//
// Duplicate IDs in a frame resolve last-write-wins. Entities listed in
// frame.Created are treated as new even when a stale record exists.
func Detect(frame scene.Frame, snap *Snapshot, lookup asset.Lookup) RedrawSet {
	current := make(map[scene.EntityID]scene.Entity, len(frame.Entities))
	for _, e := range frame.Entities {
		current[e.ID] = e
	}

	created := make(map[scene.EntityID]bool, len(frame.Created))
	for _, id := range frame.Created {
		created[id] = true
	}

	var set RedrawSet
	set.Live = make([]scene.Entity, 0, len(current))
	for _, e := range current {
		set.Live = append(set.Live, e)
	}
	sort.Slice(set.Live, func(i, j int) bool { return set.Live[i].ID < set.Live[j].ID })

	for _, e := range set.Live {
		rec, known := snap.Get(e.ID)
		reason := ReasonChanged
		switch {
		case !known:
			reason = ReasonNew
		case created[e.ID]:
			reason = ReasonNew
			set.vacate(rec.Footprint)
		case rec.Entity.State.Equals(e.State) && rec.Entity.Seq == e.Seq:
			continue
		default:
			set.vacate(rec.Footprint)
		}

		fp := Footprint(e.State, lookup)
		set.Redraw = append(set.Redraw, Redraw{Entity: e, Reason: reason, Footprint: fp})
		if !fp.Empty() {
			set.Dirty = append(set.Dirty, fp)
		}
	}

	for _, id := range snap.IDs() {
		if _, live := current[id]; live {
			continue
		}
		rec, _ := snap.Get(id)
		set.Removed = append(set.Removed, id)
		set.vacate(rec.Footprint)
	}

	return set
}

func (s *RedrawSet) vacate(r core.Rect) {
	if r.Empty() {
		return
	}
	s.Vacated = append(s.Vacated, r)
	s.Dirty = append(s.Dirty, r)
}

// Footprint returns the rectangle an entity covers, or an empty rectangle
// when its sprite is not loaded.
func Footprint(st scene.RenderState, lookup asset.Lookup) core.Rect {
	sp, ok := lookup.Sprite(st.Sprite)
	if !ok {
		return core.Rect{}
	}
	return sp.Bounds(st.Pos)
}
