// Package detect finds the entities whose on-screen appearance changed since
// the last committed frame.
package detect

import (
	"sort"

	"github.com/dshills/termsprite/internal/render/core"
	"github.com/dshills/termsprite/internal/scene"
)

// Record is an entity as it was last committed to the terminal.
type Record struct {
	Entity scene.Entity
	// Footprint is the screen rectangle the entity covered when drawn.
	// Empty if the entity could not be drawn.
	Footprint core.Rect
}

// Snapshot holds one Record per live entity: the baseline for diffing.
type Snapshot struct {
	records map[scene.EntityID]Record
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{records: make(map[scene.EntityID]Record)}
}

// Get returns the record for an entity.
func (s *Snapshot) Get(id scene.EntityID) (Record, bool) {
	r, ok := s.records[id]
	return r, ok
}

// Commit creates or replaces an entity's record.
func (s *Snapshot) Commit(r Record) {
	s.records[r.Entity.ID] = r
}

// Delete removes an entity's record.
func (s *Snapshot) Delete(id scene.EntityID) {
	delete(s.records, id)
}

// Reset drops every record, so the next detection treats all entities as new.
func (s *Snapshot) Reset() {
	clear(s.records)
}

// Len returns the number of records.
func (s *Snapshot) Len() int {
	return len(s.records)
}

// IDs returns recorded entity IDs in ascending order.
func (s *Snapshot) IDs() []scene.EntityID {
	ids := make([]scene.EntityID, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
