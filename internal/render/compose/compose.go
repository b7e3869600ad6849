package compose

import (
	"fmt"

	"github.com/dshills/termsprite/internal/asset"
	"github.com/dshills/termsprite/internal/render/core"
	"github.com/dshills/termsprite/internal/render/detect"
	"github.com/dshills/termsprite/internal/scene"
)

// Diagnostic reports a non-fatal problem found while compositing.
type Diagnostic struct {
	Entity scene.EntityID
	Handle asset.Handle
	Err    error
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("entity %d: %s: %v", d.Entity, d.Handle, d.Err)
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

// Result is the outcome of one composite pass.
type Result struct {
	Scratch     *Scratch
	Diagnostics []Diagnostic
	// Skipped holds entities left out because an asset was missing.
	Skipped map[scene.EntityID]bool
}

// Compositor rasterizes dirty regions. It owns a reusable scratch buffer.
type Compositor struct {
	scratch *Scratch
}

// NewCompositor creates a compositor.
func NewCompositor() *Compositor {
	return &Compositor{scratch: NewScratch(0, 0)}
}

// Compose touches every dirty cell of set and re-rasterizes every live
// entity overlapping a dirty rectangle, clipped to that rectangle. This
// covers redrawn entities, entities revealed under vacated cells, and
// unchanged entities that sit above a redrawn one. The returned scratch is
// valid until the next call.
func (c *Compositor) Compose(set *detect.RedrawSet, width, height int, lookup asset.Lookup) Result {
	c.scratch.Reset(width, height)
	res := Result{Scratch: c.scratch, Skipped: make(map[scene.EntityID]bool)}

	screen := core.Rect{W: width, H: height}
	dirty := make([]core.Rect, 0, len(set.Dirty))
	for _, r := range set.Dirty {
		if r = r.Intersect(screen); !r.Empty() {
			dirty = append(dirty, r)
			c.scratch.TouchRect(r)
		}
	}

	// Redrawn entities report missing assets even when off screen.
	for _, rd := range set.Redraw {
		if d, ok := checkAssets(rd.Entity, lookup); !ok {
			res.Diagnostics = append(res.Diagnostics, d)
			res.Skipped[rd.Entity.ID] = true
		}
	}
	if len(dirty) == 0 {
		return res
	}

	for _, e := range set.Live {
		if res.Skipped[e.ID] {
			continue
		}
		// Unchanged entities whose assets have since been dropped render
		// as absent without a diagnostic; only redrawn entities report.
		sp, ok := lookup.Sprite(e.State.Sprite)
		if !ok {
			continue
		}
		bounds := sp.Bounds(e.State.Pos)
		if !overlapsAny(bounds, dirty) {
			continue
		}

		var styles *asset.StyleMap
		if !e.State.Style.IsZero() {
			if styles, ok = lookup.StyleMap(e.State.Style); !ok {
				continue
			}
		}

		r := rankOf(e)
		for _, d := range dirty {
			c.rasterize(sp, styles, e.State.Pos, r, bounds.Intersect(d))
		}
	}
	return res
}

// rasterize writes the part of a sprite inside clip. Transparent cells are
// skipped entirely: they contribute neither glyph nor style.
func (c *Compositor) rasterize(sp *asset.Sprite, styles *asset.StyleMap, pos core.Pos, r rank, clip core.Rect) {
	for y := clip.Y; y < clip.Bottom(); y++ {
		for x := clip.X; x < clip.Right(); x++ {
			lx, ly := x-pos.X, y-pos.Y
			g := sp.At(lx, ly)
			if g.Transparent {
				continue
			}
			var st core.Style
			if styles != nil {
				st = styles.At(lx, ly)
			}
			c.scratch.put(x, y, r, g.Rune, st)
		}
	}
}

func checkAssets(e scene.Entity, lookup asset.Lookup) (Diagnostic, bool) {
	if _, ok := lookup.Sprite(e.State.Sprite); !ok {
		return Diagnostic{Entity: e.ID, Handle: e.State.Sprite, Err: asset.ErrNotFound}, false
	}
	if !e.State.Style.IsZero() {
		if _, ok := lookup.StyleMap(e.State.Style); !ok {
			return Diagnostic{Entity: e.ID, Handle: e.State.Style, Err: asset.ErrNotFound}, false
		}
	}
	return Diagnostic{}, true
}

func overlapsAny(r core.Rect, rects []core.Rect) bool {
	for _, o := range rects {
		if r.Overlaps(o) {
			return true
		}
	}
	return false
}
