package render

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dshills/termsprite/internal/asset"
	"github.com/dshills/termsprite/internal/render/backend"
	"github.com/dshills/termsprite/internal/render/compose"
	"github.com/dshills/termsprite/internal/render/detect"
	"github.com/dshills/termsprite/internal/render/emit"
	"github.com/dshills/termsprite/internal/scene"
)

// ErrTickInProgress is returned when Tick is called before the previous
// tick has committed.
var ErrTickInProgress = errors.New("render tick already in progress")

// Phase is the renderer's position in the tick state machine.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseDiffing
	PhaseCompositing
	PhaseEmitting
	PhaseCommitted
)

var phaseNames = [...]string{"idle", "diffing", "compositing", "emitting", "committed"}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", int32(p))
}

// TickError reports a tick that could not be committed.
type TickError struct {
	Phase Phase
	Err   error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("render tick failed while %s: %v", e.Phase, e.Err)
}

func (e *TickError) Unwrap() error {
	return e.Err
}

// Options configures the renderer.
type Options struct {
	// CursorVisible shows the terminal cursor while rendering.
	CursorVisible bool
}

// DefaultOptions returns options with the cursor hidden.
func DefaultOptions() Options {
	return Options{CursorVisible: false}
}

// Stats describes one tick.
type Stats struct {
	Redrawn   int  // entities new or changed this tick
	Removed   int  // entities whose records were dropped
	Touched   int  // cells recomposited
	Changed   int  // cells written
	Unchanged int  // touched cells already correct on screen
	Dropped   int  // touched cells outside the screen
	Commands  int  // commands sent to the device
	Resync    bool // the screen was cleared and fully redrawn
	Duration  time.Duration
}

// Result is the outcome of a tick.
type Result struct {
	Commands    []backend.Command
	Diagnostics []compose.Diagnostic
	Stats       Stats
}

// Renderer owns the previous-frame state and drives one device.
// Tick is not reentrant; calls must be serialized by the host.
type Renderer struct {
	phase atomic.Int32

	lookup asset.Lookup
	device backend.Device

	snapshot   *detect.Snapshot
	compositor *compose.Compositor
	buffer     *emit.Buffer
	engine     *emit.Engine

	cursorWanted  bool
	cursorShown   bool
	cursorKnown   bool
	forceResync   bool
	width, height int
}

// New creates a renderer. Nothing is drawn until the first Tick, which
// always clears the screen.
func New(lookup asset.Lookup, device backend.Device, opts Options) *Renderer {
	return &Renderer{
		lookup:       lookup,
		device:       device,
		snapshot:     detect.NewSnapshot(),
		compositor:   compose.NewCompositor(),
		buffer:       emit.NewBuffer(0, 0),
		engine:       emit.NewEngine(),
		cursorWanted: opts.CursorVisible,
	}
}

// Phase returns the current phase.
func (r *Renderer) Phase() Phase {
	return Phase(r.phase.Load())
}

// SetCursorVisible changes cursor visibility. The command is emitted on the
// next tick, and only if visibility actually changes.
func (r *Renderer) SetCursorVisible(visible bool) {
	r.cursorWanted = visible
}

// CursorVisible returns the requested cursor visibility.
func (r *Renderer) CursorVisible() bool {
	return r.cursorWanted
}

// Invalidate forces a full resync on the next tick.
func (r *Renderer) Invalidate() {
	r.forceResync = true
}

// Size returns the dimensions of the last committed tick.
func (r *Renderer) Size() (width, height int) {
	return r.width, r.height
}

// Tick renders one frame. A zero-sized frame uses the device size.
//
// Missing assets are reported as diagnostics and do not fail the tick. A
// device error returns a *TickError; nothing is committed and the next tick
// performs a full resync.
func (r *Renderer) Tick(frame scene.Frame) (Result, error) {
	if !r.phase.CompareAndSwap(int32(PhaseIdle), int32(PhaseDiffing)) {
		return Result{}, ErrTickInProgress
	}
	defer r.phase.Store(int32(PhaseIdle))

	start := time.Now()
	width, height := frame.Width, frame.Height
	if width == 0 && height == 0 {
		width, height = r.device.Size()
	}
	bw, bh := r.buffer.Size()
	resync := r.forceResync || r.buffer.Stale() || width != bw || height != bh
	if resync {
		r.snapshot.Reset()
	}

	set := detect.Detect(frame, r.snapshot, r.lookup)

	r.phase.Store(int32(PhaseCompositing))
	comp := r.compositor.Compose(&set, width, height, r.lookup)

	r.phase.Store(int32(PhaseEmitting))
	plan := &emit.Plan{}
	if resync {
		plan = r.engine.Resync(r.buffer, width, height)
	}
	if !r.cursorKnown || r.cursorShown != r.cursorWanted {
		if r.cursorWanted {
			plan.Commands = append(plan.Commands, backend.ShowCursor())
		} else {
			plan.Commands = append(plan.Commands, backend.HideCursor())
		}
	}
	plan = r.engine.Plan(plan, comp.Scratch, r.buffer)

	res := Result{
		Commands:    plan.Commands,
		Diagnostics: comp.Diagnostics,
		Stats: Stats{
			Redrawn:   len(set.Redraw),
			Touched:   comp.Scratch.Len(),
			Changed:   plan.Changed,
			Unchanged: plan.Unchanged,
			Dropped:   plan.Dropped,
			Commands:  len(plan.Commands),
			Resync:    resync,
		},
	}

	if !plan.Empty() {
		if err := r.device.Apply(plan.Commands); err != nil {
			r.buffer.Invalidate()
			r.engine.Invalidate()
			r.cursorKnown = false
			res.Stats.Duration = time.Since(start)
			return res, &TickError{Phase: PhaseEmitting, Err: err}
		}
	}

	r.phase.Store(int32(PhaseCommitted))
	plan.Commit(r.buffer)
	for _, rd := range set.Redraw {
		if comp.Skipped[rd.Entity.ID] {
			r.snapshot.Delete(rd.Entity.ID)
			continue
		}
		r.snapshot.Commit(detect.Record{Entity: rd.Entity, Footprint: rd.Footprint})
	}
	for _, id := range set.Removed {
		r.snapshot.Delete(id)
	}
	res.Stats.Removed = len(set.Removed)

	r.cursorShown, r.cursorKnown = r.cursorWanted, true
	r.forceResync = false
	r.width, r.height = width, height
	res.Stats.Duration = time.Since(start)
	return res, nil
}
