package backend

import (
	"errors"
	"sync"
)

// ErrClosed is returned when applying commands to a device that has shut down.
var ErrClosed = errors.New("device closed")

// Device consumes logical command batches.
// Apply must either write the whole batch or return an error; a failed
// batch may have been partially flushed.
type Device interface {
	// Apply writes one tick's worth of commands, in order.
	Apply(cmds []Command) error

	// Size returns the current terminal dimensions.
	Size() (width, height int)
}

// Terminal is a Device backed by a real or simulated terminal that also
// produces input events.
type Terminal interface {
	Device

	// Init prepares the terminal. Must be called before Apply.
	Init() error

	// Shutdown restores the terminal. PollEvent returns EventClosed afterwards.
	Shutdown()

	// PollEvent blocks until the next input event.
	PollEvent() Event
}

// Recorder is an in-memory Terminal for tests. It keeps every applied batch
// and replays them onto a Surface so the resulting screen can be inspected.
type Recorder struct {
	mu       sync.Mutex
	surface  *Surface
	batches  [][]Command
	failErr  error
	failKeep int
	events   chan Event
	closed   bool
}

// NewRecorder creates a recorder with the given dimensions.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{
		surface: NewSurface(width, height),
		events:  make(chan Event, 64),
	}
}

func (r *Recorder) Init() error { return nil }

// Shutdown closes the event queue.
func (r *Recorder) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	close(r.events)
}

// Apply records the batch, or fails if FailNext was called.
func (r *Recorder) Apply(cmds []Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.failErr != nil {
		err := r.failErr
		keep := min(r.failKeep, len(cmds))
		r.failErr = nil
		r.failKeep = 0
		if keep > 0 {
			r.record(cmds[:keep])
		}
		return err
	}
	r.record(cmds)
	return nil
}

func (r *Recorder) record(cmds []Command) {
	batch := make([]Command, len(cmds))
	copy(batch, cmds)
	r.batches = append(r.batches, batch)
	r.surface.Apply(batch)
}

// FailNext makes the next Apply return err after flushing the first
// partial commands of its batch.
func (r *Recorder) FailNext(err error, partial int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failErr = err
	r.failKeep = partial
}

func (r *Recorder) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.surface.Size()
}

// Resize simulates a terminal resize. The screen contents are lost and a
// resize event is queued.
func (r *Recorder) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.surface.Resize(width, height)
	if !r.closed {
		select {
		case r.events <- Event{Type: EventResize, Width: width, Height: height}:
		default:
		}
	}
}

// PollEvent returns the next posted event.
func (r *Recorder) PollEvent() Event {
	ev, ok := <-r.events
	if !ok {
		return Event{Type: EventClosed}
	}
	return ev
}

// PostEvent queues a synthetic event. Dropped if the queue is full.
func (r *Recorder) PostEvent(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	select {
	case r.events <- ev:
	default:
	}
}

// Batches returns a copy of every recorded batch.
func (r *Recorder) Batches() [][]Command {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([][]Command, len(r.batches))
	copy(out, r.batches)
	return out
}

// Commands returns every recorded command in order.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Command
	for _, b := range r.batches {
		out = append(out, b...)
	}
	return out
}

// Reset forgets recorded batches. The surface is kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.batches = nil
}

// Screen returns a snapshot of the simulated screen.
func (r *Recorder) Screen() *Surface {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.surface.Clone()
}
