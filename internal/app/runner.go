package app

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dshills/termsprite/internal/asset"
	"github.com/dshills/termsprite/internal/render"
	"github.com/dshills/termsprite/internal/render/backend"
	"github.com/dshills/termsprite/internal/scene"
)

// Driver mutates the world between ticks. Every call happens on the
// runner's goroutine, so drivers need no locking. Returning ErrQuit stops
// the runner cleanly; any other error stops it with that error.
type Driver interface {
	// Update runs before every tick with the current terminal size.
	Update(world *scene.World, tick uint64, width, height int) error

	// HandleEvent receives input events other than the quit keys.
	HandleEvent(world *scene.World, ev backend.Event) error
}

// NopDriver leaves the world unchanged.
type NopDriver struct{}

func (NopDriver) Update(*scene.World, uint64, int, int) error { return nil }

func (NopDriver) HandleEvent(*scene.World, backend.Event) error { return nil }

// ReloadSource publishes asset hot reloads. *asset.Watcher implements it.
type ReloadSource interface {
	Reloads() <-chan asset.Reload
	Errors() <-chan error
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	FrameInterval time.Duration
	CursorVisible bool
	// QuitRunes are plain keys that stop the runner. Ctrl+C always does.
	QuitRunes string
	Logger    *Logger
	Metrics   *Metrics
	// Reloads is optional.
	Reloads ReloadSource
}

// DefaultRunnerOptions ticks at 30 FPS and quits on 'q'.
func DefaultRunnerOptions() RunnerOptions {
	return RunnerOptions{
		FrameInterval: time.Second / 30,
		QuitRunes:     "q",
	}
}

// Runner owns the terminal for the duration of Run. It ticks the renderer
// at a fixed rate, forwards input to the driver, redraws immediately on
// resize, and swaps hot-reloaded assets into the world.
type Runner struct {
	term     backend.Terminal
	assets   *Assets
	world    *scene.World
	driver   Driver
	renderer *render.Renderer
	logger   *Logger
	metrics  *Metrics
	reloads  ReloadSource
	interval time.Duration
	quit     string

	events  chan backend.Event
	running atomic.Bool
	ticks   atomic.Uint64
	retired []asset.Handle
}

// NewRunner wires a runner. A nil driver is replaced by NopDriver.
func NewRunner(term backend.Terminal, assets *Assets, world *scene.World, driver Driver, opts RunnerOptions) *Runner {
	if driver == nil {
		driver = NopDriver{}
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultRunnerOptions().FrameInterval
	}
	if opts.Logger == nil {
		opts.Logger = NullLogger
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}

	ro := render.DefaultOptions()
	ro.CursorVisible = opts.CursorVisible

	return &Runner{
		term:     term,
		assets:   assets,
		world:    world,
		driver:   driver,
		renderer: render.New(assets.Store, term, ro),
		logger:   opts.Logger.WithComponent("runner"),
		metrics:  opts.Metrics,
		reloads:  opts.Reloads,
		interval: opts.FrameInterval,
		quit:     opts.QuitRunes,
		events:   make(chan backend.Event, 64),
	}
}

// Renderer returns the renderer the runner drives.
func (r *Runner) Renderer() *render.Renderer {
	return r.renderer
}

// Metrics returns the runner's metrics.
func (r *Runner) Metrics() *Metrics {
	return r.metrics
}

// Ticks returns the number of ticks started so far.
func (r *Runner) Ticks() uint64 {
	return r.ticks.Load()
}

// IsRunning reports whether Run is active.
func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

// Run initializes the terminal and ticks until ctx is cancelled, a quit key
// is pressed, the driver returns ErrQuit, or the device is closed. A clean
// stop returns nil. The terminal is restored before Run returns.
func (r *Runner) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer r.running.Store(false)

	if err := r.term.Init(); err != nil {
		return &InitError{Component: "terminal", Err: err}
	}

	stop := make(chan struct{})
	inputDone := make(chan struct{})
	go r.readInput(stop, inputDone)
	defer func() {
		close(stop)
		r.term.Shutdown()
		<-inputDone
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var reloads <-chan asset.Reload
	var reloadErrs <-chan error
	if r.reloads != nil {
		reloads, reloadErrs = r.reloads.Reloads(), r.reloads.Errors()
	}

	r.logger.Info("started at %s per tick", r.interval)
	if err := r.step(); err != nil {
		return r.exit(err)
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopped: %v", ctx.Err())
			return nil

		case ev := <-r.events:
			if err := r.handleEvent(ev); err != nil {
				return r.exit(err)
			}

		case rl, ok := <-reloads:
			if !ok {
				reloads = nil
				continue
			}
			r.applyReload(rl)

		case err, ok := <-reloadErrs:
			if !ok {
				reloadErrs = nil
				continue
			}
			r.metrics.RecordReloadError()
			r.logger.Warn("asset reload failed: %v", err)

		case <-ticker.C:
			if err := r.step(); err != nil {
				return r.exit(err)
			}
		}
	}
}

func (r *Runner) exit(err error) error {
	if errors.Is(err, ErrQuit) {
		r.logger.Info("quit after %d ticks", r.ticks.Load())
		return nil
	}
	r.logger.Error("stopped: %v", err)
	return err
}

// readInput forwards terminal events until the terminal closes or Run
// returns. Events that find the queue full are dropped.
func (r *Runner) readInput(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		ev := r.term.PollEvent()
		if ev.Type == backend.EventClosed {
			select {
			case r.events <- ev:
			case <-stop:
			}
			return
		}
		select {
		case r.events <- ev:
		case <-stop:
			return
		default:
			r.metrics.RecordInputDropped()
		}
	}
}

func (r *Runner) handleEvent(ev backend.Event) error {
	r.metrics.RecordInput()

	switch ev.Type {
	case backend.EventClosed:
		return ErrQuit
	case backend.EventKey:
		if r.isQuitKey(ev) {
			return ErrQuit
		}
		if ev.Key == backend.KeyCtrlL {
			r.renderer.Invalidate()
			return nil
		}
	case backend.EventResize:
		r.logger.Debug("resize to %dx%d", ev.Width, ev.Height)
		if err := r.callDriver("event", func() error { return r.driver.HandleEvent(r.world, ev) }); err != nil {
			return err
		}
		return r.step()
	}
	return r.callDriver("event", func() error { return r.driver.HandleEvent(r.world, ev) })
}

func (r *Runner) isQuitKey(ev backend.Event) bool {
	if ev.Key == backend.KeyCtrlC {
		return true
	}
	return ev.Key == backend.KeyRune && ev.Mod == backend.ModNone && strings.ContainsRune(r.quit, ev.Rune)
}

// step runs the driver and one render tick. Tick failures other than a
// closed device are logged; the renderer resyncs on the next tick.
func (r *Runner) step() error {
	width, height := r.term.Size()
	tick := r.ticks.Add(1)

	if err := r.callDriver("update", func() error { return r.driver.Update(r.world, tick, width, height) }); err != nil {
		return err
	}

	res, err := r.renderer.Tick(r.world.Frame(width, height))
	r.metrics.RecordTick(res.Stats, len(res.Diagnostics), err != nil)
	for _, d := range res.Diagnostics {
		r.logger.Warn("tick %d: %v", tick, d)
	}
	if err != nil {
		if errors.Is(err, backend.ErrClosed) {
			return err
		}
		r.logger.Error("tick %d: %v", tick, err)
		return nil
	}
	if res.Stats.Resync {
		r.logger.Debug("tick %d: full redraw at %dx%d", tick, width, height)
	}
	r.releaseRetired()
	return nil
}

func (r *Runner) callDriver(op string, fn func() error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = NewOperationError(op, "driver", &RecoveredPanicError{Value: v, Stack: string(debug.Stack())})
		}
	}()

	if err := fn(); err != nil {
		if errors.Is(err, ErrQuit) {
			return err
		}
		return NewOperationError(op, "driver", err)
	}
	return nil
}

// applyReload points the catalog and every entity that used the old handle
// at the new one. The old asset is removed from the store once a tick has
// committed without it.
func (r *Runner) applyReload(rl asset.Reload) {
	r.metrics.RecordReload()
	r.assets.Catalog.Set(rl.Entry, rl.New)

	swapped := 0
	for _, id := range r.world.IDs() {
		st, _ := r.world.Get(id)
		switch {
		case rl.Entry.Kind == asset.KindSprite && st.Sprite == rl.Old:
			st.Sprite = rl.New
		case rl.Entry.Kind == asset.KindStyleMap && st.Style == rl.Old:
			st.Style = rl.New
		default:
			continue
		}
		_ = r.world.Set(id, st)
		swapped++
	}

	if !rl.Old.IsZero() {
		r.retired = append(r.retired, rl.Old)
	}
	r.logger.Info("reloaded %s %q from %s (%d entities)", rl.Entry.Kind, rl.Entry.Name, rl.Path, swapped)
}

func (r *Runner) releaseRetired() {
	if len(r.retired) == 0 {
		return
	}
	kept := r.retired[:0]
	for _, h := range r.retired {
		if r.handleInUse(h) {
			kept = append(kept, h)
			continue
		}
		r.assets.Store.Remove(h)
	}
	r.retired = kept
}

func (r *Runner) handleInUse(h asset.Handle) bool {
	for _, v := range r.assets.Catalog.Sprites {
		if v == h {
			return true
		}
	}
	for _, v := range r.assets.Catalog.Styles {
		if v == h {
			return true
		}
	}
	for _, id := range r.world.IDs() {
		st, _ := r.world.Get(id)
		if st.Sprite == h || st.Style == h {
			return true
		}
	}
	return false
}
