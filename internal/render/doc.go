// Package render draws a scene of sprite entities onto a character terminal
// with minimal output per tick.
//
// Each tick runs four sequential phases over state the Renderer owns:
//
//	┌─────────────────────────────────────────┐
//	│        Renderer.Tick (Facade)           │
//	├─────────────────────────────────────────┤
//	│ detect: Snapshot → RedrawSet            │
//	│ compose: RedrawSet → Scratch cells      │
//	│ emit: Scratch × Buffer → Commands       │
//	├─────────────────────────────────────────┤
//	│ backend.Device (ANSI │ tcell │ Recorder)│
//	└─────────────────────────────────────────┘
//
// The snapshot of entity details and the previous cell buffer are only
// updated after the device accepts the tick's commands. A device failure
// marks the buffer stale, and the next tick clears the screen and redraws
// everything, as does any change in terminal dimensions.
//
// Usage:
//
//	dev := backend.NewANSI(os.Stdout)
//	r := render.New(store, dev, render.DefaultOptions())
//	res, err := r.Tick(world.Frame(dev.Size()))
package render
