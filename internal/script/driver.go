package script

import (
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/termsprite/internal/app"
	"github.com/dshills/termsprite/internal/asset"
	"github.com/dshills/termsprite/internal/render/backend"
	"github.com/dshills/termsprite/internal/render/core"
	"github.com/dshills/termsprite/internal/scene"
)

var _ app.Driver = (*Driver)(nil)

// Options configures a Driver.
type Options struct {
	// Logger receives print and ts.log output. Defaults to app.NullLogger.
	Logger *app.Logger
	// Timeout bounds each callback. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Driver runs a Lua script as the runner's scene driver.
type Driver struct {
	state   *State
	catalog *asset.Catalog
	lookup  asset.Lookup
	logger  *app.Logger

	world         *scene.World
	tick          uint64
	width, height int
	started       bool
	quit          bool
}

// New creates a driver that resolves asset names through cat. No script
// is loaded yet.
func New(cat *asset.Catalog, lookup asset.Lookup, opts Options) *Driver {
	if opts.Logger == nil {
		opts.Logger = app.NullLogger
	}
	d := &Driver{
		state:   NewState(opts.Timeout),
		catalog: cat,
		lookup:  lookup,
		logger:  opts.Logger.WithComponent("script"),
	}
	d.install()
	return d
}

// LoadFile runs the script's top level, which typically just defines
// callbacks.
func (d *Driver) LoadFile(path string) error {
	return d.state.LoadFile(path)
}

// LoadString runs source as a chunk called name.
func (d *Driver) LoadString(name, source string) error {
	return d.state.Load(name, strings.NewReader(source))
}

// Close releases the interpreter.
func (d *Driver) Close() error {
	d.state.Close()
	return nil
}

// Update calls on_start once, then on_tick.
func (d *Driver) Update(world *scene.World, tick uint64, width, height int) error {
	d.world, d.tick, d.width, d.height = world, tick, width, height

	if !d.started {
		d.started = true
		if err := d.callback("on_start", lua.LNumber(width), lua.LNumber(height)); err != nil {
			return err
		}
	}
	return d.callback("on_tick", lua.LNumber(tick), lua.LNumber(width), lua.LNumber(height))
}

// HandleEvent dispatches to on_key, on_mouse or on_resize.
func (d *Driver) HandleEvent(world *scene.World, ev backend.Event) error {
	d.world = world

	switch ev.Type {
	case backend.EventKey:
		return d.callback("on_key", d.keyTable(ev))
	case backend.EventMouse:
		return d.callback("on_mouse", lua.LNumber(ev.MouseX), lua.LNumber(ev.MouseY), lua.LString(mouseButtonName(ev.MouseButton)))
	case backend.EventResize:
		d.width, d.height = ev.Width, ev.Height
		return d.callback("on_resize", lua.LNumber(ev.Width), lua.LNumber(ev.Height))
	}
	return nil
}

func (d *Driver) callback(name string, args ...lua.LValue) error {
	if _, _, err := d.state.CallGlobal(name, args...); err != nil {
		return err
	}
	if d.quit {
		return app.ErrQuit
	}
	return nil
}

func (d *Driver) keyTable(ev backend.Event) *lua.LTable {
	L := d.state.L
	t := L.NewTable()
	t.RawSetString("name", lua.LString(ev.Key.String()))
	if ev.Key == backend.KeyRune {
		t.RawSetString("rune", lua.LString(string(ev.Rune)))
	}
	t.RawSetString("ctrl", lua.LBool(ev.Mod.Has(backend.ModCtrl)))
	t.RawSetString("alt", lua.LBool(ev.Mod.Has(backend.ModAlt)))
	t.RawSetString("shift", lua.LBool(ev.Mod.Has(backend.ModShift)))
	return t
}

func mouseButtonName(b backend.MouseButton) string {
	switch b {
	case backend.MouseLeft:
		return "left"
	case backend.MouseMiddle:
		return "middle"
	case backend.MouseRight:
		return "right"
	case backend.MouseWheelUp:
		return "wheel_up"
	case backend.MouseWheelDown:
		return "wheel_down"
	default:
		return "none"
	}
}

// install registers the ts table and replaces print.
func (d *Driver) install() {
	L := d.state.L
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"spawn":       d.luaSpawn,
		"despawn":     d.luaDespawn,
		"move":        d.luaMove,
		"set_z":       d.luaSetZ,
		"set_sprite":  d.luaSetSprite,
		"set_style":   d.luaSetStyle,
		"get":         d.luaGet,
		"size":        d.luaSize,
		"tick":        d.luaTick,
		"sprite_size": d.luaSpriteSize,
		"quit":        d.luaQuit,
		"log":         d.luaLog,
	})
	L.SetGlobal("ts", mod)
	L.SetGlobal("print", L.NewFunction(d.luaLog))
}

// scene returns the world, raising a Lua error outside callbacks.
func (d *Driver) scene(L *lua.LState) *scene.World {
	if d.world == nil {
		L.RaiseError("no scene yet: entities can only be changed from callbacks")
	}
	return d.world
}

func (d *Driver) sprite(L *lua.LState, name string) asset.Handle {
	h, ok := d.catalog.Sprite(name)
	if !ok {
		L.RaiseError("unknown sprite %q", name)
	}
	return h
}

func (d *Driver) style(L *lua.LState, v lua.LValue) asset.Handle {
	if v == lua.LNil {
		return asset.Handle{}
	}
	name, ok := v.(lua.LString)
	if !ok {
		L.RaiseError("style must be a name or nil, got %s", v.Type())
	}
	h, ok := d.catalog.Style(string(name))
	if !ok {
		L.RaiseError("unknown style %q", string(name))
	}
	return h
}

func intField(L *lua.LState, t *lua.LTable, key string) int {
	switch v := t.RawGetString(key).(type) {
	case lua.LNumber:
		return int(v)
	case *lua.LNilType:
		return 0
	default:
		L.RaiseError("field %q must be a number, got %s", key, v.Type())
		return 0
	}
}

func checkID(L *lua.LState, n int) scene.EntityID {
	return scene.EntityID(L.CheckInt64(n))
}

// ts.spawn{sprite=, style=, x=, y=, z=} -> id
func (d *Driver) luaSpawn(L *lua.LState) int {
	t := L.CheckTable(1)
	w := d.scene(L)

	name, ok := t.RawGetString("sprite").(lua.LString)
	if !ok {
		L.ArgError(1, "sprite name required")
	}
	st := scene.RenderState{
		Pos:    core.Pos{X: intField(L, t, "x"), Y: intField(L, t, "y")},
		Sprite: d.sprite(L, string(name)),
		Style:  d.style(L, t.RawGetString("style")),
		Z:      intField(L, t, "z"),
	}
	L.Push(lua.LNumber(w.Spawn(st)))
	return 1
}

// ts.despawn(id) -> bool
func (d *Driver) luaDespawn(L *lua.LState) int {
	id := checkID(L, 1)
	L.Push(lua.LBool(d.scene(L).Despawn(id) == nil))
	return 1
}

// ts.move(id, x, y) -> bool
func (d *Driver) luaMove(L *lua.LState) int {
	id := checkID(L, 1)
	pos := core.Pos{X: L.CheckInt(2), Y: L.CheckInt(3)}
	L.Push(lua.LBool(d.scene(L).Move(id, pos) == nil))
	return 1
}

// update applies fn to an entity's state and pushes whether it existed.
func (d *Driver) update(L *lua.LState, id scene.EntityID, fn func(*scene.RenderState)) int {
	w := d.scene(L)
	st, ok := w.Get(id)
	if ok {
		fn(&st)
		ok = w.Set(id, st) == nil
	}
	L.Push(lua.LBool(ok))
	return 1
}

// ts.set_z(id, z) -> bool
func (d *Driver) luaSetZ(L *lua.LState) int {
	id, z := checkID(L, 1), L.CheckInt(2)
	return d.update(L, id, func(st *scene.RenderState) { st.Z = z })
}

// ts.set_sprite(id, name) -> bool
func (d *Driver) luaSetSprite(L *lua.LState) int {
	id, h := checkID(L, 1), d.sprite(L, L.CheckString(2))
	return d.update(L, id, func(st *scene.RenderState) { st.Sprite = h })
}

// ts.set_style(id, name|nil) -> bool
func (d *Driver) luaSetStyle(L *lua.LState) int {
	id, h := checkID(L, 1), d.style(L, L.Get(2))
	return d.update(L, id, func(st *scene.RenderState) { st.Style = h })
}

// ts.get(id) -> {x, y, z} | nil
func (d *Driver) luaGet(L *lua.LState) int {
	st, ok := d.scene(L).Get(checkID(L, 1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	t := L.NewTable()
	t.RawSetString("x", lua.LNumber(st.Pos.X))
	t.RawSetString("y", lua.LNumber(st.Pos.Y))
	t.RawSetString("z", lua.LNumber(st.Z))
	L.Push(t)
	return 1
}

// ts.size() -> width, height
func (d *Driver) luaSize(L *lua.LState) int {
	L.Push(lua.LNumber(d.width))
	L.Push(lua.LNumber(d.height))
	return 2
}

// ts.tick() -> n
func (d *Driver) luaTick(L *lua.LState) int {
	L.Push(lua.LNumber(d.tick))
	return 1
}

// ts.sprite_size(name) -> width, height | nil
func (d *Driver) luaSpriteSize(L *lua.LState) int {
	sp, ok := d.lookup.Sprite(d.sprite(L, L.CheckString(1)))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(sp.Width()))
	L.Push(lua.LNumber(sp.Height()))
	return 2
}

func (d *Driver) luaQuit(L *lua.LState) int {
	d.quit = true
	return 0
}

// ts.log(...) and print(...) join their arguments with spaces.
func (d *Driver) luaLog(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	d.logger.Info("%s", strings.Join(parts, " "))
	return 0
}
