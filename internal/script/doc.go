// Package script drives a scene from a Lua file.
//
// A script defines any of these global callbacks; all are optional:
//
//	function on_start(width, height) end
//	function on_tick(tick, width, height) end
//	function on_key(key) end          -- key.name, key.rune, key.ctrl, key.alt, key.shift
//	function on_mouse(x, y, button) end
//	function on_resize(width, height) end
//
// and manipulates entities through the global ts table:
//
//	local id = ts.spawn{sprite = "ship", style = "ship", x = 2, y = 3, z = 1}
//	ts.move(id, x, y)         ts.set_z(id, z)
//	ts.set_sprite(id, name)   ts.set_style(id, name)  -- nil clears the style
//	ts.despawn(id)            ts.get(id)              -- {x=, y=, z=} or nil
//	ts.size()                 ts.tick()
//	ts.sprite_size(name)      ts.quit()
//	ts.log(...)              -- same as print
//
// Sprites and styles are referred to by their manifest names. Scripts run
// with the base, table, string and math libraries only; print goes to the
// host log. Each callback is bounded by a timeout.
package script
