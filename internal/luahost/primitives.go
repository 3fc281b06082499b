package luahost

import (
	"github.com/Shopify/go-lua"
)

// Primitives lists the drawing and input globals a host provides.
var Primitives = []string{"spr", "btn", "cls", "print", "circ", "circb", "rect", "rectb"}

func (h *Host) registerPrimitives() {
	c := h.console
	fns := []lua.RegistryFunction{
		{Name: "cls", Function: func(l *lua.State) int {
			c.Cls(lua.OptInteger(l, 1, 0))
			return 0
		}},
		{Name: "print", Function: func(l *lua.State) int {
			text, _ := lua.ToStringMeta(l, 1)
			l.Pop(1)
			width := c.Print(
				text,
				lua.OptInteger(l, 2, 0),
				lua.OptInteger(l, 3, 0),
				lua.OptInteger(l, 4, 15),
				l.ToBoolean(5),
				lua.OptInteger(l, 6, 1),
				l.ToBoolean(7),
			)
			l.PushInteger(width)
			return 1
		}},
		{Name: "spr", Function: func(l *lua.State) int {
			c.Spr(
				lua.CheckInteger(l, 1),
				lua.OptInteger(l, 2, 0),
				lua.OptInteger(l, 3, 0),
				lua.OptInteger(l, 4, -1),
				lua.OptInteger(l, 5, 1),
				lua.OptInteger(l, 6, 0),
				lua.OptInteger(l, 7, 0),
				lua.OptInteger(l, 8, 1),
				lua.OptInteger(l, 9, 1),
			)
			return 0
		}},
		{Name: "btn", Function: func(l *lua.State) int {
			l.PushBoolean(c.Btn(lua.CheckInteger(l, 1)))
			return 1
		}},
		{Name: "circ", Function: func(l *lua.State) int {
			c.Circ(lua.CheckInteger(l, 1), lua.CheckInteger(l, 2), lua.CheckInteger(l, 3), lua.OptInteger(l, 4, 0))
			return 0
		}},
		{Name: "circb", Function: func(l *lua.State) int {
			c.Circb(lua.CheckInteger(l, 1), lua.CheckInteger(l, 2), lua.CheckInteger(l, 3), lua.OptInteger(l, 4, 0))
			return 0
		}},
		{Name: "rect", Function: func(l *lua.State) int {
			c.Rect(lua.CheckInteger(l, 1), lua.CheckInteger(l, 2), lua.CheckInteger(l, 3), lua.CheckInteger(l, 4), lua.OptInteger(l, 5, 0))
			return 0
		}},
		{Name: "rectb", Function: func(l *lua.State) int {
			c.Rectb(lua.CheckInteger(l, 1), lua.CheckInteger(l, 2), lua.CheckInteger(l, 3), lua.CheckInteger(l, 4), lua.OptInteger(l, 5, 0))
			return 0
		}},
	}
	for _, fn := range fns {
		h.l.Register(fn.Name, fn.Function)
	}
}
