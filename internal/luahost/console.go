package luahost

import "fmt"

// Console is the drawing and input surface behind the host's primitive
// globals. Arguments follow the runtime's documented order with defaults
// already applied.
type Console interface {
	Cls(color int)
	Print(text string, x, y, color int, fixed bool, scale int, smallFont bool) int
	Spr(id, x, y, colorKey, scale, flip, rotate, w, h int)
	Btn(id int) bool
	Circ(x, y, radius, color int)
	Circb(x, y, radius, color int)
	Rect(x, y, w, h, color int)
	Rectb(x, y, w, h, color int)
}

// Call is one recorded console operation.
type Call struct {
	Name string
	Args []any
}

// String renders the call the way it would appear in a script.
func (c Call) String() string {
	s := c.Name + "("
	for i, a := range c.Args {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%#v", a)
	}
	return s + ")"
}

// Recorder is an in-memory Console. It records every draw call and serves
// button state from Buttons.
type Recorder struct {
	Calls   []Call
	Buttons map[int]bool
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{Buttons: make(map[int]bool)}
}

// Reset drops the recorded calls.
func (r *Recorder) Reset() {
	r.Calls = r.Calls[:0]
}

func (r *Recorder) record(name string, args ...any) {
	r.Calls = append(r.Calls, Call{Name: name, Args: args})
}

func (r *Recorder) Cls(color int) { r.record("cls", color) }

// Print records the call and returns the text width in the default 6px font.
func (r *Recorder) Print(text string, x, y, color int, fixed bool, scale int, smallFont bool) int {
	r.record("print", text, x, y, color, fixed, scale, smallFont)
	width := 6
	if smallFont {
		width = 4
	}
	return len([]rune(text)) * width * scale
}

func (r *Recorder) Spr(id, x, y, colorKey, scale, flip, rotate, w, h int) {
	r.record("spr", id, x, y, colorKey, scale, flip, rotate, w, h)
}

func (r *Recorder) Btn(id int) bool { return r.Buttons[id] }

func (r *Recorder) Circ(x, y, radius, color int)  { r.record("circ", x, y, radius, color) }
func (r *Recorder) Circb(x, y, radius, color int) { r.record("circb", x, y, radius, color) }
func (r *Recorder) Rect(x, y, w, h, color int)    { r.record("rect", x, y, w, h, color) }
func (r *Recorder) Rectb(x, y, w, h, color int)   { r.record("rectb", x, y, w, h, color) }
