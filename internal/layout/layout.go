package layout

type Dim struct{ X, Y int }

// Layout describes how a flat LED panel is wired. Rows are counted from
// the top unless BottomUp is set, matching strips fed from a lower corner.
type Layout struct {
	Dim        Dim
	Serpentine bool // every other row runs right to left
	BottomUp   bool
}

// Index maps a pixel (x,y), y down, to its position on the strip.
func (l Layout) Index(x, y int) int {
	row := y
	if l.BottomUp {
		row = l.Dim.Y - 1 - y
	}
	col := x
	if l.Serpentine && row%2 == 1 {
		col = l.Dim.X - 1 - x
	}
	return row*l.Dim.X + col
}

func (l Layout) Count() int {
	return l.Dim.X * l.Dim.Y
}
