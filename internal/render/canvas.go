package render

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/invariant"
	"github.com/litescript/ls-sky/internal/projector"
)

// CellAspect is the height of a terminal cell in units of its width.
// Canvas pixels are one cell wide and half a cell tall.
const CellAspect = 2

const (
	glyphPoint = '•'
	blank      = ' '

	// Very dark background, as the sky view always used.
	colorBackground = lipgloss.Color("236")
)

// Canvas is a Painter that draws onto a grid of terminal cells. Pixel y
// grows upward; row 0 is the top of the grid. Triangles are drawn as
// outlines.
type Canvas struct {
	cols, rows int
	cells      [][]rune
	colors     [][]lipgloss.Color

	proj  *projector.Projector
	color Color
}

var _ Painter = (*Canvas)(nil)

// NewCanvas returns a blank canvas of cols by rows cells.
func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{color: RGB(1, 1, 1)}
	c.Resize(cols, rows)
	return c
}

// Resize reallocates the grid and clears it.
func (c *Canvas) Resize(cols, rows int) {
	c.cols, c.rows = max(cols, 0), max(rows, 0)
	c.cells = make([][]rune, c.rows)
	c.colors = make([][]lipgloss.Color, c.rows)
	for y := range c.cells {
		c.cells[y] = make([]rune, c.cols)
		c.colors[y] = make([]lipgloss.Color, c.cols)
	}
	c.Clear()
}

// Clear blanks every cell.
func (c *Canvas) Clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = blank
			c.colors[y][x] = colorBackground
		}
	}
}

// Size returns the grid size in cells.
func (c *Canvas) Size() (cols, rows int) { return c.cols, c.rows }

// Viewport returns the canvas in projector pixels.
func (c *Canvas) Viewport() projector.Viewport {
	return projector.Viewport{Width: c.cols, Height: c.rows * CellAspect}
}

// Cell returns the rune at column x, row y, or zero outside the grid.
func (c *Canvas) Cell(x, y int) rune {
	if !c.inside(x, y) {
		return 0
	}
	return c.cells[y][x]
}

// Row returns row y as plain text.
func (c *Canvas) Row(y int) string {
	if y < 0 || y >= c.rows {
		return ""
	}
	return string(c.cells[y])
}

// SetProjector implements Painter.
func (c *Canvas) SetProjector(p *projector.Projector) { c.proj = p }

// Projector implements Painter.
func (c *Canvas) Projector() *projector.Projector { return c.proj }

// SetColor implements Painter.
func (c *Canvas) SetColor(col Color) { c.color = col }

// Color implements Painter.
func (c *Canvas) Color() Color { return c.color }

func (c *Canvas) inside(x, y int) bool {
	return x >= 0 && x < c.cols && y >= 0 && y < c.rows
}

func (c *Canvas) set(x, y int, r rune, col lipgloss.Color) {
	if c.inside(x, y) {
		c.cells[y][x] = r
		c.colors[y][x] = col
	}
}

// cell is a projected vertex.
type cell struct {
	x, y int
	ok   bool
}

func (c *Canvas) project(v r3.Vec) cell {
	w, ok := c.proj.Project(v)
	if !ok || math.IsNaN(w.X) || math.IsNaN(w.Y) {
		return cell{}
	}
	// Keep far-off points from overflowing int.
	if math.Abs(w.X) > 1e6 || math.Abs(w.Y) > 1e6 {
		return cell{}
	}
	return cell{
		x:  int(math.Floor(w.X)),
		y:  c.rows - 1 - int(math.Floor(w.Y/CellAspect)),
		ok: true,
	}
}

// Draw implements Painter.
func (c *Canvas) Draw(e *DrawEntity) {
	invariant.Check(c.proj != nil, "Canvas.Draw without a projector")
	invariant.Check(e.Valid(), "Canvas.Draw: inconsistent %s entity", e.Primitive)
	if c.proj == nil || !e.Valid() {
		return
	}

	pts := make([]cell, len(e.Positions))
	for i, v := range e.Positions {
		pts[i] = c.project(v)
	}
	colorOf := func(i int) lipgloss.Color {
		if e.IsColored() {
			return e.Colors[i].Lipgloss()
		}
		return c.color.Lipgloss()
	}
	line := func(a, b int) { c.line(pts[a], pts[b], colorOf(a)) }
	tri := func(a, b, d int) {
		line(a, b)
		line(b, d)
		line(d, a)
	}

	idx := e.order()
	switch e.Primitive {
	case Points:
		glyph := e.Glyph
		if glyph == 0 {
			glyph = glyphPoint
		}
		for _, i := range idx {
			if p := pts[i]; p.ok {
				c.set(p.x, p.y, glyph, colorOf(i))
			}
		}
	case Lines:
		for k := 1; k < len(idx); k += 2 {
			line(idx[k-1], idx[k])
		}
	case LineStrip, LineLoop:
		for k := 1; k < len(idx); k++ {
			line(idx[k-1], idx[k])
		}
		if e.Primitive == LineLoop && len(idx) > 2 {
			line(idx[len(idx)-1], idx[0])
		}
	case Triangles:
		for k := 2; k < len(idx); k += 3 {
			tri(idx[k-2], idx[k-1], idx[k])
		}
	case TriangleStrip:
		for k := 2; k < len(idx); k++ {
			tri(idx[k-2], idx[k-1], idx[k])
		}
	case TriangleFan:
		for k := 2; k < len(idx); k++ {
			tri(idx[0], idx[k-1], idx[k])
		}
	default:
		invariant.Unreachable("primitive %d", e.Primitive)
	}
}

// lineGlyph picks a box-drawing rune for a segment of the given cell
// deltas, with dy counted downward.
func lineGlyph(dx, dy int) rune {
	ax := math.Abs(float64(dx))
	ay := math.Abs(float64(dy)) * CellAspect
	switch {
	case ay <= 0.5*ax:
		return '─'
	case ax <= 0.5*ay:
		return '│'
	case (dx > 0) == (dy > 0):
		return '╲'
	default:
		return '╱'
	}
}

// line draws a Bresenham segment. Segments spanning more than the whole
// grid jump across a projection discontinuity and are dropped.
func (c *Canvas) line(a, b cell, col lipgloss.Color) {
	if !a.ok || !b.ok {
		return
	}
	dx, dy := b.x-a.x, b.y-a.y
	if abs(dx) > c.cols+c.rows || abs(dy) > c.cols+c.rows {
		return
	}
	glyph := lineGlyph(dx, dy)

	sx, sy := sign(dx), sign(dy)
	dx, dy = abs(dx), -abs(dy)
	err := dx + dy
	x, y := a.x, a.y
	for {
		c.set(x, y, glyph, col)
		if x == b.x && y == b.y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// DrawText implements Painter. The label starts two cells right of the
// anchor, leaving a one-cell gap after its glyph.
func (c *Canvas) DrawText(pos r3.Vec, text string) {
	if c.proj == nil {
		return
	}
	p := c.project(pos)
	if !p.ok {
		return
	}
	col := c.color.Lipgloss()
	for i, r := range []rune(text) {
		c.set(p.x+2+i, p.y, r, col)
	}
}

// String renders the grid with colors, one line per row.
func (c *Canvas) String() string {
	var b strings.Builder
	for y := 0; y < c.rows; y++ {
		// Render runs of one color together.
		start := 0
		for x := 1; x <= c.cols; x++ {
			if x < c.cols && c.colors[y][x] == c.colors[y][start] {
				continue
			}
			style := lipgloss.NewStyle().Foreground(c.colors[y][start])
			b.WriteString(style.Render(string(c.cells[y][start:x])))
			start = x
		}
		if y < c.rows-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
