package core

import "strings"

// Screen is a fixed-size grid of runes that snapshots are rasterized onto
// before the terminal client styles them. Cells are stored row-major.
type Screen struct {
	w, h  int
	cells []rune
}

// NewScreen returns a blank w×h grid. Negative sizes give an empty grid.
func NewScreen(w, h int) *Screen {
	w, h = max(0, w), max(0, h)
	s := &Screen{w: w, h: h, cells: make([]rune, w*h)}
	s.Clear()
	return s
}

func (s *Screen) Width() int {
	return s.w
}

func (s *Screen) Height() int {
	return s.h
}

// Clear blanks every cell.
func (s *Screen) Clear() {
	for i := range s.cells {
		s.cells[i] = ' '
	}
}

func (s *Screen) inside(x, y int) bool {
	return x >= 0 && x < s.w && y >= 0 && y < s.h
}

// Set writes r at (x, y); cells off the grid are dropped.
func (s *Screen) Set(x, y int, r rune) {
	if s.inside(x, y) {
		s.cells[y*s.w+x] = r
	}
}

// Get reads the cell at (x, y), a blank off the grid.
func (s *Screen) Get(x, y int) rune {
	if !s.inside(x, y) {
		return ' '
	}
	return s.cells[y*s.w+x]
}

// FillColumn sets rows [top, bottom) of column x to r, clipped to the grid.
func (s *Screen) FillColumn(x, top, bottom int, r rune) {
	for y := max(0, top); y < min(bottom, s.h); y++ {
		s.Set(x, y, r)
	}
}

func (s *Screen) String() string {
	rows := make([]string, s.h)
	for y := range rows {
		rows[y] = string(s.cells[y*s.w : (y+1)*s.w])
	}
	return strings.Join(rows, "\n")
}
