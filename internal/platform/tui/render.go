package tui

import (
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/core"
)

// Field glyphs.
const (
	NetChar     = '┊'
	Paddle1Char = '█'
	Paddle2Char = '▓'
	BallChar    = '●'
)

// runeStyles colors field glyphs. Unlisted runes use the default style.
var runeStyles = map[rune]lipgloss.Style{
	NetChar:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	Paddle1Char: lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	Paddle2Char: lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	BallChar:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
}

var (
	fieldBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8"))
	bannerStyle = lipgloss.NewStyle().Bold(true).Padding(1, 3).Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("11"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	scoreStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// DrawState rasterizes a snapshot onto the screen, scaling the canvas to
// the screen size. Canvas y grows downwards like terminal rows.
func DrawState(dst *core.Screen, state core.GameState) {
	dst.Clear()
	w, h := dst.Width(), dst.Height()
	if w == 0 || h == 0 || state.Canvas.Width <= 0 || state.Canvas.Height <= 0 {
		return
	}
	sx := float64(w) / state.Canvas.Width
	sy := float64(h) / state.Canvas.Height

	for y := 0; y < h; y += 2 {
		dst.Set(w/2, y, NetChar)
	}

	drawPaddle := func(p core.PlayerState, r rune) {
		x := clampInt(int(p.PaddlePosition.X*sx), 0, w-1)
		top := int(math.Floor(p.PaddlePosition.Y * sy))
		bottom := int(math.Ceil((p.PaddlePosition.Y + p.Height) * sy))
		dst.FillColumn(x, top, max(top+1, bottom), r)
	}
	drawPaddle(state.Players.Player1, Paddle1Char)
	drawPaddle(state.Players.Player2, Paddle2Char)

	bx := clampInt(int(state.Ball.Position.X*sx), 0, w-1)
	by := clampInt(int(state.Ball.Position.Y*sy), 0, h-1)
	dst.Set(bx, by, BallChar)
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same style to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			start := s.Get(x, y)
			style, styled := runeStyles[start]

			var run strings.Builder
			for x < s.Width() {
				r := s.Get(x, y)
				if _, ok := runeStyles[r]; r != start && (ok || styled) {
					break
				}
				run.WriteRune(r)
				x++
			}

			if styled {
				sb.WriteString(style.Render(run.String()))
			} else {
				sb.WriteString(run.String())
			}
		}
	}
	return sb.String()
}

// scoreLine renders "left  3 : 1  right" across the given width.
func scoreLine(left, right string, score core.Score, width int) string {
	mid := scoreStyle.Render(strconv.Itoa(score.Player1) + " : " + strconv.Itoa(score.Player2))
	l := titleStyle.Render(left)
	r := titleStyle.Render(right)
	gap := max(1, (width-lipgloss.Width(mid))/2)
	return lipgloss.PlaceHorizontal(gap, lipgloss.Left, l) +
		mid +
		lipgloss.PlaceHorizontal(gap, lipgloss.Right, r)
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
