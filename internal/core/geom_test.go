package core

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestRectIntersects(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Rect
		expected bool
	}{
		{
			name:     "overlapping rects",
			a:        NewRect(0, 0, 10, 10),
			b:        NewRect(5, 5, 10, 10),
			expected: true,
		},
		{
			name:     "non-overlapping horizontal",
			a:        NewRect(0, 0, 10, 10),
			b:        NewRect(15, 0, 10, 10),
			expected: false,
		},
		{
			name:     "adjacent vertical (no overlap)",
			a:        NewRect(0, 0, 10, 10),
			b:        NewRect(0, 10, 10, 10),
			expected: false,
		},
		{
			name:     "contained rect",
			a:        NewRect(0, 0, 20, 20),
			b:        NewRect(5, 5, 5, 5),
			expected: true,
		},
		{
			name:     "sub-pixel overlap",
			a:        NewRect(0, 0, 10, 10),
			b:        NewRect(9.5, 9.5, 10, 10),
			expected: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Intersects(tc.b); got != tc.expected {
				t.Errorf("Intersects() = %v, expected %v", got, tc.expected)
			}
			if got := tc.b.Intersects(tc.a); got != tc.expected {
				t.Errorf("Intersects() not symmetric: got %v", got)
			}
		})
	}
}

func TestRectCenter(t *testing.T) {
	c := NewRect(10, 20, 10, 100).Center()
	if c.X != 15 || c.Y != 70 {
		t.Errorf("Center() = %+v, expected {15 70}", c)
	}
}

func TestClampF(t *testing.T) {
	tests := []struct {
		name     string
		val      float64
		expected float64
	}{
		{"inside", 5, 5},
		{"below", -10, 0},
		{"above", 999999, 500},
		{"nan", math.NaN(), 0},
		{"+inf", math.Inf(1), 500},
		{"-inf", math.Inf(-1), 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClampF(tc.val, 0, 500); got != tc.expected {
				t.Errorf("ClampF(%v) = %v, expected %v", tc.val, got, tc.expected)
			}
		})
	}
}

func TestVectorIsFinite(t *testing.T) {
	if !Vec(1, 2).IsFinite() {
		t.Error("finite vector reported as non-finite")
	}
	if Vec(math.NaN(), 0).IsFinite() {
		t.Error("NaN vector reported as finite")
	}
	if Vec(0, math.Inf(-1)).IsFinite() {
		t.Error("Inf vector reported as finite")
	}
	if got := Vec(3, 4).Length(); got != 5 {
		t.Errorf("Length() = %v, expected 5", got)
	}
}

func TestParseAction(t *testing.T) {
	tests := map[string]Action{
		"up":    ActionUp,
		"UP":    ActionUp,
		"-1":    ActionUp,
		"down":  ActionDown,
		"1":     ActionDown,
		"none":  ActionNone,
		"left":  ActionNone,
		"":      ActionNone,
		" down": ActionDown,
	}
	for in, want := range tests {
		if got := ParseAction(in); got != want {
			t.Errorf("ParseAction(%q) = %q, expected %q", in, got, want)
		}
	}
}

func TestEffectiveIntensity(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{0.5, 0.5},
		{-1, 0},
		{7, 1},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, tc := range tests {
		in := PlayerInput{Intensity: tc.in}
		if got := in.EffectiveIntensity(); got != tc.expected {
			t.Errorf("EffectiveIntensity(%v) = %v, expected %v", tc.in, got, tc.expected)
		}
	}
}

func TestGameStateCloneIsDeep(t *testing.T) {
	y := 10.0
	s := GameState{
		InputBuffer: InputBuffers{
			Player1: []PlayerInput{{Action: ActionUp, TargetY: &y}},
		},
	}
	c := s.Clone()
	c.InputBuffer.Player1[0].Action = ActionDown
	*c.InputBuffer.Player1[0].TargetY = 99

	if s.InputBuffer.Player1[0].Action != ActionUp {
		t.Error("Clone shares input slice with original")
	}
	if *s.InputBuffer.Player1[0].TargetY != 10 {
		t.Error("Clone shares TargetY pointer with original")
	}
}

func TestPlayerSlotOpponent(t *testing.T) {
	if Player1.Opponent() != Player2 || Player2.Opponent() != Player1 {
		t.Error("Opponent() mapping is wrong")
	}
	if NoPlayer.Opponent() != NoPlayer {
		t.Error("NoPlayer should have no opponent")
	}
	if PlayerSlot(7).Valid() {
		t.Error("unknown slot reported as valid")
	}
}

func TestPlayerSlotJSON(t *testing.T) {
	tests := []struct {
		slot PlayerSlot
		wire string
	}{
		{NoPlayer, `"none"`},
		{Player1, `"player1"`},
		{Player2, `"player2"`},
	}
	for _, tc := range tests {
		data, err := json.Marshal(GameState{Winner: tc.slot})
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !strings.Contains(string(data), `"winner":`+tc.wire) {
			t.Errorf("%v encoded as %s", tc.slot, data)
		}

		var back GameState
		if err := json.Unmarshal(data, &back); err != nil || back.Winner != tc.slot {
			t.Errorf("decoded %v (err %v), expected %v", back.Winner, err, tc.slot)
		}
	}

	var s PlayerSlot
	if err := json.Unmarshal([]byte(`"player3"`), &s); err == nil {
		t.Error("unknown slot name should fail to decode")
	}
}
