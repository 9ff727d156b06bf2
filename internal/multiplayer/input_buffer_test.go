package multiplayer

import (
	"math"
	"sync"
	"testing"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/core"
)

func markedInput(n int) core.PlayerInput {
	in := core.NewHumanInput(core.ActionUp, 1)
	in.Intensity = float64(n)
	return in
}

func TestInputBufferEviction(t *testing.T) {
	b := NewInputBuffer(100, 32)

	for i := range 150 {
		b.Add(Player1, markedInput(i))
		if n := b.Len(Player1); n > 100 {
			t.Fatalf("after %d adds buffer holds %d inputs, cap is 100", i+1, n)
		}
	}

	got := b.Drain(Player1)
	if len(got) != 100 {
		t.Fatalf("drained %d inputs, expected 100", len(got))
	}
	if got[len(got)-1].Intensity != 149 {
		t.Errorf("newest input = %v, expected 149", got[len(got)-1].Intensity)
	}
	if got[0].Intensity != 50 {
		t.Errorf("oldest kept input = %v, expected 50", got[0].Intensity)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Intensity <= got[i-1].Intensity {
			t.Fatalf("FIFO order broken at %d", i)
		}
	}
	if b.Len(Player1) != 0 {
		t.Errorf("buffer not empty after drain")
	}
}

func TestInputBufferUnknownSlot(t *testing.T) {
	b := NewInputBuffer(0, 0)

	for _, slot := range []PlayerSlot{core.NoPlayer, PlayerSlot(3), PlayerSlot(-1)} {
		b.Add(slot, markedInput(1))
		if b.Len(slot) != 0 || b.Drain(slot) != nil || b.Pending(slot) != nil {
			t.Errorf("slot %d should be ignored", slot)
		}
	}
	if b.Len(Player1) != 0 || b.Len(Player2) != 0 {
		t.Error("unknown slot input leaked into a real slot")
	}
}

func TestInputBufferAcceptsNonFinite(t *testing.T) {
	b := NewInputBuffer(10, 10)
	in := core.NewHumanInput(core.ActionDown, math.NaN())
	b.Add(Player2, in)

	got := b.Drain(Player2)
	if len(got) != 1 || !math.IsNaN(got[0].Intensity) {
		t.Fatalf("expected the NaN input to be queued as-is, got %+v", got)
	}
}

func TestInputBufferSlotsIndependent(t *testing.T) {
	b := NewInputBuffer(10, 10)
	b.Add(Player1, markedInput(1))
	b.Add(Player2, markedInput(2))
	b.Add(Player2, markedInput(3))

	if n := len(b.Drain(Player1)); n != 1 {
		t.Errorf("player1 drained %d, expected 1", n)
	}
	if n := b.Len(Player2); n != 2 {
		t.Errorf("player2 holds %d, expected 2", n)
	}
}

func TestInputBufferHistoryBounded(t *testing.T) {
	b := NewInputBuffer(100, 32)
	for i := range 50 {
		b.Record(Player1, markedInput(i))
	}

	h := b.History(Player1)
	if len(h) != 32 {
		t.Fatalf("history length = %d, expected 32", len(h))
	}
	if h[0].Intensity != 18 || h[31].Intensity != 49 {
		t.Errorf("history window = [%v..%v], expected [18..49]", h[0].Intensity, h[31].Intensity)
	}
}

func TestInputBufferCloneOnAdd(t *testing.T) {
	b := NewInputBuffer(10, 10)
	y := 100.0
	in := core.PlayerInput{TargetY: &y}
	b.Add(Player1, in)
	y = 5

	got := b.Drain(Player1)
	if *got[0].TargetY != 100 {
		t.Errorf("queued TargetY = %v, expected 100", *got[0].TargetY)
	}
}

func TestInputBufferConcurrentProducers(t *testing.T) {
	b := NewInputBuffer(100, 32)

	var wg sync.WaitGroup
	for p := range 8 {
		wg.Add(1)
		go func(slot PlayerSlot) {
			defer wg.Done()
			for i := range 1000 {
				b.Add(slot, markedInput(i))
			}
		}(PlayerSlot(p%2 + 1))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		for _, slot := range []PlayerSlot{Player1, Player2} {
			if n := len(b.Drain(slot)); n > 100 {
				t.Fatalf("drained %d inputs, cap is 100", n)
			}
		}
		select {
		case <-done:
			return
		default:
		}
	}
}
