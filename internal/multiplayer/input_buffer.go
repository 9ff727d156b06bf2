package multiplayer

import (
	"sync"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/core"
)

// Default input buffer bounds.
const (
	DefaultInputCap     = 100
	DefaultInputHistory = 32
)

// InputBuffer holds the pending inputs of both slots of one match.
// Producers (network handlers, the AI) append concurrently; the tick loop
// takes a slot's whole queue at once with Drain.
type InputBuffer struct {
	mu         sync.Mutex
	capacity   int
	historyCap int
	pending    [2][]core.PlayerInput
	history    [2][]core.PlayerInput
}

// NewInputBuffer creates a buffer with the given per-slot bounds.
// Non-positive values fall back to the defaults.
func NewInputBuffer(capacity, history int) *InputBuffer {
	if capacity <= 0 {
		capacity = DefaultInputCap
	}
	if history <= 0 {
		history = DefaultInputHistory
	}
	return &InputBuffer{capacity: capacity, historyCap: history}
}

func slotIndex(slot PlayerSlot) (int, bool) {
	if !slot.Valid() {
		return 0, false
	}
	return int(slot) - 1, true
}

// Add appends an input to the slot's queue, evicting the oldest entries once
// the cap is reached. Unknown slots are ignored. Values are not validated
// here; the tick loop clamps them when applying.
func (b *InputBuffer) Add(slot PlayerSlot, in core.PlayerInput) {
	i, ok := slotIndex(slot)
	if !ok {
		return
	}
	in = in.Clone()

	b.mu.Lock()
	defer b.mu.Unlock()

	q := b.pending[i]
	if over := len(q) - b.capacity + 1; over > 0 {
		q = q[over:]
	}
	b.pending[i] = append(q, in)
}

// Drain removes and returns the slot's pending inputs, oldest first.
func (b *InputBuffer) Drain(slot PlayerSlot) []core.PlayerInput {
	i, ok := slotIndex(slot)
	if !ok {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	q := b.pending[i]
	b.pending[i] = nil
	return q
}

// Pending returns a copy of the slot's queue.
func (b *InputBuffer) Pending(slot PlayerSlot) []core.PlayerInput {
	i, ok := slotIndex(slot)
	if !ok {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return copyInputs(b.pending[i])
}

// Len returns the number of pending inputs for the slot.
func (b *InputBuffer) Len(slot PlayerSlot) int {
	i, ok := slotIndex(slot)
	if !ok {
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending[i])
}

// Record appends processed inputs to the slot's trailing history.
func (b *InputBuffer) Record(slot PlayerSlot, inputs ...core.PlayerInput) {
	i, ok := slotIndex(slot)
	if !ok || len(inputs) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	h := append(b.history[i], inputs...)
	if over := len(h) - b.historyCap; over > 0 {
		h = append([]core.PlayerInput(nil), h[over:]...)
	}
	b.history[i] = h
}

// History returns a copy of the slot's processed inputs, oldest first.
func (b *InputBuffer) History(slot PlayerSlot) []core.PlayerInput {
	i, ok := slotIndex(slot)
	if !ok {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return copyInputs(b.history[i])
}

func copyInputs(in []core.PlayerInput) []core.PlayerInput {
	if len(in) == 0 {
		return nil
	}
	out := make([]core.PlayerInput, len(in))
	for i, v := range in {
		out[i] = v.Clone()
	}
	return out
}
