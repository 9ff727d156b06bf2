package core

import "time"

// MatchConfig contains the fixed per-match parameters handed to a synchronizer.
// All distances are canvas pixels, speeds are pixels per tick.
type MatchConfig struct {
	CanvasWidth      float64 // Canvas width
	CanvasHeight     float64 // Canvas height
	TickRate         int     // Simulation ticks per second (default 60)
	WinScore         int     // Points needed to win
	PaddleWidth      float64 // Paddle width
	PaddleHeight     float64 // Paddle height
	PaddleOffset     float64 // Distance between a paddle and its scoring edge
	PaddleSpeed      float64 // Paddle step per tick at full intensity
	BallRadius       float64 // Ball radius
	InitialBallSpeed float64 // Serve speed
	InputBufferCap   int     // Max pending inputs per player
	InputHistory     int     // Processed inputs kept per player
	Seed             int64   // RNG seed for serve angles, 0 = time based
}

// DefaultMatchConfig returns a MatchConfig with sensible defaults.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		CanvasWidth:      800,
		CanvasHeight:     600,
		TickRate:         60,
		WinScore:         5,
		PaddleWidth:      10,
		PaddleHeight:     100,
		PaddleOffset:     20,
		PaddleSpeed:      8,
		BallRadius:       8,
		InitialBallSpeed: 5,
		InputBufferCap:   100,
		InputHistory:     32,
	}
}

// TickInterval returns the wall-clock duration of one tick.
func (c MatchConfig) TickInterval() time.Duration {
	rate := max(1, c.TickRate)
	return time.Second / time.Duration(rate)
}

// MaxPaddleY returns the largest legal paddle y.
func (c MatchConfig) MaxPaddleY() float64 {
	return max(0, c.CanvasHeight-c.PaddleHeight)
}

// PaddleX returns the left edge x of the given slot's paddle.
func (c MatchConfig) PaddleX(slot PlayerSlot) float64 {
	if slot == Player2 {
		return c.CanvasWidth - c.PaddleOffset - c.PaddleWidth
	}
	return c.PaddleOffset
}

// PaddleFaceX returns the x of the paddle face that the ball strikes.
func (c MatchConfig) PaddleFaceX(slot PlayerSlot) float64 {
	if slot == Player2 {
		return c.PaddleX(Player2)
	}
	return c.PaddleX(Player1) + c.PaddleWidth
}
