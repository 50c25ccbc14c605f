// Package physics implements the Pong court simulation as pure functions.
// Nothing in here does I/O or touches shared state; the room drives it once
// per tick and on each input event.
package physics

// Court dimensions and movement constants. Positions are float64 so the
// paddle-offset reflection can produce fractional vertical speeds.
const (
	CourtWidth   = 640.0
	CourtHeight  = 480.0
	PaddleHeight = 80.0
	PaddleStep   = 12.0
	PaddleDepth  = 10.0 // x-band occupied by each paddle
	BaseSpeed    = 4.0  // horizontal units per tick at speed multiplier 1
)

// Sides of the court. Side 1 defends the left edge, side 2 the right.
const (
	SideLeft  = 1
	SideRight = 2
)

// Direction of a paddle move command.
type Direction string

const (
	DirUp   Direction = "up"
	DirDown Direction = "down"
)

// Ball carries position and per-tick velocity. DX's magnitude is
// BaseSpeed times the room's speed multiplier; its sign encodes which
// side the ball is travelling toward.
type Ball struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// Paddle is just a vertical position; the x coordinate is implied by the
// side the paddle belongs to.
type Paddle struct {
	Y float64 `json:"y"`
}

// NewBall returns a ball serving toward serveSide at the given speed
// multiplier.
func NewBall(serveSide int, speed float64) Ball {
	dx := BaseSpeed * speed
	if serveSide == SideLeft {
		dx = -dx
	}
	return Ball{X: CourtWidth / 2, Y: CourtHeight / 2, DX: dx}
}

// NewPaddle returns a paddle centered on the court.
func NewPaddle() Paddle {
	return Paddle{Y: (CourtHeight - PaddleHeight) / 2}
}

// AdvanceBall moves the ball by one tick's worth of velocity.
func AdvanceBall(b Ball) Ball {
	b.X += b.DX
	b.Y += b.DY
	return b
}

// ReflectOffWall inverts the vertical velocity when the ball has reached
// the floor or ceiling.
func ReflectOffWall(b Ball) Ball {
	if b.Y <= 0 && b.DY < 0 {
		b.DY = -b.DY
	}
	if b.Y >= CourtHeight && b.DY > 0 {
		b.DY = -b.DY
	}
	return b
}

// ReflectOffPaddle bounces the ball off the given side's paddle if it is
// inside that paddle's x-band and vertical extent. The horizontal velocity
// flips away from the paddle; the vertical velocity is re-derived from the
// offset between the ball and the paddle center, scaled by the speed
// multiplier, so off-center returns come back angled.
func ReflectOffPaddle(b Ball, p Paddle, side int, speed float64) (Ball, bool) {
	inBand := false
	switch side {
	case SideLeft:
		inBand = b.X <= PaddleDepth && b.DX < 0
	case SideRight:
		inBand = b.X >= CourtWidth-PaddleDepth && b.DX > 0
	}
	if !inBand || b.Y < p.Y || b.Y > p.Y+PaddleHeight {
		return b, false
	}

	b.DX = -b.DX
	center := p.Y + PaddleHeight/2
	b.DY = (b.Y - center) / (PaddleHeight / 2) * BaseSpeed * speed
	return b, true
}

// CheckScore reports whether the ball crossed an out-of-bounds edge and,
// if so, which side won the point.
func CheckScore(b Ball) (bool, int) {
	if b.X < 0 {
		return true, SideRight
	}
	if b.X > CourtWidth {
		return true, SideLeft
	}
	return false, 0
}

// ResetBall re-centers the ball after a point. The serve goes toward the
// side that just conceded, with no vertical motion until a paddle imparts
// some.
func ResetBall(b Ball, loserSide int, speed float64) Ball {
	return NewBall(loserSide, speed)
}

// MovePaddle applies one input step and clamps the paddle to the court.
func MovePaddle(p Paddle, dir Direction) Paddle {
	switch dir {
	case DirUp:
		p.Y -= PaddleStep
	case DirDown:
		p.Y += PaddleStep
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.Y > CourtHeight-PaddleHeight {
		p.Y = CourtHeight - PaddleHeight
	}
	return p
}
