package game

// CanOccupy reports whether a single-cell block may sit at pos.
// Rows above the grid (negative y) are vacant as long as x is in range.
func CanOccupy(pos Pos, g Grid) bool {
	if pos.X < 0 || pos.X >= Width || pos.Y >= Height {
		return false
	}
	if pos.Y >= 0 && g[pos.Y][pos.X] != nil {
		return false
	}
	return true
}

// MoveOutcome classifies the result of AttemptMove.
type MoveOutcome int

const (
	Moved MoveOutcome = iota
	Blocked
	Landed
	ToppedOut
)

func (o MoveOutcome) String() string {
	switch o {
	case Moved:
		return "moved"
	case Blocked:
		return "blocked"
	case Landed:
		return "landed"
	case ToppedOut:
		return "topped_out"
	}
	return "unknown"
}

// MoveResult carries the block after a move attempt. For Landed it is the pre-move block,
// ready to be written into the grid.
type MoveResult struct {
	Outcome MoveOutcome
	Block   FallingBlock
}

// AttemptMove translates b by (dx, dy). A blocked horizontal move leaves b untouched; a blocked
// downward move lands the block, or tops out when it never left row 0.
func AttemptMove(b FallingBlock, dx, dy int, g Grid) MoveResult {
	next := b
	next.Pos = Pos{X: b.Pos.X + dx, Y: b.Pos.Y + dy}
	if CanOccupy(next.Pos, g) {
		return MoveResult{Outcome: Moved, Block: next}
	}
	if dy <= 0 {
		return MoveResult{Outcome: Blocked, Block: b}
	}
	if b.Pos.Y <= 0 {
		return MoveResult{Outcome: ToppedOut, Block: b}
	}
	return MoveResult{Outcome: Landed, Block: b}
}
