package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanOccupy(t *testing.T) {
	g := NewGrid()
	g[11][0] = blk("O sol", Subject)

	tests := []struct {
		name string
		pos  Pos
		want bool
	}{
		{"left of grid", Pos{-1, 3}, false},
		{"right of grid", Pos{Width, 3}, false},
		{"below grid", Pos{1, Height}, false},
		{"settled cell", Pos{0, 11}, false},
		{"free cell", Pos{1, 11}, true},
		{"above grid", Pos{2, -3}, true},
		{"above grid out of x range", Pos{Width, -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanOccupy(tt.pos, g))
		})
	}
}

func TestCanOccupyBoundsHoldForAnyGrid(t *testing.T) {
	g := NewGrid()
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			g[y][x] = blk("x", Verb)
			assert.False(t, CanOccupy(Pos{-1, y}, g))
			assert.False(t, CanOccupy(Pos{Width, y}, g))
			assert.False(t, CanOccupy(Pos{x, Height}, g))
		}
	}
}

func TestAttemptMove(t *testing.T) {
	g := NewGrid()
	g[5][1] = blk("canta", Verb)

	falling := func(x, y int) FallingBlock {
		return FallingBlock{Block: Block{Text: "A flor", Category: Subject}, Pos: Pos{x, y}}
	}

	t.Run("free move", func(t *testing.T) {
		res := AttemptMove(falling(1, 2), 0, 1, g)
		assert.Equal(t, Moved, res.Outcome)
		assert.Equal(t, Pos{1, 3}, res.Block.Pos)
	})

	t.Run("horizontal wall", func(t *testing.T) {
		res := AttemptMove(falling(0, 2), -1, 0, g)
		assert.Equal(t, Blocked, res.Outcome)
		assert.Equal(t, Pos{0, 2}, res.Block.Pos)
	})

	t.Run("horizontal into settled", func(t *testing.T) {
		res := AttemptMove(falling(0, 5), 1, 0, g)
		assert.Equal(t, Blocked, res.Outcome)
	})

	t.Run("lands on settled", func(t *testing.T) {
		res := AttemptMove(falling(1, 4), 0, 1, g)
		assert.Equal(t, Landed, res.Outcome)
		assert.Equal(t, Pos{1, 4}, res.Block.Pos)
	})

	t.Run("lands on floor", func(t *testing.T) {
		res := AttemptMove(falling(3, Height-1), 0, 1, g)
		assert.Equal(t, Landed, res.Outcome)
		assert.Equal(t, Pos{3, Height - 1}, res.Block.Pos)
	})

	t.Run("tops out at row zero", func(t *testing.T) {
		full := NewGrid()
		full[1][1] = blk("x", Verb)
		res := AttemptMove(falling(1, 0), 0, 1, full)
		assert.Equal(t, ToppedOut, res.Outcome)
	})
}
