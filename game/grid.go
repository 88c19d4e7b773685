// Package game is the falling-words engine: grid, movement, block generation, line clearing
// and scoring, driven by a ticking session.
package game

import (
	"errors"
	"fmt"
)

// Grid dimensions.
const (
	Width  = 4
	Height = 12
)

// ErrOutOfBounds is returned when a grid coordinate falls outside [0,Width) x [0,Height).
var ErrOutOfBounds = errors.New("position out of bounds")

// Category is the grammatical class of a word block.
type Category string

const (
	Subject     Category = "subject"
	Verb        Category = "verb"
	Object      Category = "object"
	Adjective   Category = "adjective"
	Adverb      Category = "adverb"
	Conjunction Category = "conjunction"
	Preposition Category = "preposition"
)

// AllCategories lists every category in display order.
var AllCategories = []Category{Subject, Verb, Object, Adjective, Adverb, Conjunction, Preposition}

// Block is a word tagged with its category. Once written into the grid it is settled.
type Block struct {
	Text     string   `json:"text"`
	Category Category `json:"category"`
}

// Pos is a grid-relative position. Y grows downwards; row 0 is the top.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// FallingBlock is the active piece.
type FallingBlock struct {
	Block
	Pos Pos `json:"pos"`
}

// Grid holds settled blocks; nil cells are empty.
type Grid [][]*Block

// NewGrid returns an empty Width x Height grid.
func NewGrid() Grid {
	g := make(Grid, Height)
	for y := range g {
		g[y] = make([]*Block, Width)
	}
	return g
}

func inBounds(x, y int) bool {
	return x >= 0 && x < Width && y >= 0 && y < Height
}

// CellAt returns the block at (x, y), nil when the cell is empty.
func (g Grid) CellAt(x, y int) (*Block, error) {
	if !inBounds(x, y) {
		return nil, fmt.Errorf("cell (%d,%d): %w", x, y, ErrOutOfBounds)
	}
	return g[y][x], nil
}

// WithCellSet returns a copy of the grid with (x, y) set to b. The receiver is not modified.
func (g Grid) WithCellSet(x, y int, b *Block) (Grid, error) {
	if !inBounds(x, y) {
		return nil, fmt.Errorf("set (%d,%d): %w", x, y, ErrOutOfBounds)
	}
	cp := g.Clone()
	cp[y][x] = b
	return cp, nil
}

// Clone returns a deep copy of the row slices. Blocks are shared; they are never mutated.
func (g Grid) Clone() Grid {
	cp := make(Grid, len(g))
	for y, row := range g {
		cp[y] = make([]*Block, len(row))
		copy(cp[y], row)
	}
	return cp
}

// FilledCount returns the number of settled cells in row y, or -1 when y is out of range.
func (g Grid) FilledCount(y int) int {
	if y < 0 || y >= len(g) {
		return -1
	}
	n := 0
	for _, c := range g[y] {
		if c != nil {
			n++
		}
	}
	return n
}

// IsRowFull reports whether every cell of row y is settled.
func (g Grid) IsRowFull(y int) (bool, error) {
	if y < 0 || y >= Height {
		return false, fmt.Errorf("row %d: %w", y, ErrOutOfBounds)
	}
	return g.FilledCount(y) == Width, nil
}

// IsRowEmpty reports whether row y has no settled cells.
func (g Grid) IsRowEmpty(y int) (bool, error) {
	if y < 0 || y >= Height {
		return false, fmt.Errorf("row %d: %w", y, ErrOutOfBounds)
	}
	return g.FilledCount(y) == 0, nil
}

// RowBlocks returns the blocks of row y left to right, with empty cells as zero Blocks.
func (g Grid) RowBlocks(y int) []Block {
	out := make([]Block, Width)
	for x, c := range g[y] {
		if c != nil {
			out[x] = *c
		}
	}
	return out
}

// HighestFilledRow returns the smallest y holding a settled cell, or Height when the grid is empty.
func (g Grid) HighestFilledRow() int {
	for y := range g {
		if g.FilledCount(y) > 0 {
			return y
		}
	}
	return Height
}

// removeRows drops the given rows and pads empty rows on top so the height stays constant.
func (g Grid) removeRows(rows map[int]bool) Grid {
	kept := make(Grid, 0, Height)
	for y, row := range g {
		if !rows[y] {
			kept = append(kept, row)
		}
	}
	out := make(Grid, 0, Height)
	for len(out)+len(kept) < Height {
		out = append(out, make([]*Block, Width))
	}
	return append(out, kept...)
}
