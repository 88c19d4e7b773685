package game

import (
	"context"
	"math/rand"
	"strings"

	"github.com/rs/zerolog"
)

const historySize = 10

// SpawnPos is where every new block appears.
var SpawnPos = Pos{X: Width/2 - 1, Y: 0}

// Suggester proposes a word of the given category that completes a row.
// existing holds the texts already placed in the row, "" marking the gap.
type Suggester interface {
	Suggest(ctx context.Context, existing []string, target Category, structure Structure) (string, error)
}

// Draw is the first half of block generation: the category is decided, the text may still come
// from the suggestion oracle.
type Draw struct {
	Category  Category
	Predicted bool
	Texts     []string
}

// Generator produces falling blocks. It owns the category bag and the recent-category history
// and is not safe for concurrent use; Suggest is the only method that may run unsynchronized.
type Generator struct {
	rng       *rand.Rand
	bag       *CategoryBag
	suggester Suggester
	log       zerolog.Logger

	parsedFor Structure
	parts     []Category
	recent    []Category
}

// NewGenerator creates a generator. suggester may be nil, in which case only local pools are used.
func NewGenerator(rng *rand.Rand, suggester Suggester, logger zerolog.Logger) *Generator {
	return &Generator{
		rng:       rng,
		bag:       NewCategoryBag(rng),
		suggester: suggester,
		log:       logger,
	}
}

// Next builds the next falling block at SpawnPos. It does not check the spawn cell.
func (g *Generator) Next(ctx context.Context, grid Grid, level int, structure Structure) FallingBlock {
	d := g.Draw(grid, structure)
	return g.Build(d, g.Suggest(ctx, d, structure), level)
}

// Draw picks the category of the next block. When a row misses exactly one block the category is
// the one the structure requires in the gap; otherwise it comes from the bag.
func (g *Generator) Draw(grid Grid, structure Structure) Draw {
	for y := Height - 1; y >= 0; y-- {
		if grid.FilledCount(y) != Width-1 {
			continue
		}
		texts := make([]string, Width)
		gap := 0
		for x, c := range grid[y] {
			if c == nil {
				gap = x
				continue
			}
			texts[x] = c.Text
		}
		return Draw{Category: g.categoryForColumn(structure, gap), Predicted: true, Texts: texts}
	}
	return Draw{Category: g.bag.Next()}
}

// Suggest asks the oracle for a word when the draw was predicted. It returns "" when there is
// nothing to ask or the oracle fails.
func (g *Generator) Suggest(ctx context.Context, d Draw, structure Structure) string {
	if !d.Predicted || g.suggester == nil {
		return ""
	}
	s, err := g.suggester.Suggest(ctx, d.Texts, d.Category, structure)
	if err != nil {
		g.log.Warn().Err(err).Str("category", string(d.Category)).Msg("suggestion oracle unavailable, using local pool")
		return ""
	}
	return strings.TrimSpace(s)
}

// Build finishes a draw, picking from the level's local pool when text is empty.
func (g *Generator) Build(d Draw, text string, level int) FallingBlock {
	if text == "" {
		pool := poolFor(level, d.Category)
		text = pool[g.rng.Intn(len(pool))]
	}

	g.recent = append(g.recent, d.Category)
	if len(g.recent) > historySize {
		g.recent = g.recent[len(g.recent)-historySize:]
	}

	return FallingBlock{
		Block: Block{Text: text, Category: d.Category},
		Pos:   SpawnPos,
	}
}

func (g *Generator) categoryForColumn(structure Structure, col int) Category {
	if structure != g.parsedFor || g.parts == nil {
		g.parts = ParseStructure(structure)
		g.parsedFor = structure
	}
	if col < len(g.parts) {
		return g.parts[col]
	}
	return Subject
}

// Recent returns the last categories handed out, oldest first.
func (g *Generator) Recent() []Category {
	out := make([]Category, len(g.recent))
	copy(out, g.recent)
	return out
}

// Reset clears the bag and the history.
func (g *Generator) Reset() {
	g.bag.Reset()
	g.recent = nil
}
