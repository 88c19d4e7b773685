package game

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validatorFunc func(ctx context.Context, words []Block, structure Structure, danger bool) (Verdict, error)

func (f validatorFunc) Validate(ctx context.Context, words []Block, structure Structure, danger bool) (Verdict, error) {
	return f(ctx, words, structure, danger)
}

func fixedVerdict(v Verdict) Validator {
	return validatorFunc(func(context.Context, []Block, Structure, bool) (Verdict, error) { return v, nil })
}

func TestFullRowsAndDangerZone(t *testing.T) {
	g := NewGrid()
	fillRow(g, 11, "a", "b", "c", "d")
	fillRow(g, 9, "a", "b", "c", "d")
	fillRow(g, 10, "a")

	assert.Equal(t, []int{9, 11}, FullRows(g))
	assert.False(t, IsDangerZone(g))

	g[3][2] = blk("x", Verb)
	assert.True(t, IsDangerZone(g))
	g[3][2] = nil
	g[4][2] = blk("x", Verb)
	assert.False(t, IsDangerZone(g))
}

func TestApplyVerdictsScoring(t *testing.T) {
	tests := []struct {
		name    string
		verdict Verdict
		level   int
		gain    int
		cleared int
		status  Status
	}{
		{"full", Verdict{SyntaxValid: true, SemanticsValid: true, Feedback: "Ótimo"}, 1, 100, 1, StatusFull},
		{"full level 3", Verdict{SyntaxValid: true, SemanticsValid: true}, 3, 300, 1, StatusFull},
		{"half", Verdict{SyntaxValid: true, SemanticsValid: false}, 2, 100, 1, StatusHalf},
		{"invalid", Verdict{SyntaxValid: false, SemanticsValid: true, Feedback: "Concordância"}, 4, 0, 0, StatusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrid()
			fillRow(g, 11, "a", "b", "c", "d")
			res := ApplyVerdicts(g, []int{11}, []Verdict{tt.verdict}, tt.level)
			assert.Equal(t, tt.gain, res.Gain)
			assert.Equal(t, tt.cleared, res.Cleared)
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.verdict.Feedback, res.Feedback)
			full, _ := res.Grid.IsRowFull(11)
			assert.Equal(t, tt.cleared == 0, full)
		})
	}
}

func TestApplyVerdictsLastWriteWins(t *testing.T) {
	g := NewGrid()
	fillRow(g, 10, "a", "b", "c", "d")
	fillRow(g, 11, "e", "f", "g", "h")
	g[9][0] = blk("top", Subject)

	res := ApplyVerdicts(g, []int{10, 11}, []Verdict{
		{SyntaxValid: true, SemanticsValid: true, Feedback: "primeira"},
		{SyntaxValid: false, Feedback: "segunda"},
	}, 1)

	assert.Equal(t, "segunda", res.Feedback)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, 100, res.Gain)
	require.Len(t, res.Outcomes, 2)
	assert.Equal(t, StatusFull, res.Outcomes[0].Status)
	assert.Equal(t, StatusError, res.Outcomes[1].Status)

	// row 10 removed: "top" drops from 9 to 10, invalid row 11 stays
	assert.Equal(t, "top", res.Grid[10][0].Text)
	assert.Equal(t, "e", res.Grid[11][0].Text)
	assert.Equal(t, 0, res.Grid.FilledCount(9))
}

func TestValidateRowsFanOut(t *testing.T) {
	g := NewGrid()
	fillRow(g, 10, "a", "b", "c", "d")
	fillRow(g, 11, "e", "f", "g", "h")

	var inFlight, peak int32
	var mu sync.Mutex
	seen := map[string]bool{}
	v := validatorFunc(func(_ context.Context, words []Block, s Structure, danger bool) (Verdict, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)

		mu.Lock()
		seen[words[0].Text] = danger
		mu.Unlock()
		if words[0].Text == "e" {
			return Verdict{}, errors.New("timeout")
		}
		return Verdict{SyntaxValid: false, Feedback: "não"}, nil
	})

	verdicts := ValidateRows(context.Background(), v, g, []int{10, 11}, Structures[0], true, zerolog.Nop())
	require.Len(t, verdicts, 2)
	assert.Equal(t, Verdict{SyntaxValid: false, Feedback: "não"}, verdicts[0])
	assert.Equal(t, FallbackVerdict, verdicts[1])
	assert.Equal(t, map[string]bool{"a": true, "e": true}, seen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&peak), "rows should be validated concurrently")
}

func TestValidateRowsNilValidator(t *testing.T) {
	g := NewGrid()
	fillRow(g, 11, "a", "b", "c", "d")
	verdicts := ValidateRows(context.Background(), nil, g, []int{11}, Structures[0], false, zerolog.Nop())
	assert.Equal(t, []Verdict{FallbackVerdict}, verdicts)
}

func TestLevelAndInterval(t *testing.T) {
	assert.Equal(t, 1, LevelFor(0))
	assert.Equal(t, 1, LevelFor(499))
	assert.Equal(t, 2, LevelFor(500))
	assert.Equal(t, 3, LevelFor(1000))

	assert.Equal(t, 760*time.Millisecond, IntervalFor(1))
	assert.Equal(t, 720*time.Millisecond, IntervalFor(2))
	assert.Equal(t, IntervalFor(5)-IntervalStep, IntervalFor(6))
	assert.Equal(t, MinInterval, IntervalFor(15))
	assert.Equal(t, MinInterval, IntervalFor(100))
}
