package game

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Scoring and speed constants.
const (
	PointsFull      = 100
	PointsHalf      = 50
	PointsPerLevel  = 500
	InitialInterval = 800 * time.Millisecond
	MinInterval     = 200 * time.Millisecond
	IntervalStep    = 40 * time.Millisecond

	// dangerRows is how many top rows, once occupied, put the player in the danger zone.
	dangerRows = 4
)

// FallbackFeedback is shown when the validation oracle could not be reached.
const FallbackFeedback = "A IA tropeçou, mas sua frase parece ok!"

// Verdict is the validation oracle's answer for one row.
type Verdict struct {
	SyntaxValid    bool   `json:"syntaxValid"`
	SemanticsValid bool   `json:"semanticsValid"`
	Feedback       string `json:"feedback"`
}

// FallbackVerdict is used whenever the validation oracle fails, so the game keeps moving.
var FallbackVerdict = Verdict{SyntaxValid: true, SemanticsValid: true, Feedback: FallbackFeedback}

// Validator judges whether a row of words forms a valid sentence in the target structure.
// dangerZone asks for relaxed semantic strictness.
type Validator interface {
	Validate(ctx context.Context, words []Block, structure Structure, dangerZone bool) (Verdict, error)
}

// Status is the outcome of the most recent validated row.
type Status string

const (
	StatusIdle  Status = "idle"
	StatusFull  Status = "full"
	StatusHalf  Status = "half"
	StatusError Status = "error"
)

// RowOutcome records what happened to one full row during a clear pass.
type RowOutcome struct {
	Row     int     `json:"row"`
	Verdict Verdict `json:"verdict"`
	Status  Status  `json:"status"`
	Points  int     `json:"points"`
}

// ClearResult is the effect of applying verdicts to a grid.
type ClearResult struct {
	Grid     Grid
	Cleared  int
	Gain     int
	Feedback string
	Status   Status
	Outcomes []RowOutcome
}

// FullRows returns the indexes of every full row, top to bottom.
func FullRows(g Grid) []int {
	var rows []int
	for y := range g {
		if g.FilledCount(y) == Width {
			rows = append(rows, y)
		}
	}
	return rows
}

// IsDangerZone reports whether any settled cell sits in the top rows.
func IsDangerZone(g Grid) bool {
	return g.HighestFilledRow() < dangerRows
}

// ValidateRows submits every row concurrently and waits for all of them. Oracle failures are
// replaced by FallbackVerdict, so the returned slice always has one verdict per row.
func ValidateRows(ctx context.Context, v Validator, g Grid, rows []int, structure Structure, dangerZone bool, log zerolog.Logger) []Verdict {
	verdicts := make([]Verdict, len(rows))
	var eg errgroup.Group
	for i, y := range rows {
		words := g.RowBlocks(y)
		eg.Go(func() error {
			if v == nil {
				verdicts[i] = FallbackVerdict
				return nil
			}
			verdict, err := v.Validate(ctx, words, structure, dangerZone)
			if err != nil {
				log.Warn().Err(err).Int("row", y).Msg("validation oracle unavailable, accepting row")
				verdict = FallbackVerdict
			}
			verdicts[i] = verdict
			return nil
		})
	}
	_ = eg.Wait()
	return verdicts
}

// ApplyVerdicts scores and removes rows in row order. Feedback and Status are those of the last
// row processed; Outcomes keeps every row.
func ApplyVerdicts(g Grid, rows []int, verdicts []Verdict, level int) ClearResult {
	res := ClearResult{Status: StatusIdle}
	remove := make(map[int]bool, len(rows))
	for i, y := range rows {
		v := verdicts[i]
		out := RowOutcome{Row: y, Verdict: v}
		switch {
		case !v.SyntaxValid:
			out.Status = StatusError
		case v.SemanticsValid:
			out.Status = StatusFull
			out.Points = PointsFull * level
		default:
			out.Status = StatusHalf
			out.Points = PointsHalf * level
		}
		if v.SyntaxValid {
			remove[y] = true
			res.Cleared++
			res.Gain += out.Points
		}
		if v.Feedback != "" {
			res.Feedback = v.Feedback
		}
		res.Status = out.Status
		res.Outcomes = append(res.Outcomes, out)
	}
	if len(remove) > 0 {
		res.Grid = g.removeRows(remove)
	} else {
		res.Grid = g
	}
	return res
}

// LevelFor returns the level reached with the given score.
func LevelFor(score int) int {
	return score/PointsPerLevel + 1
}

// IntervalFor returns the fall interval at a level.
func IntervalFor(level int) time.Duration {
	d := InitialInterval - time.Duration(level)*IntervalStep
	if d < MinInterval {
		return MinInterval
	}
	return d
}
