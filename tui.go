package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog/log"

	"github.com/bodul/wordfall/game"
	"github.com/bodul/wordfall/leaderboard"
)

const (
	cellWidth  = 12
	boardLeft  = 1
	boardTop   = 1
	panelWidth = 44
)

var categoryColors = map[game.Category]tcell.Color{
	game.Subject:     tcell.ColorBlue,
	game.Verb:        tcell.ColorRed,
	game.Object:      tcell.ColorGreen,
	game.Adjective:   tcell.ColorYellow,
	game.Adverb:      tcell.ColorPurple,
	game.Conjunction: tcell.ColorTeal,
	game.Preposition: tcell.ColorOrange,
}

var categoryLabels = map[game.Category]string{
	game.Subject:     "Sujeito",
	game.Verb:        "Verbo",
	game.Object:      "Objeto",
	game.Adjective:   "Adjetivo",
	game.Adverb:      "Advérbio",
	game.Conjunction: "Conjunção",
	game.Preposition: "Preposição",
}

// terminal draws a local session and feeds it key presses.
type terminal struct {
	screen tcell.Screen
	room   *Room
	redraw chan struct{}
}

func play(ctx context.Context, cfg Config, name string) error {
	name = sanitizeName(name)
	if name == "" {
		return errors.New("empty player name")
	}

	gemini, err := openGemini(ctx, cfg)
	if err != nil {
		return err
	}
	if gemini != nil {
		defer gemini.Close()
	}
	board, closeBoard, err := openBoard(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBoard()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	t := &terminal{screen: screen, redraw: make(chan struct{}, 1)}
	opts := game.Options{Player: name, Scores: board, Logger: log.Logger}
	if gemini != nil {
		opts.Validator = gemini
		opts.Suggester = gemini
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := NewStore()
	t.room = store.CreateRoom(name, func(_ string, notify func(game.Event)) *game.Session {
		opts.OnEvent = func(e game.Event) {
			notify(e)
			t.requestRedraw()
		}
		return game.NewSession(opts)
	})
	if err := t.room.Session.Start(ctx); err != nil {
		return err
	}
	t.room.ensureDriver(ctx)

	keys := make(chan *tcell.EventKey)
	go func() {
		for {
			switch ev := screen.PollEvent().(type) {
			case nil:
				return
			case *tcell.EventKey:
				select {
				case keys <- ev:
				case <-ctx.Done():
					return
				}
			case *tcell.EventResize:
				screen.Sync()
				t.requestRedraw()
			}
		}
	}()

	t.draw(board)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.redraw:
			t.draw(board)
		case ev := <-keys:
			if !t.handleKey(ctx, ev) {
				return nil
			}
		}
	}
}

func (t *terminal) requestRedraw() {
	select {
	case t.redraw <- struct{}{}:
	default:
	}
}

// handleKey returns false when the player quits. Moves run off the UI loop since a landing can
// wait on the validation oracle.
func (t *terminal) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	s := t.room.Session
	move := func(a game.Action) {
		go func() {
			if err := s.Move(ctx, a); err != nil && !errors.Is(err, game.ErrInputRejected) {
				log.Warn().Err(err).Str("action", string(a)).Msg("move failed")
			}
		}()
	}

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyLeft:
		move(game.ActionLeft)
	case tcell.KeyRight:
		move(game.ActionRight)
	case tcell.KeyDown:
		move(game.ActionDown)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case ' ', 'p':
			if err := s.TogglePause(); err == nil {
				t.room.ensureDriver(ctx)
			}
		case 'r':
			go func() {
				s.Reset(ctx)
				t.room.ensureDriver(ctx)
			}()
		}
	}
	return true
}

func (t *terminal) draw(board leaderboard.Store) {
	snap := t.room.Session.Snapshot()
	t.screen.Clear()

	frame := tcell.StyleDefault.Foreground(tcell.ColorGray)
	right := boardLeft + game.Width*cellWidth
	bottom := boardTop + game.Height
	for y := boardTop; y < bottom; y++ {
		t.screen.SetContent(boardLeft-1, y, '│', nil, frame)
		t.screen.SetContent(right, y, '│', nil, frame)
	}
	for x := boardLeft - 1; x <= right; x++ {
		t.screen.SetContent(x, bottom, '─', nil, frame)
	}

	for y, row := range snap.Grid {
		for x, b := range row {
			if b != nil {
				t.drawBlock(x, y, *b, false)
			}
		}
	}
	if snap.Active != nil {
		t.drawBlock(snap.Active.Pos.X, snap.Active.Pos.Y, snap.Active.Block, true)
	}

	px := right + 3
	y := boardTop
	line := func(style tcell.Style, format string, args ...any) {
		t.drawText(px, y, panelWidth, style, fmt.Sprintf(format, args...))
		y++
	}
	bold := tcell.StyleDefault.Bold(true)
	plain := tcell.StyleDefault

	line(bold, "%s", snap.Player)
	line(plain, "Pontos: %d   Nível: %d", snap.Score, snap.Level)
	y++
	line(bold, "Estrutura alvo")
	line(plain, "%s", snap.Structure)
	y++
	line(statusStyle(snap.Status), "%s", snap.Feedback)
	switch {
	case snap.Validating:
		line(bold, "Validando...")
	case snap.Phase == game.PhasePaused:
		line(bold, "PAUSADO")
	case snap.Phase == game.PhaseGameOver:
		line(bold.Foreground(tcell.ColorRed), "FIM DE JOGO (r para reiniciar)")
	default:
		y++
	}
	y++

	line(bold, "Categorias")
	for _, c := range game.AllCategories {
		line(tcell.StyleDefault.Foreground(categoryColors[c]), "■ %s", categoryLabels[c])
	}
	y++

	if top, err := board.Top(context.Background(), 5); err == nil && len(top) > 0 {
		line(bold, "Ranking")
		for i, e := range top {
			line(plain, "%d. %-20s %6d", i+1, e.Name, e.Score)
		}
		y++
	}
	line(frame, "←/→/↓ mover  espaço/p pausa  r reinicia  q sai")

	t.screen.Show()
}

func (t *terminal) drawBlock(x, y int, b game.Block, active bool) {
	style := tcell.StyleDefault.Background(categoryColors[b.Category]).Foreground(tcell.ColorWhite)
	if active {
		style = style.Bold(true)
	}
	sx := boardLeft + x*cellWidth
	sy := boardTop + y
	for i := range cellWidth - 1 {
		t.screen.SetContent(sx+i, sy, ' ', nil, style)
	}
	t.drawText(sx, sy, cellWidth-1, style, b.Text)
}

// drawText writes s at (x, y) and cuts it at width runes.
func (t *terminal) drawText(x, y, width int, style tcell.Style, s string) {
	i := 0
	for _, r := range s {
		if i >= width {
			return
		}
		t.screen.SetContent(x+i, y, r, nil, style)
		i++
	}
}

func statusStyle(s game.Status) tcell.Style {
	switch s {
	case game.StatusFull:
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	case game.StatusHalf:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	case game.StatusError:
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	}
	return tcell.StyleDefault
}
