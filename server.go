package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/bodul/wordfall/game"
	"github.com/bodul/wordfall/leaderboard"
)

//go:embed frontend
var frontendFS embed.FS

const (
	maxNameLength    = 20
	defaultNameError = "Nome inapropriado."
)

// rateLimiter is a simple per-IP token bucket rate limiter.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*bucket
	rate     int           // tokens per interval
	interval time.Duration // refill interval
}

type bucket struct {
	tokens   int
	lastSeen time.Time
}

func newRateLimiter(ctx context.Context, rate int, interval time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*bucket),
		rate:     rate,
		interval: interval,
	}
	// Cleanup stale entries every minute.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			rl.mu.Lock()
			for ip, b := range rl.visitors {
				if time.Since(b.lastSeen) > 5*time.Minute {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}()
	return rl
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.visitors[ip]
	if !ok {
		rl.visitors[ip] = &bucket{tokens: rl.rate - 1, lastSeen: time.Now()}
		return true
	}

	// Refill tokens based on elapsed time.
	elapsed := time.Since(b.lastSeen)
	refill := int(elapsed / rl.interval)
	if refill > 0 {
		b.tokens += refill * rl.rate
		if b.tokens > rl.rate {
			b.tokens = rl.rate
		}
		b.lastSeen = time.Now()
	}

	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// nameChecker judges player names.
type nameChecker interface {
	CheckName(ctx context.Context, name string) (NameVerdict, error)
}

// Server is the main HTTP server.
type Server struct {
	router    chi.Router
	store     *Store
	board     leaderboard.Store
	validator game.Validator
	suggester game.Suggester
	names     nameChecker
	tokens    *tokenIssuer
	sse       *Broadcaster
	playerRL  *rateLimiter
	inputRL   *rateLimiter

	// ctx bounds the lifetime of every room driver.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a configured HTTP server. gemini may be nil, in which case names are not
// checked, suggestions come from the local pools and every full row is accepted.
func NewServer(store *Store, board leaderboard.Store, gemini *GeminiClient, secret []byte) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		router:   chi.NewRouter(),
		store:    store,
		board:    board,
		tokens:   newTokenIssuer(secret),
		sse:      NewBroadcaster(),
		playerRL: newRateLimiter(ctx, 10, time.Minute), // 10 name checks/min per IP
		inputRL:  newRateLimiter(ctx, 30, time.Second), // 30 inputs/sec per IP
		ctx:      ctx,
		cancel:   cancel,
	}
	if gemini != nil {
		s.validator = gemini
		s.suggester = gemini
		s.names = gemini
	}
	s.routes()
	return s
}

// Shutdown stops every room driver.
func (s *Server) Shutdown() {
	s.cancel()
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/players", s.handleCreatePlayer)
		r.Get("/leaderboard", s.handleLeaderboard)

		r.Get("/games", s.handleListGames)
		r.Get("/games/{id}", s.handleGetGame)
		r.Get("/games/{id}/events", s.handleGameEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			r.Use(s.tokens.requirePlayer)
			r.Post("/games", s.handleCreateGame)
			r.Post("/games/{id}/input", s.handleInput)
			r.Post("/games/{id}/reset", s.handleReset)
		})
	})

	// Frontend static files
	frontendDir, _ := fs.Sub(frontendFS, "frontend")
	fileServer := http.FileServer(http.FS(frontendDir))
	r.Get("/game/{id}", s.handleGamePage)
	r.Handle("/*", fileServer)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// --- Player handlers ---

// POST /api/players: check a name and issue a player token.
func (s *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	if !s.playerRL.allow(r.RemoteAddr) {
		jsonError(w, "Muitas requisições, tente mais tarde", http.StatusTooManyRequests)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Campo 'name' obrigatório", http.StatusBadRequest)
		return
	}
	name := sanitizeName(req.Name)
	if name == "" {
		jsonError(w, "Nome inválido", http.StatusBadRequest)
		return
	}

	if s.names != nil {
		verdict, err := s.names.CheckName(r.Context(), name)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("name", name).Msg("name oracle unavailable, accepting name")
		case !verdict.IsAppropriate:
			reason := verdict.Reason
			if reason == "" {
				reason = defaultNameError
			}
			jsonError(w, reason, http.StatusUnprocessableEntity)
			return
		}
	}

	token, err := s.tokens.Issue(name)
	if err != nil {
		log.Error().Err(err).Msg("sign player token")
		jsonError(w, "Erro interno", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name, "token": token})
}

// GET /api/leaderboard: best scores.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	top, err := s.board.Top(r.Context(), leaderboard.MaxEntries)
	if err != nil {
		log.Error().Err(err).Msg("read leaderboard")
		jsonError(w, "Erro ao ler o ranking", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, top)
}

// --- Game handlers ---

type gameResponse struct {
	ID string `json:"id"`
	game.Snapshot
}

// POST /api/games: create and start a game for the token's player.
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	player := playerFrom(r.Context())
	room := s.store.CreateRoom(player, func(id string, notify func(game.Event)) *game.Session {
		return s.newSession(id, player, notify)
	})

	if err := room.Session.Start(s.ctx); err != nil {
		log.Error().Err(err).Str("game", room.ID).Msg("start session")
		jsonError(w, "Erro ao iniciar a partida", http.StatusInternalServerError)
		return
	}
	room.ensureDriver(s.ctx)
	log.Info().Str("game", room.ID).Str("player", player).Msg("game created")

	writeJSON(w, http.StatusCreated, gameResponse{ID: room.ID, Snapshot: room.Session.Snapshot()})
}

func (s *Server) newSession(id, player string, notify func(game.Event)) *game.Session {
	opts := game.Options{
		Player:    player,
		Validator: s.validator,
		Suggester: s.suggester,
		Logger:    log.With().Str("game", id).Logger(),
		OnEvent: func(e game.Event) {
			s.sse.Publish(id, string(e.Type), e)
			notify(e)
		},
	}
	if s.board != nil {
		opts.Scores = s.board
	}
	return game.NewSession(opts)
}

// GET /api/games: list games.
func (s *Server) handleListGames(w http.ResponseWriter, _ *http.Request) {
	rooms := s.store.ListRooms()
	out := make([]RoomSummary, len(rooms))
	for i, room := range rooms {
		out[i] = room.Summary()
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/games/{id}: current game state.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	room := s.store.GetRoom(chi.URLParam(r, "id"))
	if room == nil {
		jsonError(w, "Partida não encontrada", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, gameResponse{ID: room.ID, Snapshot: room.Session.Snapshot()})
}

// ownedRoom resolves the room in the URL and checks the token's player owns it.
func (s *Server) ownedRoom(w http.ResponseWriter, r *http.Request) *Room {
	room := s.store.GetRoom(chi.URLParam(r, "id"))
	if room == nil {
		jsonError(w, "Partida não encontrada", http.StatusNotFound)
		return nil
	}
	if room.Player != playerFrom(r.Context()) {
		jsonError(w, "Partida de outro jogador", http.StatusForbidden)
		return nil
	}
	return room
}

// POST /api/games/{id}/input: move the falling block or toggle pause.
func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	if !s.inputRL.allow(r.RemoteAddr) {
		jsonError(w, "Muitas requisições, tente mais tarde", http.StatusTooManyRequests)
		return
	}
	room := s.ownedRoom(w, r)
	if room == nil {
		return
	}

	var req struct {
		Action game.Action `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Requisição inválida", http.StatusBadRequest)
		return
	}

	err := room.Session.Move(r.Context(), req.Action)
	switch {
	case errors.Is(err, game.ErrUnknownAction):
		jsonError(w, "Ação desconhecida", http.StatusBadRequest)
		return
	case errors.Is(err, game.ErrInputRejected):
		jsonError(w, "Ação indisponível agora", http.StatusConflict)
		return
	case err != nil:
		log.Error().Err(err).Str("game", room.ID).Msg("apply input")
		jsonError(w, "Erro interno", http.StatusInternalServerError)
		return
	}
	if req.Action == game.ActionPause {
		room.ensureDriver(s.ctx)
	}

	writeJSON(w, http.StatusOK, gameResponse{ID: room.ID, Snapshot: room.Session.Snapshot()})
}

// POST /api/games/{id}/reset: start over.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	room := s.ownedRoom(w, r)
	if room == nil {
		return
	}
	room.Session.Reset(r.Context())
	room.ensureDriver(s.ctx)
	writeJSON(w, http.StatusOK, gameResponse{ID: room.ID, Snapshot: room.Session.Snapshot()})
}

// GET /api/games/{id}/events: SSE stream.
func (s *Server) handleGameEvents(w http.ResponseWriter, r *http.Request) {
	room := s.store.GetRoom(chi.URLParam(r, "id"))
	if room == nil {
		jsonError(w, "Partida não encontrada", http.StatusNotFound)
		return
	}

	s.sse.ServeSSE(w, r, room.ID, func(c *client) {
		// Send initial game state on connect.
		data, _ := json.Marshal(gameResponse{ID: room.ID, Snapshot: room.Session.Snapshot()})
		c.ch <- message{event: "state", data: string(data)}
	})
}

// --- Frontend page handlers ---

// GET /game/{id}: serve the game page.
func (s *Server) handleGamePage(w http.ResponseWriter, _ *http.Request) {
	data, _ := frontendFS.ReadFile("frontend/game.html")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeName(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxNameLength {
		s = string([]rune(s)[:maxNameLength])
	}
	return s
}
