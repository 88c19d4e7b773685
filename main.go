package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bodul/wordfall/leaderboard"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wordfall",
		Short:         "Falling word blocks: build Portuguese sentences one row at a time",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), playCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := serve(ctx, loadConfig()); err != nil {
				log.Error().Err(err).Msg("server exited")
				return err
			}
			return nil
		},
	}
}

func playCmd() *cobra.Command {
	var (
		name    string
		logFile string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return err
				}
				defer f.Close()
				log.Logger = zerolog.New(f).With().Timestamp().Logger()
			} else {
				log.Logger = zerolog.Nop()
			}
			return play(cmd.Context(), loadConfig(), name)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "Jogador", "player name")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file")
	return cmd
}

// openGemini returns nil when no credentials are configured.
func openGemini(ctx context.Context, cfg Config) (*GeminiClient, error) {
	switch {
	case cfg.ProjectID != "":
		log.Info().Str("project", cfg.ProjectID).Str("model", cfg.Model).Msg("using Vertex AI")
		return NewGeminiClient(ctx, cfg.ProjectID, cfg.Region, cfg.Model)
	case cfg.APIKey != "":
		log.Info().Str("model", cfg.Model).Msg("using Gemini API")
		return NewGeminiAPIClient(ctx, cfg.APIKey, cfg.Model)
	default:
		log.Warn().Msg("GCP_PROJECT_ID and GEMINI_API_KEY not set, every full row is accepted")
		return nil, nil
	}
}

// openBoard returns the leaderboard and a close func.
func openBoard(ctx context.Context, cfg Config) (leaderboard.Store, func() error, error) {
	var seed []leaderboard.Entry
	if cfg.SeedLeaderboard {
		seed = leaderboard.DefaultSeed
	}
	if cfg.DBPath == "" {
		return leaderboard.NewMemory(seed...), func() error { return nil }, nil
	}
	db, err := leaderboard.OpenSQLite(ctx, cfg.DBPath, seed...)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("path", cfg.DBPath).Msg("leaderboard on sqlite")
	return db, db.Close, nil
}

func serve(ctx context.Context, cfg Config) error {
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

	srv := NewServer(NewStore(), board, gemini, cfg.JWTSecret)
	defer srv.Shutdown()

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("server started")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		srv.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
