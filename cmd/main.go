package main

//
//  @title           itchpulse API
//  @version         1.0
//  @description     ITCH capture replay & VWAP query service.
//  @termsOfService  https://github.com/guttosm/itchpulse
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/itchpulse
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        vwap
//  @tag.description Endpoints for querying reconstructed VWAP series
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guttosm/itchpulse/config"
	_ "github.com/guttosm/itchpulse/docs" // swagger docs
	"github.com/guttosm/itchpulse/internal/app"
	"github.com/guttosm/itchpulse/internal/book"
	"github.com/guttosm/itchpulse/internal/logger"
	"github.com/guttosm/itchpulse/internal/replay"
	"github.com/guttosm/itchpulse/internal/storage"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown terminates the HTTP server and runs the cleanup callback
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// main is the entry point of the itchpulse application.
//
// Modes (selected via --mode flag):
//   - replay: Processes one binary capture file and persists the results.
//   - api:    Starts the REST API to expose the reconstructed VWAP series.
//
// Flags:
//   - --mode:  Execution mode ("replay" or "api"). Default: "replay".
//   - --file:  Capture file to replay. Defaults to REPLAY_INPUT_FILE.
//   - --out:   CSV export directory. Defaults to REPLAY_OUTPUT_DIR.
//   - --sides: Order sides to track ("buy" or "both"). Defaults to REPLAY_SIDES.
//   - --force: Reprocess the file even if already replayed.
//   - --port:  Port for API mode. Defaults to SERVER_PORT.
func main() {
	ctx := context.Background()

	config.LoadConfig()
	logger.Init()

	mode := flag.String("mode", "replay", "Mode: replay or api")
	file := flag.String("file", config.AppConfig.Replay.InputFile, "Binary capture file to replay")
	out := flag.String("out", config.AppConfig.Replay.OutputDir, "Directory for CSV exports")
	sides := flag.String("sides", config.AppConfig.Replay.Sides, "Order sides to track: buy or both")
	force := flag.Bool("force", false, "Reprocess the capture even if already replayed (deletes existing rows)")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "replay":
		logger.L().Info().Str("file", *file).Msg("running replay")

		filter, err := book.ParseSideFilter(*sides)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("invalid --sides")
		}

		db, err := app.InitPostgres(config.AppConfig)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("db connect error")
		}
		defer func() { _ = db.Close() }()

		repo := storage.NewReplayRepository(db)
		res, err := replay.ProcessFile(ctx, *file, repo, replay.Options{
			Sides:     filter,
			OutputDir: *out,
			Force:     *force,
		})
		if err != nil {
			logger.L().Fatal().Err(err).Msg("replay failed")
		}
		if res.Skipped {
			logger.L().Info().Str("file", res.File).Msg("capture already replayed, nothing to do")
			return
		}
		logger.L().Info().
			Uint64("frames", res.Frames).
			Int("trades", res.Trades).
			Int("samples", res.Samples).
			Msg("replay completed successfully")

	case "api":
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(ctx, server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
