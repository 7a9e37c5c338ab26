// Command theseusd runs the session control surface (spec §6.1) as an
// HTTP server, grounded on the teacher's cmd/opencode-server main.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/theseusxyz/theseus/internal/inputbuffer"
	"github.com/theseusxyz/theseus/internal/logging"
	"github.com/theseusxyz/theseus/internal/persistence"
	"github.com/theseusxyz/theseus/internal/server"
	"github.com/theseusxyz/theseus/internal/session"
	"github.com/theseusxyz/theseus/internal/wiring"
)

var (
	port    = flag.Int("port", 8080, "server port")
	dataDir = flag.String("data-dir", "", "directory for session persistence (defaults to ~/.local/share/theseus)")
)

func main() {
	flag.Parse()

	// .env is optional; model API keys may also come from the shell
	// environment directly (teacher's cmd/opencode/main.go pattern).
	_ = godotenv.Load()

	logging.Init(logging.DefaultConfig())

	base := *dataDir
	if base == "" {
		base = defaultDataDir()
	}

	store := persistence.NewFileStore(base)
	buffer := inputbuffer.New()
	svc := session.NewService(store, buffer, wiring.New())

	cfg := server.DefaultConfig()
	cfg.Port = *port
	srv := server.New(cfg, svc)

	go func() {
		logging.Info().Int("port", *port).Msg("theseusd listening")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("shutdown error")
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".theseus-data"
	}
	return fmt.Sprintf("%s/.local/share/theseus", home)
}
