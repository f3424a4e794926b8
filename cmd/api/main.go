package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/talan-labs/avatar/backend/internal/client/kimble"
	"github.com/talan-labs/avatar/backend/internal/config"
	"github.com/talan-labs/avatar/backend/internal/handler"
	"github.com/talan-labs/avatar/backend/internal/resolver"
	leaveService "github.com/talan-labs/avatar/backend/internal/service/leave"
	sessionService "github.com/talan-labs/avatar/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	intentResolver, strategy := buildResolver(ctx, cfg)
	log.Printf("intent resolver strategy: %s", strategy)

	sessions := sessionService.NewService(intentResolver)

	var hrClient leaveService.HRClient
	if cfg.Kimble.Enabled {
		hrClient = kimble.New(cfg.Kimble.BaseURL, cfg.Kimble.APIKey, time.Duration(cfg.Kimble.TimeoutSeconds)*time.Second)
		log.Println("Kimble client initialized, panel data served from the HR system")
	} else {
		log.Println("Kimble credentials not configured, panel data served from seeds")
	}
	leaveSvc := leaveService.NewService(hrClient)

	router := handler.NewRouter(sessions, leaveSvc, strategy)

	startServer(ctx, cfg.Server, router)
}

// buildResolver picks the resolver strategy from the configuration: the
// remote HR endpoint when one is set, else the Ark model, else the local
// trigger rules. Conversation logic never branches on the strategy.
func buildResolver(ctx context.Context, cfg *config.Config) (resolver.Resolver, string) {
	if cfg.Resolver.RemoteEnabled() {
		return resolver.NewRemoteResolver(
			cfg.Resolver.BackendURL,
			cfg.Resolver.APIKey,
			time.Duration(cfg.Resolver.TimeoutSeconds)*time.Second,
		), "remote"
	}

	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to create chat model: %v", err)
		} else {
			llmResolver, err := resolver.NewLLMResolver(ctx, chatModel)
			if err != nil {
				log.Printf("warning: failed to initialize llm resolver: %v", err)
			} else {
				return llmResolver, "llm"
			}
		}
		log.Println("falling back to local trigger rules")
	}

	return resolver.NewTriggerResolver(resolver.DefaultRules()), "local"
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Avatar HR assistant backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
