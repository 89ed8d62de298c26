package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"valetpark.org/internal/auth"
	"valetpark.org/internal/config"
	"valetpark.org/internal/host"
	"valetpark.org/internal/httpapi"
	"valetpark.org/internal/obs"
)

var version = "0.3.1"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("config: JWT_SECRET must be set")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("config: DATABASE_URL must be set")
	}

	obs.Init()

	store, err := host.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	signer, err := auth.NewSigner(cfg.JWTSecret,
		auth.WithIssuer(cfg.JWTIssuer),
		auth.WithAccessTTL(cfg.AccessTTL()),
	)
	if err != nil {
		log.Fatalf("signer: %v", err)
	}

	authSvc, err := auth.NewService(store, signer, auth.WithRefreshTTL(cfg.RefreshTTL()))
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	hostSvc, err := host.NewService(store, host.WithBcryptCost(cfg.BcryptCost))
	if err != nil {
		log.Fatalf("host service: %v", err)
	}

	api := httpapi.New(authSvc, hostSvc, httpapi.ReadyProbe{DB: store.DB()}, version)

	var handler http.Handler = api.Handler()
	handler = httpapi.RateLimit(handler, cfg.RateLimitBurst, cfg.RateLimitPerSecond)
	handler = httpapi.MaxBodyBytes(handler, 1<<20)
	handler = httpapi.CORS(handler)
	handler = httpapi.SecurityHeaders(handler)
	handler = httpapi.Logging(handler)
	handler = httpapi.RequestID(handler)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting valetpark-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
