// Package main runs the token safety oracle HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"token-safety-oracle/internal/api"
	"token-safety-oracle/internal/chain"
	"token-safety-oracle/internal/config"
	"token-safety-oracle/internal/payment"
	"token-safety-oracle/internal/provider"
	"token-safety-oracle/internal/service"
	"token-safety-oracle/internal/solana"
	"token-safety-oracle/internal/storage/memory"
)

func main() {
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if err := config.LoadEnvFile(".env"); err != nil {
		logger.Printf("Ignoring .env: %v", err)
	}

	cfg, err := config.Load(os.Args[0], os.Args[1:])
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	registry := chain.Default()
	checker := service.NewChecker(registry, memory.NewResultCache(), checkerOptions(cfg)...)
	gate := payment.New(cfg.FreeMode, cfg.Price, cfg.PaymentToken)

	srv := api.NewServer(checker, gate,
		api.WithLogger(log.New(os.Stdout, "[api] ", log.LstdFlags)),
		api.WithMetrics(cfg.Metrics),
	)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Printf("Token safety oracle %s", api.ServiceVersion)
	logger.Printf("Free mode: %v", cfg.FreeMode)
	logger.Printf("Price per check: %s %s", cfg.Price, cfg.PaymentToken)
	logger.Printf("Live data: %v", cfg.LiveData)
	logger.Printf("Supported chains: %s", strings.Join(registry.Keys(), ", "))

	serveErr := make(chan error, 1)
	go func() {
		logger.Printf("Listening on %s", cfg.Addr())
		serveErr <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server error: %v", err)
		}
		return
	case sig := <-sigCh:
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Wait for second signal for immediate shutdown
	go func() {
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-ctx.Done():
		}
	}()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Printf("Graceful shutdown failed: %v", err)
		httpServer.Close()
	}

	logger.Println("Shutdown complete")
}

// checkerOptions wires the live collaborators unless live data is disabled.
func checkerOptions(cfg config.Config) []service.Option {
	opts := []service.Option{
		service.WithUpstreamTimeout(cfg.UpstreamTimeout),
		service.WithLogger(log.New(os.Stdout, "[checker] ", log.LstdFlags)),
	}
	if !cfg.LiveData {
		return opts
	}

	providerLog := log.New(os.Stdout, "[provider] ", log.LstdFlags)
	rpc := solana.NewHTTPClient(cfg.SolanaRPCURL, solana.WithTimeout(cfg.UpstreamTimeout))

	return append(opts,
		service.WithMarketProvider(provider.NewDexScreener(cfg.DexScreenerURL,
			provider.WithTimeout(cfg.UpstreamTimeout), provider.WithLogger(providerLog))),
		service.WithSecurityProvider(provider.NewGoPlus(cfg.GoPlusURL,
			provider.WithTimeout(cfg.UpstreamTimeout), provider.WithLogger(providerLog))),
		service.WithMintInspector(solana.NewMintInspector(rpc)),
	)
}
