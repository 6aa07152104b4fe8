// Package main scores a single token from the command line and prints the
// result as JSON. It uses the same checker as the server.
//
// Usage:
//
//	check -chain solana -token <mint> [-metadata '{"holder_count":120}'] [-live=false]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

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
	chainKey := flag.String("chain", "solana", "Chain key ("+strings.Join(chain.Default().Keys(), ", ")+")")
	token := flag.String("token", "", "Token address (required)")
	pool := flag.String("pool", "", "Optional pool/pair address")
	metadata := flag.String("metadata", "", "Caller metadata as JSON, or @path to read it from a file")
	live := flag.Bool("live", true, "Query live market, security and chain data")
	verbose := flag.Bool("v", false, "Log upstream activity to stderr")
	flag.Parse()

	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	// Provider endpoints and timeouts come from the environment only.
	cfg, err := config.Load("check", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	raw, err := readMetadata(*metadata)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(io.Discard, "", 0)
	if *verbose {
		logger = log.New(os.Stderr, "[check] ", log.LstdFlags)
	}

	opts := []service.Option{
		service.WithUpstreamTimeout(cfg.UpstreamTimeout),
		service.WithLogger(logger),
	}
	if *live {
		opts = append(opts,
			service.WithMarketProvider(provider.NewDexScreener(cfg.DexScreenerURL,
				provider.WithTimeout(cfg.UpstreamTimeout), provider.WithLogger(logger))),
			service.WithSecurityProvider(provider.NewGoPlus(cfg.GoPlusURL,
				provider.WithTimeout(cfg.UpstreamTimeout), provider.WithLogger(logger))),
			service.WithMintInspector(solana.NewMintInspector(
				solana.NewHTTPClient(cfg.SolanaRPCURL, solana.WithTimeout(cfg.UpstreamTimeout)))),
		)
	}

	checker := service.NewChecker(chain.Default(), memory.NewResultCache(), opts...)

	report, err := checker.Check(context.Background(), service.CheckRequest{
		Chain:        *chainKey,
		TokenAddress: *token,
		PoolAddress:  *pool,
		Metadata:     raw,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	terms := payment.Terms{Price: cfg.Price, Token: cfg.PaymentToken, FreeMode: true}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(api.NewCheckResponse(report, terms)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !report.Result.Safe {
		os.Exit(3)
	}
}

// readMetadata returns the metadata flag as raw JSON, reading @path from disk.
func readMetadata(arg string) (json.RawMessage, error) {
	if arg == "" {
		return nil, nil
	}
	if strings.HasPrefix(arg, "@") {
		data, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, fmt.Errorf("read metadata: %w", err)
		}
		return data, nil
	}
	return json.RawMessage(arg), nil
}
