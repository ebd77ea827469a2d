package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tunemint/config"
	"tunemint/core"
	"tunemint/observability/logging"
	"tunemint/rpc"
	"tunemint/storage"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./config.toml", "path to the daemon configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.Setup("tunemintd", os.Getenv("TUNEMINT_ENV"), cfg.LogFile)

	if err := run(cfg, logger); err != nil {
		logger.Error("daemon exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", cfg.DataDir, err)
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer db.Close()

	journal, err := storage.OpenJournal(filepath.Join(cfg.DataDir, "events.db"))
	if err != nil {
		return fmt.Errorf("open event journal: %w", err)
	}
	defer journal.Close()

	market := core.NewMarket(db, core.WithEmitter(journal))
	if err := bootstrap(market, cfg, logger); err != nil {
		return err
	}

	server := rpc.NewServer(market, journal)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))
	router.Handle("/rpc", server.Handler())
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("rpc listening", "address", cfg.ListenAddress)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve rpc: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown rpc server: %w", err)
	}
	return nil
}

// bootstrap seeds the market owner and optional fee policy on first start.
// Re-running with the same configuration is a no-op once state is persisted.
func bootstrap(market *core.Market, cfg *config.Config, logger *slog.Logger) error {
	owner, err := parseAddress(cfg.OwnerAddress)
	if err != nil {
		return fmt.Errorf("parse OwnerAddress: %w", err)
	}
	if err := market.EnsureOwner(owner); err != nil {
		return fmt.Errorf("bootstrap owner: %w", err)
	}

	currentOwner, _, err := market.Owner()
	if err != nil {
		return fmt.Errorf("read owner: %w", err)
	}
	logger.Info("market owner configured", "owner", "0x"+hex.EncodeToString(currentOwner[:]))

	if strings.TrimSpace(cfg.FeeRecipient) != "" {
		recipient, err := parseAddress(cfg.FeeRecipient)
		if err != nil {
			return fmt.Errorf("parse FeeRecipient: %w", err)
		}
		if err := market.SetFeeRecipient(currentOwner, recipient); err != nil {
			return fmt.Errorf("seed fee recipient: %w", err)
		}
	}

	if trimmed := strings.TrimSpace(cfg.InitialFee); trimmed != "" && trimmed != "0" {
		fee, ok := new(big.Int).SetString(trimmed, 10)
		if !ok || fee.Sign() < 0 {
			return fmt.Errorf("parse InitialFee: invalid decimal %q", cfg.InitialFee)
		}
		if err := market.SetFee(currentOwner, fee); err != nil {
			return fmt.Errorf("seed flat fee: %w", err)
		}
		logger.Info("fee policy seeded", "fee", fee.String())
	}
	return nil
}

func parseAddress(value string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		trimmed = trimmed[2:]
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, err
	}
	if len(decoded) != len(addr) {
		return addr, fmt.Errorf("address must be 20 bytes (got %d)", len(decoded))
	}
	copy(addr[:], decoded)
	return addr, nil
}
