package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fundchain/config"
	"fundchain/core/events"
	"fundchain/core/state"
	coretypes "fundchain/core/types"
	"fundchain/native/campaign"
	"fundchain/native/token"
	"fundchain/observability/logging"
	"fundchain/rpc"
	"fundchain/storage"
)

var genesisAppliedKey = []byte("genesis/applied")

// slogEmitter bridges ledger events onto the structured logger.
type slogEmitter struct {
	logger *slog.Logger
}

func (e slogEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	args := []any{slog.String("event", evt.EventType())}
	if carrier, ok := evt.(interface{ Event() *coretypes.Event }); ok {
		if payload := carrier.Event(); payload != nil {
			for key, value := range payload.Attributes {
				args = append(args, slog.String(key, value))
			}
		}
	}
	e.logger.Info("ledger event", args...)
}

func applyGenesis(db storage.Database, ledger *token.Ledger, cfg *config.Config, logger *slog.Logger) error {
	applied, err := db.Get(genesisAppliedKey)
	if err != nil {
		return err
	}
	if len(applied) > 0 {
		return nil
	}
	allocs, err := cfg.Allocations()
	if err != nil {
		return err
	}
	for addr, balance := range allocs {
		if balance.Sign() == 0 {
			continue
		}
		if err := ledger.Mint(addr, balance); err != nil {
			return err
		}
		logger.Info("genesis allocation applied",
			slog.String("address", common.BytesToAddress(addr[:]).Hex()),
			slog.String("balance", balance.String()))
	}
	return db.Put(genesisAppliedKey, []byte{0x01})
}

func main() {
	configFile := flag.String("config", "./fundchain.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("FUNDCHAIN_ENV"))
	logger := logging.Setup("fundchaind", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	ledger := token.NewLedger(manager)
	if err := applyGenesis(db, ledger, cfg, logger); err != nil {
		logger.Error("failed to apply genesis allocations", slog.Any("error", err))
		os.Exit(1)
	}

	vault, err := cfg.Vault()
	if err != nil {
		logger.Error("invalid vault address", slog.Any("error", err))
		os.Exit(1)
	}

	engine := campaign.NewEngine()
	engine.SetState(manager)
	engine.SetToken(ledger)
	engine.SetVault(vault)
	engine.SetEmitter(slogEmitter{logger: logger})

	rpcServer := rpc.NewServer(engine, ledger, cfg.RPCAuthToken)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", rpcServer.Handler())
	httpServer := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving JSON-RPC", slog.String("address", cfg.RPCAddress), slog.String("network", cfg.NetworkName))
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("rpc server failed", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info("shutting down", slog.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", slog.Any("error", err))
		}
	}
}
