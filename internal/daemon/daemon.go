package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/splitflow/splitflow/internal/api"
	"github.com/splitflow/splitflow/internal/app/orchestrator"
	"github.com/splitflow/splitflow/internal/app/payout"
	"github.com/splitflow/splitflow/internal/domain"
	"github.com/splitflow/splitflow/internal/infra/channels"
	"github.com/splitflow/splitflow/internal/infra/dedup"
	"github.com/splitflow/splitflow/internal/infra/logsink"
	"github.com/splitflow/splitflow/internal/infra/rail"
	"github.com/splitflow/splitflow/internal/infra/sqlite"
)

// Daemon holds the wired components of a running splitflow instance.
type Daemon struct {
	cfg  Config
	db   *sqlite.DB
	sink *logsink.Sink
	orch *orchestrator.Orchestrator
	srv  *api.Server
}

// New wires all components from config. Nothing starts listening until Run.
func New(cfg Config) (*Daemon, error) {
	db, err := sqlite.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	sink := logsink.New(cfg.LogSink.URL)

	guard, err := buildGuard(cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	orch := orchestrator.New(guard, cfg.Allocation.Weights(), buildChannels(cfg, sink)...)
	orch.SetStore(db)
	orch.SetSink(sink)

	srv := api.NewServer(orch, db)
	if cfg.API.Metrics {
		srv.EnableMetrics()
	}

	return &Daemon{cfg: cfg, db: db, sink: sink, orch: orch, srv: srv}, nil
}

// Orchestrator exposes the wired orchestrator for one-shot CLI use.
func (d *Daemon) Orchestrator() *orchestrator.Orchestrator { return d.orch }

// Store exposes the settlement store for CLI report commands.
func (d *Daemon) Store() domain.SettlementStore { return d.db }

// Run serves HTTP until ctx is cancelled or a SIGINT/SIGTERM arrives, then
// shuts down gracefully. In-flight settlements get the shutdown grace period
// to finish; the payout poll timeout bounds how long a leg can hold one open.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.Close()

	addr := fmt.Sprintf("%s:%d", d.cfg.API.Host, d.cfg.API.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           d.srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[daemon] listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Printf("[daemon] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases the daemon's resources.
func (d *Daemon) Close() {
	d.sink.Close()
	if err := d.db.Close(); err != nil {
		log.Printf("[daemon] close store: %v", err)
	}
}

// buildGuard picks the idempotency guard: Redis when configured (shared
// across instances), otherwise the sqlite-backed guard (survives restarts).
func buildGuard(cfg Config, db *sqlite.DB) (domain.Guard, error) {
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		guard := dedup.NewRedisGuard(client, dedup.DefaultTTL)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := guard.Ping(pingCtx); err != nil {
			return nil, fmt.Errorf("redis guard at %s: %w", cfg.Redis.Addr, err)
		}
		log.Printf("[daemon] idempotency guard: redis (%s)", cfg.Redis.Addr)
		return guard, nil
	}
	log.Printf("[daemon] idempotency guard: sqlite")
	return dedup.NewStoreGuard(db, dedup.DefaultTTL), nil
}

// buildChannels assembles the three settlement legs from config.
func buildChannels(cfg Config, sink *logsink.Sink) []domain.Channel {
	onchainRail := rail.NewOnChainClient(cfg.Payout.OnchainRailURL, cfg.Payout.APIKey())
	payoutRail := rail.NewPayoutClient(cfg.Payout.RailURL, cfg.Payout.APIKey())
	machine := payout.NewMachine(payoutRail, sink, payout.Config{
		PollInterval: cfg.Payout.PollInterval(),
		PollTimeout:  cfg.Payout.PollTimeout(),
	})

	return []domain.Channel{
		channels.NewReserveChannel(),
		channels.NewOnChainChannel(onchainRail, cfg.Channels.EnableOnchain, cfg.Channels.OnchainAddress),
		channels.NewFiatPayoutChannel(machine, cfg.Channels.EnableFiatPayout, rail.DestinationConfig{
			AddressBookID: cfg.Channels.AddressBookID,
			WalletID:      cfg.Channels.WalletID,
			Address:       cfg.Channels.Address,
			Chain:         cfg.Channels.Chain,
			Precedence:    cfg.Channels.DestinationPrecedence,
		}),
	}
}
