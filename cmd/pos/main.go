package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rl1809/pos-register/internal/adapter/printer"
	"github.com/rl1809/pos-register/internal/adapter/remote"
	"github.com/rl1809/pos-register/internal/adapter/storage"
	"github.com/rl1809/pos-register/internal/adapter/wire"
	"github.com/rl1809/pos-register/internal/cli"
	"github.com/rl1809/pos-register/internal/config"
	"github.com/rl1809/pos-register/internal/core/domain"
	"github.com/rl1809/pos-register/internal/core/service"
	"github.com/rl1809/pos-register/internal/port"
)

type registerClient interface {
	port.CatalogClient
	port.CheckoutClient
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(build, os.Stdin, os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, domain.Message(err))
		stop()
		os.Exit(1)
	}
}

func build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*cli.Env, error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	labels := wire.Labels(cfg.Labels)
	opts := remote.Options{
		SearchTimeout:   cfg.SearchTimeout,
		CheckoutTimeout: cfg.CheckoutTimeout,
		Labels:          labels,
		Breaker: remote.BreakerConfig{
			MaxFailures: cfg.BreakerFailures,
			OpenTimeout: cfg.BreakerTimeout,
		},
	}

	// Register client
	var client registerClient
	switch cfg.Transport {
	case config.TransportGRPC:
		conn, err := grpc.NewClient(cfg.GRPCAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("dial register: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		client = remote.NewGRPCClient(conn, opts, logger)
		logger.Info("using gRPC register", zap.String("addr", cfg.GRPCAddr))
	default:
		client = remote.NewHTTPClient(cfg.BackendURL, opts, logger)
		logger.Info("using HTTP register", zap.String("url", cfg.BackendURL))
	}

	// Print path
	spool, err := printer.NewSpool(cfg.SpoolDir, cfg.PrintCommand, logger)
	if err != nil {
		closeAll()
		return nil, err
	}
	preview := printer.NewFilePreview(cfg.PreviewFile)

	// Sale journal
	var (
		journal     *service.SaleJournal
		journalRepo port.JournalRepository
	)
	if cfg.MySQLDSN != "" {
		db, err := storage.OpenMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, func() { db.Close() })

		if err := storage.RunMigrations(db); err != nil {
			closeAll()
			return nil, err
		}
		journal = service.NewSaleJournal(cfg.JournalQueue, logger)
		journalRepo = storage.NewMySQLAdapter(db)
		logger.Info("sale journal enabled", zap.Int("workers", cfg.JournalWorkers))
	}

	// Cart drafts
	var drafts *service.DraftSync
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		closers = append(closers, func() { rdb.Close() })

		adapter := storage.NewRedisAdapter(rdb, cfg.DraftTTL)
		if err := adapter.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, cart drafts disabled", zap.Error(err))
		} else {
			drafts = service.NewDraftSync(adapter, cfg.TerminalID, logger)
		}
	}

	cart := service.NewCartStore()
	payment := service.NewPaymentForm(domain.PaymentCash)
	receipts := service.NewReceiptDispatcher(spool, preview, logger)
	coordinator := service.NewCheckoutCoordinator(service.CheckoutDeps{
		Client:     client,
		Cart:       cart,
		Payment:    payment,
		Receipts:   receipts,
		Journal:    journal,
		TerminalID: cfg.TerminalID,
		Logger:     logger,
	})
	session := service.NewSession(service.SessionDeps{
		Cart:     cart,
		Payment:  payment,
		Checkout: coordinator,
		Receipts: receipts,
		Catalog:  client,
		Search: service.SearchOptions{
			Debounce:       cfg.SearchDebounce,
			Limit:          cfg.SearchLimit,
			MinQueryLength: cfg.MinQueryLength,
		},
		Drafts: drafts,
		Logger: logger,
	})

	run := func(ctx context.Context) error {
		var wg sync.WaitGroup
		if journal != nil {
			for i := 0; i < cfg.JournalWorkers; i++ {
				wg.Add(1)
				go func(id int) {
					defer wg.Done()
					service.RunJournalWorker(id, journal.Queue(), journalRepo, logger)
				}(i)
			}
		}

		err := session.Run(ctx)

		if journal != nil {
			journal.Close()
			wg.Wait()
			logger.Info("journal workers stopped")
		}
		return err
	}

	return &cli.Env{
		App: &cli.App{
			Session: session,
			Catalog: client,
			Journal: journalRepo,
			Labels:  labels,
		},
		Run:   run,
		Close: closeAll,
	}, nil
}
