package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/rl1809/pos-register/internal/adapter/handler"
	"github.com/rl1809/pos-register/internal/adapter/handler/pb"
	"github.com/rl1809/pos-register/internal/adapter/wire"
	"github.com/rl1809/pos-register/internal/config"
	"github.com/rl1809/pos-register/internal/core/domain"
	"github.com/rl1809/pos-register/internal/obs"
	"github.com/rl1809/pos-register/internal/sim"
)

const shutdownTimeout = 5 * time.Second

func main() {
	v := config.NewViper()
	if err := config.ReadFile(v, os.Getenv("POS_CONFIG")); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := obs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Load catalog
	products := sim.SampleProducts()
	if cfg.SeedFile != "" {
		if products, err = sim.LoadSeed(cfg.SeedFile); err != nil {
			logger.Fatal("failed to load seed file", zap.String("path", cfg.SeedFile), zap.Error(err))
		}
	}

	labels := wire.Labels(cfg.Labels)
	renderer, err := sim.NewReceiptRenderer(sim.Company{Name: cfg.CompanyName, Address: cfg.CompanyAddress}, labels)
	if err != nil {
		logger.Fatal("failed to build receipt renderer", zap.Error(err))
	}
	catalog := sim.NewCatalog(products, sim.CatalogOptions{Renderer: renderer})
	logger.Info("catalog loaded", zap.Int("products", len(products)))

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	pb.RegisterRegisterServer(grpcServer, handler.NewGRPCHandler(catalog, labels, logger))

	lis, err := net.Listen("tcp", cfg.GRPCListen)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", cfg.GRPCListen), zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCListen))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(catalog, labels, logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTPListen,
		Handler:           otelhttp.NewHandler(httpHandler.Routes(), "register"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPListen))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	for _, p := range catalog.Snapshot() {
		logger.Debug("final stock", zap.Int64("product_id", p.ID), zap.Int("stock", p.AvailableStock))
	}
	logger.Info("register stopped", zap.Int64("sales", catalog.Sales()), zap.String("revenue", domain.FormatMoney(catalog.Revenue())))
}
