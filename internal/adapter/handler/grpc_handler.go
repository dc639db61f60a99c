package handler

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rl1809/pos-register/internal/adapter/handler/pb"
	"github.com/rl1809/pos-register/internal/adapter/wire"
	"github.com/rl1809/pos-register/internal/core/domain"
	"github.com/rl1809/pos-register/internal/sim"
)

type GRPCHandler struct {
	pb.UnimplementedRegisterServer
	catalog *sim.Catalog
	labels  wire.Labels
	logger  *zap.Logger
}

func NewGRPCHandler(catalog *sim.Catalog, labels wire.Labels, logger *zap.Logger) *GRPCHandler {
	return &GRPCHandler{catalog: catalog, labels: labels, logger: logger}
}

func (h *GRPCHandler) SearchProducts(ctx context.Context, req *pb.SearchProductsRequest) (*pb.SearchProductsResponse, error) {
	products := h.catalog.Search(req.GetQuery(), int(req.GetLimit()))

	resp := &pb.SearchProductsResponse{Products: make([]*pb.Product, 0, len(products))}
	for _, p := range products {
		resp.Products = append(resp.Products, wire.ProductToPB(p))
	}
	return resp, nil
}

func (h *GRPCHandler) Checkout(ctx context.Context, in *pb.CheckoutRequest) (*pb.CheckoutResponse, error) {
	req, err := wire.CheckoutFromPB(in, h.labels)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, domain.Message(err))
	}
	if req.RequestID == "" {
		req.RequestID = firstMetadata(ctx, "request-id")
	}
	if req.TerminalID == "" {
		req.TerminalID = firstMetadata(ctx, "terminal-id")
	}

	result, err := h.catalog.Checkout(req)
	if err != nil {
		switch {
		case errors.Is(err, sim.ErrIncompleteSale):
			return nil, status.Error(codes.InvalidArgument, domain.Message(err))
		case errors.Is(err, sim.ErrProductNotFound):
			return nil, status.Error(codes.NotFound, domain.Message(err))
		case errors.Is(err, sim.ErrInsufficientStock):
			return nil, status.Error(codes.FailedPrecondition, domain.Message(err))
		default:
			h.logger.Error("checkout failed", zap.String("request_id", req.RequestID), zap.Error(err))
			return nil, status.Error(codes.Internal, "internal error processing the sale")
		}
	}

	h.logger.Info("sale completed",
		zap.String("request_id", req.RequestID),
		zap.String("terminal_id", req.TerminalID),
		zap.Int("receipts", len(result.ReceiptDocuments)))
	return wire.ResultToPB(result), nil
}

func firstMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}
