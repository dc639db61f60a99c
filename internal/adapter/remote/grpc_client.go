package remote

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rl1809/pos-register/internal/adapter/handler/pb"
	"github.com/rl1809/pos-register/internal/adapter/wire"
	"github.com/rl1809/pos-register/internal/core/domain"
)

// GRPCClient talks to the register over gRPC.
type GRPCClient struct {
	client  pb.RegisterClient
	opts    Options
	labels  wire.Labels
	breaker *searchBreaker
	logger  *zap.Logger
}

func NewGRPCClient(conn grpc.ClientConnInterface, opts Options, logger *zap.Logger) *GRPCClient {
	return &GRPCClient{
		client:  pb.NewRegisterClient(conn),
		opts:    opts,
		labels:  opts.labels(),
		breaker: newSearchBreaker("catalog-grpc", opts.Breaker, logger),
		logger:  logger,
	}
}

func (c *GRPCClient) SearchProducts(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	return c.breaker.Execute(func() ([]domain.Product, error) {
		return c.search(ctx, query, limit)
	})
}

func (c *GRPCClient) search(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	if c.opts.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.SearchTimeout)
		defer cancel()
	}

	resp, err := c.client.SearchProducts(ctx, &pb.SearchProductsRequest{Query: query, Limit: int32(limit)})
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	items := resp.GetProducts()
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	products := make([]domain.Product, 0, len(items))
	for _, item := range items {
		p, err := wire.ProductFromPB(item)
		if err != nil {
			return nil, fmt.Errorf("decode search response: %w", err)
		}
		products = append(products, p)
	}
	return products, nil
}

// Checkout sends the sale once. Rejections the register reports through
// FailedPrecondition, InvalidArgument or NotFound become business failures.
func (c *GRPCClient) Checkout(ctx context.Context, sale domain.SaleRequest) (domain.SaleResult, error) {
	if c.opts.CheckoutTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.CheckoutTimeout)
		defer cancel()
	}

	ctx = metadata.AppendToOutgoingContext(ctx,
		"request-id", sale.RequestID,
		"terminal-id", sale.TerminalID)

	resp, err := c.client.Checkout(ctx, wire.CheckoutToPB(sale, c.labels))
	if err == nil {
		return wire.ResultFromPB(resp), nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return domain.SaleResult{}, domain.NewTransportError(msgCheckoutUnreachable, err)
	}

	switch st.Code() {
	case codes.FailedPrecondition, codes.InvalidArgument, codes.NotFound:
		c.logger.Info("checkout rejected",
			zap.String("request_id", sale.RequestID),
			zap.String("code", st.Code().String()),
			zap.String("message", st.Message()))
		return domain.SaleResult{Success: false, Message: st.Message()}, nil
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return domain.SaleResult{}, domain.NewTransportError(msgCheckoutUnreachable, err)
	default:
		msg := st.Message()
		if msg == "" {
			msg = msgCheckoutUnreachable
		}
		return domain.SaleResult{}, domain.NewTransportError(msg, err)
	}
}
