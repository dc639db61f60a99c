package remote

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/rl1809/pos-register/internal/adapter/handler"
	"github.com/rl1809/pos-register/internal/adapter/handler/pb"
	"github.com/rl1809/pos-register/internal/adapter/wire"
	"github.com/rl1809/pos-register/internal/core/domain"
	"github.com/rl1809/pos-register/internal/sim"
)

func dial(t *testing.T, srv pb.RegisterServer) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	pb.RegisterRegisterServer(s, srv)
	go s.Serve(lis)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		s.Stop()
	})
	return conn
}

func TestGRPCClient_AgainstRegister(t *testing.T) {
	renderer, err := sim.NewReceiptRenderer(sim.Company{Name: "Test Store"}, wire.DefaultLabels())
	require.NoError(t, err)
	catalog := sim.NewCatalog(sim.SampleProducts(), sim.CatalogOptions{Renderer: renderer})

	conn := dial(t, handler.NewGRPCHandler(catalog, wire.DefaultLabels(), zap.NewNop()))
	client := NewGRPCClient(conn, Options{}, zap.NewNop())
	ctx := context.Background()

	products, err := client.SearchProducts(ctx, "oil", 10)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "7.79", domain.FormatMoney(products[0].UnitPrice))

	res, err := client.Checkout(ctx, testSale(6, "7.79", 2, domain.PaymentCash, "20"))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Len(t, res.ReceiptDocuments, 2)

	res, err = client.Checkout(ctx, testSale(10, "29.90", 1, domain.PaymentPix, ""))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "Insufficient stock")
}

// stubRegister returns a fixed error and records the incoming metadata.
type stubRegister struct {
	pb.UnimplementedRegisterServer
	err error
	md  metadata.MD
}

func (s *stubRegister) Checkout(ctx context.Context, in *pb.CheckoutRequest) (*pb.CheckoutResponse, error) {
	s.md, _ = metadata.FromIncomingContext(ctx)
	return nil, s.err
}

func TestGRPCClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		business  bool
		transport string
	}{
		{"failed precondition", status.Error(codes.FailedPrecondition, "stock changed"), true, ""},
		{"not found", status.Error(codes.NotFound, "no such product"), true, ""},
		{"unavailable", status.Error(codes.Unavailable, "down"), false, msgCheckoutUnreachable},
		{"internal with message", status.Error(codes.Internal, "database locked"), false, "database locked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubRegister{err: tt.err}
			client := NewGRPCClient(dial(t, stub), Options{}, zap.NewNop())

			sale := testSale(1, "1.00", 1, domain.PaymentCard, "")
			res, err := client.Checkout(context.Background(), sale)

			if tt.business {
				require.NoError(t, err)
				assert.False(t, res.Success)
				assert.Equal(t, status.Convert(tt.err).Message(), res.Message)
			} else {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrTransport))
				assert.Equal(t, tt.transport, domain.Message(err))
			}

			assert.Equal(t, []string{sale.RequestID}, stub.md.Get("request-id"))
			assert.Equal(t, []string{"till-1"}, stub.md.Get("terminal-id"))
		})
	}
}

func TestGRPCClient_UnimplementedSearch(t *testing.T) {
	client := NewGRPCClient(dial(t, &stubRegister{}), Options{}, zap.NewNop())

	_, err := client.SearchProducts(context.Background(), "tea", 10)
	require.Error(t, err)
	assert.Equal(t, codes.Unimplemented, status.Code(errors.Unwrap(err)))
}
