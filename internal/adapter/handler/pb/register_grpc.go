package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	RegisterServiceName              = "pos.v1.Register"
	RegisterSearchProductsFullMethod = "/pos.v1.Register/SearchProducts"
	RegisterCheckoutFullMethod       = "/pos.v1.Register/Checkout"
)

type RegisterClient interface {
	SearchProducts(ctx context.Context, in *SearchProductsRequest, opts ...grpc.CallOption) (*SearchProductsResponse, error)
	Checkout(ctx context.Context, in *CheckoutRequest, opts ...grpc.CallOption) (*CheckoutResponse, error)
}

type registerClient struct {
	cc grpc.ClientConnInterface
}

// NewRegisterClient returns a client that always calls with the JSON codec.
func NewRegisterClient(cc grpc.ClientConnInterface) RegisterClient {
	return &registerClient{cc: cc}
}

func (c *registerClient) SearchProducts(ctx context.Context, in *SearchProductsRequest, opts ...grpc.CallOption) (*SearchProductsResponse, error) {
	out := new(SearchProductsResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, RegisterSearchProductsFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *registerClient) Checkout(ctx context.Context, in *CheckoutRequest, opts ...grpc.CallOption) (*CheckoutResponse, error) {
	out := new(CheckoutResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, RegisterCheckoutFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type RegisterServer interface {
	SearchProducts(context.Context, *SearchProductsRequest) (*SearchProductsResponse, error)
	Checkout(context.Context, *CheckoutRequest) (*CheckoutResponse, error)
}

// UnimplementedRegisterServer can be embedded to keep servers forward compatible.
type UnimplementedRegisterServer struct{}

func (UnimplementedRegisterServer) SearchProducts(context.Context, *SearchProductsRequest) (*SearchProductsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SearchProducts not implemented")
}

func (UnimplementedRegisterServer) Checkout(context.Context, *CheckoutRequest) (*CheckoutResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Checkout not implemented")
}

func RegisterRegisterServer(s grpc.ServiceRegistrar, srv RegisterServer) {
	s.RegisterService(&RegisterServiceDesc, srv)
}

var RegisterServiceDesc = grpc.ServiceDesc{
	ServiceName: RegisterServiceName,
	HandlerType: (*RegisterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SearchProducts", Handler: searchProductsHandler},
		{MethodName: "Checkout", Handler: checkoutHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pos/v1/register",
}

func searchProductsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SearchProductsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RegisterServer).SearchProducts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RegisterSearchProductsFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RegisterServer).SearchProducts(ctx, req.(*SearchProductsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func checkoutHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CheckoutRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RegisterServer).Checkout(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RegisterCheckoutFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RegisterServer).Checkout(ctx, req.(*CheckoutRequest))
	}
	return interceptor(ctx, in, info, handler)
}
