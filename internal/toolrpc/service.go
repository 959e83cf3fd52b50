// Package toolrpc exposes the liquidity impact evaluation as a gRPC tool
// that takes flat, loosely typed arguments.
package toolrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "liquiditygate.v1.LiquidityTool"

const (
	computeMethod  = "/" + ServiceName + "/ComputeLiquidityImpact"
	describeMethod = "/" + ServiceName + "/DescribeTool"
)

type LiquidityToolServer interface {
	ComputeLiquidityImpact(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DescribeTool(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

type LiquidityToolClient interface {
	ComputeLiquidityImpact(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	DescribeTool(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type liquidityToolClient struct {
	cc grpc.ClientConnInterface
}

func NewLiquidityToolClient(cc grpc.ClientConnInterface) LiquidityToolClient {
	return &liquidityToolClient{cc: cc}
}

func (c *liquidityToolClient) ComputeLiquidityImpact(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, computeMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *liquidityToolClient) DescribeTool(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, describeMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterLiquidityToolServer(s grpc.ServiceRegistrar, srv LiquidityToolServer) {
	s.RegisterService(&liquidityToolServiceDesc, srv)
}

func computeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LiquidityToolServer).ComputeLiquidityImpact(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: computeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LiquidityToolServer).ComputeLiquidityImpact(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func describeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LiquidityToolServer).DescribeTool(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: describeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LiquidityToolServer).DescribeTool(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var liquidityToolServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LiquidityToolServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ComputeLiquidityImpact", Handler: computeHandler},
		{MethodName: "DescribeTool", Handler: describeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "liquiditygate/v1/tool.proto",
}
