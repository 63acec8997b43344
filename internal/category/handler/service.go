package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "omnipos.backoffice.v1.CategoryExplorerService"

// CategoryExplorerServiceServer is the server API of the category explorer.
// Requests and responses are protobuf well-known types so clients can call
// it with a generic Struct codec.
type CategoryExplorerServiceServer interface {
	GetForest(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Reload(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Expand(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	Collapse(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	Select(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	ClearSelection(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	RefreshDetail(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListCategories(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterCategoryExplorerServiceServer(s grpc.ServiceRegistrar, srv CategoryExplorerServiceServer) {
	s.RegisterService(&CategoryExplorerService_ServiceDesc, srv)
}

var CategoryExplorerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CategoryExplorerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetForest", CategoryExplorerServiceServer.GetForest),
		unary("Reload", CategoryExplorerServiceServer.Reload),
		unary("Expand", CategoryExplorerServiceServer.Expand),
		unary("Collapse", CategoryExplorerServiceServer.Collapse),
		unary("Select", CategoryExplorerServiceServer.Select),
		unary("ClearSelection", CategoryExplorerServiceServer.ClearSelection),
		unary("RefreshDetail", CategoryExplorerServiceServer.RefreshDetail),
		unary("ListCategories", CategoryExplorerServiceServer.ListCategories),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: protoFile,
}

// unary builds the method handler protoc-gen-go-grpc would generate for one
// method.
func unary[Req any, PReq interface {
	*Req
	proto.Message
}](name string, call func(CategoryExplorerServiceServer, context.Context, PReq) (*structpb.Struct, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := PReq(new(Req))
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CategoryExplorerServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(CategoryExplorerServiceServer), ctx, req.(PReq))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
