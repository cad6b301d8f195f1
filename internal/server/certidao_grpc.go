package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The service is declared over well-known types, so no generated stubs are
// needed:
//
//	service CertidaoService {
//	  rpc Extract(google.protobuf.BytesValue) returns (google.protobuf.Struct);
//	}
const (
	CertidaoServiceName       = "certidao.v1.CertidaoService"
	CertidaoExtractFullMethod = "/" + CertidaoServiceName + "/Extract"
)

// Metadata keys read by Extract.
const (
	MetadataSource    = "x-source-name"
	MetadataRequestID = "x-request-id"
)

type CertidaoServiceServer interface {
	Extract(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
}

func RegisterCertidaoServiceServer(s grpc.ServiceRegistrar, srv CertidaoServiceServer) {
	s.RegisterService(&CertidaoServiceDesc, srv)
}

func certidaoExtractHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CertidaoServiceServer).Extract(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CertidaoExtractFullMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CertidaoServiceServer).Extract(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

var CertidaoServiceDesc = grpc.ServiceDesc{
	ServiceName: CertidaoServiceName,
	HandlerType: (*CertidaoServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Extract",
			Handler:    certidaoExtractHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "certidao/v1/certidao.proto",
}

// CertidaoServiceClient calls the service over an existing connection.
type CertidaoServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCertidaoServiceClient(cc grpc.ClientConnInterface) *CertidaoServiceClient {
	return &CertidaoServiceClient{cc: cc}
}

func (c *CertidaoServiceClient) Extract(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CertidaoExtractFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
