package auth

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const MerchantIDHeader = "x-merchant-id"

type contextKey struct{}

func WithMerchantID(ctx context.Context, merchantID string) context.Context {
	return context.WithValue(ctx, contextKey{}, merchantID)
}

// GetMerchantID returns the merchant put on the context by the interceptor,
// falling back to the incoming metadata. Empty means unknown.
func GetMerchantID(ctx context.Context) string {
	if val, ok := ctx.Value(contextKey{}).(string); ok && val != "" {
		return val
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get(MerchantIDHeader); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}

// ContextInterceptor copies the merchant header into the request context.
func ContextInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if id := GetMerchantID(ctx); id != "" {
			ctx = WithMerchantID(ctx, id)
		}
		return handler(ctx, req)
	}
}
