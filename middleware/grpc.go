package middleware

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	goVerify "github.com/MrEthical07/goVerify"
)

// AuthorizationMetadataKey is the incoming metadata key carrying the bearer token.
const AuthorizationMetadataKey = "authorization"

// RequestIDMetadataKey is copied into audit events when present.
const RequestIDMetadataKey = "x-request-id"

var errUnauthenticated = status.Error(codes.Unauthenticated, "unauthenticated")

// UnaryServerInterceptor verifies the bearer token of every unary call.
func UnaryServerInterceptor(v TokenVerifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, err := authenticate(ctx, v)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor verifies the bearer token once when a stream opens.
func StreamServerInterceptor(v TokenVerifier) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := authenticate(ss.Context(), v)
		if err != nil {
			return err
		}
		return handler(srv, &verifiedStream{ServerStream: ss, ctx: ctx})
	}
}

type verifiedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *verifiedStream) Context() context.Context {
	return s.ctx
}

func authenticate(ctx context.Context, v TokenVerifier) (context.Context, error) {
	if v == nil {
		return nil, errUnauthenticated
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, errUnauthenticated
	}

	token, ok := bearerToken(firstValue(md, AuthorizationMetadataKey))
	if !ok {
		return nil, errUnauthenticated
	}

	vctx := ctx
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		vctx = goVerify.WithClientIP(vctx, remoteIP(p.Addr.String()))
	}
	if id := firstValue(md, RequestIDMetadataKey); id != "" {
		vctx = goVerify.WithRequestID(vctx, id)
	}

	claims, err := v.Verify(vctx, token)
	if err != nil {
		return nil, errUnauthenticated
	}

	return context.WithValue(ctx, claimsContextKey{}, claims), nil
}

func firstValue(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}
