package grpc

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/dmitrijs2005/accounts/internal/api"
	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const (
	identityKey  ctxKey = "identity"
	requestIDKey ctxKey = "requestID"

	requestIDHeader = "x-request-id"
)

// protectedMethods require a valid bearer token.
var protectedMethods = map[string]bool{
	api.FullMethod(api.MethodRefresh):       true,
	api.FullMethod(api.MethodUpdateProfile): true,
	api.FullMethod(api.MethodDeleteAccount): true,
}

func identityFromContext(ctx context.Context) (models.PublicView, bool) {
	v, ok := ctx.Value(identityKey).(models.PublicView)
	return v, ok
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// loggingInterceptor tags the call with a request id (taken from the
// x-request-id header or generated), echoes it back and logs the outcome.
func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	var id string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(requestIDHeader); len(v) > 0 {
			id = v[0]
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	ctx = context.WithValue(ctx, requestIDKey, id)
	_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDHeader, id))

	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)

	args := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start), "request_id", id}
	switch code {
	case codes.OK:
		s.logger.Info(ctx, "request handled", args...)
	case codes.Internal, codes.Unavailable, codes.Unknown:
		s.logger.Error(ctx, "request failed", args...)
	default:
		s.logger.Warn(ctx, "request rejected", args...)
	}
	return resp, err
}

func (s *GRPCServer) metricsInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if s.metrics == nil {
		return handler(ctx, req)
	}
	start := time.Now()
	resp, err := handler(ctx, req)
	s.metrics.ObserveRequest(path.Base(info.FullMethod), status.Code(err).String(), time.Since(start))
	return resp, err
}

// errorInterceptor converts service errors and handler panics to statuses.
func (s *GRPCServer) errorInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error(ctx, "handler panic", "method", info.FullMethod, "panic", fmt.Sprint(p), "request_id", requestIDFromContext(ctx))
			resp, err = nil, status.Error(codes.Internal, common.ErrInternal.Error())
		}
	}()

	resp, err = handler(ctx, req)
	if err == nil {
		return resp, nil
	}
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		s.logger.Error(ctx, "internal error", "method", info.FullMethod, "error", err, "request_id", requestIDFromContext(ctx))
	}
	return nil, st
}

func (s *GRPCServer) authInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !protectedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	md, _ := metadata.FromIncomingContext(ctx)
	token, ok := api.BearerFromMetadata(md)
	if !ok {
		s.tokenRejected()
		return nil, fmt.Errorf("%w: missing bearer token", common.ErrInvalidToken)
	}

	identity, err := s.tokens.Validate(ctx, token)
	if err != nil {
		s.tokenRejected()
		return nil, err
	}

	return handler(context.WithValue(ctx, identityKey, identity), req)
}

func (s *GRPCServer) tokenRejected() {
	if s.metrics != nil {
		s.metrics.TokenRejected()
	}
}

func (s *GRPCServer) validationInterceptor(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if v, ok := req.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrValidation, err)
		}
	}
	return handler(ctx, req)
}
