package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/accounts/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors onto gRPC codes. Messages are the sentinel
// texts, so clients never see internals; validation errors keep their detail.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrUpdateConflict):
		return status.Error(codes.AlreadyExists, common.ErrUpdateConflict.Error())
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, common.ErrAlreadyExists.Error())
	case errors.Is(err, common.ErrAuthFailed):
		return status.Error(codes.Unauthenticated, common.ErrAuthFailed.Error())
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	case errors.Is(err, common.ErrWrongPassword):
		return status.Error(codes.PermissionDenied, common.ErrWrongPassword.Error())
	case errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, common.ErrNotFound.Error())
	case errors.Is(err, common.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, common.ErrStoreUnavailable.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Internal, common.ErrInternal.Error())
}
