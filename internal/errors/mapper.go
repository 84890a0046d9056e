// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"

	gobreaker "github.com/sony/gobreaker/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/oggyb/songmatch/internal/domain"
)

// Map converts domain/repo/infra errors into gRPC-friendly status errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, domain.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, domain.ErrMatchExists), errors.Is(err, gorm.ErrDuplicatedKey):
		return status.Error(codes.AlreadyExists, err.Error())

	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return status.Error(codes.Unavailable, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		// fallback → bubble up error message for debugging
		return status.Error(codes.Internal, err.Error())
	}
}

// InvalidArgument creates a gRPC InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}
