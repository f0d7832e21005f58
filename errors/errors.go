package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrValidation           = fmt.Errorf("validation failed")
	ErrMessageNotFound      = fmt.Errorf("message not found")
	ErrConversationNotFound = fmt.Errorf("conversation not found")
	ErrEmptySearchQuery     = fmt.Errorf("search query is empty")
	ErrUnknownStoreDriver   = fmt.Errorf("unknown store driver")
	ErrWorkerPanic          = fmt.Errorf("worker panicked")
	ErrTooManyRestarts      = fmt.Errorf("worker restarted too many times")
)

// MapToGRPCError translates a domain error into a gRPC status error.
// Errors that are not part of the taxonomy become codes.Internal and keep their text.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrEmptySearchQuery):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrMessageNotFound), errors.Is(err, ErrConversationNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// HTTPStatus picks the response code for a domain error.
// An empty conversation stays a server error: clients already rely on that.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrEmptySearchQuery):
		return http.StatusBadRequest
	case errors.Is(err, ErrMessageNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
