package linkapi

import (
	"errors"
	"net/http"

	core "github.com/signalsfoundry/linkplanner/core"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ToStatusError maps engine and catalog errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, core.ErrPresetNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, core.ErrInvalidParameter),
		errors.Is(err, core.ErrDegenerateGeometry),
		errors.Is(err, core.ErrInvalidPreset):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, core.ErrPresetExists):
		return status.Error(codes.AlreadyExists, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// HTTPStatus returns the HTTP status matching a gRPC status error.
func HTTPStatus(err error) int {
	switch status.Code(err) {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.ResourceExhausted:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// errorReason is the metrics label for a rejected evaluation.
func errorReason(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, core.ErrDegenerateGeometry):
		return "degenerate_geometry"
	case errors.Is(err, core.ErrArithmeticDomain):
		return "arithmetic_domain"
	case errors.Is(err, core.ErrPresetNotFound):
		return "preset_not_found"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return "internal"
	}
}
