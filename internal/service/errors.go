package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/splitty/internal/assignment"
	"github.com/mmynk/splitty/internal/auth"
	"github.com/mmynk/splitty/internal/calculator"
	"github.com/mmynk/splitty/internal/models"
	"github.com/mmynk/splitty/internal/recognizer"
	"github.com/mmynk/splitty/internal/session"
	"github.com/mmynk/splitty/internal/storage"
)

// toConnectError maps domain errors onto Connect codes. Errors that are
// already *connect.Error pass through unchanged.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}
	return connect.NewError(codeOf(err), err)
}

func codeOf(err error) connect.Code {
	var (
		malformed *models.MalformedReceiptError
		recErr    *calculator.ReconciliationError
		svcErr    *recognizer.ServiceError
	)
	switch {
	case errors.As(err, &malformed),
		errors.Is(err, assignment.ErrInvalidItem),
		errors.Is(err, assignment.ErrInvalidPerson),
		errors.Is(err, recognizer.ErrUnsupportedImage),
		errors.Is(err, recognizer.ErrEmptyImage),
		errors.Is(err, calculator.ErrUnknownPayer),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrPasswordTooLong),
		errors.Is(err, auth.ErrInvalidEmail):
		return connect.CodeInvalidArgument
	case errors.Is(err, assignment.ErrUnknownItem),
		errors.Is(err, assignment.ErrUnknownPerson),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, storage.ErrBillNotFound):
		return connect.CodeNotFound
	case errors.Is(err, assignment.ErrDuplicateItemKey),
		errors.Is(err, auth.ErrEmailExists):
		return connect.CodeAlreadyExists
	case errors.Is(err, session.ErrNoReceipt):
		return connect.CodeFailedPrecondition
	case errors.Is(err, session.ErrBusy):
		return connect.CodeResourceExhausted
	case errors.Is(err, session.ErrStaleResponse):
		return connect.CodeAborted
	case errors.Is(err, recognizer.ErrAuthRequired),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		return connect.CodeUnauthenticated
	case errors.Is(err, session.ErrForbidden):
		return connect.CodePermissionDenied
	case errors.As(err, &svcErr):
		if svcErr.Code == "unauthenticated" {
			return connect.CodeUnauthenticated
		}
		if svcErr.Code == "invalid_argument" {
			return connect.CodeInvalidArgument
		}
		return connect.CodeUnavailable
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.As(err, &recErr):
		return connect.CodeInternal
	default:
		return connect.CodeInternal
	}
}
