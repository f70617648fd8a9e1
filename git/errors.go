package git

import (
	"context"
	"errors"
	"net"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	platformerrors "github.com/jmgilman/go/gitsource/errors"
)

// wrapError wraps err as a platform error whose code is derived from the
// go-git failure. The original error stays in the chain.
func wrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return platformerrors.Wrap(err, classifyError(err), message)
}

// classifyError maps go-git and transport errors to platform codes.
func classifyError(err error) platformerrors.ErrorCode {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return platformerrors.CodeTimeout
	case errors.Is(err, context.Canceled):
		return platformerrors.CodeExecutionFailed

	case errors.Is(err, gogit.ErrRepositoryNotExists),
		errors.Is(err, transport.ErrRepositoryNotFound),
		errors.Is(err, plumbing.ErrReferenceNotFound),
		errors.Is(err, plumbing.ErrObjectNotFound),
		errors.Is(err, gogit.ErrRemoteNotFound),
		errors.Is(err, transport.ErrEmptyRemoteRepository):
		return platformerrors.CodeNotFound

	case errors.Is(err, gogit.ErrRepositoryAlreadyExists),
		errors.Is(err, gogit.ErrRemoteExists),
		errors.Is(err, gogit.ErrBranchExists):
		return platformerrors.CodeAlreadyExists

	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed):
		return platformerrors.CodeUnauthorized

	case errors.Is(err, gogit.ErrWorktreeNotClean):
		return platformerrors.CodeConflict

	case errors.Is(err, gogit.ErrMissingURL),
		errors.Is(err, transport.ErrInvalidAuthMethod),
		errors.Is(err, gogit.ErrHashOrReference):
		return platformerrors.CodeInvalidInput

	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return platformerrors.CodeTimeout
		}
		return platformerrors.CodeNetwork
	}

	var pe platformerrors.PlatformError
	if errors.As(err, &pe) {
		return pe.Code()
	}
	return platformerrors.CodeExecutionFailed
}
