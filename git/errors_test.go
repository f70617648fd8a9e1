package git

import (
	"context"
	"fmt"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/stretchr/testify/assert"

	platformerrors "github.com/jmgilman/go/gitsource/errors"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want platformerrors.ErrorCode
	}{
		{gogit.ErrRepositoryNotExists, platformerrors.CodeNotFound},
		{transport.ErrRepositoryNotFound, platformerrors.CodeNotFound},
		{plumbing.ErrReferenceNotFound, platformerrors.CodeNotFound},
		{gogit.ErrRemoteNotFound, platformerrors.CodeNotFound},
		{gogit.ErrRemoteExists, platformerrors.CodeAlreadyExists},
		{transport.ErrAuthenticationRequired, platformerrors.CodeUnauthorized},
		{transport.ErrAuthorizationFailed, platformerrors.CodeUnauthorized},
		{gogit.ErrWorktreeNotClean, platformerrors.CodeConflict},
		{gogit.ErrMissingURL, platformerrors.CodeInvalidInput},
		{context.DeadlineExceeded, platformerrors.CodeTimeout},
		{fmt.Errorf("clone: %w", context.DeadlineExceeded), platformerrors.CodeTimeout},
		{fmt.Errorf("something else"), platformerrors.CodeExecutionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, classifyError(tt.err))
		})
	}
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, wrapError(nil, "x"))

	err := wrapError(gogit.ErrRemoteNotFound, "failed to read remote")
	assert.ErrorIs(t, err, gogit.ErrRemoteNotFound)
	assert.Equal(t, platformerrors.CodeNotFound, platformerrors.GetCode(err))
	assert.Contains(t, err.Error(), "failed to read remote")
}
