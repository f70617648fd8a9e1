package refs

import (
	stderrors "errors"
	"net/http"

	"github.com/google/go-github/v67/github"

	"github.com/jmgilman/go/gitsource/errors"
)

// wrapHTTPError classifies a failed API call by its status code. The result
// is only ever logged; resolvers report absence, not errors.
func wrapHTTPError(err error, resp *github.Response, message string) error {
	if err == nil {
		return nil
	}

	var rateErr *github.RateLimitError
	if stderrors.As(err, &rateErr) {
		return errors.Wrap(err, errors.CodeRateLimit, message)
	}

	if resp == nil || resp.Response == nil {
		return errors.Wrap(err, errors.CodeNetwork, message)
	}

	var code errors.ErrorCode
	switch resp.StatusCode {
	case http.StatusNotFound:
		code = errors.CodeNotFound
	case http.StatusUnauthorized:
		code = errors.CodeUnauthorized
	case http.StatusForbidden:
		code = errors.CodeForbidden
	case http.StatusTooManyRequests:
		code = errors.CodeRateLimit
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = errors.CodeInvalidInput
	default:
		if resp.StatusCode >= 500 {
			code = errors.CodeNetwork
		} else {
			code = errors.CodeInternal
		}
	}

	return errors.WithContext(errors.Wrap(err, code, message), "status", resp.StatusCode)
}
