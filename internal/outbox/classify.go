package outbox

import (
	"errors"
	"strings"
)

// StatusCodeError is implemented by errors that carry a transport status
// code, the same classification seam the retrieval pack's AGS reward client
// uses to decide whether a grant failure is worth retrying.
type StatusCodeError interface {
	error
	StatusCode() int
}

// isRetryableStatus mirrors the AGS reward client's status-code table: 4xx
// client errors are a dead end since retrying sends the same request, while
// timeouts and 5xx responses are worth a retry with backoff.
func isRetryableStatus(code int) bool {
	switch code {
	case 400, 401, 403, 404, 409, 422:
		return false
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return code < 400 || code >= 500
	}
}

var nonRetryablePatterns = []string{
	"bad request",
	"invalid argument",
	"not found",
	"forbidden",
	"unauthorized",
	"authentication failed",
	"permission denied",
}

// isRetryable classifies a publish failure from the Bus Adapter: a typed
// StatusCodeError is trusted first, otherwise the error message is matched
// against the same non-retryable vocabulary as a fallback, since the bus
// implementations do not all wrap errors consistently.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var statusErr StatusCodeError
	if errors.As(err, &statusErr) {
		return isRetryableStatus(statusErr.StatusCode())
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range nonRetryablePatterns {
		if strings.Contains(msg, pattern) {
			return false
		}
	}
	return true
}
