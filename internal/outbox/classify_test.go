package outbox

import (
	"errors"
	"testing"
)

type statusErr struct {
	code int
	msg  string
}

func (e *statusErr) Error() string  { return e.msg }
func (e *statusErr) StatusCode() int { return e.code }

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"generic transient message", errors.New("connection refused"), true},
		{"pattern-matched bad request", errors.New("bad request: invalid payload"), false},
		{"typed 404 is non-retryable", &statusErr{code: 404, msg: "not found"}, false},
		{"typed 503 is retryable", &statusErr{code: 503, msg: "service unavailable"}, true},
		{"typed 429 is retryable", &statusErr{code: 429, msg: "too many requests"}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := isRetryable(c.err); got != c.want {
				t.Errorf("isRetryable(%v) = %v, want %v", c.err, got, c.want)
			}
		})
	}
}
