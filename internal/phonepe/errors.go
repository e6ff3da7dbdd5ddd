package phonepe

import (
	"context"
	"errors"
	"net"
)

var (
	// ErrConfiguration means credentials or URLs are missing from the
	// environment; surfaced to callers as a 500, never retried.
	ErrConfiguration = errors.New("phonepe: missing configuration")

	// ErrAuth means the processor rejected our credentials.
	ErrAuth = errors.New("phonepe: authorization failed")

	// ErrGateway means the processor rejected the request itself.
	ErrGateway = errors.New("phonepe: gateway rejected request")

	// ErrGatewayTimeout is a network-level timeout, distinct from a
	// rejected request.
	ErrGatewayTimeout = errors.New("phonepe: gateway timeout")
)

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
