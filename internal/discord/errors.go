package discord

import (
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/parsascontentcorner/discordlite/internal/ratelimit"
)

// Sentinel errors for classification with errors.Is
var (
	ErrUnauthorized       = errors.New("discord: unauthorized")
	ErrForbidden          = errors.New("discord: forbidden")
	ErrNotFound           = errors.New("discord: not found")
	ErrRateLimited        = errors.New("discord: rate limited")
	ErrServer             = errors.New("discord: server error")
	ErrUpstream           = errors.New("discord: upstream error")
	ErrNetworkUnreachable = errors.New("discord: network unreachable")
)

// ErrorKind classifies a non-2xx response
type ErrorKind int

// Error kinds by HTTP status
const (
	KindOther ErrorKind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindRateLimited
	KindServerError
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	default:
		return "other"
	}
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindServerError
	default:
		return KindOther
	}
}

// APIError is a non-2xx response from Discord
type APIError struct {
	Kind       ErrorKind
	Status     int
	Code       int    // Discord JSON error code, 0 when absent
	Message    string // upstream message, empty when absent
	RetryAfter time.Duration
	Route      string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("discord API %s returned %d: %s", e.Route, e.Status, e.Message)
	}
	return fmt.Sprintf("discord API %s returned %d", e.Route, e.Status)
}

// Is matches the kind sentinel and ErrUpstream
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUpstream:
		return true
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrForbidden:
		return e.Kind == KindForbidden
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrServer:
		return e.Kind == KindServerError
	}
	return false
}

// NetworkError is a transport failure; no response was received
type NetworkError struct {
	Route string
	Hint  string
	Err   error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("discord API %s unreachable: %v", e.Route, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is matches ErrNetworkUnreachable
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetworkUnreachable
}

type errorBody struct {
	Code       int     `json:"code"`
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"`
	Global     bool    `json:"global"`
}

// newAPIError reads the error payload of resp. A body that is not Discord's
// JSON error shape still yields an APIError, just without a message.
func newAPIError(resp *http.Response, route string) *APIError {
	apiErr := &APIError{
		Kind:   kindForStatus(resp.StatusCode),
		Status: resp.StatusCode,
		Route:  route,
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
		if body.RetryAfter > 0 {
			apiErr.RetryAfter = time.Duration(body.RetryAfter * float64(time.Second))
		}
	}

	if apiErr.Kind == KindRateLimited && apiErr.RetryAfter == 0 {
		if d, ok := ratelimit.ParseRetryAfter(resp.Header.Get("Retry-After")); ok {
			apiErr.RetryAfter = d
		}
	}
	return apiErr
}

// newNetworkError wraps a transport failure with a remediation hint
func newNetworkError(route string, err error) *NetworkError {
	return &NetworkError{Route: route, Hint: hintFor(err), Err: err}
}

func hintFor(err error) string {
	var dnsErr *net.DNSError
	var certErr *x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var netErr net.Error

	switch {
	case errors.As(err, &dnsErr):
		return "could not resolve the Discord API host; check your internet connection or DNS settings"
	case errors.As(err, &certErr), errors.As(err, &hostErr), strings.Contains(err.Error(), "tls:"):
		return "the TLS handshake with Discord failed; a proxy or firewall may be intercepting traffic"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "the connection was refused; check DISCORD_API_BASE_URL and any proxy settings"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "the request timed out; check your network connection"
	default:
		return "unable to reach Discord; check your internet connection"
	}
}
