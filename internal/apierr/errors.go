// Package apierr defines the closed set of failures surfaced by the eats
// client. Every error carries a terse diagnostic (Error) and a separate
// bilingual user-facing message (Message); only the latter may be shown to
// end users.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"

	"github.com/hkeats/eats/internal/domain"
)

// Kind classifies a failure.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindDecoding
	KindUnauthorized
	KindClient
	KindServer
	KindInvalidResponse
	KindInvalidURL
	KindTimeout
	KindNoConnection
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindDecoding:
		return "decoding"
	case KindUnauthorized:
		return "unauthorized"
	case KindClient:
		return "client_error"
	case KindServer:
		return "server_error"
	case KindInvalidResponse:
		return "invalid_response"
	case KindInvalidURL:
		return "invalid_url"
	case KindTimeout:
		return "timeout"
	case KindNoConnection:
		return "no_connection"
	default:
		return "unknown"
	}
}

// Error is a classified client failure.
type Error struct {
	Kind       Kind
	StatusCode int // set for KindClient and KindServer
	Err        error
}

// New builds an Error of kind k wrapping cause (which may be nil).
func New(k Kind, cause error) *Error {
	return &Error{Kind: k, Err: cause}
}

// Error returns the diagnostic failure reason. It is not localized.
func (e *Error) Error() string {
	reason := e.reason()
	if e.Err != nil {
		return reason + ": " + e.Err.Error()
	}
	return reason
}

func (e *Error) reason() string {
	switch e.Kind {
	case KindClient:
		return fmt.Sprintf("client error (status %d)", e.StatusCode)
	case KindServer:
		return fmt.Sprintf("server error (status %d)", e.StatusCode)
	case KindNetwork:
		return "network failure"
	case KindDecoding:
		return "response decoding failed"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidResponse:
		return "invalid response"
	case KindInvalidURL:
		return "invalid url"
	case KindTimeout:
		return "request timed out"
	case KindNoConnection:
		return "no network connection"
	default:
		return "unknown failure"
	}
}

// Unwrap exposes the cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind (and status code when the target sets one),
// so errors.Is(err, apierr.ErrUnauthorized) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.StatusCode == 0 || t.StatusCode == e.StatusCode
}

// Message returns the user-facing message.
func (e *Error) Message() domain.BilingualText {
	switch e.Kind {
	case KindNetwork:
		return domain.NewBilingualText("A network error occurred. Please try again.", "發生網絡錯誤，請再試一次。")
	case KindDecoding:
		return domain.NewBilingualText("We couldn't read the server's response.", "無法讀取伺服器回應。")
	case KindUnauthorized:
		return domain.NewBilingualText("Please sign in to continue.", "請先登入。")
	case KindClient:
		if e.StatusCode == http.StatusNotFound {
			return domain.NewBilingualText("The requested item could not be found.", "找不到所要求的項目。")
		}
		return domain.NewBilingualText("The request could not be completed.", "無法完成請求。")
	case KindServer:
		return domain.NewBilingualText("The server is having trouble. Please try again later.", "伺服器出現問題，請稍後再試。")
	case KindInvalidResponse:
		return domain.NewBilingualText("The server returned an unexpected response.", "伺服器回應異常。")
	case KindInvalidURL:
		return domain.NewBilingualText("The request address is invalid.", "請求地址無效。")
	case KindTimeout:
		return domain.NewBilingualText("The request timed out.", "請求逾時。")
	case KindNoConnection:
		return domain.NewBilingualText("No internet connection.", "沒有網絡連線。")
	default:
		return domain.NewBilingualText("Something went wrong.", "發生錯誤。")
	}
}

// LocalizedMessage selects Message for a locale.
func (e *Error) LocalizedMessage(locale string) string {
	return e.Message().Localized(locale)
}

// Sentinels usable with errors.Is.
var (
	ErrNetwork         = &Error{Kind: KindNetwork}
	ErrDecoding        = &Error{Kind: KindDecoding}
	ErrUnauthorized    = &Error{Kind: KindUnauthorized}
	ErrClient          = &Error{Kind: KindClient}
	ErrServer          = &Error{Kind: KindServer}
	ErrInvalidResponse = &Error{Kind: KindInvalidResponse}
	ErrInvalidURL      = &Error{Kind: KindInvalidURL}
	ErrTimeout         = &Error{Kind: KindTimeout}
	ErrNoConnection    = &Error{Kind: KindNoConnection}
)

// Unauthorized returns a fresh unauthorized error with an optional cause.
func Unauthorized(cause error) *Error {
	return New(KindUnauthorized, cause)
}

// FromStatus maps an HTTP status code. It returns nil for 2xx.
func FromStatus(code int) error {
	switch {
	case code >= 200 && code <= 299:
		return nil
	case code == http.StatusUnauthorized:
		return &Error{Kind: KindUnauthorized, StatusCode: code}
	case code >= 400 && code <= 499:
		return &Error{Kind: KindClient, StatusCode: code}
	case code >= 500 && code <= 599:
		return &Error{Kind: KindServer, StatusCode: code}
	default:
		return &Error{Kind: KindInvalidResponse, StatusCode: code}
	}
}

// FromTransport classifies an error returned by http.Client.Do.
func FromTransport(err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(KindTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return New(KindTimeout, err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return New(KindNoConnection, err)
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) {
		return New(KindNoConnection, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return New(KindNoConnection, err)
	}

	return New(KindNetwork, err)
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

// UserMessage returns the localized message for any error produced by this
// module, with a generic fallback for foreign errors.
func UserMessage(err error, locale string) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.LocalizedMessage(locale)
	}
	var v *ValidationError
	if errors.As(err, &v) {
		return v.LocalizedMessage(locale)
	}
	var m interface{ Message() domain.BilingualText }
	if errors.As(err, &m) {
		return m.Message().Localized(locale)
	}
	return domain.NewBilingualText("Something went wrong.", "發生錯誤。").Localized(locale)
}
