package payment

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrorKind classifies a failed Tripay call
type ErrorKind string

const (
	ErrorKindNetwork        ErrorKind = "NETWORK"
	ErrorKindTimeout        ErrorKind = "TIMEOUT"
	ErrorKindAuthentication ErrorKind = "AUTHENTICATION"
	ErrorKindValidation     ErrorKind = "VALIDATION"
	ErrorKindRateLimit      ErrorKind = "RATE_LIMIT"
	ErrorKindServer         ErrorKind = "SERVER"
	ErrorKindUnknown        ErrorKind = "UNKNOWN"
)

// Retryable reports whether calls failing with this kind may succeed when repeated
func (k ErrorKind) Retryable() bool {
	switch k {
	case ErrorKindNetwork, ErrorKindTimeout, ErrorKindRateLimit, ErrorKindServer:
		return true
	}
	return false
}

var userMessages = map[ErrorKind]string{
	ErrorKindNetwork:        "The payment service cannot be reached right now. Please try again shortly.",
	ErrorKindTimeout:        "The payment service took too long to respond. Please try again.",
	ErrorKindAuthentication: "Payments are temporarily unavailable. Please contact support.",
	ErrorKindValidation:     "The payment request was rejected. Please check the amount and payment method.",
	ErrorKindRateLimit:      "Too many payment requests. Please wait a moment and try again.",
	ErrorKindServer:         "The payment service is having problems. Please try again later.",
	ErrorKindUnknown:        "Something went wrong with the payment service. Please try again.",
}

// Error is a normalised Tripay failure
type Error struct {
	Kind       ErrorKind
	Op         string
	StatusCode int
	// Message is the vendor's message, when the body carried one
	Message        string
	RetryAfterHint time.Duration
	Err            error
	// replayUnsafe marks a call that must not be sent twice
	replayUnsafe bool
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("tripay ")
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(string(e.Kind))
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	switch {
	case e.Message != "":
		b.WriteString(": ")
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable implements retry.Retryable. A call that must not be sent twice
// is only repeated after RATE_LIMIT, which Tripay rejects before processing.
func (e *Error) Retryable() bool {
	if e.replayUnsafe {
		return e.Kind == ErrorKindRateLimit
	}
	return e.Kind.Retryable()
}

// Ambiguous reports whether Tripay may have processed the request anyway
func (e *Error) Ambiguous() bool {
	switch e.Kind {
	case ErrorKindAuthentication, ErrorKindValidation, ErrorKindRateLimit:
		return false
	}
	return true
}

// RetryAfter implements retry.RetryAfterHinter
func (e *Error) RetryAfter() time.Duration { return e.RetryAfterHint }

// UserMessage is safe to show to members
func (e *Error) UserMessage() string {
	if m, ok := userMessages[e.Kind]; ok {
		return m
	}
	return userMessages[ErrorKindUnknown]
}

// AsError extracts a *Error from err
func AsError(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// classifyTransport maps a failure that produced no HTTP response
func classifyTransport(op string, err error) *Error {
	e := &Error{Op: op, Err: err, Kind: ErrorKindNetwork}
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		e.Kind = ErrorKindUnknown
	case errors.Is(err, context.DeadlineExceeded):
		e.Kind = ErrorKindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		e.Kind = ErrorKindTimeout
	}
	return e
}

// classifyResponse maps an HTTP response. It returns nil for a 2xx whose body
// does not report success=false.
func classifyResponse(op string, status int, header http.Header, body []byte) *Error {
	message := vendorMessage(body)

	if status >= 200 && status < 300 {
		if s := gjson.GetBytes(body, "success"); s.Exists() && !s.Bool() {
			return &Error{Op: op, Kind: ErrorKindValidation, StatusCode: status, Message: message}
		}
		return nil
	}

	e := &Error{Op: op, StatusCode: status, Message: message}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = ErrorKindAuthentication
	case status == http.StatusBadRequest || status == http.StatusNotFound || status == http.StatusUnprocessableEntity:
		e.Kind = ErrorKindValidation
	case status == http.StatusTooManyRequests:
		e.Kind = ErrorKindRateLimit
		e.RetryAfterHint = parseRetryAfter(header.Get("Retry-After"), time.Now())
	case status == http.StatusRequestTimeout:
		e.Kind = ErrorKindTimeout
	case status >= 500:
		e.Kind = ErrorKindServer
	default:
		e.Kind = ErrorKindUnknown
	}
	return e
}

func vendorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	return strings.TrimSpace(gjson.GetBytes(body, "message").String())
}

// parseRetryAfter accepts delta-seconds or an HTTP date
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
