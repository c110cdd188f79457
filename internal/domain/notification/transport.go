package notification

import (
	"context"
	"errors"
	"fmt"
)

// EmailTransport delivers a single HTML email to one or more addresses.
type EmailTransport interface {
	SendEmail(ctx context.Context, to []string, subject, htmlBody string) error
}

// MessageTransport delivers a text body between two channel addresses and returns the
// provider message id.
type MessageTransport interface {
	SendMessage(ctx context.Context, from, to, body string) (string, error)
}

// TransportError carries the provider error code of a failed delivery.
type TransportError struct {
	Code    int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("transport error %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("transport error %d: %s", e.Code, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ErrorCode extracts the provider code from err, if any.
func ErrorCode(err error) (int, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Code, true
	}
	return 0, false
}
