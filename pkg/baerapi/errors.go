package baerapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Jeffail/gabs"
)

var (
	ErrAuth           = errors.New("authentication failed")
	ErrValidation     = errors.New("validation failed")
	ErrSessionExpired = errors.New("session expired")
	ErrNetwork        = errors.New("backend unreachable")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrServer         = errors.New("request failed")

	ErrEmptyContent   = fmt.Errorf("%w: content is empty", ErrValidation)
	ErrContentTooLong = fmt.Errorf("%w: content is longer than %d characters", ErrValidation, MaxContentLength)
)

// StatusError is returned for every non-2xx response. It unwraps to one of the sentinel errors
// above.
type StatusError struct {
	Method string
	Path   string
	Status int
	Detail string
	Kind   error
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: %s %s returned %d", e.Kind, e.Method, e.Path, e.Status)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	return e.Kind
}

// Detail returns the server-provided detail text carried by err, if any.
func Detail(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Detail
	}
	return ""
}

// errorBody is the FastAPI error envelope. detail is either a string or a list of
// validation items with a msg field.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

func (b *errorBody) message() string {
	if len(b.Detail) == 0 {
		return ""
	}

	container, err := gabs.ParseJSON(b.Detail)
	if err != nil {
		return ""
	}

	if detail, ok := container.Data().(string); ok {
		return detail
	}

	children, err := container.Children()
	if err != nil {
		return ""
	}

	msgs := make([]string, 0, len(children))
	for _, child := range children {
		if msg, ok := child.Path("msg").Data().(string); ok {
			msgs = append(msgs, msg)
		}
	}

	return strings.Join(msgs, "; ")
}
