package urlhandler

import (
	"errors"
	"fmt"
)

// ErrMalformedURL is matched by every MalformedURLError.
var ErrMalformedURL = errors.New("malformed url")

// MalformedURLError reports a URL or reference that could not be parsed or resolved.
type MalformedURLError struct {
	URL    string
	Reason string
	Err    error
}

func (e *MalformedURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed url '%s': %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed url '%s': %s", e.URL, e.Reason)
}

func (e *MalformedURLError) Unwrap() error {
	return e.Err
}

func (e *MalformedURLError) Is(target error) bool {
	return target == ErrMalformedURL
}

func newMalformedURLError(rawURL, reason string, err error) error {
	return &MalformedURLError{URL: rawURL, Reason: reason, Err: err}
}
