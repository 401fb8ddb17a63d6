package acquire

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrNoCachedAccount means silent acquisition had nothing to work with.
	ErrNoCachedAccount = errors.New("no cached account")
	// ErrSilentFailed means a cached account existed but yielded no token.
	ErrSilentFailed = errors.New("silent acquisition failed")
	// ErrInteractiveFailed is terminal for the run.
	ErrInteractiveFailed = errors.New("interactive acquisition failed")
	ErrCredentialFailed  = errors.New("client credential acquisition failed")
	ErrNoStrategies      = errors.New("no acquisition strategies configured")
)

// ProviderError is an OAuth error response from the identity provider.
// Either field may be empty.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	case e.Code != "":
		return e.Code
	case e.Description != "":
		return e.Description
	default:
		return "identity provider returned an error"
	}
}

// AsProviderError returns the ProviderError in err's chain, if any.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// AcquisitionError is returned when every strategy failed. It unwraps to
// the last strategy's error, which is the one reported to the user.
type AcquisitionError struct {
	attempts *multierror.Error
	last     error
}

func (e *AcquisitionError) Error() string {
	if e.last == nil {
		return ErrNoStrategies.Error()
	}
	return e.last.Error()
}

func (e *AcquisitionError) Unwrap() error {
	return e.last
}

// Attempts returns one error per strategy tried, in order.
func (e *AcquisitionError) Attempts() []error {
	if e.attempts == nil {
		return nil
	}
	return e.attempts.WrappedErrors()
}

// Summary lists every attempt on its own line.
func (e *AcquisitionError) Summary() string {
	if e.attempts == nil {
		return e.Error()
	}
	return e.attempts.Error()
}
