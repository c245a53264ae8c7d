package providers

import (
	"errors"
	"fmt"

	"guesthouse/roomsync/internal/constants"
)

// ErrUnknownTransport is returned by the registry for a transport with no pusher.
var ErrUnknownTransport = errors.New("unknown channel transport")

// ProviderError describes a failed push. Code is one of the constants.ErrCode*
// values; StatusCode is set when the channel answered.
type ProviderError struct {
	Code       string
	Message    string
	Details    string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsConfiguration reports whether retrying the push cannot succeed.
func (e *ProviderError) IsConfiguration() bool {
	return constants.IsConfigurationError(e.Code)
}

// AsProviderError extracts a *ProviderError from err's chain.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
