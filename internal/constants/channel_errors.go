package constants

// Channel push error codes
const (
	ErrCodeNetworkError     = "NETWORK_ERROR"
	ErrCodeTimeout          = "TIMEOUT"
	ErrCodeNon2xx           = "NON_2XX_RESPONSE"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeSecretMissing    = "SECRET_MISSING"
	ErrCodeUnknownTransport = "UNKNOWN_TRANSPORT"
	ErrCodeInvalidEndpoint  = "INVALID_ENDPOINT"
	ErrCodePayloadEncoding  = "PAYLOAD_ENCODING"
)

var ChannelErrorMessages = map[string]string{
	ErrCodeNetworkError:     "Unable to reach the channel manager endpoint",
	ErrCodeTimeout:          "The channel manager did not answer before the push timeout",
	ErrCodeNon2xx:           "The channel manager rejected the availability update",
	ErrCodeRateLimited:      "Outbound rate limit for this channel manager was exceeded",
	ErrCodeSecretMissing:    "No secret is stored under the channel manager's credential reference",
	ErrCodeUnknownTransport: "The channel manager uses a transport this service does not support",
	ErrCodeInvalidEndpoint:  "The channel manager endpoint URL is invalid",
	ErrCodePayloadEncoding:  "The availability payload could not be encoded",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := ChannelErrorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}

// IsConfigurationError reports whether retrying cannot fix the failure.
func IsConfigurationError(code string) bool {
	switch code {
	case ErrCodeSecretMissing, ErrCodeUnknownTransport, ErrCodeInvalidEndpoint:
		return true
	}
	return false
}
