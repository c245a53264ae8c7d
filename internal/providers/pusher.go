package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"guesthouse/roomsync/internal/constants"
)

// maxCapturedBody caps how much of a channel's response is kept for the audit log.
const maxCapturedBody = 64 << 10

// PushRequest is one outbound availability update.
// Body is sent exactly as given.
type PushRequest struct {
	ChannelID   string
	ChannelName string
	EndpointURL string
	Secret      string
	Body        []byte
}

// PushResponse is what the channel answered. It is returned alongside an
// error for non-2xx answers so the caller can still log it.
type PushResponse struct {
	StatusCode int
	Body       *string
	Duration   time.Duration
}

// ChannelPusher delivers availability updates over one transport.
type ChannelPusher interface {
	Transport() string
	Push(ctx context.Context, req PushRequest) (*PushResponse, error)
}

// httpPusher holds the HTTP plumbing shared by every transport.
type httpPusher struct {
	client    *http.Client
	userAgent string
}

func newHTTPPusher(client *http.Client, userAgent string) httpPusher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return httpPusher{client: client, userAgent: userAgent}
}

// doPost sends body with the given extra headers and classifies the result.
func (h httpPusher) doPost(ctx context.Context, endpoint string, body []byte, headers map[string]string) (*PushResponse, error) {
	if err := validateEndpoint(endpoint); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeInvalidEndpoint,
			Message: "Failed to create request",
			Err:     err,
		}
	}

	req.Header.Set("Content-Type", "application/json")
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	dumpRequest(req)

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		code := constants.ErrCodeNetworkError
		if isTimeout(err) {
			code = constants.ErrCodeTimeout
		}
		return &PushResponse{Duration: time.Since(start)}, &ProviderError{
			Code:    code,
			Message: constants.GetErrorMessage(code),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxCapturedBody))
	out := &PushResponse{
		StatusCode: resp.StatusCode,
		Body:       captureBody(raw),
		Duration:   time.Since(start),
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return out, nil
	}
	return out, buildHTTPError(resp.StatusCode, raw)
}

func buildHTTPError(statusCode int, body []byte) error {
	code := constants.ErrCodeNon2xx
	if statusCode == http.StatusTooManyRequests {
		code = constants.ErrCodeRateLimited
	}
	return &ProviderError{
		Code:       code,
		Message:    fmt.Sprintf("HTTP %d", statusCode),
		Details:    string(body),
		StatusCode: statusCode,
	}
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ProviderError{
			Code:    constants.ErrCodeInvalidEndpoint,
			Message: fmt.Sprintf("%s: %q", constants.GetErrorMessage(constants.ErrCodeInvalidEndpoint), endpoint),
			Err:     err,
		}
	}
	return nil
}

// captureBody keeps JSON compacted and anything else verbatim.
func captureBody(raw []byte) *string {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if json.Valid(raw) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err == nil {
			s = buf.String()
		} else {
			s = string(raw)
		}
	} else {
		s = string(raw)
	}
	return &s
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
