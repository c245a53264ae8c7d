package providers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"guesthouse/roomsync/internal/constants"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Webhook-Signature"

// WebhookPusher posts the payload signed with the channel secret.
type WebhookPusher struct {
	httpPusher
}

func NewWebhookPusher(client *http.Client, userAgent string) *WebhookPusher {
	return &WebhookPusher{httpPusher: newHTTPPusher(client, userAgent)}
}

func (p *WebhookPusher) Transport() string {
	return constants.TransportWebhook
}

func (p *WebhookPusher) Push(ctx context.Context, req PushRequest) (*PushResponse, error) {
	if req.Secret == "" {
		return nil, &ProviderError{
			Code:    constants.ErrCodeSecretMissing,
			Message: constants.GetErrorMessage(constants.ErrCodeSecretMissing),
		}
	}
	return p.doPost(ctx, req.EndpointURL, req.Body, map[string]string{
		SignatureHeader: Sign(req.Secret, req.Body),
	})
}

// Sign returns hex(HMAC-SHA256(secret, body)).
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received signature in constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}
