package providers

import (
	"context"
	"net/http"

	"guesthouse/roomsync/internal/constants"
)

// APIPusher posts the payload with the channel secret as a bearer token.
type APIPusher struct {
	httpPusher
}

func NewAPIPusher(client *http.Client, userAgent string) *APIPusher {
	return &APIPusher{httpPusher: newHTTPPusher(client, userAgent)}
}

func (p *APIPusher) Transport() string {
	return constants.TransportAPI
}

func (p *APIPusher) Push(ctx context.Context, req PushRequest) (*PushResponse, error) {
	if req.Secret == "" {
		return nil, &ProviderError{
			Code:    constants.ErrCodeSecretMissing,
			Message: constants.GetErrorMessage(constants.ErrCodeSecretMissing),
		}
	}
	return p.doPost(ctx, req.EndpointURL, req.Body, map[string]string{
		"Authorization": "Bearer " + req.Secret,
	})
}
