package providers

import (
	"fmt"
	"strings"

	"guesthouse/roomsync/internal/constants"
)

// Registry maps a channel manager's transport name to its pusher.
type Registry struct {
	pushers map[string]ChannelPusher
}

func NewRegistry(pushers ...ChannelPusher) *Registry {
	r := &Registry{pushers: map[string]ChannelPusher{}}
	for _, p := range pushers {
		if p == nil {
			continue
		}
		r.Register(p)
	}
	return r
}

func (r *Registry) Register(p ChannelPusher) {
	transport := strings.ToLower(strings.TrimSpace(p.Transport()))
	if transport == "" {
		return
	}
	r.pushers[transport] = p
}

// Get returns a configuration ProviderError wrapping ErrUnknownTransport when
// nothing is registered for transport.
func (r *Registry) Get(transport string) (ChannelPusher, error) {
	key := strings.ToLower(strings.TrimSpace(transport))
	if r != nil {
		if p, ok := r.pushers[key]; ok {
			return p, nil
		}
	}
	return nil, &ProviderError{
		Code:    constants.ErrCodeUnknownTransport,
		Message: fmt.Sprintf("%s: %q", constants.GetErrorMessage(constants.ErrCodeUnknownTransport), transport),
		Err:     ErrUnknownTransport,
	}
}
