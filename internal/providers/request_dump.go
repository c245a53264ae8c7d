package providers

import (
	"net/http"
	"net/http/httputil"

	"guesthouse/roomsync/internal/logging"

	"go.uber.org/zap/zapcore"
)

// redactedHeaders never reach the log.
var redactedHeaders = []string{"Authorization", SignatureHeader}

// dumpRequest logs the outbound request at debug level. The body is only
// included when it can be replayed through GetBody.
func dumpRequest(req *http.Request) {
	log := logging.With("pusher")
	if !log.Desugar().Core().Enabled(zapcore.DebugLevel) {
		return
	}

	clone := req.Clone(req.Context())
	for _, h := range redactedHeaders {
		if clone.Header.Get(h) != "" {
			clone.Header.Set(h, "[redacted]")
		}
	}
	withBody := false
	if req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			clone.Body = body
			withBody = true
		}
	}

	dump, err := httputil.DumpRequestOut(clone, withBody)
	if err != nil {
		log.Debugw("Failed to dump outbound request", "error", err)
		return
	}
	log.Debugw("Outbound push", "url", req.URL.String(), "dump", string(dump))
}
