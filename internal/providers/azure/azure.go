// Package azure implements the speech recognition, translation and speech
// synthesis capabilities against the Azure Cognitive Services REST APIs.
//
// Every client checks its credentials at call time rather than at
// construction, so a partially configured deployment fails the affected
// stage instead of refusing to start.
package azure

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTP headers shared by all three services.
const (
	headerSubscriptionKey    = "Ocp-Apim-Subscription-Key"
	headerSubscriptionRegion = "Ocp-Apim-Subscription-Region"
	headerContentType        = "Content-Type"
	headerAccept             = "Accept"

	contentTypeJSON = "application/json"
)

// DefaultRequestTimeout applies to every HTTP client in this package. The
// pipeline stages impose their own per-call deadlines on top through the
// request context.
const DefaultRequestTimeout = 2 * time.Minute

const maxErrorBodyBytes = 4 * 1024

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return &http.Client{Timeout: timeout}
}

// readErrorBody captures the response body so upstream classification can
// inspect it for throttling markers. The body is truncated to keep log
// lines bounded.
func readErrorBody(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return ""
	}

	return string(body)
}

func statusError(service string, resp *http.Response) error {
	return fmt.Errorf(
		"%s returned non-OK status %s: %s",
		service,
		resp.Status,
		readErrorBody(resp),
	)
}
