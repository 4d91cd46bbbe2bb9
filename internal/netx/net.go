// Package netx holds small HTTP client helpers shared by outbound callers.
package netx

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxSnippet bounds how much of an error body ends up in the message.
const maxSnippet = 256

// StatusError drains resp.Body (up to limit bytes) and returns an error that
// names the status and the start of the body. resp.Body is not closed.
func StatusError(resp *http.Response, limit int64) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, limit))
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, limit))

	snippet := strings.TrimSpace(string(b))
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet] + "..."
	}
	if snippet == "" {
		return fmt.Errorf("status %s", resp.Status)
	}
	return fmt.Errorf("status %s; body: %s", resp.Status, snippet)
}
