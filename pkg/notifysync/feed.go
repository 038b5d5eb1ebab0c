package notifysync

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// ChangeFeed delivers row-level notification changes scoped to an
// identity. Implementations must close the returned channel when the
// subscription ends, whether through cancellation or transport failure.
type ChangeFeed interface {
	Subscribe(ctx context.Context, identity Identity) (<-chan Change, error)
}

// SSEFeed subscribes to the notifications stream endpoint over
// Server-Sent Events. Each event's data line is one JSON-encoded Change.
type SSEFeed struct {
	baseURL string
	client  *http.Client
}

// NewSSEFeed creates a feed rooted at baseURL (same root as the gateway).
func NewSSEFeed(baseURL string, client *http.Client) *SSEFeed {
	if client == nil {
		client = http.DefaultClient
	}
	return &SSEFeed{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Subscribe opens the stream and starts a reader goroutine. The channel
// closes when ctx is cancelled or the server ends the stream.
func (f *SSEFeed) Subscribe(ctx context.Context, identity Identity) (<-chan Change, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/notifications/stream", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+identity.Token)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}

	changes := make(chan Change)
	go func() {
		defer close(changes)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		var data strings.Builder
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				// Blank line dispatches the accumulated event.
				if data.Len() > 0 {
					var change Change
					if err := json.Unmarshal([]byte(data.String()), &change); err == nil {
						select {
						case changes <- change:
						case <-ctx.Done():
							return
						}
					}
					data.Reset()
				}
			case strings.HasPrefix(line, ":"):
				// Comment line (heartbeat); ignore.
			case strings.HasPrefix(line, "data:"):
				if data.Len() > 0 {
					data.WriteByte('\n')
				}
				data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			}
		}
	}()

	return changes, nil
}

var _ ChangeFeed = (*SSEFeed)(nil)
