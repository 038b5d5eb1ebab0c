package notifysync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Gateway performs the request/response half of the sync protocol: list,
// mark-read and delete against the notifications API.
type Gateway interface {
	List(ctx context.Context) ([]Notification, error)
	MarkRead(ctx context.Context, ids []string) error
	Delete(ctx context.Context, ids []string) error
}

// HTTPGateway talks to the notifications REST endpoints. Mark-read and
// delete address rows by a comma-joined id list in the path.
type HTTPGateway struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPGateway creates a gateway rooted at baseURL (for example
// "https://api.example.com/api/v1") authenticating with the given bearer
// token.
func NewHTTPGateway(baseURL, token string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

// apiError is the structured failure body the notifications API returns.
type apiError struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// decodeError turns a non-2xx response into the most specific message
// available: details, then error, then the raw body text.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var body apiError
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Details != "" {
			return fmt.Errorf("%s", body.Details)
		}
		if body.Error != "" {
			return fmt.Errorf("%s", body.Error)
		}
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, text)
}

func (g *HTTPGateway) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Accept", "application/json")
	return g.client.Do(req)
}

// List fetches the full notification list.
func (g *HTTPGateway) List(ctx context.Context) ([]Notification, error) {
	resp, err := g.do(ctx, http.MethodGet, "/notifications")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}

	var notifications []Notification
	if err := json.NewDecoder(resp.Body).Decode(&notifications); err != nil {
		return nil, fmt.Errorf("decode notification list: %w", err)
	}
	return notifications, nil
}

func (g *HTTPGateway) mutate(ctx context.Context, method string, ids []string) error {
	resp, err := g.do(ctx, method, "/notifications/"+strings.Join(ids, ","))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	// Success body is ignored.
	io.Copy(io.Discard, resp.Body)
	return nil
}

// MarkRead marks the given notification ids as read.
func (g *HTTPGateway) MarkRead(ctx context.Context, ids []string) error {
	return g.mutate(ctx, http.MethodPatch, ids)
}

// Delete removes the given notification ids.
func (g *HTTPGateway) Delete(ctx context.Context, ids []string) error {
	return g.mutate(ctx, http.MethodDelete, ids)
}
