package tonconnect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Bridge long-polls the connect bridge for wallet status events addressed
// to a session.
type Bridge struct {
	url        string
	httpClient *http.Client
}

type BridgeEvent struct {
	Type          string `json:"type"` // "connect" or "disconnect"
	AppName       string `json:"app_name,omitempty"`
	Address       string `json:"address,omitempty"`
	UniversalLink string `json:"universal_link,omitempty"`
}

func NewBridge(bridgeURL string) *Bridge {
	return &Bridge{
		url: strings.TrimRight(bridgeURL, "/"),
		// long-poll requests are held open server-side for up to 30s
		httpClient: &http.Client{Timeout: 45 * time.Second},
	}
}

// Events blocks until the bridge has events for the session or the server's
// poll window closes. An empty slice means the window expired quietly.
func (b *Bridge) Events(ctx context.Context, sessionID string) ([]BridgeEvent, error) {
	endpoint := fmt.Sprintf("%s/events?session_id=%s&timeout=30", b.url, url.QueryEscape(sessionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bridge poll: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bridge read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bridge status %d", resp.StatusCode)
	}

	var events []BridgeEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("bridge decode: %w", err)
	}
	return events, nil
}

// ConnectLink builds the universal link a wallet app opens to accept the
// session offer. The offer itself is time-unbounded here; only the wallet's
// own timeout limits it.
func (b *Bridge) ConnectLink(sessionID string) string {
	return fmt.Sprintf("https://app.tonkeeper.com/ton-connect?v=2&id=%s&bridge=%s",
		url.QueryEscape(sessionID), url.QueryEscape(b.url))
}
