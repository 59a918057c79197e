package ton

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"context"
)

// ErrRejected is returned when the wallet service refuses to sign the
// transfer.
var ErrRejected = errors.New("transfer rejected")

// Client talks to the payout wallet service: it submits a transfer from the
// service's hot wallet and waits for confirmation by watching the wallet's
// sequence number advance.
type Client struct {
	apiURL     string
	apiKey     string
	wallet     string
	httpClient *http.Client

	// PollInterval is how often the seqno is re-read while waiting for a
	// submitted transfer to confirm.
	PollInterval time.Duration
}

func NewClient(apiURL, apiKey, wallet string) *Client {
	return &Client{
		apiURL:       strings.TrimRight(apiURL, "/"),
		apiKey:       apiKey,
		wallet:       wallet,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		PollInterval: 1500 * time.Millisecond,
	}
}

type apiResponse struct {
	OK     bool            `json:"ok"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

func (c *Client) call(ctx context.Context, method, path string, payload interface{}) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(data, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if !apiResp.OK {
		if strings.Contains(strings.ToLower(apiResp.Error), "reject") {
			return nil, ErrRejected
		}
		return nil, fmt.Errorf("ton api: %s", apiResp.Error)
	}
	return apiResp.Result, nil
}

// IsRecipientReady reports whether the destination wallet contract is
// deployed and able to receive a transfer.
func (c *Client) IsRecipientReady(ctx context.Context, address string) (bool, error) {
	result, err := c.call(ctx, http.MethodGet, "/accounts/"+address+"/status", nil)
	if err != nil {
		return false, err
	}
	var status struct {
		Deployed bool `json:"deployed"`
	}
	if err := json.Unmarshal(result, &status); err != nil {
		return false, err
	}
	return status.Deployed, nil
}

// Seqno reads the current sequence number of a wallet.
func (c *Client) Seqno(ctx context.Context, address string) (uint64, error) {
	result, err := c.call(ctx, http.MethodGet, "/wallet/"+address+"/seqno", nil)
	if err != nil {
		return 0, err
	}
	var out struct {
		Seqno uint64 `json:"seqno"`
	}
	if err := json.Unmarshal(result, &out); err != nil {
		return 0, err
	}
	return out.Seqno, nil
}

// SubmitTransfer sends amount points worth of value to the destination and
// blocks until the hot wallet's seqno advances past the submitted transfer,
// or ctx expires. Callers bound the wait with a deadline; an abandoned call
// may still settle out-of-band.
func (c *Client) SubmitTransfer(ctx context.Context, to string, amount int64) error {
	ready, err := c.IsRecipientReady(ctx, to)
	if err != nil {
		return fmt.Errorf("recipient status: %w", err)
	}
	if !ready {
		return fmt.Errorf("wallet %s is not deployed", to)
	}

	seqno, err := c.Seqno(ctx, c.wallet)
	if err != nil {
		return fmt.Errorf("read seqno: %w", err)
	}

	payload := struct {
		To     string `json:"to"`
		Amount int64  `json:"amount"`
		Seqno  uint64 `json:"seqno"`
	}{To: to, Amount: amount, Seqno: seqno}
	if _, err := c.call(ctx, http.MethodPost, "/wallet/"+c.wallet+"/transfer", payload); err != nil {
		return err
	}

	// confirmed once the wallet's seqno moves
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.PollInterval):
		}

		current, err := c.Seqno(ctx, c.wallet)
		if err != nil {
			continue
		}
		if current != seqno {
			return nil
		}
	}
}
