package tonconnect

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aadityarajkumawat/telebot/internal/store"
)

// Connector manages one chat's wallet link: it restores a persisted
// connection, opens a new session offer against the bridge, and reports
// status changes to a registered listener.
type Connector struct {
	chatID  int64
	storage *Storage
	bridge  *Bridge

	mu       sync.Mutex
	wallet   *WalletInfo
	listener func(*WalletInfo)
	cancel   context.CancelFunc
}

func NewConnector(kv store.KV, bridge *Bridge, chatID int64) *Connector {
	return &Connector{
		chatID:  chatID,
		storage: NewStorage(kv, chatID),
		bridge:  bridge,
	}
}

// RestoreConnection rehydrates the link state from the persisted record.
// Wallet-link state is always rederived this way rather than cached.
func (c *Connector) RestoreConnection(ctx context.Context) error {
	rec, err := c.storage.load(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if rec != nil && rec.Wallet != nil {
		c.wallet = rec.Wallet
	} else {
		c.wallet = nil
	}
	return nil
}

func (c *Connector) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wallet != nil
}

func (c *Connector) Wallet() *WalletInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wallet
}

// OnStatusChange registers the status listener and returns its unsubscribe
// handle. The connector keeps at most one listener.
func (c *Connector) OnStatusChange(fn func(*WalletInfo)) func() {
	c.mu.Lock()
	c.listener = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		if c.listener != nil {
			c.listener = nil
		}
		c.mu.Unlock()
	}
}

// Connect opens a fresh session offer and starts listening on the bridge.
// Returns the universal link the wallet app uses to accept.
func (c *Connector) Connect(ctx context.Context) (string, error) {
	sessionID := uuid.NewString()
	if err := c.storage.save(ctx, &connectionRecord{SessionID: sessionID}); err != nil {
		return "", err
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
	c.mu.Unlock()

	go c.listen(pollCtx, sessionID)

	return c.bridge.ConnectLink(sessionID), nil
}

func (c *Connector) listen(ctx context.Context, sessionID string) {
	for {
		events, err := c.bridge.Events(ctx, sessionID)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Printf("[TonConnect] bridge poll for chat %d: %v", c.chatID, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, ev := range events {
			if ev.Type != "connect" {
				continue
			}
			wallet := &WalletInfo{
				AppName:       ev.AppName,
				Address:       ev.Address,
				UniversalLink: ev.UniversalLink,
			}
			if err := c.storage.save(ctx, &connectionRecord{SessionID: sessionID, Wallet: wallet}); err != nil {
				log.Printf("[TonConnect] persist link for chat %d: %v", c.chatID, err)
			}

			c.mu.Lock()
			c.wallet = wallet
			listener := c.listener
			c.mu.Unlock()

			if listener != nil {
				listener(wallet)
			}
			return
		}
	}
}

// Pause stops the bridge listener without touching the persisted link.
// Every transfer and superseded connect goes through here.
func (c *Connector) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Disconnect tears the link down: listener, bridge session and persisted
// record.
func (c *Connector) Disconnect(ctx context.Context) error {
	c.Pause()

	c.mu.Lock()
	c.wallet = nil
	c.listener = nil
	c.mu.Unlock()

	return c.storage.remove(ctx)
}
