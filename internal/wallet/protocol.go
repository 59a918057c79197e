package wallet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/aadityarajkumawat/telebot/internal/store"
	"github.com/aadityarajkumawat/telebot/internal/ton"
	"github.com/aadityarajkumawat/telebot/internal/tonconnect"
)

// Messenger is the slice of the chat transport the wallet flow needs.
type Messenger interface {
	SendText(chatID int64, text string) error
	SendQR(chatID int64, png []byte, link string) (int64, error)
	SendLinkButton(chatID int64, text, buttonText, link string) error
	DeleteMessage(chatID, messageID int64) error
}

// TransferClient submits a value transfer and blocks until it confirms or
// the context expires.
type TransferClient interface {
	SubmitTransfer(ctx context.Context, to string, amount int64) error
}

// Protocol drives the connect/restore/confirm-cancel/disconnect handshake
// and the timed redemption transfer, one wallet link per chat.
type Protocol struct {
	msg      Messenger
	users    *store.UserStore
	kv       store.KV
	bridge   *tonconnect.Bridge
	transfer TransferClient

	botLink         string
	transferTimeout time.Duration

	// pending holds the cancellation handle of the one outstanding connect
	// attempt per chat; registering a new one supersedes and cancels it.
	mu      sync.Mutex
	pending map[int64]func()
}

func NewProtocol(
	msg Messenger,
	users *store.UserStore,
	kv store.KV,
	bridge *tonconnect.Bridge,
	transfer TransferClient,
	botLink string,
	transferTimeout time.Duration,
) *Protocol {
	return &Protocol{
		msg:             msg,
		users:           users,
		kv:              kv,
		bridge:          bridge,
		transfer:        transfer,
		botLink:         botLink,
		transferTimeout: transferTimeout,
		pending:         make(map[int64]func()),
	}
}

func (p *Protocol) connector(chatID int64) *tonconnect.Connector {
	return tonconnect.NewConnector(p.kv, p.bridge, chatID)
}

// Supersede cancels and removes the chat's outstanding connect attempt,
// if any.
func (p *Protocol) Supersede(chatID int64) {
	p.mu.Lock()
	cancel := p.pending[chatID]
	delete(p.pending, chatID)
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (p *Protocol) setPending(chatID int64, cancel func()) {
	p.mu.Lock()
	p.pending[chatID] = cancel
	p.mu.Unlock()
}

func (p *Protocol) clearPending(chatID int64) {
	p.mu.Lock()
	delete(p.pending, chatID)
	p.mu.Unlock()
}

// HandleConnect starts (or reports) the wallet link handshake for a chat.
func (p *Protocol) HandleConnect(ctx context.Context, chatID int64) {
	p.Supersede(chatID)

	conn := p.connector(chatID)
	if err := conn.RestoreConnection(ctx); err != nil {
		log.Printf("[Wallet] restore for chat %d: %v", chatID, err)
	}
	if conn.Connected() {
		w := conn.Wallet()
		p.msg.SendText(chatID, fmt.Sprintf(
			"You have already connect %s wallet\nYour address: %s\n\nDisconnect wallet firstly to connect a new one",
			w.AppName, w.Address))
		return
	}

	var msgID int64
	var deleteOnce sync.Once
	deleteMessage := func() {
		deleteOnce.Do(func() {
			if msgID != 0 {
				if err := p.msg.DeleteMessage(chatID, msgID); err != nil {
					log.Printf("[Wallet] delete connect prompt for chat %d: %v", chatID, err)
				}
			}
		})
	}

	// the listener must never fire twice, even if cancel races the event
	var fired sync.Once
	var unsubscribe func()
	unsubscribe = conn.OnStatusChange(func(w *tonconnect.WalletInfo) {
		fired.Do(func() {
			deleteMessage()
			p.msg.SendText(chatID, fmt.Sprintf("%s wallet connected successfully", w.AppName))
			unsubscribe()
			p.clearPending(chatID)
		})
	})

	link, err := conn.Connect(ctx)
	if err != nil {
		unsubscribe()
		log.Printf("[Wallet] connect for chat %d: %v", chatID, err)
		p.msg.SendText(chatID, "Unknown error happened")
		return
	}

	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		log.Printf("[Wallet] qr encode for chat %d: %v", chatID, err)
	} else {
		msgID, err = p.msg.SendQR(chatID, png, link)
		if err != nil {
			log.Printf("[Wallet] send qr to %d: %v", chatID, err)
		}
	}

	p.setPending(chatID, func() {
		fired.Do(func() {
			unsubscribe()
			conn.Pause()
			deleteMessage()
		})
	})
}

// HandleDisconnect tears the link down. No link is an informational
// outcome, not an error.
func (p *Protocol) HandleDisconnect(ctx context.Context, chatID int64) {
	p.Supersede(chatID)

	conn := p.connector(chatID)
	if err := conn.RestoreConnection(ctx); err != nil {
		log.Printf("[Wallet] restore for chat %d: %v", chatID, err)
	}
	if !conn.Connected() {
		p.msg.SendText(chatID, "You didn't connect a wallet")
		return
	}

	if err := conn.Disconnect(ctx); err != nil {
		log.Printf("[Wallet] disconnect for chat %d: %v", chatID, err)
		p.msg.SendText(chatID, "Unknown error happened")
		return
	}
	p.msg.SendText(chatID, "Wallet has been disconnected")
}

// WalletState rederives the link state for profile display.
func (p *Protocol) WalletState(ctx context.Context, chatID int64) (connected bool, appName, address string) {
	conn := p.connector(chatID)
	if err := conn.RestoreConnection(ctx); err != nil {
		return false, "", ""
	}
	if !conn.Connected() {
		return false, "", ""
	}
	w := conn.Wallet()
	return true, w.AppName, w.Address
}

// RequestTransfer redeems amount points into the linked wallet. The caller
// has already verified amount against the participant's score. Exactly one
// of: confirmed in time (debit), timeout (no debit), rejection (no
// debit), or a generic failure (no debit). The connection is paused on
// every exit path.
func (p *Protocol) RequestTransfer(ctx context.Context, chatID int64, amount int64) {
	conn := p.connector(chatID)
	if err := conn.RestoreConnection(ctx); err != nil {
		log.Printf("[Wallet] restore for chat %d: %v", chatID, err)
	}
	if !conn.Connected() {
		p.msg.SendText(chatID, "Connect wallet to send transaction")
		return
	}
	w := conn.Wallet()

	go func() {
		defer conn.Pause()

		tctx, cancel := context.WithTimeout(context.Background(), p.transferTimeout)
		defer cancel()

		err := p.transfer.SubmitTransfer(tctx, w.Address, amount)
		switch {
		case err == nil:
			p.msg.SendText(chatID, "Transaction sent successfully")
			p.debit(chatID, amount)
		case errors.Is(err, context.DeadlineExceeded):
			// the transfer may still settle out-of-band; the score stands
			p.msg.SendText(chatID, "Transaction was not confirmed")
		case errors.Is(err, ton.ErrRejected):
			p.msg.SendText(chatID, "You rejected the transaction")
		default:
			log.Printf("[Wallet] transfer for chat %d: %v", chatID, err)
			p.msg.SendText(chatID, "Unknown error happened")
		}
	}()

	deeplink := w.UniversalLink
	if deeplink != "" && IsTelegramURL(deeplink) && p.botLink != "" {
		deeplink = AddReturnStrategy(deeplink, p.botLink)
	}

	text := fmt.Sprintf("Open %s and confirm transaction", w.AppName)
	if deeplink != "" {
		if err := p.msg.SendLinkButton(chatID, text, "Open "+w.AppName, deeplink); err != nil {
			log.Printf("[Wallet] open-wallet prompt to %d: %v", chatID, err)
		}
	} else {
		p.msg.SendText(chatID, text)
	}
}

func (p *Protocol) debit(chatID int64, amount int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	score, err := p.users.UpdateScore(ctx, chatID, int(-amount))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[Wallet] debit for chat %d: %v", chatID, err)
		}
		return
	}
	p.msg.SendText(chatID, fmt.Sprintf("Your new score: %d", score))
}
