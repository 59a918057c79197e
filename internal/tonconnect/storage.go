package tonconnect

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/aadityarajkumawat/telebot/internal/store"
)

const connectionKey = "connection"

// WalletInfo describes a linked wallet as reported by the bridge.
type WalletInfo struct {
	AppName       string `json:"app_name"`
	Address       string `json:"address"`
	UniversalLink string `json:"universal_link,omitempty"`
}

// connectionRecord is the restorable handshake state persisted per chat.
type connectionRecord struct {
	SessionID string      `json:"session_id"`
	Wallet    *WalletInfo `json:"wallet,omitempty"`
}

// Storage scopes connection records to one chat by key prefix, the same way
// every other per-chat artifact lives in the key-value store.
type Storage struct {
	kv     store.KV
	chatID int64
}

func NewStorage(kv store.KV, chatID int64) *Storage {
	return &Storage{kv: kv, chatID: chatID}
}

func (s *Storage) key() string {
	return strconv.FormatInt(s.chatID, 10) + ":" + connectionKey
}

func (s *Storage) load(ctx context.Context) (*connectionRecord, error) {
	raw, err := s.kv.Get(ctx, s.key())
	if err == store.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec connectionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Storage) save(ctx context.Context, rec *connectionRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key(), string(raw))
}

func (s *Storage) remove(ctx context.Context) error {
	return s.kv.Del(ctx, s.key())
}
