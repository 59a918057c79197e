package tonconnect

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aadityarajkumawat/telebot/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBridge answers one connect event for whichever session polls it.
type fakeBridge struct {
	mu      sync.Mutex
	fired   bool
	session string
}

func (f *fakeBridge) handler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = r.URL.Query().Get("session_id")
	if f.fired {
		fmt.Fprint(w, `[]`)
		return
	}
	f.fired = true
	fmt.Fprint(w, `[{"type":"connect","app_name":"Tonkeeper","address":"EQabc","universal_link":"https://app.tonkeeper.com/link"}]`)
}

func testBridge(t *testing.T) (*Bridge, *fakeBridge) {
	t.Helper()
	fake := &fakeBridge{}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)
	return NewBridge(srv.URL), fake
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestConnector_ConnectDeliversWallet(t *testing.T) {
	bridge, _ := testBridge(t)
	kv := store.NewMemoryKV()
	c := NewConnector(kv, bridge, 42)

	var gotMu sync.Mutex
	var got *WalletInfo
	c.OnStatusChange(func(w *WalletInfo) {
		gotMu.Lock()
		got = w
		gotMu.Unlock()
	})

	link, err := c.Connect(context.Background())
	require.NoError(t, err)
	assert.Contains(t, link, "https://app.tonkeeper.com/ton-connect?v=2&id=")

	waitFor(t, func() bool {
		gotMu.Lock()
		defer gotMu.Unlock()
		return got != nil
	})

	gotMu.Lock()
	assert.Equal(t, "Tonkeeper", got.AppName)
	assert.Equal(t, "EQabc", got.Address)
	gotMu.Unlock()

	assert.True(t, c.Connected())
}

func TestConnector_RestoreFromPersistedRecord(t *testing.T) {
	bridge, _ := testBridge(t)
	kv := store.NewMemoryKV()
	ctx := context.Background()

	first := NewConnector(kv, bridge, 42)
	_, err := first.Connect(ctx)
	require.NoError(t, err)
	waitFor(t, first.Connected)
	first.Pause()

	// a fresh connector sees the same link after restore
	second := NewConnector(kv, bridge, 42)
	assert.False(t, second.Connected())
	require.NoError(t, second.RestoreConnection(ctx))
	require.True(t, second.Connected())
	assert.Equal(t, "EQabc", second.Wallet().Address)
}

func TestConnector_RestoreIsolatedPerChat(t *testing.T) {
	bridge, _ := testBridge(t)
	kv := store.NewMemoryKV()
	ctx := context.Background()

	c := NewConnector(kv, bridge, 42)
	_, err := c.Connect(ctx)
	require.NoError(t, err)
	waitFor(t, c.Connected)
	c.Pause()

	other := NewConnector(kv, bridge, 43)
	require.NoError(t, other.RestoreConnection(ctx))
	assert.False(t, other.Connected())
}

func TestConnector_Disconnect(t *testing.T) {
	bridge, _ := testBridge(t)
	kv := store.NewMemoryKV()
	ctx := context.Background()

	c := NewConnector(kv, bridge, 42)
	_, err := c.Connect(ctx)
	require.NoError(t, err)
	waitFor(t, c.Connected)

	require.NoError(t, c.Disconnect(ctx))
	assert.False(t, c.Connected())

	fresh := NewConnector(kv, bridge, 42)
	require.NoError(t, fresh.RestoreConnection(ctx))
	assert.False(t, fresh.Connected())
}

func TestConnector_UnsubscribeStopsListener(t *testing.T) {
	bridge, _ := testBridge(t)
	kv := store.NewMemoryKV()
	c := NewConnector(kv, bridge, 42)

	called := false
	unsubscribe := c.OnStatusChange(func(*WalletInfo) { called = true })
	unsubscribe()

	_, err := c.Connect(context.Background())
	require.NoError(t, err)
	waitFor(t, c.Connected)

	assert.False(t, called)
}
