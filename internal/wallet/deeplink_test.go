package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTelegramURL(t *testing.T) {
	assert.True(t, IsTelegramURL("https://t.me/wallet"))
	assert.True(t, IsTelegramURL("https://sub.t.me/wallet"))
	assert.False(t, IsTelegramURL("https://app.tonkeeper.com/ton-connect"))
	assert.False(t, IsTelegramURL("not a url at all://"))
}

func TestAddReturnStrategy(t *testing.T) {
	out := AddReturnStrategy("https://t.me/wallet?attach=wallet", "https://t.me/quizbot")
	assert.Contains(t, out, "ret=https%3A%2F%2Ft.me%2Fquizbot")
	assert.Contains(t, out, "startattach=tonconnect")
	assert.Contains(t, out, "attach=wallet")

	// non-telegram wallets only get the return path
	out = AddReturnStrategy("https://app.tonkeeper.com/transfer", "https://t.me/quizbot")
	assert.Contains(t, out, "ret=")
	assert.NotContains(t, out, "startattach")
}
