package wallet

import (
	"net/url"
	"strings"
)

// IsTelegramURL reports whether a wallet universal link points back into
// Telegram itself (a messaging-native wallet such as t.me/wallet).
func IsTelegramURL(link string) bool {
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Host)
	return host == "t.me" || strings.HasSuffix(host, ".t.me")
}

// AddReturnStrategy appends the return-path parameter so the wallet hands
// control back to the calling chat after confirmation.
func AddReturnStrategy(link, returnURL string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return link
	}
	q := parsed.Query()
	q.Set("ret", returnURL)
	if IsTelegramURL(link) {
		q.Set("startattach", "tonconnect")
	}
	parsed.RawQuery = q.Encode()
	return parsed.String()
}
