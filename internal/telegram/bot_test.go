package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseArguments(t *testing.T) {
	cases := []struct {
		args  string
		first string
		rest  string
	}{
		{"BTC", "BTC", ""},
		{"BTC 7d", "BTC", "7d"},
		{"  BTC   0.5  ", "BTC", "0.5"},
		{"BTC 50000 above", "BTC", "50000 above"},
		{"", "", ""},
		{"   ", "", ""},
	}

	for _, tc := range cases {
		first, rest := ParseArguments(tc.args)
		assert.Equal(t, tc.first, first, "args %q", tc.args)
		assert.Equal(t, tc.rest, rest, "args %q", tc.args)
	}
}

func TestSymbolKeyboardTargetsCallback(t *testing.T) {
	kb := symbolKeyboard("btc", "analyze")
	assert.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, "analyze_BTC", *kb.InlineKeyboard[0][0].CallbackData)

	kb = symbolKeyboard("ETH", "price")
	assert.Equal(t, "price_ETH", *kb.InlineKeyboard[0][0].CallbackData)
}

func TestHelpTextListsCommands(t *testing.T) {
	text := helpText()
	for _, cmd := range []string{"/price", "/analyze", "/chart", "/portfolio", "/add", "/remove", "/alert", "/alerts", "/top"} {
		assert.Contains(t, text, cmd)
	}
}
