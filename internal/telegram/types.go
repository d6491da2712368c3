package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/DimonONE/TelegramCryptoAnalyst/internal/commands"
	"github.com/DimonONE/TelegramCryptoAnalyst/internal/store"
	"github.com/DimonONE/TelegramCryptoAnalyst/internal/types"
)

// BotConfig configuration of the bot
type BotConfig struct {
	Token          string
	Debug          bool
	UpdatesTimeout int
}

// Bot telegram interaction client
type Bot struct {
	Bot     *tgbotapi.BotAPI
	Config  BotConfig
	Store   store.Store
	Feed    commands.PriceSource
	Analyst commands.Analyst
}

// Message a telegram message struct
type Message struct {
	ChatID    types.ChatID
	MessageID int
	Text      string
	Keyboard  *tgbotapi.InlineKeyboardMarkup
}
