package telegram

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/DimonONE/TelegramCryptoAnalyst/internal/commands"
	"github.com/DimonONE/TelegramCryptoAnalyst/internal/store"
	"github.com/DimonONE/TelegramCryptoAnalyst/internal/types"
	"github.com/DimonONE/TelegramCryptoAnalyst/lib/helpers"
	"github.com/DimonONE/TelegramCryptoAnalyst/lib/translation"
)

// NewBot creates new telegram bot
func NewBot(c BotConfig, st store.Store, feed commands.PriceSource, analyst commands.Analyst) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:     bot,
		Config:  c,
		Store:   st,
		Feed:    feed,
		Analyst: analyst,
	}, nil
}

// GetUpdatesChannel gets new updates
func (b *Bot) GetUpdatesChannel() (tgbotapi.UpdatesChannel, error) {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig), nil
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(int64(m.ChatID), m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	if m.Keyboard != nil {
		msg.ReplyMarkup = *m.Keyboard
	}
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message to chat %d", m.ChatID)
}

// SendAlert notifies a chat that its price alert fired. Satisfies the
// monitor's Notifier.
func (b *Bot) SendAlert(ctx context.Context, chatID types.ChatID, symbol string, currentPrice, targetPrice float64, condition types.Condition) error {
	direction := "🔼"
	if condition == types.ConditionBelow {
		direction = "🔽"
	}

	text := fmt.Sprintf("🚨 *%s* 🚨\n\n%s *%s* %s $%s\\!\n\n%s: $%s",
		helpers.EscapeMarkdownV2(translation.Translate("PRICE ALERT")),
		direction,
		helpers.EscapeMarkdownV2(symbol),
		helpers.EscapeMarkdownV2(fmt.Sprintf(translation.Translate("has gone %s"), condition)),
		helpers.FormatPriceUS(targetPrice, true),
		helpers.EscapeMarkdownV2(translation.Translate("Current price")),
		helpers.FormatPriceUS(currentPrice, true),
	)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 "+translation.Translate("Analyze"), "analyze_"+symbol),
			tgbotapi.NewInlineKeyboardButtonData("💰 "+translation.Translate("Price"), "price_"+symbol),
		),
	)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return b.SendMessage(Message{ChatID: chatID, Text: text, Keyboard: &keyboard})
}

// ParseArguments splits command arguments into the first token and the rest.
func ParseArguments(args string) (string, string) {
	re := regexp.MustCompile(`^(\S+)\s*(.+)?$`)
	matches := re.FindStringSubmatch(strings.TrimSpace(args))

	if len(matches) >= 2 {
		first := matches[1]
		rest := ""
		if len(matches) == 3 {
			rest = strings.TrimSpace(matches[2])
		}
		return first, rest
	}
	return "", ""
}

// HandleUpdate processes Telegram updates
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	if u.CallbackQuery != nil {
		b.HandleCallbackQuery(ctx, u.CallbackQuery)
		return
	}
	if u.Message == nil {
		return
	}

	chatID := types.ChatID(u.Message.Chat.ID)
	log.Debugf("received command: %s", u.Message.Command())

	var (
		text     string
		keyboard *tgbotapi.InlineKeyboardMarkup
		err      error
	)

	switch u.Message.Command() {
	case "start":
		text = b.welcomeText(u.Message.From.FirstName)
		keyboard = mainMenuKeyboard()
	case "help":
		text = helpText()
		keyboard = mainMenuKeyboard()
	case "price":
		symbol, _ := ParseArguments(u.Message.CommandArguments())
		if symbol == "" {
			text = helpers.EscapeMarkdownV2(translation.Translate("Usage: /price <COIN>\n\nExample: /price BTC"))
			break
		}
		if text, err = commands.CommandPrice(ctx, b.Feed, symbol); err != nil {
			text = helpers.EscapeMarkdownV2(translation.Translate("Coin not found"))
			log.Error(err)
			break
		}
		keyboard = symbolKeyboard(symbol, "analyze")
	case "analyze":
		symbol, _ := ParseArguments(u.Message.CommandArguments())
		if symbol == "" {
			text = helpers.EscapeMarkdownV2(translation.Translate("Usage: /analyze <COIN>\n\nExample: /analyze BTC"))
			break
		}
		if text, err = commands.CommandAnalyze(ctx, b.Feed, b.Analyst, symbol); err != nil {
			text = helpers.EscapeMarkdownV2(translation.Translate("Coin not found"))
			log.Error(err)
			break
		}
		keyboard = symbolKeyboard(symbol, "price")
	case "portfolio":
		if text, err = commands.CommandPortfolio(ctx, b.Store, b.Feed, chatID); err != nil {
			text = helpers.EscapeMarkdownV2(translation.Translate("Could not load your portfolio. Please try again later."))
			log.Error(err)
		}
	case "add":
		symbol, amountArg := ParseArguments(u.Message.CommandArguments())
		if symbol == "" || amountArg == "" {
			text = helpers.EscapeMarkdownV2(translation.Translate("Usage: /add <COIN> <AMOUNT>\n\nExample: /add BTC 0.5"))
			break
		}
		amount, parseErr := strconv.ParseFloat(amountArg, 64)
		if parseErr != nil {
			text = helpers.EscapeMarkdownV2(translation.Translate("Invalid amount. Enter a positive number."))
			break
		}
		if text, err = commands.CommandAddHolding(ctx, b.Store, b.Feed, chatID, symbol, amount); err != nil {
			text = helpers.EscapeMarkdownV2(translation.Translate("Could not update your portfolio. Please try again later."))
			log.Error(err)
		}
	case "remove":
		symbol, _ := ParseArguments(u.Message.CommandArguments())
		if symbol == "" {
			text = helpers.EscapeMarkdownV2(translation.Translate("Usage: /remove <COIN>\n\nExample: /remove BTC"))
			break
		}
		if text, err = commands.CommandRemoveHolding(ctx, b.Store, chatID, symbol); err != nil {
			text = helpers.EscapeMarkdownV2(translation.Translate("Could not update your portfolio. Please try again later."))
			log.Error(err)
		}
	case "alert":
		if text, err = commands.CommandCreateAlert(ctx, b.Store, b.Feed, chatID, u.Message.CommandArguments()); err != nil {
			text = helpers.EscapeMarkdownV2(translation.Translate("Could not save the alert. Please try again later."))
			log.Error(err)
		}
	case "alerts":
		text, keyboard, err = b.alertListing(ctx, chatID)
		if err != nil {
			text = helpers.EscapeMarkdownV2(translation.Translate("Could not load your alerts. Please try again later."))
			log.Error(err)
		}
	case "top":
		mode, _ := ParseArguments(u.Message.CommandArguments())
		if strings.EqualFold(mode, "losers") {
			text, err = commands.CommandTopLosers(ctx, b.Feed)
		} else {
			text, err = commands.CommandTopGainers(ctx, b.Feed)
		}
		if err != nil {
			text = helpers.EscapeMarkdownV2(translation.Translate("Market data is unavailable right now."))
			log.Error(err)
			break
		}
		keyboard = topKeyboard()
	case "chart":
		symbol, timeRange := ParseArguments(u.Message.CommandArguments())
		if symbol == "" {
			text = helpers.EscapeMarkdownV2(translation.Translate("Usage: /chart <COIN> [24h|7d]\n\nExample: /chart BTC 7d"))
			break
		}
		chartData, caption, chartErr := commands.CommandChart(ctx, b.Feed, symbol, timeRange)
		if chartErr != nil {
			text = helpers.EscapeMarkdownV2(translation.Translate("Coin not found"))
			log.Error(chartErr)
			break
		}
		photo := tgbotapi.NewPhoto(int64(chatID), tgbotapi.FileBytes{
			Name:  "chart.png",
			Bytes: chartData,
		})
		photo.Caption = caption
		photo.ParseMode = "MarkdownV2"
		photo.ReplyToMessageID = u.Message.MessageID
		if _, err = b.Bot.Send(photo); err != nil {
			log.Error("error sending chart:", err)
		}
		return
	default:
		text = helpText()
		keyboard = mainMenuKeyboard()
	}

	if text == "" {
		return
	}
	if err := b.SendMessage(Message{
		ChatID:    chatID,
		MessageID: u.Message.MessageID,
		Text:      text,
		Keyboard:  keyboard,
	}); err != nil {
		log.Error(err)
	}
}

// HandleCallbackQuery processes inline keyboard button presses.
func (b *Bot) HandleCallbackQuery(ctx context.Context, callbackQuery *tgbotapi.CallbackQuery) {
	data := callbackQuery.Data
	chatID := types.ChatID(callbackQuery.Message.Chat.ID)
	log.Debugf("received callback: %s", data)

	var (
		text     string
		keyboard *tgbotapi.InlineKeyboardMarkup
		err      error
	)

	switch {
	case strings.HasPrefix(data, "price_"):
		symbol := strings.TrimPrefix(data, "price_")
		if text, err = commands.CommandPrice(ctx, b.Feed, symbol); err == nil {
			keyboard = symbolKeyboard(symbol, "analyze")
		}
	case strings.HasPrefix(data, "analyze_"):
		symbol := strings.TrimPrefix(data, "analyze_")
		if text, err = commands.CommandAnalyze(ctx, b.Feed, b.Analyst, symbol); err == nil {
			keyboard = symbolKeyboard(symbol, "price")
		}
	case data == "portfolio":
		text, err = commands.CommandPortfolio(ctx, b.Store, b.Feed, chatID)
	case data == "alerts":
		text, keyboard, err = b.alertListing(ctx, chatID)
	case data == "top_gainers":
		if text, err = commands.CommandTopGainers(ctx, b.Feed); err == nil {
			keyboard = topKeyboard()
		}
	case data == "top_losers":
		if text, err = commands.CommandTopLosers(ctx, b.Feed); err == nil {
			keyboard = topKeyboard()
		}
	case strings.HasPrefix(data, "remove_alert_"):
		id := strings.TrimPrefix(data, "remove_alert_")
		text, err = commands.CommandRemoveAlert(ctx, b.Store, chatID, id)
	case data == "help":
		text = helpText()
		keyboard = mainMenuKeyboard()
	default:
		if _, err := b.Bot.Request(tgbotapi.NewCallback(callbackQuery.ID, translation.Translate("Unknown action. Please try again."))); err != nil {
			log.Error(err)
		}
		return
	}

	if err != nil {
		log.Error(err)
		text = helpers.EscapeMarkdownV2(translation.Translate("Something went wrong. Please try again later."))
	}

	if _, err := b.Bot.Request(tgbotapi.NewCallback(callbackQuery.ID, "")); err != nil {
		log.Error(err)
	}
	if err := b.SendMessage(Message{ChatID: chatID, Text: text, Keyboard: keyboard}); err != nil {
		log.Error(err)
	}
}

func (b *Bot) alertListing(ctx context.Context, chatID types.ChatID) (string, *tgbotapi.InlineKeyboardMarkup, error) {
	text, err := commands.CommandListAlerts(ctx, b.Store, chatID)
	if err != nil {
		return "", nil, err
	}

	alerts, err := b.Store.ListAlertsByChat(ctx, chatID)
	if err != nil {
		return "", nil, err
	}

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, a := range alerts {
		if a.Triggered {
			continue
		}
		label := fmt.Sprintf("🗑 %s %s %s", a.Symbol, a.Condition, strconv.FormatFloat(a.TargetPrice, 'f', -1, 64))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "remove_alert_"+a.ID),
		))
	}
	if len(buttons) == 0 {
		return text, nil, nil
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(buttons...)
	return text, &keyboard, nil
}

func (b *Bot) welcomeText(firstName string) string {
	greeting := translation.Translate("Hi")
	if firstName != "" {
		greeting = fmt.Sprintf("%s, %s", greeting, firstName)
	}
	return fmt.Sprintf("👋 %s\\!\n\n%s\n\n%s",
		helpers.EscapeMarkdownV2(greeting),
		helpers.EscapeMarkdownV2(translation.Translate("I am your crypto assistant: live prices, AI analysis, portfolio tracking and price alerts.")),
		helpText(),
	)
}

func helpText() string {
	return helpers.EscapeMarkdownV2(translation.Translate(`Available commands:

/price <COIN> - current price and 24h stats
/analyze <COIN> - AI market analysis
/chart <COIN> [24h|7d] - price chart
/portfolio - your holdings
/add <COIN> <AMOUNT> - add to portfolio
/remove <COIN> - remove from portfolio
/alert <COIN> <PRICE> <above/below> - price alert
/alerts - your alerts
/top [gainers|losers] - 24h market movers`))
}

func mainMenuKeyboard() *tgbotapi.InlineKeyboardMarkup {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 BTC", "price_BTC"),
			tgbotapi.NewInlineKeyboardButtonData("📊 "+translation.Translate("Analyze BTC"), "analyze_BTC"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 "+translation.Translate("Portfolio"), "portfolio"),
			tgbotapi.NewInlineKeyboardButtonData("🔔 "+translation.Translate("Alerts"), "alerts"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📈 "+translation.Translate("Gainers"), "top_gainers"),
			tgbotapi.NewInlineKeyboardButtonData("📉 "+translation.Translate("Losers"), "top_losers"),
		),
	)
	return &keyboard
}

func symbolKeyboard(symbol, action string) *tgbotapi.InlineKeyboardMarkup {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	label := "💰 " + translation.Translate("Price")
	if action == "analyze" {
		label = "📊 " + translation.Translate("Analyze")
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, action+"_"+symbol),
		),
	)
	return &keyboard
}

func topKeyboard() *tgbotapi.InlineKeyboardMarkup {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📈 "+translation.Translate("Gainers"), "top_gainers"),
			tgbotapi.NewInlineKeyboardButtonData("📉 "+translation.Translate("Losers"), "top_losers"),
		),
	)
	return &keyboard
}
