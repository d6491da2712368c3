package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/DimonONE/TelegramCryptoAnalyst/internal/store"
	"github.com/DimonONE/TelegramCryptoAnalyst/internal/types"
	"github.com/DimonONE/TelegramCryptoAnalyst/lib/helpers"
	"github.com/DimonONE/TelegramCryptoAnalyst/lib/translation"
)

// CommandPortfolio builds the /portfolio view: each holding priced at the
// current market, plus the total. Holdings whose symbol cannot be priced
// this moment are listed without a value.
func CommandPortfolio(ctx context.Context, st store.PortfolioStore, feed PriceSource, chatID types.ChatID) (string, error) {
	holdings, err := st.ListHoldings(ctx, chatID)
	if err != nil {
		return "", errors.Wrap(err, "command /portfolio")
	}

	if len(holdings) == 0 {
		return helpers.EscapeMarkdownV2(translation.Translate(
			"Your portfolio is empty.\n\nAdd coins with:\n/add <COIN> <AMOUNT>\n\nExample: /add BTC 0.5")), nil
	}

	symbols := make([]string, 0, len(holdings))
	for _, h := range holdings {
		symbols = append(symbols, h.Symbol)
	}
	prices, err := feed.GetPrices(ctx, symbols)
	if err != nil {
		return "", errors.Wrap(err, "command /portfolio")
	}

	var (
		sb         strings.Builder
		totalValue float64
	)
	sb.WriteString("🎯 *" + helpers.EscapeMarkdownV2(translation.Translate("Your portfolio")) + "*\n\n")

	for _, h := range holdings {
		fmt.Fprintf(&sb, "*%s:* %s\n",
			helpers.EscapeMarkdownV2(h.Symbol),
			helpers.EscapeMarkdownV2(fmt.Sprintf("%.4f", h.Amount)),
		)

		snapshot, ok := prices[strings.ToUpper(h.Symbol)]
		if !ok {
			sb.WriteString("  " + helpers.EscapeMarkdownV2(translation.Translate("price unavailable")) + "\n\n")
			continue
		}

		value := h.Amount * snapshot.Price
		totalValue += value
		fmt.Fprintf(&sb, "  ≈ $%s %s %s\n\n",
			helpers.EscapeMarkdownV2(fmt.Sprintf("%.2f", value)),
			changeEmoji(snapshot.ChangePercent24h),
			helpers.EscapeMarkdownV2(helpers.FormatPercent(snapshot.ChangePercent24h)),
		)
	}

	sb.WriteString("─────────────────\n")
	fmt.Fprintf(&sb, "*%s:* $%s\n",
		helpers.EscapeMarkdownV2(translation.Translate("Total value")),
		helpers.EscapeMarkdownV2(fmt.Sprintf("%.2f", totalValue)),
	)

	return sb.String(), nil
}

// CommandAddHolding validates and stores a new holding for the chat.
func CommandAddHolding(ctx context.Context, st store.PortfolioStore, feed PriceSource, chatID types.ChatID, symbol string, amount float64) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	log.Debugf("processing command /add %s %f for chat %d", symbol, amount, chatID)

	if amount <= 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("Invalid amount. Enter a positive number.")), nil
	}

	// Pricing the symbol up front both validates it and lets the reply show
	// the current value of the new position.
	snapshot, err := feed.GetPrice(ctx, symbol)
	if err != nil {
		return fmt.Sprintf(translation.Translate("❌ Unknown symbol: %s"), helpers.EscapeMarkdownV2(symbol)), nil
	}

	if _, err := st.AddHolding(ctx, types.PortfolioHolding{
		ChatID: chatID,
		Symbol: symbol,
		Amount: amount,
	}); err != nil {
		return "", errors.Wrap(err, "command /add")
	}

	value := amount * snapshot.Price
	return fmt.Sprintf("✅ *%s*\n\n%s: %s\n≈ $%s\n\n%s",
		helpers.EscapeMarkdownV2(translation.Translate("Added to portfolio!")),
		helpers.EscapeMarkdownV2(symbol),
		helpers.EscapeMarkdownV2(fmt.Sprintf("%.4f", amount)),
		helpers.EscapeMarkdownV2(fmt.Sprintf("%.2f", value)),
		helpers.EscapeMarkdownV2(translation.Translate("Use /portfolio to see your assets.")),
	), nil
}

// CommandRemoveHolding deletes all of a symbol's holdings for the chat.
func CommandRemoveHolding(ctx context.Context, st store.PortfolioStore, chatID types.ChatID, symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	log.Debugf("processing command /remove %s for chat %d", symbol, chatID)

	removed, err := st.RemoveHolding(ctx, chatID, symbol)
	if err != nil {
		return "", errors.Wrap(err, "command /remove")
	}
	if !removed {
		return fmt.Sprintf(translation.Translate("❌ %s is not in your portfolio."), helpers.EscapeMarkdownV2(symbol)), nil
	}
	return fmt.Sprintf(translation.Translate("✅ %s removed from portfolio."), helpers.EscapeMarkdownV2(symbol)), nil
}
