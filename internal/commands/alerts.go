package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/DimonONE/TelegramCryptoAnalyst/internal/store"
	"github.com/DimonONE/TelegramCryptoAnalyst/internal/types"
	"github.com/DimonONE/TelegramCryptoAnalyst/lib/helpers"
	"github.com/DimonONE/TelegramCryptoAnalyst/lib/translation"
)

const alertUsage = "*Usage:* /alert <COIN> <PRICE> <above/below>\n\n*Example:* /alert BTC 50000 above"

// CommandCreateAlert parses "/alert <COIN> <PRICE> <above/below>" arguments,
// validates the symbol against the price feed and stores the alert.
func CommandCreateAlert(ctx context.Context, st store.AlertStore, feed PriceSource, chatID types.ChatID, args string) (string, error) {
	params := strings.Fields(args)
	if len(params) < 3 {
		return helpers.EscapeMarkdownV2(translation.Translate("Invalid format.")) + "\n\n" +
			helpers.EscapeMarkdownV2(alertUsage), nil
	}

	symbol := strings.ToUpper(params[0])
	targetPrice, err := strconv.ParseFloat(params[1], 64)
	if err != nil || targetPrice <= 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("Invalid price. Enter a positive number.")), nil
	}
	condition := types.Condition(strings.ToLower(params[2]))
	if !condition.Valid() {
		return helpers.EscapeMarkdownV2(translation.Translate("The condition must be either \"above\" or \"below\".")), nil
	}

	log.Debugf("creating alert for chat %d: %s %s %.8g", chatID, symbol, condition, targetPrice)

	snapshot, err := feed.GetPrice(ctx, symbol)
	if err != nil {
		return fmt.Sprintf(translation.Translate("❌ Unknown symbol: %s"), helpers.EscapeMarkdownV2(symbol)), nil
	}

	if _, err := st.CreateAlert(ctx, types.Alert{
		ChatID:      chatID,
		Symbol:      symbol,
		TargetPrice: targetPrice,
		Condition:   condition,
	}); err != nil {
		return "", errors.Wrap(err, "command /alert")
	}

	return fmt.Sprintf("✅ *%s*\n\n%s %s $%s\n\n%s: $%s\n\n%s",
		helpers.EscapeMarkdownV2(translation.Translate("Alert created!")),
		helpers.EscapeMarkdownV2(symbol),
		helpers.EscapeMarkdownV2(string(condition)),
		helpers.FormatPriceUS(targetPrice, true),
		helpers.EscapeMarkdownV2(translation.Translate("Current price")),
		helpers.FormatPriceUS(snapshot.Price, true),
		helpers.EscapeMarkdownV2(translation.Translate("You will be notified when the target is reached.")),
	), nil
}

// CommandListAlerts builds the /alerts listing for a chat, both active and
// already-triggered.
func CommandListAlerts(ctx context.Context, st store.AlertStore, chatID types.ChatID) (string, error) {
	alerts, err := st.ListAlertsByChat(ctx, chatID)
	if err != nil {
		return "", errors.Wrap(err, "command /alerts")
	}

	var sb strings.Builder
	sb.WriteString("🔔 *" + helpers.EscapeMarkdownV2(translation.Translate("Your price alerts")) + "*\n\n")

	if len(alerts) == 0 {
		sb.WriteString(helpers.EscapeMarkdownV2(translation.Translate(
			"No alerts yet.\n\nCreate one with:\n/alert <COIN> <PRICE> <above/below>\n\nExample: /alert BTC 50000 above")))
		return sb.String(), nil
	}

	for _, a := range alerts {
		status := "⏳ " + translation.Translate("active")
		if a.Triggered {
			status = "✅ " + translation.Translate("triggered")
		}
		fmt.Fprintf(&sb, "*%s* %s $%s\n%s: %s \\| %s\n\n",
			helpers.EscapeMarkdownV2(a.Symbol),
			helpers.EscapeMarkdownV2(string(a.Condition)),
			helpers.FormatPriceUS(a.TargetPrice, true),
			helpers.EscapeMarkdownV2(translation.Translate("Status")),
			helpers.EscapeMarkdownV2(status),
			helpers.EscapeMarkdownV2(helpers.FormatDate(a.CreatedAt)),
		)
	}

	return sb.String(), nil
}

// CommandRemoveAlert deletes one alert by id, restricted to its owner.
func CommandRemoveAlert(ctx context.Context, st store.AlertStore, chatID types.ChatID, id string) (string, error) {
	alerts, err := st.ListAlertsByChat(ctx, chatID)
	if err != nil {
		return "", errors.Wrap(err, "command remove alert")
	}

	for _, a := range alerts {
		if a.ID != id {
			continue
		}
		if _, err := st.RemoveAlert(ctx, id); err != nil {
			return "", errors.Wrap(err, "command remove alert")
		}
		return fmt.Sprintf(translation.Translate("✅ Alert for %s removed."), helpers.EscapeMarkdownV2(a.Symbol)), nil
	}

	return helpers.EscapeMarkdownV2(translation.Translate("Alert not found.")), nil
}
