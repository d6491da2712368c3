package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/DimonONE/TelegramCryptoAnalyst/internal/types"
	"github.com/DimonONE/TelegramCryptoAnalyst/lib/helpers"
)

// CommandPrice builds the /price reply for one symbol.
func CommandPrice(ctx context.Context, feed PriceSource, symbol string) (string, error) {
	log.Debugf("processing command /price with argument: %s", symbol)

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	snapshot, err := feed.GetPrice(ctx, symbol)
	if err != nil {
		return "", errors.Wrapf(err, "command /price %s", symbol)
	}

	return formatSnapshot(symbol, snapshot), nil
}

func formatSnapshot(symbol string, s types.PriceSnapshot) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "💰 *%s*\n\n", helpers.EscapeMarkdownV2(symbol))
	fmt.Fprintf(&sb, "*Price:* $%s\n", helpers.FormatPriceUS(s.Price, true))
	fmt.Fprintf(&sb, "24h change: %s %s \\($%s\\)\n",
		changeEmoji(s.ChangePercent24h),
		helpers.EscapeMarkdownV2(helpers.FormatPercent(s.ChangePercent24h)),
		helpers.FormatPriceUS(abs(s.Change24h), true),
	)
	fmt.Fprintf(&sb, "Volume: %s\n", helpers.EscapeMarkdownV2(helpers.FormatVolumeUS(s.Volume24h)))
	if s.High24h > 0 || s.Low24h > 0 {
		fmt.Fprintf(&sb, "High: $%s \\| Low: $%s\n",
			helpers.FormatPriceUS(s.High24h, true),
			helpers.FormatPriceUS(s.Low24h, true),
		)
	}

	return sb.String()
}

func changeEmoji(pct float64) string {
	if pct >= 0 {
		return "🟢"
	}
	return "🔴"
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
