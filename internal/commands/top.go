package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/DimonONE/TelegramCryptoAnalyst/internal/types"
	"github.com/DimonONE/TelegramCryptoAnalyst/lib/helpers"
	"github.com/DimonONE/TelegramCryptoAnalyst/lib/translation"
)

const topListSize = 10

// CommandTopGainers builds the 24h top gainers listing.
func CommandTopGainers(ctx context.Context, feed PriceSource) (string, error) {
	log.Debug("processing command /top gainers")

	gainers, err := feed.TopGainers(ctx, topListSize)
	if err != nil {
		return "", errors.Wrap(err, "command /top gainers")
	}
	return formatTopList("📈 *TOP GAINERS \\(24h\\)*", gainers), nil
}

// CommandTopLosers builds the 24h top losers listing.
func CommandTopLosers(ctx context.Context, feed PriceSource) (string, error) {
	log.Debug("processing command /top losers")

	losers, err := feed.TopLosers(ctx, topListSize)
	if err != nil {
		return "", errors.Wrap(err, "command /top losers")
	}
	return formatTopList("📉 *TOP LOSERS \\(24h\\)*", losers), nil
}

func formatTopList(header string, coins []types.TopCoin) string {
	if len(coins) == 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("No market movers right now."))
	}

	var sb strings.Builder
	sb.WriteString(header + "\n\n")
	for i, coin := range coins {
		fmt.Fprintf(&sb, "%d\\. *%s* $%s\n   %s %s\n\n",
			i+1,
			helpers.EscapeMarkdownV2(coin.Symbol),
			helpers.FormatPriceUS(coin.Price, true),
			changeEmoji(coin.ChangePercent24h),
			helpers.EscapeMarkdownV2(helpers.FormatPercent(coin.ChangePercent24h)),
		)
	}
	return sb.String()
}
