package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/DimonONE/TelegramCryptoAnalyst/internal/analyst"
	"github.com/DimonONE/TelegramCryptoAnalyst/lib/helpers"
)

// CommandAnalyze builds the /analyze reply: the price block followed by the
// AI assessment.
func CommandAnalyze(ctx context.Context, feed PriceSource, ai Analyst, symbol string) (string, error) {
	log.Debugf("processing command /analyze with argument: %s", symbol)

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	snapshot, err := feed.GetPrice(ctx, symbol)
	if err != nil {
		return "", errors.Wrapf(err, "command /analyze %s", symbol)
	}

	analysis := ai.AnalyzeSymbol(ctx, symbol, snapshot)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *%s ANALYSIS*\n\n", helpers.EscapeMarkdownV2(symbol))
	sb.WriteString(formatSnapshot(symbol, snapshot))
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "%s *AI Analysis*\n%s\n\n", sentimentEmoji(analysis.Sentiment), helpers.EscapeMarkdownV2(analysis.Summary))

	if len(analysis.KeyPoints) > 0 {
		sb.WriteString("*Key points:*\n")
		for _, point := range analysis.KeyPoints {
			fmt.Fprintf(&sb, "• %s\n", helpers.EscapeMarkdownV2(point))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "💡 *Recommendation:*\n%s\n", helpers.EscapeMarkdownV2(analysis.Recommendation))

	return sb.String(), nil
}

func sentimentEmoji(s analyst.Sentiment) string {
	switch s {
	case analyst.SentimentBullish:
		return "📈"
	case analyst.SentimentBearish:
		return "📉"
	}
	return "➡️"
}
