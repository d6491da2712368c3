package helpers

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func EscapeMarkdownV2(text string) string {
	charactersToEscape := []string{".", "-", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "=", "|", "{", "}", "!"}

	for _, char := range charactersToEscape {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

// FormatPriceUS formats a price with US separators and magnitude-dependent
// precision: whole dollars above 1000, more decimals the smaller the price.
func FormatPriceUS(price float64, escapeMarkdown bool) string {
	decimals := 6

	if price >= 1000 {
		decimals = 0
	} else if price > 1.2 {
		decimals = 2
	} else if price < 0.00001 {
		decimals = 8
	}

	p := message.NewPrinter(language.English)
	formatted := p.Sprintf("%.*f", decimals, price)

	if escapeMarkdown {
		return EscapeMarkdownV2(formatted)
	}
	return formatted
}

// FormatVolumeUS renders a 24h volume as $1.23B / $45.60M / $789.00K,
// falling back to a plain dollar amount below a thousand.
func FormatVolumeUS(volume float64) string {
	switch {
	case volume >= 1_000_000_000:
		return fmt.Sprintf("$%.2fB", volume/1_000_000_000)
	case volume >= 1_000_000:
		return fmt.Sprintf("$%.2fM", volume/1_000_000)
	case volume >= 1_000:
		return fmt.Sprintf("$%.2fK", volume/1_000)
	}
	return "$" + humanize.FtoaWithDigits(volume, 2)
}

// FormatPercent renders a signed 24h change, e.g. "+2.44%" or "-9.50%".
func FormatPercent(pct float64) string {
	sign := ""
	if pct >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, pct)
}

// FormatDate renders a timestamp for alert listings.
func FormatDate(t time.Time) string {
	return t.UTC().Format("02 Jan 2006 15:04")
}
