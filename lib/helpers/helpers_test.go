package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, `BTC \(above\) $50,000\.50`, EscapeMarkdownV2("BTC (above) $50,000.50"))
	assert.Equal(t, `a\-b\_c\*d`, EscapeMarkdownV2("a-b_c*d"))
}

func TestFormatPriceUS(t *testing.T) {
	assert.Equal(t, "50,000", FormatPriceUS(50000, false))
	assert.Equal(t, "2.50", FormatPriceUS(2.5, false))
	assert.Equal(t, "0.000500", FormatPriceUS(0.0005, false))
	assert.Equal(t, "0.00000012", FormatPriceUS(0.00000012, false))
	assert.Equal(t, `50,000`, FormatPriceUS(50000, true))
	assert.Equal(t, `2\.50`, FormatPriceUS(2.5, true))
}

func TestFormatVolumeUS(t *testing.T) {
	assert.Equal(t, "$1.50B", FormatVolumeUS(1_500_000_000))
	assert.Equal(t, "$2.25M", FormatVolumeUS(2_250_000))
	assert.Equal(t, "$3.00K", FormatVolumeUS(3_000))
	assert.Equal(t, "$12.34", FormatVolumeUS(12.34))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+2.44%", FormatPercent(2.44))
	assert.Equal(t, "-9.50%", FormatPercent(-9.5))
	assert.Equal(t, "+0.00%", FormatPercent(0))
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2025, time.March, 9, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "09 Mar 2025 14:30", FormatDate(ts))
}
