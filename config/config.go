package config

import (
	"sync"
	"time"

	"github.com/spf13/viper"
	str2duration "github.com/xhit/go-str2duration/v2"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("gemini_api_key", "GEMINI_API_KEY")
		viper.BindEnv("binance_api_key", "BINANCE_API_KEY")
		viper.BindEnv("binance_secret_key", "BINANCE_SECRET_KEY")
		viper.BindEnv("database_path", "DATABASE_PATH")
		viper.BindEnv("alert_interval", "ALERT_INTERVAL")
		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")

		viper.SetDefault("database_path", "data/bot.db")
		viper.SetDefault("alert_interval", "2m")
		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

// GetDuration parses values like "2m", "90s" or "1h30m"; a value that does
// not parse yields zero so callers can fall back to their default.
func GetDuration(key string) time.Duration {
	InitConfig()
	d, err := str2duration.ParseDuration(viper.GetString(key))
	if err != nil {
		return 0
	}
	return d
}
