package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"

	"github.com/DimonONE/TelegramCryptoAnalyst/config"
	"github.com/DimonONE/TelegramCryptoAnalyst/internal/analyst"
	"github.com/DimonONE/TelegramCryptoAnalyst/internal/monitor"
	"github.com/DimonONE/TelegramCryptoAnalyst/internal/pricefeed"
	"github.com/DimonONE/TelegramCryptoAnalyst/internal/store"
	"github.com/DimonONE/TelegramCryptoAnalyst/internal/telegram"
	"github.com/DimonONE/TelegramCryptoAnalyst/lib/translation"
)

type BotMetrics struct {
	CommandsProcessed prometheus.Counter
	MessagesHandled   prometheus.Counter
	Monitor           *monitor.Metrics
}

var metrics = NewBotMetrics()

func init() {
	config.InitConfig()
	setupLogging()
}

func NewBotMetrics() *BotMetrics {
	metrics := &BotMetrics{
		CommandsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptoanalyst",
			Subsystem: "telegram_bot",
			Name:      "commands_processed",
			Help:      "The total number of processed commands",
		}),
		MessagesHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptoanalyst",
			Subsystem: "telegram_bot",
			Name:      "messages_handled",
			Help:      "The total number of handled messages",
		}),
		Monitor: monitor.NewMetrics(),
	}

	prometheus.MustRegister(metrics.CommandsProcessed)
	prometheus.MustRegister(metrics.MessagesHandled)
	prometheus.MustRegister(metrics.Monitor.Collectors()...)

	return metrics
}

func main() {
	translation.Configure("locales", config.GetString("lang"))

	st, err := openStore(config.GetString("database_path"))
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	loadMetrics(st)

	feed := pricefeed.New(
		config.GetString("binance_api_key"),
		config.GetString("binance_secret_key"),
	)

	ai, err := analyst.New(context.Background(), config.GetString("gemini_api_key"))
	if err != nil {
		log.Fatalf("Failed to create analyst: %v", err)
	}

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          config.GetString("telegram_bot_token"),
		Debug:          config.GetBool("debug"),
		UpdatesTimeout: 60,
	}, st, feed, ai)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	interval := config.GetDuration("alert_interval")
	if interval <= 0 {
		interval = monitor.DefaultInterval
	}
	alertMonitor := monitor.New(interval, st, feed, bot, metrics.Monitor)
	if err := alertMonitor.Start(); err != nil {
		log.Fatalf("Failed to start alert monitor: %v", err)
	}

	updates, err := bot.GetUpdatesChannel()
	if err != nil {
		log.Fatalf("Failed to get updates channel: %v", err)
	}

	go handleUpdates(bot, updates)

	go func() {
		for {
			time.Sleep(5 * time.Minute)
			saveMetrics(st)
		}
	}()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		alertMonitor.Stop()
		saveMetrics(st)
		st.Close()
		log.Println("Metrics saved, shutting down...")
		os.Exit(0)
	}()

	if err := launchMetricsAndHealthServer(config.GetInt("metrics_port")); err != nil {
		log.Fatalf("Failed to start metrics and health server: %v", err)
	}
}

func setupLogging() {
	log.SetLevel(log.ErrorLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting telegram bot...")
}

// openStore selects the persistence backend. ":memory:" keeps everything in
// process, any other value is a SQLite database path.
func openStore(path string) (store.Store, error) {
	if path == ":memory:" {
		return store.NewMemory(), nil
	}
	return store.OpenSQLite(path)
}

func handleUpdates(bot *telegram.Bot, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.CallbackQuery == nil && (update.Message == nil || !update.Message.IsCommand()) {
			log.Debug("Received non-message or non-command")
			continue
		}

		metrics.MessagesHandled.Inc()
		handleCommand(bot, update)
	}
}

func handleCommand(bot *telegram.Bot, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	bot.HandleUpdate(context.Background(), update)
	metrics.CommandsProcessed.Inc()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(port int) error {
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", healthCheckHandler)

	log.Infof("Launching metrics and health endpoint on :%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), http.DefaultServeMux)
}

func loadMetrics(st store.MetricStore) {
	ctx := context.Background()

	commandsProcessed, _ := st.GetMetric(ctx, "commands_processed")
	messagesHandled, _ := st.GetMetric(ctx, "messages_handled")
	checksRun, _ := st.GetMetric(ctx, "alert_checks_run")
	alertsTriggered, _ := st.GetMetric(ctx, "alerts_triggered")

	metrics.CommandsProcessed.Add(commandsProcessed)
	metrics.MessagesHandled.Add(messagesHandled)
	metrics.Monitor.ChecksRun.Add(checksRun)
	metrics.Monitor.AlertsTriggered.Add(alertsTriggered)

	log.Println("Metrics loaded from database.")
}

func saveMetrics(st store.MetricStore) {
	ctx := context.Background()

	st.SaveMetric(ctx, "commands_processed", getMetricValue(metrics.CommandsProcessed))
	st.SaveMetric(ctx, "messages_handled", getMetricValue(metrics.MessagesHandled))
	st.SaveMetric(ctx, "alert_checks_run", getMetricValue(metrics.Monitor.ChecksRun))
	st.SaveMetric(ctx, "alerts_triggered", getMetricValue(metrics.Monitor.AlertsTriggered))

	log.Println("Metrics saved to database.")
}

func getMetricValue(metric prometheus.Collector) float64 {
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Printf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		return metricProto.Counter.GetValue()
	}
	if metricProto.Gauge != nil {
		return metricProto.Gauge.GetValue()
	}
	return 0
}
