package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"HorizonTrader/internal/account"
	"HorizonTrader/internal/cache"
	"HorizonTrader/internal/calculator"
	"HorizonTrader/internal/collector"
	"HorizonTrader/internal/config"
	"HorizonTrader/internal/exchange"
	"HorizonTrader/internal/executor"
	"HorizonTrader/internal/ledger"
	"HorizonTrader/internal/metrics"
	"HorizonTrader/internal/model"
	"HorizonTrader/internal/notifier"
	"HorizonTrader/internal/recorder"
	"HorizonTrader/internal/scheduler"
	"HorizonTrader/internal/server"
	"HorizonTrader/internal/stats"
	"HorizonTrader/internal/strategy"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	exitOK              = 0
	exitStopCondition   = 1
	exitMonitoringStart = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] HorizonTrader starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	if cfg.Log.File != "" {
		lw := newLogWriter(cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups)
		defer lw.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, lw))
	}
	thresholds, err := cfg.Thresholds()
	if err != nil {
		log.Fatalf("[FATAL] thresholds: %v", err)
	}
	symbols := cfg.Trading.Symbols

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Exchange
	ex := exchange.NewClient(cfg.Binance.APIKey, cfg.Binance.SecretKey, cfg.Binance.Testnet)
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer bootCancel()
	if err := ex.Ping(bootCtx); err != nil {
		log.Fatalf("[FATAL] binance ping: %v", err)
	}

	// Durable state
	prices, err := ledger.OpenPriceLedger(cfg.Storage.PriceFile)
	if err != nil {
		log.Fatalf("[FATAL] open price ledger: %v", err)
	}
	initial, err := collector.FetchPrices(bootCtx, ex, symbols)
	if err != nil {
		log.Fatalf("[FATAL] fetch initial prices: %v", err)
	}
	if err := prices.Seed(initial); err != nil {
		log.Fatalf("[FATAL] save initial prices: %v", err)
	}
	balances, err := ledger.OpenBalanceLedger(cfg.Storage.BalanceFile, model.Balances(cfg.Trading.InitialBalances))
	if err != nil {
		log.Fatalf("[FATAL] open balance ledger: %v", err)
	}
	m.SetBalances(balances.Snapshot())
	log.Printf("[INFO] traded asset amounts at beginning: %v", balances.Snapshot())

	// Init recorder
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Storage.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Storage.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		} else {
			rec = sr
		}
	}
	defer rec.Close()

	// Init notifier
	var notify, report notifier.Notifier = notifier.Noop{}, notifier.Noop{}
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		notify = tn
		report = notifier.Retrying{TelegramNotifier: tn, MaxRetries: 3}
	}

	// Init evaluation cache
	var pub cache.Publisher = cache.Noop{}
	if cfg.Redis.URL != "" {
		rp, err := cache.NewRedisPublisher(bootCtx, cfg.Redis.URL)
		if err != nil {
			log.Printf("[WARN] init redis publisher failed, evaluations not published: %v", err)
		} else {
			pub = rp
		}
	}
	defer pub.Close()

	acc := account.New(ex, cfg.Account.Assets, cfg.Account.WalletBalances, cfg.Account.Investment)
	reportAccount(bootCtx, acc, report)

	// Context for graceful shutdown. The cause tells how the trader stopped.
	ctx, halt := context.WithCancelCause(context.Background())
	defer halt(nil)

	store := stats.NewStore()
	queue := executor.NewQueue(cfg.Trading.QueueSize, m)
	exec := executor.New(queue, ex, balances, rec, notify, m)
	execDone := make(chan struct{})
	go func() {
		defer close(execDone)
		// queued orders still go out after shutdown starts
		exec.Run(context.WithoutCancel(ctx))
	}()

	stop := strategy.StopCondition{InitialInvestment: cfg.Trading.InitialInvestment, Symbols: symbols}
	engine := strategy.NewEngine(thresholds, stop, balances, queue, m)
	sched := scheduler.NewScheduler(ctx, halt, symbols, store, prices, engine, rec, pub, m)
	sched.Start()

	mon := collector.NewMonitor(symbols, store, m)
	go func() {
		if err := mon.Run(ctx); err != nil {
			log.Printf("[ERROR] %v", err)
			halt(err)
		}
	}()

	if tn != nil {
		cmds := &notifier.Commands{
			Balances: balances.Snapshot,
			Stats:    func() ([]string, map[string]model.AssetStat) { return store.Symbols(), store.Snapshot() },
			Evaluate: sched.RunNow,
		}
		go tn.StartPolling(ctx, cmds.Handle)
		log.Println("[INFO] Telegram polling started")
	}

	router := server.NewRouter(server.Sources{
		Balances:  balances.Snapshot,
		Stats:     store.Snapshot,
		Stat:      store.Get,
		Baselines: prices.Baselines,
		Gatherer:  reg,
	})
	go func() {
		if err := server.Run(ctx, cfg.HTTP.Addr, router); err != nil {
			log.Printf("[ERROR] %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Println("[INFO] shutdown signal received, stopping...")
			halt(nil)
		case <-ctx.Done():
		}
	}()

	log.Println("[INFO] HorizonTrader is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	cause := context.Cause(ctx)

	sched.Stop()
	queue.Close()
	<-execDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	code := exitOK
	switch {
	case errors.Is(cause, strategy.ErrStopConditionReached):
		code = exitStopCondition
		reportStop(shutdownCtx, cfg.Trading.InitialInvestment, symbols, balances.Snapshot(), store.Snapshot(), rec, report)
	case errors.Is(cause, collector.ErrMonitoringStart):
		code = exitMonitoringStart
	}

	reportAccount(shutdownCtx, acc, report)
	log.Printf("[INFO] HorizonTrader stopped (%v)", cause)
	return code
}

// newLogWriter returns a size-rotated log file. The directory is created on first write.
func newLogWriter(path string, maxSizeMB, maxBackups int) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}
}

func reportAccount(ctx context.Context, acc *account.Account, n notifier.Notifier) {
	summary, err := acc.Summary(ctx)
	if err != nil {
		log.Printf("[WARN] account summary: %v", err)
		return
	}
	log.Printf("[INFO] account total: %.2f USDT, benefit: %.2f USDT", summary.Total, summary.Benefit())
	n.Notify(ctx, notifier.FormatAccountSummary(summary))
}

func reportStop(ctx context.Context, investment float64, symbols []string, balances model.Balances, snapshot map[string]model.AssetStat, rec recorder.Recorder, n notifier.Notifier) {
	valuation := calculator.Valuation(balances, snapshot, symbols)
	log.Printf("[WARN] stop trading and exit! valuation %.4f USDT", valuation)
	if err := rec.RecordStop(&recorder.StopEvent{
		Valuation:         valuation,
		InitialInvestment: investment,
		Balances:          balances,
	}); err != nil {
		log.Printf("[ERROR] record stop: %v", err)
	}
	n.Notify(ctx, notifier.FormatStop(valuation, investment, balances))
}
