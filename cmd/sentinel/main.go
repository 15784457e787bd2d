package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"LottoSentinel/internal/collector"
	"LottoSentinel/internal/config"
	"LottoSentinel/internal/model"
	"LottoSentinel/internal/notifier"
	"LottoSentinel/internal/recorder"
	"LottoSentinel/internal/scheduler"
	"LottoSentinel/internal/snapshot"
	"LottoSentinel/internal/sourcelog"
	"LottoSentinel/internal/status"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] LottoSentinel starting...")

	// Load config
	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init notifier
	var notify notifier.Notifier = notifier.NoopNotifier{}
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		notify = tn
	} else {
		log.Println("[INFO] telegram not configured, notifications disabled")
	}

	opts := scheduler.Options{
		MinInterval: cfg.Schedule.MinInterval,
		MaxInterval: cfg.Schedule.MaxInterval,
		Retry:       collector.RetryPolicy{MaxRetries: cfg.Schedule.MaxRetries, Delay: cfg.Schedule.RetryDelay},
		Recorder:    rec,
		Notifier:    notify,
	}

	// Init sources
	var sources []scheduler.Runner
	if cfg.StockEnabled() {
		lg, err := sourcelog.Open("stock", cfg.Stock.LogFile)
		if err != nil {
			log.Fatalf("[FATAL] open stock log: %v", err)
		}
		defer lg.Close()

		var loader collector.PageLoader
		if cfg.Stock.Render == config.RenderBrowser {
			loader = collector.NewBrowserLoader(cfg.Stock.BrowserURL, lg.Logger)
		} else {
			loader = collector.NewHTTPLoader(cfg.Proxy)
		}
		defer loader.Close()

		o := opts
		o.Logger = lg.Logger
		s, err := scheduler.New[model.StockRecord](
			collector.NewStockFetcher(cfg.Stock.URL, cfg.Stock.HeaderText, loader, lg.Logger),
			snapshot.NewStore[model.StockRecord](cfg.Stock.SnapshotFile, lg.Logger),
			model.StockPolicy, o)
		if err != nil {
			log.Fatalf("[FATAL] init stock scheduler: %v", err)
		}
		sources = append(sources, s)
	}
	if cfg.LotteryEnabled() {
		lg, err := sourcelog.Open("lottery", cfg.Lottery.LogFile)
		if err != nil {
			log.Fatalf("[FATAL] open lottery log: %v", err)
		}
		defer lg.Close()

		o := opts
		o.Logger = lg.Logger
		s, err := scheduler.New[model.LotteryRecord](
			collector.NewLotteryFetcher(cfg.Lottery.URL, cfg.Proxy, lg.Logger),
			snapshot.NewStore[model.LotteryRecord](cfg.Lottery.SnapshotFile, lg.Logger),
			model.LotteryPolicy, o)
		if err != nil {
			log.Fatalf("[FATAL] init lottery scheduler: %v", err)
		}
		sources = append(sources, s)
	}

	group := scheduler.NewGroup(sources...)
	providers := group.Providers()
	statuses := group.Statuses

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	group.Start(ctx)

	// Daily digest and Telegram commands
	if tn != nil {
		digest, err := scheduler.NewDigest(ctx, cfg.Schedule.DigestCron, tn, providers)
		if err != nil {
			log.Fatalf("[FATAL] register digest: %v", err)
		}
		digest.Start()
		defer digest.Stop()

		go tn.StartPolling(ctx, notifier.Commands(statuses))
		log.Println("[INFO] Telegram polling started")
	}

	// Optional status endpoint
	if cfg.HTTP.Addr != "" {
		srv := status.NewServer(cfg.HTTP.Addr, statuses)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Printf("[ERROR] status server: %v", err)
			}
		}()
	}

	// Interval hot reload
	go func() {
		err := config.Watch(ctx, cfgPath, func(c *config.Config) {
			group.SetIntervals(c.Schedule.MinInterval, c.Schedule.MaxInterval)
		})
		if err != nil {
			log.Printf("[WARN] config watch disabled: %v", err)
		}
	}()

	log.Println("[INFO] LottoSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	<-sigCh
	log.Println("[INFO] shutdown signal received, stopping...")

	if !group.Stop(cfg.Schedule.ShutdownTimeout) {
		log.Printf("[WARN] in-flight cycles did not finish within %v", cfg.Schedule.ShutdownTimeout)
	}
	cancel()
	log.Println("[INFO] LottoSentinel stopped")
}
