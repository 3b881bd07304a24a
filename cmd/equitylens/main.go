package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"EquityLens/internal/analytics"
	"EquityLens/internal/api"
	"EquityLens/internal/calculator"
	"EquityLens/internal/collector"
	"EquityLens/internal/config"
	"EquityLens/internal/dashboard"
	"EquityLens/internal/logger"
	"EquityLens/internal/model"
	"EquityLens/internal/notifier"
	"EquityLens/internal/scheduler"
)

var plainText = strings.NewReplacer("<b>", "", "</b>", "", "&lt;", "<", "&gt;", ">", "&amp;", "&", "&#34;", `"`, "&#39;", "'")

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to the YAML config file")
	report := flag.Bool("report", false, "print the summary once and exit")
	flag.Parse()

	// Load config
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	logger.Init(cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config validation: %v", err)
	}
	logger.Infof("EquityLens starting...")

	// Init fetcher: local paths under DataDir, http(s) locations over the network
	fetcher := &collector.RoutingFetcher{
		File: &collector.FileFetcher{BaseDir: cfg.Sources.DataDir},
		HTTP: collector.NewHTTPFetcher(cfg.Sources.BaseURL, cfg.Sources.APIKey, cfg.Proxy, cfg.Sources.Timeout),
	}
	col := collector.NewCollector(fetcher, collectorSources(cfg))

	anchor, ok := calculator.ParseIsoDate(cfg.Analytics.MCAnchor)
	if !ok {
		logger.Fatalf("invalid mc_anchor %q", cfg.Analytics.MCAnchor)
	}
	mgr := dashboard.NewManager(col, dashboard.Options{
		PerformanceStart: cfg.Analytics.PerformanceStart,
		MCAnchor:         anchor,
		Defaults:         cfg.DefaultSettings(),
	})

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mgr.Reload(ctx); err != nil {
		if errors.Is(err, collector.ErrNoBacktestData) {
			logger.Fatalf("initial load: %v", err)
		}
		logger.Errorf("initial load: %v", err)
	}

	if *report {
		printReport(mgr)
		return
	}

	// Init Telegram notifier
	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, mgr, sender)
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.DigestCron); err != nil {
		logger.Fatalf("register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Infof("Telegram polling started")
	}

	// HTTP API
	srv := api.NewServer(mgr, cfg.Server.Addr)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Errorf("API server: %v", err)
			cancel()
		}
	}()

	logger.Infof("EquityLens is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		logger.Infof("shutdown signal received, stopping...")
	case <-ctx.Done():
	}

	if err := srv.Shutdown(); err != nil {
		logger.Warnf("API server shutdown: %v", err)
	}
	cancel()
	logger.Infof("EquityLens stopped")
}

func collectorSources(cfg *config.Config) collector.Sources {
	src := collector.Sources{
		MCStats:       cfg.Sources.MonteCarlo.Stats,
		MCPaths:       cfg.Sources.MonteCarlo.Paths,
		MCPercentiles: cfg.Sources.MonteCarlo.Percentiles,
	}
	for _, s := range cfg.Sources.Strategies {
		src.Backtests = append(src.Backtests, collector.Source{
			ID:         s.ID,
			Label:      s.Label,
			Location:   s.File,
			PnLColumns: s.PnLColumns,
		})
	}
	return src
}

func printReport(mgr *dashboard.Manager) {
	snap, err := mgr.Snapshot()
	if err != nil {
		logger.Fatalf("report: %v", err)
	}
	for _, res := range snap.Backtests {
		fmt.Println(plainText.Replace(notifier.FormatSummary(res, analytics.ComputeKPIs(res))))
		fmt.Println(plainText.Replace(notifier.FormatMonthlyMatrix(analytics.MonthlyMatrix(res.MonthlyReturns))))
	}
	var ps *model.PathStats
	if stats, err := mgr.PathStats("", "", ""); err == nil {
		ps = &stats
	}
	fmt.Println(plainText.Replace(notifier.FormatMCSummary(snap.MCSummary, ps)))
}
