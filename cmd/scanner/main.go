package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/api"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/cache"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/collector"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/config"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/logger"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/metrics"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/notifier"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/scanner"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/scheduler"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/strategy"
)

func main() {
	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	configPath := flag.String("config", defaultConfig, "path to config file")
	daemon := flag.Bool("daemon", false, "scan on the cron schedule and serve HTTP until interrupted")
	dryRun := flag.Bool("dry-run", false, "use built-in fixtures instead of a market data provider")
	verbose := flag.Bool("verbose", false, "debug logging and the full ranking table")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log, *daemon, *dryRun, *verbose); err != nil {
		log.Error("scanner exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger, daemon, dryRun, verbose bool) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	rules, err := cfg.RuleSet()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	universe := cfg.Universe
	var fetcher collector.Fetcher
	if dryRun {
		fetcher = collector.NewDemoFetcher()
		universe = collector.DemoUniverse()
	} else {
		c := openCache(ctx, cfg, log)
		defer c.Close()
		fetcher = collector.NewCachedFetcher(
			collector.NewGuardedFetcher(newProvider(cfg), cfg.GuardConfig(), log, m),
			c, log, m)
	}
	log.Info("value dip scanner starting",
		zap.String("data_source", fetcher.Name()),
		zap.String("rules", rules.Version),
		zap.Int("universe", len(universe)),
		zap.Bool("daemon", daemon),
		zap.Bool("dry_run", dryRun))

	col := collector.NewCollector(fetcher, cfg.Indicators.HistoryDays, cfg.Params(), log)
	sc := scanner.New(col, strategy.NewEvaluator(rules), cfg.ScannerOptions(), log, m)

	email := notifier.NewEmailNotifier(cfg.Email.Host, cfg.Email.Port, cfg.Email.Sender, cfg.Email.Password, cfg.Email.Receiver)
	tg := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.DataSource.Proxy, log)
	tg.PEField = rules.PEField
	var sinks []notifier.Notifier
	if dryRun {
		log.Info("dry run, notifications disabled")
	} else {
		sinks = []notifier.Notifier{email, tg}
	}

	sched := scheduler.NewScheduler(ctx, sc, universe, cfg.Email.Subject, sinks, log, m)
	if !daemon {
		sched.Reporters = []scheduler.Reporter{notifier.NewConsoleReporter(os.Stdout, rules, verbose)}
		sched.RunNow(ctx)
		return nil
	}
	return runDaemon(ctx, cfg, log, sched, tg, reg)
}

func runDaemon(ctx context.Context, cfg *config.Config, log *zap.Logger, sched *scheduler.Scheduler,
	tg *notifier.TelegramNotifier, reg *prometheus.Registry) error {
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tg.Configured() {
		go tg.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewRouter(api.NewHandler(sched, log), reg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, scanning now")
		sched.Trigger()
	}

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	return nil
}

// newProvider builds the upstream fetcher. Alpaca supplies bars only, so its
// fundamentals still come from Yahoo.
func newProvider(cfg *config.Config) collector.Fetcher {
	yahoo := collector.NewYahooFetcher(cfg.DataSource.Proxy)
	if cfg.DataSource.Provider == config.ProviderAlpaca {
		return collector.NewCompositeFetcher(
			collector.NewAlpacaFetcher(cfg.DataSource.AlpacaKey, cfg.DataSource.AlpacaSecret), yahoo)
	}
	return yahoo
}

// openCache falls back to the noop cache when SQLite is unavailable.
func openCache(ctx context.Context, cfg *config.Config, log *zap.Logger) cache.Cache {
	path := cfg.Cache.SQLitePath
	if path == "" {
		return cache.NewNoopCache()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			log.Warn("create cache directory failed, using noop cache", zap.Error(err))
			return cache.NewNoopCache()
		}
	}
	sc, err := cache.NewSQLiteCache(path, cfg.CacheTTL(), log)
	if err != nil {
		log.Warn("init sqlite cache failed, using noop cache", zap.Error(err))
		return cache.NewNoopCache()
	}
	if n, err := sc.Prune(ctx); err != nil {
		log.Warn("prune cache", zap.Error(err))
	} else if n > 0 {
		log.Info("pruned stale fundamentals", zap.Int64("rows", n))
	}
	return sc
}
