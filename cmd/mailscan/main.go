package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/YKarmar/ApplicationTracker/internal/classifier"
	"github.com/YKarmar/ApplicationTracker/internal/config"
	"github.com/YKarmar/ApplicationTracker/internal/exporter"
	"github.com/YKarmar/ApplicationTracker/internal/logger"
	"github.com/YKarmar/ApplicationTracker/internal/mailbox"
	"github.com/YKarmar/ApplicationTracker/internal/scanner"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	// 凭据放在 security.env 中
	cfg, err := config.Load(*configPath, "security.env", ".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.ValidateScan(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("mail scan failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	// 不额外设置超时，只响应 Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := mailbox.Options{
		Host:     cfg.IMAP.Host,
		UseTLS:   cfg.IMAP.UseTLS,
		Username: cfg.IMAP.Email,
		Password: cfg.IMAP.Password,
	}
	if cfg.IMAP.OAuthTokenFile != "" {
		opts.Token = mailbox.NewFileTokenSource(
			cfg.IMAP.OAuthTokenFile,
			cfg.IMAP.OAuthClientID,
			cfg.IMAP.OAuthClientSecret,
			cfg.IMAP.Provider,
		)
	}

	log.Info("connecting to mailbox",
		zap.String("email", cfg.IMAP.Email),
		zap.String("host", cfg.IMAP.Host),
		zap.Bool("oauth", opts.Token != nil),
	)

	session, err := mailbox.Open(ctx, opts, log)
	if err != nil {
		return err
	}
	defer session.Close()

	recorder := exporter.NewJSONRecorder(cfg.Export.File)
	sc := scanner.New(session, classifier.New(cfg.Scan.ATSDomain), recorder, log)

	records, err := sc.Run(ctx, mailbox.FetchQuery{
		Folder: cfg.IMAP.Folder,
		Sender: cfg.Scan.Sender,
		Since:  config.ParseDateLoose(cfg.Scan.Since, time.Time{}),
		Limit:  cfg.Scan.Limit,
	})
	if err != nil {
		return err
	}

	stats := exporter.Summarize(records, 5)
	log.Info("mail scan finished",
		zap.String("output", cfg.Export.File),
		zap.Int("total", stats.Total),
		zap.Any("by_status", stats.ByStatus),
		zap.Any("top_companies", stats.TopCompanies),
	)

	if cfg.Export.CSV != "" && len(records) > 0 {
		if err := exporter.NewCSVExporter(cfg.Export.CSV).Export(records); err != nil {
			log.Error("failed to export csv", zap.String("file", cfg.Export.CSV), zap.Error(err))
		} else {
			log.Info("csv exported", zap.String("file", cfg.Export.CSV))
		}
	}

	return nil
}
