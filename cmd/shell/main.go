package main

import (
	"log/slog"
	"os"

	"github.com/justsurfingit/jobhunter/internal/config"
	"github.com/justsurfingit/jobhunter/internal/shell"
	flag "github.com/spf13/pflag"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	flag.StringVar(&cfg.Shell.ListenAddr, "addr", cfg.Shell.ListenAddr, "address the embedded view listens on")
	flag.Parse()

	settings := shell.DefaultSettings()
	settings.JavaScriptEnabled = cfg.Shell.JavaScript
	settings.DOMStorageEnabled = cfg.Shell.DOMStorage
	settings.UseWideViewPort = cfg.Shell.WideViewport
	settings.LoadWithOverviewMode = cfg.Shell.WideViewport

	sh, err := shell.New(cfg.Shell.URL, settings)
	if err != nil {
		slog.Error("failed to create shell", "error", err)
		os.Exit(1)
	}

	slog.Info("loading app in embedded view", "url", cfg.Shell.URL, "addr", cfg.Shell.ListenAddr)
	if err := sh.Handler().Run(cfg.Shell.ListenAddr); err != nil {
		slog.Error("shell failed", "error", err)
		os.Exit(1)
	}
}
