package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/treeshoptech/freedom-drains-pro/api"
	"github.com/treeshoptech/freedom-drains-pro/clock"
	"github.com/treeshoptech/freedom-drains-pro/config"
	"github.com/treeshoptech/freedom-drains-pro/geocode"
	"github.com/treeshoptech/freedom-drains-pro/logging"
	"github.com/treeshoptech/freedom-drains-pro/pricing"
	"github.com/treeshoptech/freedom-drains-pro/store"
	"github.com/treeshoptech/freedom-drains-pro/tui"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/freedom-drains/config.toml)")
	serve := flag.Bool("serve", false, "run the HTTP quote API instead of the terminal editor")
	listen := flag.String("listen", "", "address for -serve (default from config, :8080)")
	dbPath := flag.String("db", "", "project database (default from config)")
	openID := flag.String("project", "", "open this project id on start")
	initConfig := flag.Bool("init-config", false, "write a starter config file and exit")
	flag.Parse()

	path := *configPath
	explicit := path != ""
	if !explicit {
		path = config.DefaultConfigPath()
	}

	if *initConfig {
		if _, err := config.Init(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Wrote", path)
		return
	}

	cfg, err := config.Load(path)
	if err != nil {
		// If using default path and file doesn't exist, use empty config
		if !explicit && errors.Is(err, os.ErrNotExist) {
			cfg = config.Config{}
		} else {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}

	if err := run(cfg, *serve, *openID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, serve bool, openID string) error {
	// The terminal editor owns the screen, so it logs to a file.
	logOpts := logging.Options{Level: cfg.ResolvedLog().Level}
	if !serve {
		logOpts.Path = cfg.ResolvedLog().Path
	}
	log, closeLog, err := logging.New(logOpts)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.ResolvedStoragePath(), store.WithLogger(log))
	if err != nil {
		return err
	}
	defer st.Close()

	if serve {
		return runServer(ctx, cfg, st, log)
	}

	var resolver geocode.Resolver
	if g := cfg.ResolvedGeocoder(); g.Token != "" {
		resolver = geocode.NewMapbox(g.Token,
			geocode.WithBaseURL(g.BaseURL),
			geocode.WithCountry(g.Country),
			geocode.WithLogger(log))
		log.Info("geocoder configured", zap.String("token", logging.MaskToken(g.Token)))
	}

	app, err := tui.NewApp(tui.Deps{
		Config:   cfg,
		Store:    st,
		Resolver: resolver,
		Logger:   log,
		Clock:    clock.SystemClock{},
		OpenID:   openID,
	})
	if err != nil {
		return err
	}
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func runServer(ctx context.Context, cfg config.Config, st store.Store, log *zap.Logger) error {
	policy, err := cfg.ResolvedPolicy()
	if err != nil {
		return err
	}
	units, err := cfg.ResolvedUnitPrices()
	if err != nil {
		return err
	}
	palette, err := cfg.ResolvedPalette()
	if err != nil {
		return err
	}

	srv := api.New(st, pricing.NewQuoter(policy, clock.SystemClock{}),
		api.WithLogger(log),
		api.WithPalette(palette),
		api.WithUnitPrices(units))

	errc := make(chan error, 1)
	go func() { errc <- srv.Listen(cfg.ResolvedListen()) }()
	log.Info("quote api listening", zap.String("addr", cfg.ResolvedListen()))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		return srv.Shutdown()
	}
}
