// Command dnsforward runs the caching DNS forwarder: a UDP listener,
// a DoH listener, and the dispatcher/forwarder pipeline that sits
// between them and the upstream resolver.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/duskrelay/dnsforward/internal/cache"
	"github.com/duskrelay/dnsforward/internal/config"
	"github.com/duskrelay/dnsforward/internal/forwarder"
	"github.com/duskrelay/dnsforward/internal/logging"
	"github.com/duskrelay/dnsforward/internal/store"
	"github.com/duskrelay/dnsforward/internal/transport/doh"
	"github.com/duskrelay/dnsforward/internal/transport/udp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	configPath string
	storePath  string
	debug      bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "Path to YAML config file (optional)")
	flag.StringVar(&f.storePath, "store", "", "Path to SQLite settings store (optional; overrides config store_path)")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flag.Parse()
	return f
}

func run() error {
	flags := parseFlags()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flags.storePath != "" {
		cfg.StorePath = flags.storePath
	}
	if flags.debug {
		cfg.Logging.Level = "DEBUG"
	}

	var settings *store.Store
	if cfg.StorePath != "" {
		settings, err = store.Open(cfg.StorePath)
		if err != nil {
			return fmt.Errorf("opening settings store: %w", err)
		}
		defer settings.Close()
		if err := settings.ApplyTo(cfg); err != nil {
			return fmt.Errorf("applying persisted settings: %w", err)
		}
		if err := settings.SaveConfig(cfg); err != nil {
			return fmt.Errorf("saving effective settings: %w", err)
		}
	}
	// Applied again after the store so a persisted level cannot
	// override the flag.
	if flags.debug {
		cfg.Logging.Level = "DEBUG"
	}

	logger := logging.Configure(logging.Config{
		Level:      cfg.Logging.Level,
		Structured: cfg.Logging.Structured,
		Format:     cfg.Logging.Format,
	})
	logger.Info("dnsforward starting",
		"upstream", cfg.UpstreamAddr,
		"udp_listen", cfg.UDPListen,
		"doh_listen", cfg.DoHListen,
		"upstream_timeout_ms", cfg.UpstreamTimeoutMS,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := cache.New()
	fwdReqs := make(chan forwarder.ForwardRequest, forwarder.QueueCapacity)
	dispatcher := forwarder.New(c, fwdReqs, logger)

	numWorkers := 8
	for range numWorkers {
		w := forwarder.NewWorker(cfg.UpstreamAddr, logger)
		w.Timeout = cfg.UpstreamTimeout()
		go w.Run(ctx, fwdReqs)
	}

	udpTransport := &udp.Transport{Dispatch: dispatcher, Log: logger}
	go func() {
		if err := udpTransport.ListenAndServe(ctx, cfg.UDPListen); err != nil {
			logger.Error("udp transport exited", "err", err)
			cancel()
		}
	}()

	dohTransport := doh.New(dispatcher, logger)
	go func() {
		if err := dohTransport.ListenAndServe(ctx, cfg.DoHListen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("doh transport exited", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("dnsforward shutting down")
	return nil
}
