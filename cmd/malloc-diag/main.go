// Command malloc-diag runs an allocator engine against the real process
// break and exposes its state over HTTP and HTTP/3 for inspection, with
// its growth policy hot-reloadable from a JSON file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adel-qod/malloc/internal/allocator"
	"github.com/adel-qod/malloc/internal/brk"
	"github.com/adel-qod/malloc/internal/cli"
	"github.com/adel-qod/malloc/internal/diag"
	"github.com/adel-qod/malloc/internal/engineconfig"
)

func main() {
	var (
		httpAddr   string
		h3Addr     string
		configFile string
		debug      bool
		showVer    bool
	)

	flag.StringVar(&httpAddr, "http", "127.0.0.1:8787", "plain HTTP listen address")
	flag.StringVar(&h3Addr, "http3", "127.0.0.1:8788", "HTTP/3 (UDP) listen address")
	flag.StringVar(&configFile, "config", "", "path to an engine growth-policy JSON file; watched for edits when set")
	flag.BoolVar(&debug, "debug", false, "log the loaded growth policy at debug level")
	flag.BoolVar(&showVer, "version", false, "show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Serves allocator engine diagnostics at /snapshot over HTTP and HTTP/3.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVer {
		cli.PrintVersion("malloc-diag", false)
		return
	}

	logger := cli.NewLogger(true, debug)

	cfg, err := engineconfig.Load(configFile)
	if err != nil {
		err = fmt.Errorf("loading engine config: %w", err)
	}
	cli.HandleError(err, logger)
	logger.Debug("loaded growth policy: %+v", cfg)

	engine := allocator.NewEngineWithConfig(brk.NewDefault(), cfg)

	if configFile != "" {
		watcher, err := engineconfig.Watch(configFile)
		if err != nil {
			err = fmt.Errorf("watching %s: %w", configFile, err)
		}
		cli.HandleError(err, logger)
		defer watcher.Close()

		go func() {
			for {
				select {
				case cfg, ok := <-watcher.Updates():
					if !ok {
						return
					}

					engine.ReloadConfig(cfg)
					logger.Info("reloaded engine config from %s", configFile)
				case err, ok := <-watcher.Errors():
					if !ok {
						return
					}

					logger.Warn("config watch error: %v", err)
				}
			}
		}()
	}

	srv := diag.NewServer(engine, httpAddr, h3Addr, nil, diag.Options{})
	if err := srv.Start(); err != nil {
		cli.HandleError(fmt.Errorf("starting diagnostics server: %w", err), logger)
	}

	logger.Info("serving snapshots: http://%s/snapshot (and HTTP/3 on %s)", httpAddr, h3Addr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-srv.Errors():
		logger.Error("diagnostics server error: %v", err)
	case <-sig:
		logger.Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		logger.Error("shutdown error: %v", err)
	}
}
