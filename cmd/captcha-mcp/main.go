package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/ironsheep/captcha-tools-mcp/internal/config"
	"github.com/ironsheep/captcha-tools-mcp/internal/engine"
	"github.com/ironsheep/captcha-tools-mcp/internal/server"
	"github.com/ironsheep/captcha-tools-mcp/internal/service"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	envErr := config.LoadEnv(".env")

	cfg, err := config.Parse(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if cfg.Version {
		fmt.Printf("captcha-tools-mcp %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	}

	log, err := newLog(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.Warnf("Failed to load .env: %v", envErr)
	}
	log.Debugf("Captcha MCP Server %v (built %v, commit %v)", Version, BuildTime, GitCommit)

	if err := engine.InitRuntime(cfg.ONNXRuntime); err != nil {
		// Slide matching still works without a runtime.
		log.Errorf("Failed to initialize ONNX Runtime: %v", err)
	}

	svc, err := service.New(log, service.Options{
		OCRPath:      cfg.OCRPath,
		DetPath:      cfg.DetPath,
		CharsetRange: cfg.OCRCharsetRange,
		DisableOCR:   cfg.DisableOCR,
		DisableDet:   cfg.DisableDet,
		DisableSlide: cfg.DisableSlide,
	})
	if err != nil {
		log.Criticalf("Failed to create service: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.HTTP {
		err = serveHTTP(ctx, cfg, svc, log)
	} else {
		srv := server.New(svc, log)
		srv.Version = Version
		err = srv.Run(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("Server error: %v", err)
		svc.Close()
		os.Exit(1)
	}
}

func serveHTTP(ctx context.Context, cfg *config.Config, svc *service.Service, log logs.Log) error {
	network, address := config.ParseAddress(cfg.Address)
	if network == "unix" {
		// A socket left behind by a previous run blocks Listen.
		if err := os.Remove(address); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale socket %v: %w", address, err)
		}
	}

	ln, err := net.Listen(network, address)
	if err != nil {
		return fmt.Errorf("failed to listen on %v: %w", cfg.Address, err)
	}
	return server.NewHTTP(svc, log, cfg.RateLimit).Serve(ctx, ln, 5*time.Second)
}
