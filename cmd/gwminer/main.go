// Copyright (c) 2025 The gwminer developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or http://www.opensource.org/licenses/mit-license.php.

package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	. "github.com/minerorg/gwminer/common"
	"github.com/minerorg/gwminer/metrics"
	"github.com/minerorg/gwminer/mining"
	"github.com/minerorg/gwminer/mining/getwork"
	"github.com/minerorg/gwminer/utils"
)

const defaultConfigFilename = "gwminer.conf"

var parser *flags.Parser

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
}

func main() {

	var cfg Config
	parser = flags.NewParser(&cfg, flags.Default|flags.PassDoubleDash)

	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}

	if cfg.Version {
		fmt.Println("Version:", utils.Version)
		return
	}

	configFilepath, err := utils.GetFullPath(defaultConfigFilename)
	if err != nil {
		exitWithError("unexpected error", err)
	}
	if opt := parser.FindOptionByShortName('c'); !optionDefined(opt) && utils.FileExists(configFilepath) {
		cfg.ConfigFile = configFilepath
	}

	if cfg.ConfigFile != "" {
		if err := flags.NewIniParser(parser).ParseFile(cfg.ConfigFile); err != nil {
			exitWithError("Failed to parse configuration file", err)
		}
	}

	applyPositionals(&cfg)

	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Auth == "" {
		cfg.Auth = DefaultAuth
	}
	if cfg.Threads == 0 {
		cfg.Threads = runtime.NumCPU()
	}
	if cfg.Throttle == 0 {
		cfg.Throttle = 1.0
	}
	if cfg.ScanTime == 0 {
		cfg.ScanTime = DefaultScanTime
	}
	if cfg.RetryPause == 0 {
		cfg.RetryPause = DefaultRetryPause
	}

	client, err := getwork.NewClient(cfg.URL, cfg.Auth)
	if err != nil {
		exitWithError("Invalid node endpoint", err)
	}

	worker, _, _ := strings.Cut(cfg.Auth, ":")
	fmt.Println("\nConfiguration:")
	fmt.Printf("  URL: %s\n", cfg.URL)
	fmt.Printf("  Worker: %s\n", worker)
	fmt.Printf("  Threads: %d\n", cfg.Threads)
	fmt.Printf("  Throttle: %.2f\n", cfg.Throttle)
	fmt.Printf("  Scan time: %v\n", cfg.ScanTime)
	fmt.Printf("  Retry pause: %v\n", cfg.RetryPause)
	fmt.Print("\n\n")

	logDir, err := getLogDir(cfg.ConfigFile)
	if err != nil {
		exitWithError("failed", err)
	}
	logger := utils.CreateFileLogger(filepath.Join(logDir, "gwminer.log"))

	engine, err := mining.NewEngine(client, mining.Config{
		Threads:      cfg.Threads,
		Throttle:     cfg.Throttle,
		ScanInterval: cfg.ScanTime,
		RetryPause:   cfg.RetryPause,
	}, logger)
	if err != nil {
		exitWithError("Invalid mining configuration", err)
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("Shutting down")
		engine.Stop()
	}()

	engine.Start()
	log.Info().Msgf("%d miner threads started", cfg.Threads)

	os.Exit(watchEvents(engine))
}

// watchEvents drains the engine's notification stream until it closes,
// reporting each event the way a pool operator expects to read it. The
// return value is the process exit code.
func watchEvents(engine *mining.Engine) int {
	exitCode := 0

	// Hash rate is reported when new work arrives, at most once a second.
	meter := rate.NewLimiter(rate.Every(time.Second), 1)
	lastHashes := engine.Hashes()
	lastTime := time.Now()

	for ev := range engine.Events() {
		switch ev {
		case mining.NewWork:
			if !meter.Allow() {
				continue
			}
			hashes := engine.Hashes()
			now := time.Now()
			delta := hashes - lastHashes
			khash := float64(delta) / now.Sub(lastTime).Seconds() / 1000.0
			lastHashes, lastTime = hashes, now
			log.Info().Msgf("%d hashes, %.2f khash/s", delta, khash)
		case mining.NewBlockDetected:
			log.Info().Msg("LONGPOLL detected new block")
		case mining.LongPollEnabled:
			log.Info().Msg("Long polling activated")
		case mining.LongPollFailed:
			log.Warn().Msg("Long polling failed")
		case mining.SolutionAccepted:
			log.Info().Msg("PROOF OF WORK RESULT: true (yay!!!)")
		case mining.SolutionRejected:
			log.Warn().Msg("PROOF OF WORK RESULT: false (booooo)")
		case mining.ConnectionError:
			log.Warn().Msgf("Connection error, retrying in %ds", int(engine.RetryPause().Seconds()))
		case mining.CommunicationError:
			log.Warn().Msg("Communication error")
		case mining.AuthenticationError:
			log.Error().Msg("Invalid worker username or password")
			exitCode = 1
		case mining.PermissionError:
			log.Error().Msg("Permission denied")
			exitCode = 1
		case mining.SystemError:
			log.Error().Msg("System error")
			exitCode = 1
		case mining.Terminated:
			log.Info().Msg("Terminated")
		}
	}
	return exitCode
}

// applyPositionals keeps the classic argument order working:
// URL USERNAME:PASSWORD THREADS THROTTLE SCANTIME RETRYPAUSE.
func applyPositionals(cfg *Config) {
	if cfg.Args.URL != "" {
		cfg.URL = cfg.Args.URL
	}
	if cfg.Args.Auth != "" {
		cfg.Auth = cfg.Args.Auth
	}
	if cfg.Args.Threads > 0 {
		cfg.Threads = cfg.Args.Threads
	}
	if cfg.Args.Throttle > 0 {
		cfg.Throttle = cfg.Args.Throttle
	}
	if cfg.Args.ScanTime > 0 {
		cfg.ScanTime = time.Duration(cfg.Args.ScanTime) * time.Second
	}
	if cfg.Args.RetryPause > 0 {
		cfg.RetryPause = time.Duration(cfg.Args.RetryPause) * time.Second
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	log.Info().Msgf("Metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("metrics server failed")
	}
}

func getLogDir(configPath string) (string, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return filepath.Dir(configPath), nil
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to check config file: %w", err)
		}
	}

	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Dir(exePath), nil
}

func exitWithError(msg string, err error) {
	log.Error().Err(err).Msg(msg)
	fmt.Println()
	parser.WriteHelp(os.Stdout)
	os.Exit(1)
}

func optionDefined(opt *flags.Option) bool {
	return opt != nil && opt.IsSet()
}
