package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
)

var engineLog *log.Logger

func main() {
	engineLogFile, moduleLogFile, modLog := setupLogging()
	defer engineLogFile.Close()
	defer moduleLogFile.Close()

	if err := godotenv.Load(); err != nil {
		engineLog.Printf("No .env file loaded, using environment variables")
	}

	cfg, err := LoadConfig()
	if err != nil {
		engineLog.Fatalf("Invalid configuration: %v", err)
	}

	logger := &moduleLogger{logger: modLog}
	gen := buildGenerator(cfg, logger)

	os.Exit(run(cfg, gen, logger))
}

func setupLogging() (engineLogFile, moduleLogFile *os.File, modLog *log.Logger) {
	var err error

	engineLogFile, err = os.OpenFile("engine.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatalf("Failed to open engine log file: %v", err)
	}
	engineLog = log.New(io.MultiWriter(os.Stdout, engineLogFile), "", log.LstdFlags)

	moduleLogFile, err = os.OpenFile("ephoto.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		engineLog.Fatalf("Failed to open module log file: %v", err)
	}
	modLog = log.New(io.MultiWriter(os.Stdout, moduleLogFile), "", log.LstdFlags)

	return engineLogFile, moduleLogFile, modLog
}

func buildGenerator(cfg *Config, logger Logger) *Generator {
	if cfg.InstallBrowser {
		engineLog.Printf("Installing playwright driver and Chromium...")
		if err := InstallBrowser(); err != nil {
			engineLog.Fatalf("Failed to install browser: %v", err)
		}
	}

	var proxies *ProxyPool
	if cfg.ProxyFile != "" {
		var err error
		proxies, err = LoadProxyPool(cfg.ProxyFile)
		if err != nil {
			engineLog.Fatalf("Failed to load proxies: %v", err)
		}
		engineLog.Printf("Loaded %d proxies", proxies.Count())
	}

	proxyURL, display := "", "direct"
	if cfg.Proxy != "" {
		proxyURL, display, _ = parseProxyLine(cfg.Proxy)
	} else if proxies != nil {
		proxyURL, display = proxies.Pick()
	}
	engineLog.Printf("Search client proxy: %s", display)

	markers := DefaultMarkers
	if cfg.BlockMarkersFile != "" {
		var err error
		markers, err = LoadMarkers(cfg.BlockMarkersFile)
		if err != nil {
			engineLog.Fatalf("Failed to load block markers: %v", err)
		}
		engineLog.Printf("Loaded %d block markers", len(markers))
	}
	detector := NewDetector(markers)

	var resolver Resolver
	switch cfg.Resolver {
	case resolverSite:
		resolver = NewSiteSearchResolver(detector, cfg.SiteBase, cfg.NavigationTimeout)
	default:
		client, err := NewClient(nil, proxyURL, int(cfg.SearchTimeout.Seconds()))
		if err != nil {
			engineLog.Fatalf("Failed to create search client: %v", err)
		}
		resolver = NewJinaResolver(client, logger, cfg.JinaBase, cfg.SiteBase, GetJinaAPIKey(), cfg.SearchTimeout)
	}

	var sessionProxy string
	if cfg.Proxy != "" {
		sessionProxy = proxyURL
	}
	launcher := NewPlaywrightLauncher(BrowserConfig{
		Headless:    cfg.Headless,
		Hardened:    cfg.Hardened,
		Proxy:       sessionProxy,
		Proxies:     proxies,
		UserAgent:   cfg.UserAgent,
		LaunchFlags: cfg.LaunchFlags,
		Delayer:     NewHumanDelay(cfg.MinDelay, cfg.MaxDelay),
	})

	engineLog.Printf("Resolver: %s, headless: %v, delay: %v-%v", resolver.Name(), cfg.Headless, cfg.MinDelay, cfg.MaxDelay)

	return NewGenerator(GeneratorDeps{
		Launcher:          launcher,
		Resolver:          resolver,
		Detector:          detector,
		Submitter:         NewSubmitter(cfg.SiteBase, cfg.SubmitTimeout),
		Logger:            logger,
		NavigationTimeout: cfg.NavigationTimeout,
		RequestTimeout:    cfg.RequestTimeout,
	})
}

// run generates once when called as "ephoto <text> <style>", otherwise serves the front-end.
func run(cfg *Config, gen *Generator, logger Logger) int {
	if len(os.Args) == 3 {
		res := gen.Generate(context.Background(), os.Args[1], os.Args[2])
		fmt.Println(res.LogText())
		if !res.OK() {
			return 1
		}
		fmt.Println(res.ImageURL())
		return 0
	}
	if len(os.Args) != 1 {
		engineLog.Printf("Usage: ephoto [<text> <style>]\nExamples:\n  ephoto            (serve on HOST:PORT)\n  ephoto Alex neon  (generate once)")
		return 2
	}

	engineLog.Printf("Serving on %s", cfg.Addr())
	if err := NewServer(gen, logger).ListenAndServe(cfg.Addr()); err != nil {
		engineLog.Printf("Server stopped: %v", err)
		return 1
	}
	return 0
}
