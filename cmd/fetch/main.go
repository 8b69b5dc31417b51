package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Renotrader31/ai-trading-assistant/internal/config"
	"github.com/Renotrader31/ai-trading-assistant/internal/diagnose"
	"github.com/Renotrader31/ai-trading-assistant/internal/httpx"
	"github.com/Renotrader31/ai-trading-assistant/internal/polygon"
	"github.com/Renotrader31/ai-trading-assistant/internal/quote"
)

// fetch resolves a single symbol (or runs the full diagnosis ladder) from
// the command line and prints the JSON result.
func main() {
	var symbol string
	var runDiagnosis bool
	var configPath string

	flag.StringVar(&symbol, "symbol", getenv("SYMBOL", "AMZN"), "ticker symbol to resolve")
	flag.BoolVar(&runDiagnosis, "diagnose", false, "probe every ladder rung instead of resolving")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to JSON config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.Server.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	timeout := time.Duration(cfg.Polygon.CallTimeoutSec) * time.Second
	client := polygon.NewClient(
		cfg.Polygon.APIKey,
		polygon.WithBaseURL(cfg.Polygon.BaseURL),
		polygon.WithHTTPClient(httpx.New(timeout)),
		polygon.WithTimeout(timeout),
		polygon.WithLogger(log),
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second)
	defer cancel()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	var out any
	if runDiagnosis {
		out, err = diagnose.NewProber(client, log).Diagnose(ctx, symbol)
	} else {
		out, err = quote.NewResolver(client, log).Resolve(ctx, symbol)
	}
	if err != nil {
		log.Fatalf("fetch: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encode: %v", err)
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
