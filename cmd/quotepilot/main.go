// QuotePilot: a conversational travel-insurance quoting assistant.
//
// Configuration comes from the environment (optionally a .env file) with
// flag overrides. With no OPENAI_API_KEY set the deterministic template
// gateway runs alone; with no database configured state lives in memory.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/quotepilot/quotepilot/internal/api"
	"github.com/quotepilot/quotepilot/internal/flow"
	"github.com/quotepilot/quotepilot/internal/genai"
	"github.com/quotepilot/quotepilot/internal/store"
	"github.com/quotepilot/quotepilot/internal/tools"
	"github.com/quotepilot/quotepilot/internal/util"
)

const (
	defaultAPIAddr   = ":8080"
	defaultDBDriver  = "sqlite"
	defaultSQLitePth = "data/quotepilot.db"
)

type config struct {
	apiAddr             string
	dbDriver            string
	dbDSN               string
	redisAddr           string
	openaiAPIKey        string
	openaiModel         string
	confidenceThreshold float64
	pricingURL          string
	searchURL           string
	claimsURL           string
	handoffURL          string
	debug               bool
}

// loadEnvConfig reads configuration from the environment only; flag
// overrides are applied separately so this stays testable.
func loadEnvConfig() config {
	cfg := config{
		apiAddr:             util.GetEnvOrDefault("QUOTEPILOT_API_ADDR", defaultAPIAddr),
		dbDriver:            util.GetEnvOrDefault("QUOTEPILOT_DB_DRIVER", defaultDBDriver),
		dbDSN:               os.Getenv("QUOTEPILOT_DB_DSN"),
		redisAddr:           os.Getenv("QUOTEPILOT_REDIS_ADDR"),
		openaiAPIKey:        os.Getenv("OPENAI_API_KEY"),
		openaiModel:         os.Getenv("OPENAI_MODEL"),
		confidenceThreshold: util.ParseFloatEnv("QUOTEPILOT_CONFIDENCE_THRESHOLD", flow.DefaultConfidenceThreshold),
		pricingURL:          os.Getenv("QUOTEPILOT_PRICING_URL"),
		searchURL:           os.Getenv("QUOTEPILOT_SEARCH_URL"),
		claimsURL:           os.Getenv("QUOTEPILOT_CLAIMS_URL"),
		handoffURL:          os.Getenv("QUOTEPILOT_HANDOFF_URL"),
		debug:               util.ParseBoolEnv("QUOTEPILOT_DEBUG", false),
	}
	if cfg.dbDriver == "sqlite" && cfg.dbDSN == "" {
		cfg.dbDSN = defaultSQLitePth
	}
	return cfg
}

func loadConfig() config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("main.loadConfig: no .env file loaded", "error", err)
	}
	cfg := loadEnvConfig()

	flag.StringVar(&cfg.apiAddr, "addr", cfg.apiAddr, "API listen address")
	flag.StringVar(&cfg.dbDriver, "db-driver", cfg.dbDriver, "state store backend: sqlite, postgres, redis, or memory")
	flag.StringVar(&cfg.dbDSN, "db-dsn", cfg.dbDSN, "database DSN (file path for sqlite, URL for postgres)")
	flag.StringVar(&cfg.redisAddr, "redis-addr", cfg.redisAddr, "Redis address for the redis backend")
	flag.Float64Var(&cfg.confidenceThreshold, "confidence-threshold", cfg.confidenceThreshold, "intent classification gating threshold")
	flag.BoolVar(&cfg.debug, "debug", cfg.debug, "enable debug logging")
	flag.Parse()
	return cfg
}

func initializeLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func newStore(cfg config) (store.Store, error) {
	switch cfg.dbDriver {
	case "redis":
		return store.NewRedisStore(store.WithAddr(cfg.redisAddr))
	case "postgres":
		return store.NewPostgresStore(store.WithDSN(cfg.dbDSN))
	case "memory":
		return store.NewInMemoryStore(), nil
	default:
		return store.NewSQLiteStore(store.WithDSN(cfg.dbDSN))
	}
}

func newGateway(cfg config) genai.Client {
	template := genai.NewTemplateClient()
	if cfg.openaiAPIKey == "" {
		slog.Info("main.newGateway: no API key, using deterministic templates")
		return template
	}
	opts := []genai.Option{genai.WithAPIKey(cfg.openaiAPIKey)}
	if cfg.openaiModel != "" {
		opts = append(opts, genai.WithModel(cfg.openaiModel))
	}
	openaiClient, err := genai.NewOpenAIClient(opts...)
	if err != nil {
		slog.Error("main.newGateway: OpenAI client failed, using deterministic templates", "error", err)
		return template
	}
	return genai.WithFallback(openaiClient, template)
}

func newDispatcher(cfg config) *tools.Dispatcher {
	var pricing tools.PricingService = tools.NewBuiltinPricer()
	if cfg.pricingURL != "" {
		pricing = tools.NewHTTPPricer(cfg.pricingURL)
	}
	var search tools.DocumentSearchService = tools.NewBuiltinSearch()
	if cfg.searchURL != "" {
		search = tools.NewHTTPSearch(cfg.searchURL)
	}
	var claims tools.ClaimsService = tools.NewBuiltinClaims()
	if cfg.claimsURL != "" {
		claims = tools.NewHTTPClaims(cfg.claimsURL)
	}
	var handoff tools.HandoffService = tools.NewBuiltinHandoff()
	if cfg.handoffURL != "" {
		handoff = tools.NewHTTPHandoff(cfg.handoffURL)
	}
	return tools.NewDispatcher(pricing, search, claims, handoff)
}

func main() {
	cfg := loadConfig()
	initializeLogger(cfg.debug)

	st, err := newStore(cfg)
	if err != nil {
		slog.Error("main: failed to initialize state store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	engine := flow.NewEngine(st, newGateway(cfg), newDispatcher(cfg),
		flow.WithConfidenceThreshold(cfg.confidenceThreshold))
	server := api.NewServer(engine, cfg.apiAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		slog.Error("main: server exited", "error", err)
		os.Exit(1)
	}
	slog.Info("main: shutdown complete")
}
