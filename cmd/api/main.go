package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/finvella/finvella/internal/auth"
	"github.com/finvella/finvella/internal/chat"
	"github.com/finvella/finvella/internal/config"
	"github.com/finvella/finvella/internal/database"
	finvellaHttp "github.com/finvella/finvella/internal/http"
	accountHandler "github.com/finvella/finvella/internal/http/account"
	budgetHandler "github.com/finvella/finvella/internal/http/budget"
	chatHandler "github.com/finvella/finvella/internal/http/chatapi"
	expenseHandler "github.com/finvella/finvella/internal/http/expense"
	goalHandler "github.com/finvella/finvella/internal/http/goal"
	marketHandler "github.com/finvella/finvella/internal/http/marketapi"
	"github.com/finvella/finvella/internal/importer"
	"github.com/finvella/finvella/internal/market"
	"github.com/finvella/finvella/internal/session"
	"github.com/finvella/finvella/internal/store"
	"github.com/finvella/finvella/internal/store/local"
	"github.com/finvella/finvella/internal/store/remote"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Auth.JWTSecret == "" {
		slog.Error("JWT_SECRET must be set")
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	remoteStore := remote.New(db)
	if err := remoteStore.Migrate(context.Background()); err != nil {
		slog.Error("failed to migrate document store", "error", err)
		os.Exit(1)
	}

	kv, err := local.OpenKV(cfg.Local.Path)
	if err != nil {
		slog.Error("failed to open local store", "error", err)
		os.Exit(1)
	}
	defer kv.Close()

	var (
		authn    = auth.NewProvider(cfg.Auth.JWTSecret)
		registry = session.NewRegistry(
			func(uid string) store.Adapter { return remoteStore.ForUser(uid) },
			local.NewAdapter(kv),
			kv,
			slog.Default(),
		)
		chatClient = chat.NewClient(chat.Config{
			APIURL:      cfg.Chat.APIURL,
			APIKey:      cfg.Chat.APIKey,
			Model:       cfg.Chat.Model,
			Temperature: cfg.Chat.Temperature,
			MaxTokens:   cfg.Chat.MaxTokens,
		})
		marketSvc = market.NewService()
		importSvc = importer.NewService()
	)

	marketCtx, stopMarket := context.WithCancel(context.Background())
	defer stopMarket()

	go marketSvc.Run(marketCtx, cfg.Market.RefreshInterval)

	var (
		accountH = accountHandler.NewHandler(registry, authn)
		expenseH = expenseHandler.NewHandler(registry, importSvc)
		goalH    = goalHandler.NewHandler(registry)
		budgetH  = budgetHandler.NewHandler(registry)
		chatH    = chatHandler.NewHandler(registry, chatClient)
		marketH  = marketHandler.NewHandler(marketSvc)
	)

	router := finvellaHttp.New(authn, accountH, expenseH, goalH, budgetH, chatH, marketH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	registry.Shutdown()
}
