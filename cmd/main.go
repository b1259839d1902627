// Command cryptosim runs the practice trading API server. Users get a virtual
// cash balance at signup and trade simulated BTC, ETH, USDT, BNB and SOL at
// client-supplied prices; real market data is fetched best-effort for display.
//
// Usage:
//
//	cryptosim --config config.yaml
//	cryptosim --setup   (interactive configuration wizard)
//
// Environment variables:
//
//	JWT_SECRET    token signing key (default devsecret)
//	MONGO_URI     overrides the configured Mongo connection string
//	NEWS_API_KEY  enables live headlines from NewsAPI
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/adshao/go-binance/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/cryptosim/config"
	"github.com/vadiminshakov/cryptosim/internal/auth"
	"github.com/vadiminshakov/cryptosim/internal/ledger"
	"github.com/vadiminshakov/cryptosim/internal/market"
	"github.com/vadiminshakov/cryptosim/internal/profile"
	"github.com/vadiminshakov/cryptosim/internal/setup"
	"github.com/vadiminshakov/cryptosim/internal/storage/accounts"
	"github.com/vadiminshakov/cryptosim/internal/storage/journal"
	"github.com/vadiminshakov/cryptosim/internal/storage/trades"
	"github.com/vadiminshakov/cryptosim/internal/web"
)

func main() {
	cfg, runSetup, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}
	if runSetup {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		accountStore interface {
			auth.AccountStore
			ledger.AccountStore
		}
		tradeStore interface {
			ledger.TradeStore
			profile.TradeStore
		}
	)

	switch cfg.Storage {
	case config.StorageMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			logger.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		defer client.Disconnect(context.Background())
		if err := client.Ping(ctx, nil); err != nil {
			logger.Fatal("failed to ping MongoDB", zap.Error(err))
		}

		db := client.Database(cfg.DBName)
		mongoAccounts := accounts.NewMongoStore(db)
		if err := mongoAccounts.EnsureIndexes(ctx); err != nil {
			logger.Fatal("failed to create account indexes", zap.Error(err))
		}
		mongoTrades := trades.NewMongoStore(db)
		if err := mongoTrades.EnsureIndexes(ctx); err != nil {
			logger.Fatal("failed to create trade indexes", zap.Error(err))
		}
		accountStore, tradeStore = mongoAccounts, mongoTrades
		logger.Info("connected to MongoDB", zap.String("db", cfg.DBName))
	case config.StorageMemory:
		accountStore, tradeStore = accounts.NewMemoryStore(), trades.NewMemoryStore()
		logger.Info("using in-memory storage, data is lost on restart")
	}

	auditJournal, err := journal.NewWALStore(cfg.JournalDir)
	if err != nil {
		logger.Fatal("failed to open trade journal", zap.Error(err))
	}
	defer auditJournal.Close()

	var prices market.PriceProvider
	switch cfg.MarketProvider {
	case config.MarketBinance:
		prices = market.NewBinancePricer(binance.NewClient("", ""))
	default:
		prices = market.NewCoinGeckoClient()
	}

	authService := auth.NewService(accountStore, cfg.JWTSecret, cfg.TokenTTL, cfg.StartingBalance, cfg.Symbols)
	tradeLedger := ledger.New(accountStore, tradeStore, auditJournal, logger)
	aggregator := profile.NewAggregator(tradeStore)
	marketService := market.NewService(prices, market.NewNewsClient(cfg.NewsAPIKey), logger)

	server := web.NewServer(cfg.Listen, authService, tradeLedger, tradeStore, aggregator, marketService, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx)
	})

	logger.Info("cryptosim started",
		zap.String("listen", cfg.Listen),
		zap.String("storage", cfg.Storage),
		zap.String("market_provider", cfg.MarketProvider))

	if err := g.Wait(); err != nil {
		logger.Error(err.Error())
	}
}
