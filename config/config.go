// Package config loads the simulator configuration from an optional yaml file
// with flag and environment overrides. Secrets (JWT signing key, news API
// key) come from the environment only.
package config

import (
	"flag"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/cryptosim/internal/domain"
)

// Defaults mirror the original deployment: port 5000, local Mongo, devsecret.
const (
	DefaultListen   = ":5000"
	DefaultMongoURI = "mongodb://127.0.0.1:27017"
	DefaultDBName   = "cryptosim"

	StorageMongo  = "mongo"
	StorageMemory = "memory"

	MarketCoinGecko = "coingecko"
	MarketBinance   = "binance"
)

// Config resolved runtime configuration.
type Config struct {
	Listen          string
	Storage         string
	MongoURI        string
	DBName          string
	JWTSecret       string
	TokenTTL        time.Duration
	StartingBalance decimal.Decimal
	Symbols         []string
	MarketProvider  string
	NewsAPIKey      string
	JournalDir      string
}

// File yaml-facing shape of the config. Written by the setup wizard; decimal
// values travel as strings.
type File struct {
	Listen          string        `yaml:"listen,omitempty"`
	Storage         string        `yaml:"storage,omitempty"`
	MongoURI        string        `yaml:"mongo_uri,omitempty"`
	DBName          string        `yaml:"db_name,omitempty"`
	TokenTTL        time.Duration `yaml:"token_ttl,omitempty"`
	StartingBalance string        `yaml:"starting_balance,omitempty"`
	Symbols         []string      `yaml:"symbols,omitempty"`
	MarketProvider  string        `yaml:"market_provider,omitempty"`
	JournalDir      string        `yaml:"journal_dir,omitempty"`
}

// Get parses flags, reads the yaml config when present and applies env
// overrides. The second return value reports whether the setup wizard was
// requested.
func Get() (*Config, bool, error) {
	path := flag.String("config", "config.yaml", "path to yaml config")
	listen := flag.String("listen", "", "listen address override, example :5000")
	setup := flag.Bool("setup", false, "run the interactive configuration wizard")
	flag.Parse()

	var file File
	raw, err := os.ReadFile(*path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, false, errors.Wrapf(err, "parse config %s", *path)
		}
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	default:
		return nil, false, errors.Wrapf(err, "read config %s", *path)
	}

	cfg, err := fromFile(file)
	if err != nil {
		return nil, false, err
	}

	if *listen != "" {
		cfg.Listen = *listen
	}
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		cfg.MongoURI = uri
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}
	cfg.NewsAPIKey = os.Getenv("NEWS_API_KEY")

	return cfg, *setup, nil
}

func fromFile(file File) (*Config, error) {
	cfg := &Config{
		Listen:          file.Listen,
		Storage:         file.Storage,
		MongoURI:        file.MongoURI,
		DBName:          file.DBName,
		JWTSecret:       "devsecret",
		TokenTTL:        file.TokenTTL,
		Symbols:         file.Symbols,
		MarketProvider:  file.MarketProvider,
		JournalDir:      file.JournalDir,
		StartingBalance: domain.DefaultStartingBalance,
	}

	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.Storage == "" {
		cfg.Storage = StorageMongo
	}
	if cfg.Storage != StorageMongo && cfg.Storage != StorageMemory {
		return nil, errors.Errorf("incorrect 'storage' param in yaml config: %s (expected %s or %s)",
			cfg.Storage, StorageMongo, StorageMemory)
	}
	if cfg.MongoURI == "" {
		cfg.MongoURI = DefaultMongoURI
	}
	if cfg.DBName == "" {
		cfg.DBName = DefaultDBName
	}
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = domain.DefaultSymbols
	}
	if cfg.MarketProvider == "" {
		cfg.MarketProvider = MarketCoinGecko
	}
	if cfg.MarketProvider != MarketCoinGecko && cfg.MarketProvider != MarketBinance {
		return nil, errors.Errorf("incorrect 'market_provider' param in yaml config: %s (expected %s or %s)",
			cfg.MarketProvider, MarketCoinGecko, MarketBinance)
	}

	if file.StartingBalance != "" {
		balance, err := decimal.NewFromString(file.StartingBalance)
		if err != nil {
			return nil, errors.Wrapf(err, "incorrect 'starting_balance' param in yaml config: %s", file.StartingBalance)
		}
		if balance.LessThanOrEqual(decimal.Zero) {
			return nil, errors.Errorf("'starting_balance' must be positive, got %s", file.StartingBalance)
		}
		cfg.StartingBalance = balance
	}

	return cfg, nil
}
