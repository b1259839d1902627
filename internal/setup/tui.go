// Package setup provides the interactive first-run configuration wizard.
package setup

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/cryptosim/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard and writes config.yaml.
func RunTUI() error {
	var (
		listen          string
		storage         string
		mongoURI        string
		dbName          string
		marketProvider  string
		startingBalance string
		confirm         bool
	)

	// defaults
	listen = config.DefaultListen
	mongoURI = config.DefaultMongoURI
	dbName = config.DefaultDBName
	startingBalance = "10000"

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("CRYPTOSIM CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Practice trading, zero risk. Let's configure your server.\n"))

	fmt.Println(stepStyle.Render("STEP 1: STORAGE"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose your storage backend").
				Options(
					huh.NewOption("MongoDB (persistent)", config.StorageMongo),
					huh.NewOption("In-memory (data lost on restart)", config.StorageMemory),
				).
				Value(&storage),
		),
	).Run()
	if err != nil {
		return err
	}

	if storage == config.StorageMongo {
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Mongo URI").
					Value(&mongoURI),
				huh.NewInput().
					Title("Database name").
					Value(&dbName),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	fmt.Println(stepStyle.Render("STEP 2: MARKET DATA"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose your price feed").
				Options(
					huh.NewOption("CoinGecko (default)", config.MarketCoinGecko),
					huh.NewOption("Binance 24h ticker", config.MarketBinance),
				).
				Value(&marketProvider),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Println(stepStyle.Render("STEP 3: ACCOUNTS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen address").
				Value(&listen),
			huh.NewInput().
				Title("Starting virtual balance for new accounts").
				Validate(func(s string) error {
					balance, err := decimal.NewFromString(s)
					if err != nil {
						return fmt.Errorf("must be a decimal number")
					}
					if balance.LessThanOrEqual(decimal.Zero) {
						return fmt.Errorf("must be positive")
					}
					return nil
				}).
				Value(&startingBalance),
		),
	).Run()
	if err != nil {
		return err
	}

	file := config.File{
		Listen:          listen,
		Storage:         storage,
		MongoURI:        mongoURI,
		DBName:          dbName,
		MarketProvider:  marketProvider,
		StartingBalance: startingBalance,
	}

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Write config.yaml?").
				Affirmative("Write it").
				Negative("Cancel").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		fmt.Println("Aborted, nothing written.")
		return nil
	}

	payload, err := yaml.Marshal(file)
	if err != nil {
		return err
	}
	if err := os.WriteFile("config.yaml", payload, 0o644); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render("\nconfig.yaml written. Start the server with: cryptosim"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Remember to export JWT_SECRET (and NEWS_API_KEY for live headlines)."))
	return nil
}
