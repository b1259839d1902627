// Package web exposes the HTTP API: auth, portfolio, trading, profile and the
// market feeds. Handlers translate between JSON payloads and domain types;
// all trading rules live in the ledger.
package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vadiminshakov/cryptosim/internal/domain"
	"github.com/vadiminshakov/cryptosim/internal/market"
)

type authService interface {
	Signup(ctx context.Context, name, email, password string) (*domain.Account, string, error)
	Login(ctx context.Context, email, password string) (*domain.Account, string, error)
	Authenticate(ctx context.Context, token string) (*domain.Account, error)
}

type tradeLedger interface {
	ApplyTrade(ctx context.Context, userID string, order domain.Order) (domain.Portfolio, error)
}

type tradeReader interface {
	ListByUser(ctx context.Context, userID string, limit int64) ([]domain.Trade, error)
}

type profileAggregator interface {
	Aggregate(ctx context.Context, userID string) (domain.TradeStats, []domain.Achievement, error)
}

type marketFeed interface {
	Prices(ctx context.Context) []market.CoinPrice
	News(ctx context.Context) []market.NewsItem
}

// Server serves the HTTP API.
type Server struct {
	Addr string

	auth    authService
	ledger  tradeLedger
	trades  tradeReader
	profile profileAggregator
	market  marketFeed
	logger  *zap.Logger
}

// NewServer creates the API server. A nil logger is replaced with a nop.
func NewServer(addr string, auth authService, ledger tradeLedger, trades tradeReader,
	profile profileAggregator, market marketFeed, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Addr:    addr,
		auth:    auth,
		ledger:  ledger,
		trades:  trades,
		profile: profile,
		market:  market,
		logger:  logger,
	}
}

// Handler returns the routed handler, also used directly by tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/portfolio", s.requireAuth(s.handlePortfolio))
	mux.HandleFunc("POST /api/trade", s.requireAuth(s.handleTrade))
	mux.HandleFunc("GET /api/trades", s.requireAuth(s.handleTrades))
	mux.HandleFunc("GET /api/profile", s.requireAuth(s.handleProfile))
	mux.HandleFunc("GET /api/market/prices", s.handlePrices)
	mux.HandleFunc("GET /api/market/news", s.handleNews)
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http server listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type contextKey struct{}

var accountKey contextKey

// requireAuth resolves the bearer token to an account before the handler runs.
// Missing or invalid credentials end the request with 401.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			s.writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		account, err := s.auth.Authenticate(r.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), accountKey, account)))
	}
}

func accountFrom(ctx context.Context) *domain.Account {
	account, _ := ctx.Value(accountKey).(*domain.Account)
	return account
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "CryptoSim API"})
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.market.Prices(r.Context()))
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.market.News(r.Context()))
}
