package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/cryptosim/internal/auth"
	"github.com/vadiminshakov/cryptosim/internal/domain"
	"github.com/vadiminshakov/cryptosim/internal/storage"
	"github.com/vadiminshakov/cryptosim/internal/storage/trades"
)

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Email    string             `json:"email"`
	Balance  float64            `json:"balance"`
	Holdings map[string]float64 `json:"holdings"`
}

type tradeRequest struct {
	Symbol string  `json:"symbol"`
	Side   string  `json:"side"`
	Amount float64 `json:"amount"`
	Price  float64 `json:"price"`
}

type portfolioResponse struct {
	Balance          float64            `json:"balance"`
	Holdings         map[string]float64 `json:"holdings"`
	PortfolioHistory []snapshotResponse `json:"portfolioHistory"`
}

type snapshotResponse struct {
	Timestamp        time.Time          `json:"timestamp"`
	TotalValue       float64            `json:"totalValue"`
	HoldingsSnapshot map[string]float64 `json:"holdingsSnapshot"`
}

type tradeResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"`
	Amount    float64   `json:"amount"`
	Price     float64   `json:"price"`
	Value     float64   `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
}

type achievementResponse struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

type tradeStatsResponse struct {
	TradeCount    int     `json:"tradeCount"`
	TotalVolume   float64 `json:"totalVolume"`
	UniqueSymbols int     `json:"uniqueSymbols"`
}

type profileResponse struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	Email            string                `json:"email"`
	Balance          float64               `json:"balance"`
	Holdings         map[string]float64    `json:"holdings"`
	PortfolioHistory []snapshotResponse    `json:"portfolioHistory"`
	Achievements     []achievementResponse `json:"achievements"`
	TradeStats       tradeStatsResponse    `json:"tradeStats"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		s.writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	account, token, err := s.auth.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			s.writeError(w, http.StatusConflict, "Email already registered")
			return
		}
		s.internalError(w, "signup", err)
		return
	}

	s.writeJSON(w, http.StatusCreated, authResponse{Token: token, User: toUserResponse(account)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		s.writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	account, token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.internalError(w, "login", err)
		return
	}

	s.writeJSON(w, http.StatusOK, authResponse{Token: token, User: toUserResponse(account)})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r.Context())
	s.writeJSON(w, http.StatusOK, portfolioResponse{
		Balance:          account.Balance.InexactFloat64(),
		Holdings:         toFloatMap(account.Holdings),
		PortfolioHistory: toSnapshotResponses(account.PortfolioHistory),
	})
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r.Context())

	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Symbol == "" || req.Side == "" || req.Amount == 0 || req.Price == 0 {
		s.writeError(w, http.StatusBadRequest, "symbol, side, amount, price required")
		return
	}

	order := domain.Order{
		Symbol: req.Symbol,
		Side:   domain.Side(req.Side),
		Amount: decimal.NewFromFloat(req.Amount),
		Price:  decimal.NewFromFloat(req.Price),
	}

	portfolio, err := s.ledger.ApplyTrade(r.Context(), account.ID, order)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientBalance):
			s.writeError(w, http.StatusBadRequest, "Insufficient balance")
		case errors.Is(err, domain.ErrInsufficientHoldings):
			s.writeError(w, http.StatusBadRequest, "Insufficient holdings")
		case errors.Is(err, domain.ErrInvalidRequest):
			s.writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.internalError(w, "apply trade", err)
		}
		return
	}

	s.writeJSON(w, http.StatusOK, portfolioResponse{
		Balance:          portfolio.Balance.InexactFloat64(),
		Holdings:         toFloatMap(portfolio.Holdings),
		PortfolioHistory: toSnapshotResponses(portfolio.History),
	})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r.Context())

	list, err := s.trades.ListByUser(r.Context(), account.ID, trades.DefaultHistoryLimit)
	if err != nil {
		s.internalError(w, "list trades", err)
		return
	}

	out := make([]tradeResponse, 0, len(list))
	for _, t := range list {
		out = append(out, tradeResponse{
			ID:        t.ID,
			UserID:    t.UserID,
			Symbol:    t.Symbol,
			Side:      string(t.Side),
			Amount:    t.Amount.InexactFloat64(),
			Price:     t.Price.InexactFloat64(),
			Value:     t.Value.InexactFloat64(),
			CreatedAt: t.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r.Context())

	stats, achievements, err := s.profile.Aggregate(r.Context(), account.ID)
	if err != nil {
		s.internalError(w, "aggregate profile", err)
		return
	}

	achievementsOut := make([]achievementResponse, 0, len(achievements))
	for _, a := range achievements {
		achievementsOut = append(achievementsOut, achievementResponse{
			Key:         a.Key,
			Title:       a.Title,
			Description: a.Description,
			Unlocked:    a.Unlocked,
		})
	}

	s.writeJSON(w, http.StatusOK, profileResponse{
		ID:               account.ID,
		Name:             account.Name,
		Email:            account.Email,
		Balance:          account.Balance.InexactFloat64(),
		Holdings:         toFloatMap(account.Holdings),
		PortfolioHistory: toSnapshotResponses(account.PortfolioHistory),
		Achievements:     achievementsOut,
		TradeStats: tradeStatsResponse{
			TradeCount:    stats.TradeCount,
			TotalVolume:   stats.TotalVolume.InexactFloat64(),
			UniqueSymbols: stats.UniqueSymbols,
		},
	})
}

func toUserResponse(account *domain.Account) userResponse {
	return userResponse{
		ID:       account.ID,
		Name:     account.Name,
		Email:    account.Email,
		Balance:  account.Balance.InexactFloat64(),
		Holdings: toFloatMap(account.Holdings),
	}
}

func toFloatMap(in map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(in))
	for sym, q := range in {
		out[sym] = q.InexactFloat64()
	}
	return out
}

func toSnapshotResponses(history []domain.PortfolioSnapshot) []snapshotResponse {
	out := make([]snapshotResponse, 0, len(history))
	for _, snap := range history {
		out = append(out, snapshotResponse{
			Timestamp:        snap.Timestamp,
			TotalValue:       snap.TotalValue.InexactFloat64(),
			HoldingsSnapshot: toFloatMap(snap.Holdings),
		})
	}
	return out
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"message": message})
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op, zap.Error(err))
	s.writeError(w, http.StatusInternalServerError, "internal error")
}
