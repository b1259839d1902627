// Package trades persists the append-only log of executed trades.
package trades

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vadiminshakov/cryptosim/internal/domain"
)

const tradesCollection = "trades"

// DefaultHistoryLimit maximum records returned for history views.
const DefaultHistoryLimit = 50

// MongoStore stores one immutable document per executed trade.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore creates the store over db's trades collection.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(tradesCollection)}
}

// EnsureIndexes creates the user_id/created_at index backing history queries.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return errors.Wrap(err, "create trades index")
}

// Append inserts one trade record. Storage failures propagate to the caller.
func (s *MongoStore) Append(ctx context.Context, trade domain.Trade) error {
	if _, err := s.col.InsertOne(ctx, encodeTrade(trade)); err != nil {
		return errors.Wrap(err, "insert trade")
	}
	return nil
}

// ListByUser returns the user's trades newest first. A non-positive limit
// returns the full history (used for statistics aggregation).
func (s *MongoStore) ListByUser(ctx context.Context, userID string, limit int64) ([]domain.Trade, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find trades")
	}
	defer cur.Close(ctx)

	var out []domain.Trade
	for cur.Next(ctx) {
		var doc tradeDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode trade")
		}
		trade, err := decodeTrade(&doc)
		if err != nil {
			return nil, err
		}
		out = append(out, trade)
	}
	return out, errors.Wrap(cur.Err(), "iterate trades")
}

type tradeDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Symbol    string    `bson:"symbol"`
	Side      string    `bson:"side"`
	Amount    string    `bson:"amount"`
	Price     string    `bson:"price"`
	Value     string    `bson:"value"`
	CreatedAt time.Time `bson:"created_at"`
}

func encodeTrade(t domain.Trade) *tradeDoc {
	return &tradeDoc{
		ID:        t.ID,
		UserID:    t.UserID,
		Symbol:    t.Symbol,
		Side:      string(t.Side),
		Amount:    t.Amount.String(),
		Price:     t.Price.String(),
		Value:     t.Value.String(),
		CreatedAt: t.CreatedAt,
	}
}

func decodeTrade(doc *tradeDoc) (domain.Trade, error) {
	amount, err := decimal.NewFromString(doc.Amount)
	if err != nil {
		return domain.Trade{}, errors.Wrapf(err, "decode trade amount %q", doc.Amount)
	}
	price, err := decimal.NewFromString(doc.Price)
	if err != nil {
		return domain.Trade{}, errors.Wrapf(err, "decode trade price %q", doc.Price)
	}
	value, err := decimal.NewFromString(doc.Value)
	if err != nil {
		return domain.Trade{}, errors.Wrapf(err, "decode trade value %q", doc.Value)
	}
	return domain.Trade{
		ID:        doc.ID,
		UserID:    doc.UserID,
		Symbol:    doc.Symbol,
		Side:      domain.Side(doc.Side),
		Amount:    amount,
		Price:     price,
		Value:     value,
		CreatedAt: doc.CreatedAt,
	}, nil
}
