package accounts

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vadiminshakov/cryptosim/internal/domain"
	"github.com/vadiminshakov/cryptosim/internal/storage"
)

const usersCollection = "users"

// MongoStore stores one document per account in the users collection.
// Portfolio writes are conditional on the stored version so that concurrent
// trades against the same account never both apply.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore creates the store over db's users collection.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(usersCollection)}
}

// EnsureIndexes creates the unique email index. Call once at startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return errors.Wrap(err, "create email index")
}

// Create inserts a new account, failing with storage.ErrEmailTaken on a
// duplicate email.
func (s *MongoStore) Create(ctx context.Context, account *domain.Account) error {
	doc, err := encodeAccount(account)
	if err != nil {
		return err
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrEmailTaken
		}
		return errors.Wrap(err, "insert account")
	}
	return nil
}

// FindByID loads the account by its identifier.
func (s *MongoStore) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// FindByEmail loads the account registered under email.
func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	var doc accountDoc
	if err := s.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "find account")
	}
	return decodeAccount(&doc)
}

// ApplyPortfolio persists the post-trade portfolio in a single update that
// only matches when the stored version equals expectedVersion. A lost race
// surfaces as storage.ErrVersionConflict.
func (s *MongoStore) ApplyPortfolio(ctx context.Context, id string, p domain.Portfolio, expectedVersion int64) error {
	holdings := make(map[string]string, len(p.Holdings))
	for sym, q := range p.Holdings {
		holdings[sym] = q.String()
	}
	history := make([]snapshotDoc, 0, len(p.History))
	for _, snap := range p.History {
		history = append(history, encodeSnapshot(snap))
	}

	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": id, "version": expectedVersion},
		bson.M{
			"$set": bson.M{
				"balance":           p.Balance.String(),
				"holdings":          holdings,
				"portfolio_history": history,
			},
			"$inc": bson.M{"version": int64(1)},
		},
	)
	if err != nil {
		return errors.Wrap(err, "update portfolio")
	}
	if res.MatchedCount == 0 {
		n, err := s.col.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return errors.Wrap(err, "check account existence")
		}
		if n == 0 {
			return storage.ErrNotFound
		}
		return storage.ErrVersionConflict
	}
	return nil
}

type accountDoc struct {
	ID               string            `bson:"_id"`
	Name             string            `bson:"name"`
	Email            string            `bson:"email"`
	Password         string            `bson:"password"`
	CreatedAt        time.Time         `bson:"created_at"`
	Balance          string            `bson:"balance"`
	Holdings         map[string]string `bson:"holdings"`
	PortfolioHistory []snapshotDoc     `bson:"portfolio_history"`
	Version          int64             `bson:"version"`
}

type snapshotDoc struct {
	Timestamp  time.Time         `bson:"timestamp"`
	TotalValue string            `bson:"total_value"`
	Holdings   map[string]string `bson:"holdings"`
}

func encodeAccount(a *domain.Account) (*accountDoc, error) {
	holdings := make(map[string]string, len(a.Holdings))
	for sym, q := range a.Holdings {
		holdings[sym] = q.String()
	}
	history := make([]snapshotDoc, 0, len(a.PortfolioHistory))
	for _, snap := range a.PortfolioHistory {
		history = append(history, encodeSnapshot(snap))
	}
	return &accountDoc{
		ID:               a.ID,
		Name:             a.Name,
		Email:            a.Email,
		Password:         a.PasswordHash,
		CreatedAt:        a.CreatedAt,
		Balance:          a.Balance.String(),
		Holdings:         holdings,
		PortfolioHistory: history,
		Version:          a.Version,
	}, nil
}

func encodeSnapshot(s domain.PortfolioSnapshot) snapshotDoc {
	holdings := make(map[string]string, len(s.Holdings))
	for sym, q := range s.Holdings {
		holdings[sym] = q.String()
	}
	return snapshotDoc{
		Timestamp:  s.Timestamp,
		TotalValue: s.TotalValue.String(),
		Holdings:   holdings,
	}
}

func decodeAccount(doc *accountDoc) (*domain.Account, error) {
	balance, err := decimal.NewFromString(doc.Balance)
	if err != nil {
		return nil, errors.Wrapf(err, "decode balance %q", doc.Balance)
	}
	holdings, err := decodeHoldings(doc.Holdings)
	if err != nil {
		return nil, err
	}
	history := make([]domain.PortfolioSnapshot, 0, len(doc.PortfolioHistory))
	for _, snap := range doc.PortfolioHistory {
		decoded, err := decodeSnapshot(snap)
		if err != nil {
			return nil, err
		}
		history = append(history, decoded)
	}
	return &domain.Account{
		ID:               doc.ID,
		Name:             doc.Name,
		Email:            doc.Email,
		PasswordHash:     doc.Password,
		CreatedAt:        doc.CreatedAt,
		Balance:          balance,
		Holdings:         holdings,
		PortfolioHistory: history,
		Version:          doc.Version,
	}, nil
}

func decodeSnapshot(doc snapshotDoc) (domain.PortfolioSnapshot, error) {
	total, err := decimal.NewFromString(doc.TotalValue)
	if err != nil {
		return domain.PortfolioSnapshot{}, errors.Wrapf(err, "decode snapshot value %q", doc.TotalValue)
	}
	holdings, err := decodeHoldings(doc.Holdings)
	if err != nil {
		return domain.PortfolioSnapshot{}, err
	}
	return domain.PortfolioSnapshot{
		Timestamp:  doc.Timestamp,
		TotalValue: total,
		Holdings:   holdings,
	}, nil
}

func decodeHoldings(in map[string]string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(in))
	for sym, q := range in {
		quantity, err := decimal.NewFromString(q)
		if err != nil {
			return nil, errors.Wrapf(err, "decode holding %s=%q", sym, q)
		}
		out[sym] = quantity
	}
	return out, nil
}
