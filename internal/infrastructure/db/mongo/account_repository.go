package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
)

const accountsCollection = "accounts"

// AccountRepository implements ports.AccountRepository on MongoDB. Every call
// is bounded by the configured timeout.
type AccountRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewAccountRepository(db *mongo.Database, timeout time.Duration) *AccountRepository {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &AccountRepository{coll: db.Collection(accountsCollection), timeout: timeout}
}

type mongoAccount struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password_hash,omitempty"`
	ExternalID   string             `bson:"external_id,omitempty"`
	AuthKind     string             `bson:"auth_kind"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func toMongoAccount(a *domain.Account) mongoAccount {
	return mongoAccount{
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
		ExternalID:   a.ExternalID,
		AuthKind:     string(a.AuthKind),
		CreatedAt:    a.CreatedAt.UTC(),
		UpdatedAt:    a.UpdatedAt.UTC(),
	}
}

func (m mongoAccount) toDomain() *domain.Account {
	return &domain.Account{
		ID:           m.ID.Hex(),
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		ExternalID:   m.ExternalID,
		AuthKind:     domain.AuthKind(m.AuthKind),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

// Insert stores a new account. The unique indexes on username and external_id
// turn concurrent duplicates into domain.ErrDuplicateKey.
func (r *AccountRepository) Insert(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc := toMongoAccount(account)
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, translateError("insert account", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert account: %w: unexpected id type %T", domain.ErrStorage, res.InsertedID)
	}
	doc.ID = id
	return doc.toDomain(), nil
}

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.findOne(ctx, "find account by username", bson.M{"username": username})
}

func (r *AccountRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.Account, error) {
	return r.findOne(ctx, "find account by external id", bson.M{"external_id": externalID})
}

// FindByID treats an id that is not a valid ObjectID as unknown.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, "find account by id", bson.M{"_id": oid})
}

func (r *AccountRepository) findOne(ctx context.Context, op string, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc mongoAccount
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translateError(op, err)
	}
	return doc.toDomain(), nil
}

// UpdatePasswordHash rotates the hash of a local account.
func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"_id": oid, "auth_kind": string(domain.AuthKindLocal)}
	update := bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return translateError("update password hash", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// EnsureIndexes creates the uniqueness constraints the services rely on.
// external_id is sparse so local accounts, which omit it, never collide.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("username_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "external_id", Value: 1}},
			Options: options.Index().SetName("external_id_unique").SetUnique(true).SetSparse(true),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("ensure account indexes: %w", err)
	}
	return nil
}
