package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/myrewards/loyalty-system/internal/core/domain"
)

const collectionCredentials = "credentials"

type CredentialRepository struct {
	coll *mongo.Collection
}

func NewCredentialRepository(db *mongo.Database) *CredentialRepository {
	return &CredentialRepository{coll: db.Collection(collectionCredentials)}
}

type mongoCredential struct {
	UserID       string `bson:"_id"`
	Email        string `bson:"email"`
	PasswordHash string `bson:"password_hash"`
	Disabled     bool   `bson:"disabled"`
	CreatedAt    int64  `bson:"created_at"`
}

func (r *CredentialRepository) Create(ctx context.Context, c *domain.Credential) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoCredential{
		UserID:       c.UserID,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Disabled:     c.Disabled,
		CreatedAt:    c.CreatedAt.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mc mongoCredential
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&mc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}

	return &domain.Credential{
		UserID:       mc.UserID,
		Email:        mc.Email,
		PasswordHash: mc.PasswordHash,
		Disabled:     mc.Disabled,
		CreatedAt:    unixToTime(mc.CreatedAt),
	}, nil
}

// EnsureIndexes makes email unique, which is what turns a second signup into
// ErrUserExists.
func (r *CredentialRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
