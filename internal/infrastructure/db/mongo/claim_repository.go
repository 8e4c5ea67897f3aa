package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionAdminClaims = "admin_claims"

// ClaimRepository stores admin capabilities apart from user profiles. The
// API never writes here; only the grant-admin command does.
type ClaimRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewClaimRepository(db *mongo.Database) *ClaimRepository {
	return &ClaimRepository{
		coll: db.Collection(collectionAdminClaims),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

type mongoClaim struct {
	UserID    string    `bson:"_id"`
	Admin     bool      `bson:"admin"`
	GrantedBy string    `bson:"granted_by"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// IsAdmin reports false, without error, for users that were never granted.
func (r *ClaimRepository) IsAdmin(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mc mongoClaim
	if err := r.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&mc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("find claim: %w", err)
	}
	return mc.Admin, nil
}

func (r *ClaimRepository) SetAdmin(ctx context.Context, userID string, admin bool, grantedBy string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"admin":      admin,
		"granted_by": grantedBy,
		"updated_at": r.now(),
	}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set claim: %w", err)
	}
	return nil
}
