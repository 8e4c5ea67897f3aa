package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/myrewards/loyalty-system/internal/core/domain"
	"github.com/myrewards/loyalty-system/internal/core/ports"
)

const collectionProfiles = "profiles"

type ProfileRepository struct {
	col *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{col: db.Collection(collectionProfiles)}
}

func (r *ProfileRepository) Create(ctx context.Context, p *domain.UserProfile) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.UserProfile
	if err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &p, nil
}

// UpdateField sets a single user-editable field. Non-writable fields are
// refused here as well as in the service.
func (r *ProfileRepository) UpdateField(ctx context.Context, userID string, field domain.ProfileField, value string) (*domain.UserProfile, error) {
	if !field.Writable() {
		return nil, fmt.Errorf("%w: %s", domain.ErrFieldNotWritable, field)
	}
	return r.findAndUpdate(ctx, userID, bson.M{"$set": bson.M{string(field): value}})
}

// IncrementPoints adds one point and one visit in a single atomic update, so
// concurrent scans of the same user never lose an increment.
func (r *ProfileRepository) IncrementPoints(ctx context.Context, userID string, at time.Time) (*domain.UserProfile, error) {
	return r.findAndUpdate(ctx, userID, bson.M{
		"$inc": bson.M{"points": 1, "visits_count": 1},
		"$set": bson.M{"last_activity_at": at.UTC()},
	})
}

func (r *ProfileRepository) ResetPoints(ctx context.Context, userID string, at time.Time) (*domain.UserProfile, error) {
	return r.findAndUpdate(ctx, userID, bson.M{
		"$set": bson.M{"points": 0, "last_activity_at": at.UTC()},
	})
}

func (r *ProfileRepository) AddClaimedRewards(ctx context.Context, userID string, n int) error {
	return r.updateOne(ctx, userID, bson.M{"$inc": bson.M{"claimed_rewards_count": n}})
}

func (r *ProfileRepository) TouchLastActivity(ctx context.Context, userID string, at time.Time) error {
	return r.updateOne(ctx, userID, bson.M{"$set": bson.M{"last_activity_at": at.UTC()}})
}

func (r *ProfileRepository) ListAll(ctx context.Context) ([]domain.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find profiles: %w", err)
	}
	var out []domain.UserProfile
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return out, nil
}

// List returns one page of profiles, newest first, and the total number of
// profiles matching the filter.
func (r *ProfileRepository) List(ctx context.Context, f ports.ListProfilesFilter) ([]domain.UserProfile, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := listFilter(f)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(listSkip(f)).
		SetLimit(int64(f.Limit))
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find profiles: %w", err)
	}
	items := []domain.UserProfile{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode profiles: %w", err)
	}
	return items, total, nil
}

// listSkip bounds the page so the skip never overflows into a negative value.
func listSkip(f ports.ListProfilesFilter) int64 {
	page := f.Page
	if page < 1 {
		page = 1
	}
	if page > ports.MaxListPage {
		page = ports.MaxListPage
	}
	limit := f.Limit
	if limit < 0 {
		limit = 0
	}
	return int64(page-1) * int64(limit)
}

func listFilter(f ports.ListProfilesFilter) bson.M {
	if f.Search == "" {
		return bson.M{}
	}
	re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"name": re},
		bson.M{"email": re},
	}}
}

func (r *ProfileRepository) findAndUpdate(ctx context.Context, userID string, update bson.M) (*domain.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p domain.UserProfile
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &p, nil
}

func (r *ProfileRepository) updateOne(ctx context.Context, userID string, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "last_activity_at", Value: -1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
