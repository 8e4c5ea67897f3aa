package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/myrewards/loyalty-system/internal/core/domain"
)

const collectionScanEvents = "scan_events"

// ScanRepository is the append-only scan audit trail.
type ScanRepository struct {
	col *mongo.Collection
}

func NewScanRepository(db *mongo.Database) *ScanRepository {
	return &ScanRepository{col: db.Collection(collectionScanEvents)}
}

func (r *ScanRepository) Record(ctx context.Context, e *domain.ScanEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := *e
	doc.Timestamp = e.Timestamp.UTC()
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert scan event: %w", err)
	}
	return nil
}

// ListSince returns the events at or after since, oldest first.
func (r *ScanRepository) ListSince(ctx context.Context, since time.Time) ([]domain.ScanEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"timestamp": bson.M{"$gte": since.UTC()}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find scan events: %w", err)
	}

	var out []domain.ScanEvent
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode scan events: %w", err)
	}
	return out, nil
}

func (r *ScanRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"timestamp": bson.M{"$gte": since.UTC()}})
	if err != nil {
		return 0, fmt.Errorf("count scan events: %w", err)
	}
	return n, nil
}

func (r *ScanRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
