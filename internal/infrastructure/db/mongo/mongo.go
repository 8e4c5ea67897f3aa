package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultTimeout = 10 * time.Second

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// Repositories bundles every collection-backed store of the service.
type Repositories struct {
	Credentials *CredentialRepository
	Claims      *ClaimRepository
	Profiles    *ProfileRepository
	Scans       *ScanRepository
}

func NewRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		Credentials: NewCredentialRepository(db),
		Claims:      NewClaimRepository(db),
		Profiles:    NewProfileRepository(db),
		Scans:       NewScanRepository(db),
	}
}

// EnsureIndexes creates the indexes of every collection. The claim collection
// is keyed by _id and needs none.
func (r *Repositories) EnsureIndexes(ctx context.Context) error {
	if err := r.Credentials.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("credential indexes: %w", err)
	}
	if err := r.Profiles.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("profile indexes: %w", err)
	}
	if err := r.Scans.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("scan indexes: %w", err)
	}
	return nil
}
