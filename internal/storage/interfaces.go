package storage

import (
	"context"
	"io"

	"github.com/fawad-qureshi/solana-liquidity-depth/internal/models"
)

// DepthCache defines the interface for caching depth snapshot data
type DepthCache interface {
	// SetSnapshot stores the latest snapshot for its pair and direction
	SetSnapshot(ctx context.Context, snap *models.DepthSnapshot) error

	// GetSnapshot retrieves the latest snapshot for a pair and direction
	GetSnapshot(ctx context.Context, inputMint, outputMint, direction string) (*models.DepthSnapshot, error)

	// RecentSnapshots retrieves the most recently published snapshots
	RecentSnapshots(ctx context.Context, limit int64) ([]*models.DepthSnapshot, error)

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error

	// Close closes the cache connection
	io.Closer

	// PublishSnapshot publishes a snapshot to the Pub/Sub channels
	PublishSnapshot(ctx context.Context, snap *models.DepthSnapshot) error

	// SubscribeSnapshots subscribes to real-time snapshot events
	SubscribeSnapshots(ctx context.Context) (<-chan *models.DepthSnapshot, error)
}

// SnapshotStore defines the interface for persistent depth storage
type SnapshotStore interface {
	// InsertSnapshot writes a snapshot and its points into the store
	InsertSnapshot(ctx context.Context, snap *models.DepthSnapshot) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close closes the store connection
	io.Closer
}
