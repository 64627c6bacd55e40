package repository

import (
	"context"

	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// SubscriptionRepository stores subscriber to channel edges.
type SubscriptionRepository interface {
	// Toggle subscribes or unsubscribes and reports the new state.
	Toggle(ctx context.Context, subscriber, channel uuid.UUID) (bool, error)
	// Subscribers lists accounts subscribed to channel.
	Subscribers(ctx context.Context, channel uuid.UUID) ([]model.OwnerSummary, error)
	// Channels lists channels subscriber follows.
	Channels(ctx context.Context, subscriber uuid.UUID) ([]model.OwnerSummary, error)
}
