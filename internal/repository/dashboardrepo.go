package repository

import (
	"context"

	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// DashboardRepository aggregates channel counters.
type DashboardRepository interface {
	ChannelStats(ctx context.Context, channel uuid.UUID) (model.ChannelStats, error)
}
