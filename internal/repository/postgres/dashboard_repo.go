package postgres

import (
	"context"

	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// DashboardRepo implements DashboardRepository using PostgreSQL.
type DashboardRepo struct{ db *DB }

// NewDashboardRepo constructs a dashboard repository.
func NewDashboardRepo(db *DB) *DashboardRepo { return &DashboardRepo{db: db} }

// ChannelStats counts videos, views, likes on videos and subscribers of a channel.
func (r *DashboardRepo) ChannelStats(ctx context.Context, channel uuid.UUID) (model.ChannelStats, error) {
	const q = `
SELECT
  (SELECT count(*) FROM videos WHERE owner_id=$1),
  (SELECT COALESCE(sum(views), 0)::bigint FROM videos WHERE owner_id=$1),
  (SELECT count(*) FROM likes l JOIN videos v ON v.id = l.video_id WHERE v.owner_id=$1),
  (SELECT count(*) FROM subscriptions WHERE channel_id=$1)`
	var s model.ChannelStats
	err := r.db.Pool.QueryRow(ctx, q, channel).Scan(&s.TotalVideos, &s.TotalViews, &s.TotalLikes, &s.TotalSubscribers)
	return s, err
}
