package postgres

import (
	"context"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// SubscriptionRepo implements SubscriptionRepository using PostgreSQL.
type SubscriptionRepo struct{ db *DB }

// NewSubscriptionRepo constructs a subscription repository.
func NewSubscriptionRepo(db *DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

// Toggle subscribes when no edge exists and unsubscribes otherwise.
func (r *SubscriptionRepo) Toggle(ctx context.Context, subscriber, channel uuid.UUID) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM subscriptions WHERE subscriber_id=$1 AND channel_id=$2`, subscriber, channel)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}
	_, err = r.db.Pool.Exec(ctx, `INSERT INTO subscriptions (subscriber_id, channel_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, subscriber, channel)
	if isForeignKeyViolation(err) {
		return false, errs.NotFound("channel not found")
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Subscribers lists accounts following channel.
func (r *SubscriptionRepo) Subscribers(ctx context.Context, channel uuid.UUID) ([]model.OwnerSummary, error) {
	const q = `
SELECT u.id, u.username, u.full_name, u.avatar
FROM subscriptions s JOIN users u ON u.id = s.subscriber_id
WHERE s.channel_id=$1
ORDER BY s.created_at DESC`
	return r.summaries(ctx, q, channel)
}

// Channels lists channels subscriber follows.
func (r *SubscriptionRepo) Channels(ctx context.Context, subscriber uuid.UUID) ([]model.OwnerSummary, error) {
	const q = `
SELECT u.id, u.username, u.full_name, u.avatar
FROM subscriptions s JOIN users u ON u.id = s.channel_id
WHERE s.subscriber_id=$1
ORDER BY s.created_at DESC`
	return r.summaries(ctx, q, subscriber)
}

func (r *SubscriptionRepo) summaries(ctx context.Context, q string, id uuid.UUID) ([]model.OwnerSummary, error) {
	rows, err := r.db.Pool.Query(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.OwnerSummary{}
	for rows.Next() {
		var s model.OwnerSummary
		if err := rows.Scan(&s.ID, &s.Username, &s.FullName, &s.Avatar); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
