package service

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/repository"
)

// SubscriptionService manages subscriber to channel edges.
type SubscriptionService interface {
	Toggle(ctx context.Context, subscriber, channel uuid.UUID) (bool, error)
	Subscribers(ctx context.Context, channel uuid.UUID) ([]model.OwnerSummary, error)
	Channels(ctx context.Context, subscriber uuid.UUID) ([]model.OwnerSummary, error)
}

type SubscriptionServiceImpl struct {
	subs repository.SubscriptionRepository
}

func NewSubscriptionService(subs repository.SubscriptionRepository) *SubscriptionServiceImpl {
	return &SubscriptionServiceImpl{subs: subs}
}

func (s *SubscriptionServiceImpl) Toggle(ctx context.Context, subscriber, channel uuid.UUID) (bool, error) {
	if subscriber == channel {
		return false, errs.Validation("cannot subscribe to your own channel")
	}
	return s.subs.Toggle(ctx, subscriber, channel)
}

func (s *SubscriptionServiceImpl) Subscribers(ctx context.Context, channel uuid.UUID) ([]model.OwnerSummary, error) {
	return s.subs.Subscribers(ctx, channel)
}

func (s *SubscriptionServiceImpl) Channels(ctx context.Context, subscriber uuid.UUID) ([]model.OwnerSummary, error) {
	return s.subs.Channels(ctx, subscriber)
}
