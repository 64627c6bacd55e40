package service

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/repository"
)

// DashboardService reports on the caller's own channel.
type DashboardService interface {
	Stats(ctx context.Context, channel uuid.UUID) (model.ChannelStats, error)
	Videos(ctx context.Context, channel uuid.UUID) ([]model.Video, error)
}

type DashboardServiceImpl struct {
	stats  repository.DashboardRepository
	videos repository.VideoRepository
}

func NewDashboardService(stats repository.DashboardRepository, videos repository.VideoRepository) *DashboardServiceImpl {
	return &DashboardServiceImpl{stats: stats, videos: videos}
}

func (s *DashboardServiceImpl) Stats(ctx context.Context, channel uuid.UUID) (model.ChannelStats, error) {
	return s.stats.ChannelStats(ctx, channel)
}

func (s *DashboardServiceImpl) Videos(ctx context.Context, channel uuid.UUID) ([]model.Video, error) {
	vs, err := s.videos.ListByOwner(ctx, channel)
	if err != nil {
		return nil, err
	}
	if len(vs) == 0 {
		return nil, errs.NotFound("no videos found for this channel")
	}
	return vs, nil
}
