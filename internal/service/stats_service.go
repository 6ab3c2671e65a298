package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/store"
)

// StatsService aggregates a user's finished tasks into daily and monthly
// completed/expired counts.
type StatsService interface {
	GetStats(ctx context.Context, userID uuid.UUID) (domain.Stats, error)
}

// StatsServiceImpl implements StatsService
type StatsServiceImpl struct {
	taskStore store.TaskStore
	logger    *slog.Logger
}

var _ StatsService = (*StatsServiceImpl)(nil)

// NewStatsService creates a new StatsService
func NewStatsService(taskStore store.TaskStore, logger *slog.Logger) (*StatsServiceImpl, error) {
	if taskStore == nil {
		return nil, fmt.Errorf("taskStore cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsServiceImpl{
		taskStore: taskStore,
		logger:    logger.With(slog.String("component", "stats_service")),
	}, nil
}

// GetStats implements StatsService.GetStats
func (s *StatsServiceImpl) GetStats(ctx context.Context, userID uuid.UUID) (domain.Stats, error) {
	tasks, err := s.taskStore.ListFinished(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load finished tasks",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return domain.Stats{}, fmt.Errorf("failed to get stats: %w", err)
	}
	return domain.AggregateStats(tasks), nil
}
