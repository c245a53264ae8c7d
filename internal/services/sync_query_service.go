package services

import (
	"context"
	"fmt"

	"guesthouse/roomsync/internal/db/repositories"
	"guesthouse/roomsync/internal/models/gorm"
)

// SyncQueryService backs the read-only admin endpoints.
type SyncQueryService struct {
	entries  *repositories.SyncQueueRepo
	logs     *repositories.SyncLogRepo
	channels *repositories.ChannelManagerRepo
	reports  *repositories.SyncReportRepo
}

func NewSyncQueryService(
	entries *repositories.SyncQueueRepo,
	logs *repositories.SyncLogRepo,
	channels *repositories.ChannelManagerRepo,
	reports *repositories.SyncReportRepo,
) *SyncQueryService {
	return &SyncQueryService{
		entries:  entries,
		logs:     logs,
		channels: channels,
		reports:  reports,
	}
}

func (s *SyncQueryService) ListEntries(ctx context.Context, filter repositories.SyncQueueFilter) ([]gorm.SyncQueueEntry, error) {
	return s.entries.List(ctx, filter)
}

// EntryLogs returns ErrEntryNotFound for an unknown entry rather than an
// empty list.
func (s *SyncQueryService) EntryLogs(ctx context.Context, entryID string) ([]gorm.SyncLog, error) {
	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}
	return s.logs.ListByEntry(ctx, entryID)
}

func (s *SyncQueryService) LatestSuccessful(ctx context.Context) ([]repositories.LatestSync, error) {
	return s.reports.LatestSuccessful(ctx)
}

func (s *SyncQueryService) Channels(ctx context.Context) ([]gorm.ChannelManager, error) {
	return s.channels.List(ctx)
}

func (s *SyncQueryService) ChannelSummary(ctx context.Context) ([]repositories.ChannelStatusCount, error) {
	return s.reports.ChannelSummary(ctx)
}
