package repositories

import (
	"context"
	"fmt"
	"time"

	"guesthouse/roomsync/internal/constants"

	"github.com/jmoiron/sqlx"
)

// LatestSync is the newest successful push for one channel and room type.
type LatestSync struct {
	ChannelManagerID string    `db:"channel_manager_id" json:"channel_manager_id"`
	ChannelName      string    `db:"channel_name" json:"channel_name"`
	RoomTypeID       string    `db:"room_type_id" json:"room_type_id"`
	QueueEntryID     string    `db:"queue_entry_id" json:"queue_entry_id"`
	DateFrom         time.Time `db:"date_from" json:"date_from"`
	DateTo           time.Time `db:"date_to" json:"date_to"`
	EnqueuedAt       time.Time `db:"enqueued_at" json:"enqueued_at"`
	SyncedAt         time.Time `db:"synced_at" json:"synced_at"`
}

type ChannelStatusCount struct {
	ChannelManagerID string `db:"channel_manager_id" json:"channel_manager_id"`
	ChannelName      string `db:"channel_name" json:"channel_name"`
	Status           string `db:"status" json:"status"`
	Entries          int64  `db:"entries" json:"entries"`
}

// SyncReportRepo serves read-only reconciliation reports over raw SQL.
type SyncReportRepo struct {
	db *sqlx.DB
}

func NewSyncReportRepo(db *sqlx.DB) *SyncReportRepo {
	return &SyncReportRepo{db: db}
}

func (r *SyncReportRepo) LatestSuccessful(ctx context.Context) ([]LatestSync, error) {
	rows := []LatestSync{}
	query := r.db.Rebind(constants.LatestSuccessfulSyncs)
	if err := r.db.SelectContext(ctx, &rows, query, constants.SyncStatusSuccess, constants.SyncStatusSuccess); err != nil {
		return nil, fmt.Errorf("failed to load latest syncs: %w", err)
	}
	return rows, nil
}

func (r *SyncReportRepo) ChannelSummary(ctx context.Context) ([]ChannelStatusCount, error) {
	rows := []ChannelStatusCount{}
	if err := r.db.SelectContext(ctx, &rows, constants.ChannelQueueSummary); err != nil {
		return nil, fmt.Errorf("failed to load channel summary: %w", err)
	}
	return rows, nil
}

// Ping checks the raw connection used by reports and health checks.
func (r *SyncReportRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
