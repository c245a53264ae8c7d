package repositories

import (
	"context"
	"testing"
	"time"

	"guesthouse/roomsync/internal/constants"
	"guesthouse/roomsync/internal/db/dbtest"
	"guesthouse/roomsync/internal/inventory"
	"guesthouse/roomsync/internal/models"
	"guesthouse/roomsync/internal/models/gorm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlib "gorm.io/gorm"
)

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := inventory.ParseDay(s)
	require.NoError(t, err)
	return d
}

func seedRoom(t *testing.T, db *gormlib.DB, units ...string) *gorm.RoomType {
	t.Helper()
	room := &gorm.RoomType{Name: "Deluxe", UnitNumbers: models.StringList(units)}
	require.NoError(t, NewRoomTypeRepo(db).Create(context.Background(), room))
	return room
}

func seedChannel(t *testing.T, db *gormlib.DB, name string, active bool) *gorm.ChannelManager {
	t.Helper()
	ch := &gorm.ChannelManager{
		Name:        name,
		Transport:   constants.TransportWebhook,
		EndpointURL: "http://example.invalid/" + name,
		IsActive:    active,
	}
	require.NoError(t, NewChannelManagerRepo(db).Create(context.Background(), ch))
	return ch
}

func seedEntry(t *testing.T, db *gormlib.DB, ch *gorm.ChannelManager, room *gorm.RoomType) *gorm.SyncQueueEntry {
	t.Helper()
	e := &gorm.SyncQueueEntry{
		ChannelManagerID: ch.ID,
		RoomTypeID:       room.ID,
		DateFrom:         mustDay(t, "2025-07-10"),
		DateTo:           mustDay(t, "2025-07-13"),
		AvailabilityData: models.AvailabilityMap{"2025-07-10": 2},
		TriggeredBy:      constants.TriggeredByManual,
	}
	require.NoError(t, NewSyncQueueRepo(db).Create(context.Background(), e))
	return e
}

func TestRoomTypeRepo_GetByID(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRoomTypeRepo(db)
	room := seedRoom(t, db, "101", "102")

	got, err := repo.GetByID(context.Background(), room.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"101", "102"}, []string(got.UnitNumbers))

	missing, err := repo.GetByID(context.Background(), "00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBookingRepo_ListActiveInWindow(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	room := seedRoom(t, db, "101", "102")
	other := seedRoom(t, db, "201")

	unit := "101"
	bookings := []gorm.Booking{
		{RoomTypeID: room.ID, CheckIn: mustDay(t, "2025-07-08"), CheckOut: mustDay(t, "2025-07-11"), Status: inventory.StatusConfirmed, AllocatedUnitNumber: &unit},
		{RoomTypeID: room.ID, CheckIn: mustDay(t, "2025-07-12"), CheckOut: mustDay(t, "2025-07-14"), Status: inventory.StatusPending,
			Units: []gorm.BookingUnit{{UnitNumber: "101"}, {UnitNumber: "102"}}},
		{RoomTypeID: room.ID, CheckIn: mustDay(t, "2025-07-10"), CheckOut: mustDay(t, "2025-07-12"), Status: inventory.StatusCancelled},
		// ends on the window start: check-out day is free
		{RoomTypeID: room.ID, CheckIn: mustDay(t, "2025-07-05"), CheckOut: mustDay(t, "2025-07-10"), Status: inventory.StatusConfirmed},
		{RoomTypeID: other.ID, CheckIn: mustDay(t, "2025-07-10"), CheckOut: mustDay(t, "2025-07-12"), Status: inventory.StatusConfirmed},
	}
	for i := range bookings {
		require.NoError(t, db.Create(&bookings[i]).Error)
	}

	got, err := NewBookingRepo(db).ListActiveInWindow(ctx, room.ID, mustDay(t, "2025-07-10"), mustDay(t, "2025-07-13"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, bookings[0].ID, got[0].ID)
	assert.Equal(t, bookings[1].ID, got[1].ID)
	assert.Len(t, got[1].Units, 2)
	assert.ElementsMatch(t, []string{"101", "102"}, got[1].Stay().Units)
}

func TestBlackoutRepo_AddIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	repo := NewBlackoutRepo(db)
	room := seedRoom(t, db, "101")
	date := mustDay(t, "2025-10-02")

	created, err := repo.Add(ctx, &gorm.BlackoutDate{RoomTypeID: room.ID, Date: date})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Add(ctx, &gorm.BlackoutDate{RoomTypeID: room.ID, Date: date.Add(5 * time.Hour)})
	require.NoError(t, err)
	assert.False(t, created, "whole-room blackout on the same day should not duplicate")

	unit := " 101 "
	created, err = repo.Add(ctx, &gorm.BlackoutDate{RoomTypeID: room.ID, Date: date, UnitNumber: &unit})
	require.NoError(t, err)
	assert.True(t, created)

	list, err := repo.ListInWindow(ctx, room.ID, date, date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, list, 2)

	removed, err := repo.Remove(ctx, room.ID, nil, date)
	require.NoError(t, err)
	assert.True(t, removed)

	list, err = repo.ListInWindow(ctx, room.ID, date, date.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].UnitNumber)
	assert.Equal(t, "101", *list[0].UnitNumber)
}

func TestChannelManagerRepo_ListActiveAndRecord(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	repo := NewChannelManagerRepo(db)
	on := seedChannel(t, db, "alpha", true)
	seedChannel(t, db, "beta", false)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, on.ID, active[0].ID)

	at := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordSuccess(ctx, on.ID, at))
	require.NoError(t, repo.RecordFailure(ctx, on.ID, "HTTP 503"))

	got, err := repo.GetByID(ctx, on.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastSyncAt)
	assert.True(t, got.LastSyncAt.Equal(at))
	assert.Equal(t, constants.SyncStatusFailed, *got.LastSyncStatus)
	assert.Equal(t, "HTTP 503", *got.LastSyncError)
}

func TestSyncQueueRepo_ClaimIsExclusive(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	repo := NewSyncQueueRepo(db)
	entry := seedEntry(t, db, seedChannel(t, db, "alpha", true), seedRoom(t, db, "1"))
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	ok, err := repo.Claim(ctx, entry.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Claim(ctx, entry.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.MarkRetry(ctx, entry.ID, 1, now.Add(time.Minute), "HTTP 503"))
	got, err := repo.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.SyncStatusPending, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	require.NotNil(t, got.NextRetryAt)
	assert.True(t, got.NextRetryAt.Equal(now.Add(time.Minute)))
	assert.Equal(t, map[string]int{"2025-07-10": 2}, map[string]int(got.AvailabilityData))

	assert.Error(t, repo.MarkFailed(ctx, entry.ID, 2, "not claimed"), "only processing entries may transition")
}

func TestSyncQueueRepo_ListDue(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	repo := NewSyncQueueRepo(db)
	room := seedRoom(t, db, "1")
	active := seedChannel(t, db, "alpha", true)
	inactive := seedChannel(t, db, "beta", false)
	now := time.Now().UTC()

	due := seedEntry(t, db, active, room)
	future := seedEntry(t, db, active, room)
	fresh := seedEntry(t, db, active, room)
	orphan := seedEntry(t, db, active, room)
	onInactive := seedEntry(t, db, inactive, room)

	past := now.Add(-time.Minute)
	later := now.Add(time.Hour)
	old := now.Add(-10 * time.Minute)
	require.NoError(t, db.Model(due).Update("next_retry_at", past).Error)
	require.NoError(t, db.Model(future).Update("next_retry_at", later).Error)
	require.NoError(t, db.Model(orphan).Update("created_at", old).Error)
	require.NoError(t, db.Model(onInactive).Update("next_retry_at", past).Error)

	got, err := repo.ListDue(ctx, now, 2*time.Minute, 10)
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	assert.ElementsMatch(t, []string{due.ID, orphan.ID}, ids)
	assert.NotContains(t, ids, fresh.ID)
}

func TestSyncQueueRepo_Counts(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	repo := NewSyncQueueRepo(db)
	room := seedRoom(t, db, "1")
	ch := seedChannel(t, db, "alpha", true)
	now := time.Now().UTC()

	a := seedEntry(t, db, ch, room)
	seedEntry(t, db, ch, room)
	ok, err := repo.Claim(ctx, a.ID, now.Add(-time.Hour))
	require.NoError(t, err)
	require.True(t, ok)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[constants.SyncStatusPending])
	assert.Equal(t, int64(1), counts[constants.SyncStatusProcessing])
	assert.Equal(t, int64(0), counts[constants.SyncStatusFailed])

	stale, err := repo.CountStaleProcessing(ctx, now.Add(-10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stale)
}

func TestSyncLogRepo_AppendAndList(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	repo := NewSyncLogRepo(db)
	entry := seedEntry(t, db, seedChannel(t, db, "alpha", true), seedRoom(t, db, "1"))

	code := 503
	for i := 0; i < 2; i++ {
		require.NoError(t, repo.Append(ctx, &gorm.SyncLog{
			QueueEntryID:     entry.ID,
			ChannelManagerID: entry.ChannelManagerID,
			RoomTypeID:       entry.RoomTypeID,
			RequestPayload:   `{"a":1}`,
			StatusCode:       &code,
		}))
	}

	logs, err := repo.ListByEntry(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, `{"a":1}`, logs[0].RequestPayload)
	assert.Equal(t, 503, *logs[1].StatusCode)
}

func TestSyncReportRepo_LatestSuccessful(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	queue := NewSyncQueueRepo(db)
	room := seedRoom(t, db, "1")
	ch := seedChannel(t, db, "alpha", true)
	now := time.Now().UTC()

	older := seedEntry(t, db, ch, room)
	newer := seedEntry(t, db, ch, room)
	pending := seedEntry(t, db, ch, room)
	require.NoError(t, db.Model(older).Update("created_at", now.Add(-2*time.Hour)).Error)
	require.NoError(t, db.Model(newer).Update("created_at", now.Add(-time.Hour)).Error)
	require.NoError(t, db.Model(pending).Update("created_at", now).Error)

	for _, e := range []*gorm.SyncQueueEntry{newer, older} {
		ok, err := queue.Claim(ctx, e.ID, now)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, queue.MarkSuccess(ctx, e.ID))
	}

	rows, err := NewSyncReportRepo(dbtest.SQLX(t, db)).LatestSuccessful(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, newer.ID, rows[0].QueueEntryID)
	assert.Equal(t, "alpha", rows[0].ChannelName)
	assert.Equal(t, "2025-07-10", inventory.FormatDay(rows[0].DateFrom))

	summary, err := NewSyncReportRepo(dbtest.SQLX(t, db)).ChannelSummary(ctx)
	require.NoError(t, err)
	assert.Len(t, summary, 2)
}

func TestSyncQueueRepo_ReleaseStaleProcessing(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	repo := NewSyncQueueRepo(db)
	room := seedRoom(t, db, "1")
	ch := seedChannel(t, db, "alpha", true)
	now := time.Now().UTC()

	stale := seedEntry(t, db, ch, room)
	recent := seedEntry(t, db, ch, room)
	_, err := repo.Claim(ctx, stale.ID, now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = repo.Claim(ctx, recent.ID, now)
	require.NoError(t, err)

	res, err := repo.ReleaseStaleProcessing(ctx, now.Add(-10*time.Minute), now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Retried)
	assert.Equal(t, int64(0), res.Failed)

	got, err := repo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.SyncStatusPending, got.Status)
	require.NotNil(t, got.NextRetryAt)
	assert.Equal(t, 1, got.RetryCount)
	require.NotNil(t, got.LastError)
	assert.Equal(t, AbandonedClaimError, *got.LastError)

	logs, err := NewSyncLogRepo(db).ListByEntry(ctx, stale.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.False(t, logs[0].Success)
	require.NotNil(t, logs[0].ErrorMessage)
	assert.Equal(t, AbandonedClaimError, *logs[0].ErrorMessage)

	got, err = repo.GetByID(ctx, recent.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.SyncStatusProcessing, got.Status)
}

func TestSyncQueueRepo_ReleaseStaleProcessing_LastAttemptIsTerminal(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	repo := NewSyncQueueRepo(db)
	room := seedRoom(t, db, "1")
	ch := seedChannel(t, db, "alpha", true)
	require.NoError(t, db.Model(ch).Update("max_retries", 1).Error)
	now := time.Now().UTC()

	e := seedEntry(t, db, ch, room)
	_, err := repo.Claim(ctx, e.ID, now.Add(-time.Hour))
	require.NoError(t, err)

	res, err := repo.ReleaseStaleProcessing(ctx, now.Add(-10*time.Minute), now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Failed)

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.SyncStatusFailed, got.Status)
	assert.Equal(t, 1, got.RetryCount)

	// nothing left to release
	res, err = repo.ReleaseStaleProcessing(ctx, now.Add(-10*time.Minute), now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Retried+res.Failed)

	channel, err := NewChannelManagerRepo(db).GetByID(ctx, ch.ID)
	require.NoError(t, err)
	require.NotNil(t, channel.LastSyncStatus)
	assert.Equal(t, constants.SyncStatusFailed, *channel.LastSyncStatus)
}
