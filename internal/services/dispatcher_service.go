package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guesthouse/roomsync/internal/clock"
	"guesthouse/roomsync/internal/common"
	"guesthouse/roomsync/internal/constants"
	"guesthouse/roomsync/internal/db/repositories"
	"guesthouse/roomsync/internal/logging"
	"guesthouse/roomsync/internal/metrics"
	"guesthouse/roomsync/internal/models/gorm"
	"guesthouse/roomsync/internal/providers"

	"go.uber.org/zap"
)

// DispatchResult describes the outcome of one Dispatch call.
type DispatchResult struct {
	QueueEntryID string     `json:"queue_entry_id"`
	Success      bool       `json:"success"`
	Skipped      bool       `json:"skipped,omitempty"`
	Status       string     `json:"status"`
	HTTPStatus   *int       `json:"http_status,omitempty"`
	DurationMs   int64      `json:"duration_ms"`
	RetryCount   int        `json:"retry_count"`
	NextRetryAt  *time.Time `json:"next_retry_at,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// DispatcherService pushes one queue entry to its channel manager and records
// the attempt.
type DispatcherService struct {
	entries    *repositories.SyncQueueRepo
	channels   *repositories.ChannelManagerRepo
	rooms      *repositories.RoomTypeRepo
	logs       *repositories.SyncLogRepo
	registry   *providers.Registry
	secrets    common.SecretStore
	limiter    *providers.ChannelLimiter
	clock      clock.Clock
	metrics    *metrics.MetricsRegistry
	propertyID string
}

func NewDispatcherService(
	entries *repositories.SyncQueueRepo,
	channels *repositories.ChannelManagerRepo,
	rooms *repositories.RoomTypeRepo,
	logs *repositories.SyncLogRepo,
	registry *providers.Registry,
	secrets common.SecretStore,
	limiter *providers.ChannelLimiter,
	clk clock.Clock,
	m *metrics.MetricsRegistry,
	propertyID string,
) *DispatcherService {
	if clk == nil {
		clk = clock.Real()
	}
	return &DispatcherService{
		entries:    entries,
		channels:   channels,
		rooms:      rooms,
		logs:       logs,
		registry:   registry,
		secrets:    secrets,
		limiter:    limiter,
		clock:      clk,
		metrics:    m,
		propertyID: propertyID,
	}
}

// attempt collects what happened during one push.
type attempt struct {
	body     []byte
	response *providers.PushResponse
	err      error
	duration time.Duration
}

// Dispatch attempts delivery of a pending entry whose retry time, if any,
// has come. Entries waiting out a retry delay return ErrEntryNotDue.
//
// An entry whose channel is inactive is left pending and reported as skipped.
// Once the entry is claimed every path writes exactly one sync log row and
// moves the entry out of processing.
func (d *DispatcherService) Dispatch(ctx context.Context, entryID string) (*DispatchResult, error) {
	return d.dispatch(ctx, entryID, false)
}

// DispatchNow is Dispatch without the retry-delay check, for operators.
func (d *DispatcherService) DispatchNow(ctx context.Context, entryID string) (*DispatchResult, error) {
	return d.dispatch(ctx, entryID, true)
}

func (d *DispatcherService) dispatch(ctx context.Context, entryID string, force bool) (*DispatchResult, error) {
	entry, err := d.entries.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}
	if entry.Status != constants.SyncStatusPending {
		return nil, fmt.Errorf("%w: %s is %s", ErrEntryNotPending, entryID, entry.Status)
	}
	if !force && entry.NextRetryAt != nil && entry.NextRetryAt.After(d.clock.Now()) {
		return nil, fmt.Errorf("%w: %s retries at %s", ErrEntryNotDue, entryID, entry.NextRetryAt.Format(time.RFC3339))
	}

	channel, err := d.channels.GetByID(ctx, entry.ChannelManagerID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, entry.ChannelManagerID)
	}

	log := logging.With("dispatcher",
		"queue_entry_id", entry.ID,
		"channel", channel.Name,
		"transport", channel.Transport)

	if !channel.IsActive {
		log.Debugw("Channel manager inactive, leaving entry pending")
		return &DispatchResult{
			QueueEntryID: entry.ID,
			Skipped:      true,
			Status:       entry.Status,
			RetryCount:   entry.RetryCount,
		}, nil
	}

	claimed, err := d.entries.Claim(ctx, entry.ID, d.clock.Now())
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, fmt.Errorf("%w: %s was claimed concurrently", ErrEntryNotPending, entryID)
	}

	// From here on the entry is ours; finish the attempt even if the caller
	// is shutting down.
	ctx = context.WithoutCancel(ctx)

	a := d.push(ctx, entry, channel)
	return d.record(ctx, log, entry, channel, a)
}

func (d *DispatcherService) push(ctx context.Context, entry *gorm.SyncQueueEntry, channel *gorm.ChannelManager) attempt {
	var a attempt

	roomName := ""
	room, err := d.rooms.GetByID(ctx, entry.RoomTypeID)
	if err != nil {
		a.err = err
		return a
	}
	if room != nil {
		roomName = room.Name
	}

	payload := providers.NewAvailabilityPayload(d.propertyID, entry.RoomTypeID, roomName, entry.AvailabilityData, entry.CreatedAt)
	a.body, err = payload.Encode()
	if err != nil {
		a.err = &providers.ProviderError{
			Code:    constants.ErrCodePayloadEncoding,
			Message: constants.GetErrorMessage(constants.ErrCodePayloadEncoding),
			Err:     err,
		}
		return a
	}

	pusher, err := d.registry.Get(channel.Transport)
	if err != nil {
		a.err = err
		return a
	}

	secret, err := d.secrets.Secret(ctx, channel.CredentialRef)
	if err != nil {
		if errors.Is(err, common.ErrSecretNotFound) {
			err = &providers.ProviderError{
				Code:    constants.ErrCodeSecretMissing,
				Message: fmt.Sprintf("%s (ref %q)", constants.GetErrorMessage(constants.ErrCodeSecretMissing), channel.CredentialRef),
				Err:     err,
			}
		}
		a.err = err
		return a
	}

	if err := d.limiter.Wait(ctx, channel.ID); err != nil {
		a.err = err
		return a
	}

	start := time.Now()
	a.response, a.err = pusher.Push(ctx, providers.PushRequest{
		ChannelID:   channel.ID,
		ChannelName: channel.Name,
		EndpointURL: channel.EndpointURL,
		Secret:      secret,
		Body:        a.body,
	})
	a.duration = time.Since(start)
	return a
}

func (d *DispatcherService) record(
	ctx context.Context,
	log *zap.SugaredLogger,
	entry *gorm.SyncQueueEntry,
	channel *gorm.ChannelManager,
	a attempt,
) (*DispatchResult, error) {
	now := d.clock.Now()
	result := &DispatchResult{
		QueueEntryID: entry.ID,
		DurationMs:   a.duration.Milliseconds(),
		RetryCount:   entry.RetryCount,
	}

	syncLog := &gorm.SyncLog{
		QueueEntryID:     entry.ID,
		ChannelManagerID: channel.ID,
		RoomTypeID:       entry.RoomTypeID,
		RequestPayload:   string(a.body),
		DurationMs:       a.duration.Milliseconds(),
		Success:          a.err == nil,
	}
	if a.response != nil {
		syncLog.ResponsePayload = a.response.Body
		if a.response.StatusCode != 0 {
			code := a.response.StatusCode
			syncLog.StatusCode = &code
			result.HTTPStatus = &code
		}
	}
	if a.err != nil {
		msg := a.err.Error()
		syncLog.ErrorMessage = &msg
		result.Error = msg
	}
	if err := d.logs.Append(ctx, syncLog); err != nil {
		// Leave the entry in processing. The retry sweep settles it as an
		// abandoned claim, which counts the attempt and writes its audit row.
		d.metrics.RecordSyncLogFailure()
		log.Errorw("Failed to write sync log, leaving entry claimed", "error", err)
		return nil, fmt.Errorf("failed to write sync log: %w", err)
	}

	transport := channel.Transport
	if a.err == nil {
		if err := d.entries.MarkSuccess(ctx, entry.ID); err != nil {
			return nil, err
		}
		if err := d.channels.RecordSuccess(ctx, channel.ID, now); err != nil {
			log.Warnw("Failed to update channel status", "error", err)
		}
		result.Success = true
		result.Status = constants.SyncStatusSuccess
		d.metrics.RecordDispatch(transport, "success", a.duration.Seconds())
		log.Infow("Availability pushed", "duration_ms", result.DurationMs)
		return result, nil
	}

	attemptNo := entry.RetryCount + 1
	result.RetryCount = attemptNo
	pe, _ := providers.AsProviderError(a.err)
	configErr := pe != nil && pe.IsConfiguration()

	if !configErr && attemptNo < channel.MaxRetries {
		next := now.Add(channel.RetryDelay())
		if err := d.entries.MarkRetry(ctx, entry.ID, attemptNo, next, result.Error); err != nil {
			return nil, err
		}
		result.Status = constants.SyncStatusPending
		result.NextRetryAt = &next
		d.metrics.RecordDispatch(transport, "retry", a.duration.Seconds())
		log.Warnw("Push failed, will retry",
			"attempt", attemptNo,
			"max_retries", channel.MaxRetries,
			"next_retry_at", next,
			"error", result.Error)
		return result, nil
	}

	if err := d.entries.MarkFailed(ctx, entry.ID, attemptNo, result.Error); err != nil {
		return nil, err
	}
	if err := d.channels.RecordFailure(ctx, channel.ID, result.Error); err != nil {
		log.Warnw("Failed to update channel status", "error", err)
	}
	result.Status = constants.SyncStatusFailed
	outcome := "failed"
	if configErr {
		outcome = "config_error"
	}
	d.metrics.RecordDispatch(transport, outcome, a.duration.Seconds())
	log.Errorw("Push failed permanently",
		"attempt", attemptNo,
		"configuration_error", configErr,
		"error", result.Error)
	return result, nil
}
