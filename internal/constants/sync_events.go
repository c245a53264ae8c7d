package constants

// Queue entry statuses
const (
	SyncStatusPending    = "pending"
	SyncStatusProcessing = "processing"
	SyncStatusSuccess    = "success"
	SyncStatusFailed     = "failed"
)

// Sources that can trigger a sync run
const (
	TriggeredByManual   = "manual"
	TriggeredByBooking  = "booking"
	TriggeredByBlackout = "blackout"
	TriggeredBySchedule = "schedule"
)

// ValidTriggeredBy reports whether s is a known trigger source.
func ValidTriggeredBy(s string) bool {
	switch s {
	case TriggeredByManual, TriggeredByBooking, TriggeredByBlackout, TriggeredBySchedule:
		return true
	}
	return false
}

// Channel manager transports
const (
	TransportAPI     = "api"
	TransportWebhook = "webhook"
)

// Redis stream carrying dispatch tasks
const (
	DispatchStream        = "channel_sync:dispatch"
	DispatchConsumerGroup = "dispatch-workers"
)

// Cache key prefix for availability snapshots
const SnapshotCachePrefix = "availability:snapshot:"
